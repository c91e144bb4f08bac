// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives streaming conversations with the agent service.
//
// The controller owns one streaming request per user turn. Parsed events
// update the message store (for the displayed thread), the buffer registry
// (for every thread, displayed or not), and on terminal events the history
// store. The status state machine is:
//
//	threadPending → responsePending → {contentPending | metadataPending}
//	                                → complete | failed
//
// Navigating away never cancels a stream; the active-thread guard in the
// message store makes its writes no-ops while the buffer registry keeps
// accumulating, so the terminal event can still assemble full history.
package session

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/agentchat-tui/internal/agent"
	"github.com/jeranaias/agentchat-tui/internal/buffer"
	"github.com/jeranaias/agentchat-tui/internal/history"
	"github.com/jeranaias/agentchat-tui/internal/store"
	"github.com/jeranaias/agentchat-tui/internal/thread"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSendPending means a turn is already streaming; retry and send are
	// unavailable until it settles.
	ErrSendPending = errors.New("a message is already pending")

	// ErrEmptyMessage means there is no content to send.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrThrottled means sends are arriving faster than the rate limit.
	ErrThrottled = errors.New("sending too fast, slow down")

	// ErrNothingToRetry means the current thread has no user message or no
	// server thread id to replay against.
	ErrNothingToRetry = errors.New("nothing to retry")
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller.
type Options struct {
	// CleanlabEnabled is the default per-thread trust-scoring toggle.
	CleanlabEnabled bool

	// SendInterval is the minimum spacing between sends (default 1s).
	SendInterval time.Duration

	// SendBurst is how many sends may arrive back-to-back (default 5).
	SendBurst int
}

// Controller coordinates streams, stores and history for one client.
type Controller struct {
	client  *agent.Client
	store   *store.Store
	buffers *buffer.Registry
	history *history.Store
	limiter *rate.Limiter

	mu       sync.Mutex
	cleanlab bool

	// OnUpdate, when set, is called after every state change so the UI can
	// re-render. It must be safe to call from any goroutine.
	OnUpdate func()
}

// NewController wires a controller from its collaborators.
func NewController(client *agent.Client, st *store.Store, buffers *buffer.Registry, hist *history.Store, opts Options) *Controller {
	interval := opts.SendInterval
	if interval <= 0 {
		interval = time.Second
	}
	burst := opts.SendBurst
	if burst <= 0 {
		burst = 5
	}
	return &Controller{
		client:   client,
		store:    st,
		buffers:  buffers,
		history:  hist,
		limiter:  rate.NewLimiter(rate.Every(interval), burst),
		cleanlab: opts.CleanlabEnabled,
	}
}

// Store returns the controller's message store.
func (c *Controller) Store() *store.Store {
	return c.store
}

// History returns the controller's history store.
func (c *Controller) History() *history.Store {
	return c.history
}

// CleanlabEnabled returns the current trust-scoring toggle.
func (c *Controller) CleanlabEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleanlab
}

// SetCleanlabEnabled flips the trust-scoring toggle for subsequent turns.
func (c *Controller) SetCleanlabEnabled(enabled bool) {
	c.mu.Lock()
	c.cleanlab = enabled
	c.mu.Unlock()
}

func (c *Controller) notify() {
	if c.OnUpdate != nil {
		c.OnUpdate()
	}
}

// =============================================================================
// SENDING
// =============================================================================

// SendMessage submits one user turn. When the current thread already has a
// server thread id the turn continues it; otherwise a fresh thread id is
// minted client-side and the server adopts it. The stream itself runs on
// its own goroutine; completion is observed through OnUpdate and the store.
func (c *Controller) SendMessage(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	if c.store.IsPending() {
		return ErrSendPending
	}
	if !c.limiter.Allow() {
		return ErrThrottled
	}

	cleanlab := c.CleanlabEnabled()
	cur := c.store.CurrentThread()

	var threadID, localThreadID string
	var messages []thread.Message
	if cur != nil && cur.ThreadID != "" {
		threadID = cur.ThreadID
		localThreadID = cur.LocalThreadID
		messages = cur.Messages
		cleanlab = cur.CleanlabEnabled
		// Prior turns must survive into the record the terminal event will
		// assemble, even if the user navigates away mid-stream.
		c.buffers.SeedFromMessages(threadID, messages)
	} else {
		// The client mints the thread id; the server adopts it from the
		// thread_id parameter.
		threadID = thread.NewLocalID()
		localThreadID = threadID
	}

	userMsg := thread.NewUserMessage(content)
	userMsg.IsPending = true
	placeholder := thread.NewPendingAssistantMessage()

	messages = append(thread.CloneMessages(messages), userMsg, placeholder)
	c.store.SetCurrentThread(&thread.CurrentThread{
		ThreadID:        threadID,
		LocalThreadID:   localThreadID,
		Messages:        messages,
		Status:          thread.StatusThreadPending,
		IsPending:       true,
		CleanlabEnabled: cleanlab,
	})

	settled := userMsg.Clone()
	settled.IsPending = false
	c.buffers.AppendUser(threadID, settled)

	c.history.Add(history.Thread{
		ID:            threadID,
		LocalThreadID: localThreadID,
		Title:         userMsg.Preview(50),
		Snapshot: []thread.Message{
			settled,
			{LocalID: "assistant", Role: thread.RoleAssistant, Content: "", Metadata: thread.Metadata{}},
		},
		Messages:        c.buffers.Snapshot(threadID),
		CleanlabEnabled: cleanlab,
	})

	c.notify()
	go c.runStream(ctx, threadID, localThreadID, content, cleanlab)
	return nil
}

// Retry replays the last user message against the same thread id. A fresh
// pending placeholder is injected so the UI shows the loading state, and
// the buffer is seeded from the current messages so no prior turn is lost.
func (c *Controller) Retry(ctx context.Context) error {
	if c.store.IsPending() {
		return ErrSendPending
	}

	cur := c.store.CurrentThread()
	if cur == nil || cur.ThreadID == "" {
		return ErrNothingToRetry
	}
	lastUser := cur.LastUserMessage()
	if lastUser == nil || lastUser.Content == "" {
		return ErrNothingToRetry
	}
	if !c.limiter.Allow() {
		return ErrThrottled
	}

	c.buffers.SeedFromMessages(cur.ThreadID, cur.Messages)
	c.store.AppendMessage(cur.ThreadID, thread.NewPendingAssistantMessage())
	c.store.SetThreadStatus(store.StatusUpdate{
		ThreadID:      cur.ThreadID,
		LocalThreadID: cur.LocalThreadID,
		Status:        thread.StatusThreadPending,
		SetError:      true, // clears the previous failure
	})

	c.notify()
	go c.runStream(ctx, cur.ThreadID, cur.LocalThreadID, lastUser.Content, cur.CleanlabEnabled)
	return nil
}

// =============================================================================
// STREAM LOOP
// =============================================================================

// runStream performs the streaming POST and pumps events until a terminal
// state. It runs on its own goroutine; every store write goes through the
// active-thread guard, so a backgrounded stream only reaches the buffers.
func (c *Controller) runStream(ctx context.Context, threadID, localThreadID, content string, cleanlab bool) {
	c.setStatus(threadID, localThreadID, thread.StatusResponsePending, true, nil)

	stream, err := c.client.StreamMessage(ctx, agent.StreamRequest{
		ThreadID:        threadID,
		Content:         content,
		CleanlabEnabled: cleanlab,
	})
	if err != nil {
		c.fail(threadID, localThreadID, cleanlab, requestError(err))
		return
	}
	defer stream.Close()

	lastStatus := thread.StatusResponsePending
	for {
		ev, err := stream.Next()
		if err == io.EOF {
			// The server ended the stream without a terminal event.
			c.fail(threadID, localThreadID, cleanlab, thread.ErrorForStatus(lastStatus))
			return
		}
		if err != nil {
			c.fail(threadID, localThreadID, cleanlab, thread.ErrorForStatus(lastStatus))
			return
		}

		switch ev.Name {
		case agent.EventRunInProgress:
			lastStatus = thread.StatusResponsePending
			c.setStatus(threadID, localThreadID, lastStatus, false, nil)

		case agent.EventMessage:
			payload, perr := agent.ParseMessagePayload(ev.Data)
			if perr != nil {
				// Framing noise is transient; skip the block and read on.
				log.Printf("session: skipping unparseable stream data: %v", perr)
				continue
			}
			if status := c.handleMessage(threadID, payload.Data); status != "" {
				lastStatus = status
			}

		case agent.EventRunCompleted:
			c.writeHistory(threadID, localThreadID, cleanlab)
			c.buffers.Clear(threadID)
			c.setStatus(threadID, localThreadID, thread.StatusComplete, true, nil)
			return

		case agent.EventRunFailed:
			c.fail(threadID, localThreadID, cleanlab, &thread.ThreadError{
				Message:  "Run failed",
				CanRetry: true,
			})
			return
		}
	}
}

// handleMessage routes one thread.message event and returns the status it
// moved the thread to ("" when the event carried no status change).
func (c *Controller) handleMessage(threadID string, data agent.MessageData) thread.Status {
	switch data.Role {
	case thread.RoleTool:
		msg := thread.NewToolMessage(data.ContentText(), data.Metadata)
		msg.ID = data.ID
		c.store.AppendMessage(threadID, msg)
		c.buffers.AppendTool(threadID, msg)
		c.mirrorHistory(threadID)
		c.notify()
		return ""

	case thread.RoleAssistant:
		msg := thread.NewAssistantMessage(data.ContentText(), data.Metadata)
		msg.ID = data.ID
		c.store.AppendMessage(threadID, msg)
		c.buffers.AppendAssistantChunk(threadID, msg)
		c.mirrorHistory(threadID)

		// Text still streaming in while content is empty; once it lands,
		// only the scoring metadata is outstanding.
		status := thread.StatusContentPending
		if msg.Content != "" {
			status = thread.StatusMetadataPending
		}
		c.setStatus(threadID, "", status, false, nil)
		return status

	default:
		return ""
	}
}

// =============================================================================
// TERMINAL HANDLING
// =============================================================================

// fail settles a stream in the failed state. The buffer's contents are
// still written to history first so nothing streamed is lost.
func (c *Controller) fail(threadID, localThreadID string, cleanlab bool, terr *thread.ThreadError) {
	c.writeHistory(threadID, localThreadID, cleanlab)
	c.buffers.Clear(threadID)
	c.setStatus(threadID, localThreadID, thread.StatusFailed, true, terr)
}

func (c *Controller) setStatus(threadID, localThreadID string, status thread.Status, setError bool, terr *thread.ThreadError) {
	c.store.SetThreadStatus(store.StatusUpdate{
		ThreadID:      threadID,
		LocalThreadID: localThreadID,
		Status:        status,
		Error:         terr,
		SetError:      setError,
	})
	c.notify()
}

// mirrorHistory keeps the inactive-thread preview current while a stream
// runs. Best-effort: a failed write must never interrupt streaming.
func (c *Controller) mirrorHistory(threadID string) {
	messages := c.buffers.Snapshot(threadID)
	if len(messages) == 0 {
		return
	}
	patch := history.Patch{Messages: messages}
	if preview := previewSnapshot(messages); preview != nil {
		patch.Snapshot = preview
	}
	c.history.Update(threadID, "", patch)
}

// previewSnapshot builds the lightweight two-message preview (first user
// turn plus the latest assistant turn) stored on history entries. Nil when
// the thread has no user turn yet.
func previewSnapshot(messages []thread.Message) []thread.Message {
	var firstUser, latestAssistant *thread.Message
	for i := range messages {
		if messages[i].Role == thread.RoleUser {
			firstUser = &messages[i]
			break
		}
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == thread.RoleAssistant {
			latestAssistant = &messages[i]
			break
		}
	}
	if firstUser == nil {
		return nil
	}
	snapshot := []thread.Message{firstUser.Clone()}
	if latestAssistant != nil {
		snapshot = append(snapshot, latestAssistant.Clone())
	}
	return snapshot
}

// writeHistory persists the thread on a terminal event. The live thread is
// preferred only when it still matches the stream's thread id and has
// messages; otherwise the buffer is the trusted source, protecting against
// the user having navigated elsewhere mid-stream.
func (c *Controller) writeHistory(threadID, localThreadID string, cleanlab bool) {
	var messages []thread.Message
	if cur := c.store.CurrentThread(); cur.Matches(threadID, "") && len(cur.Messages) > 0 {
		messages = cur.Messages
	} else {
		messages = c.buffers.Snapshot(threadID)
	}
	if len(messages) == 0 {
		return
	}

	snapshot := previewSnapshot(messages)
	if snapshot == nil {
		return
	}

	// Settle transient flags; history is always "settled".
	settled := thread.CloneMessages(messages)
	for i := range settled {
		settled[i].IsPending = false
		settled[i].IsContentPending = false
	}

	c.history.Add(history.Thread{
		ID:              threadID,
		LocalThreadID:   localThreadID,
		Title:           snapshot[0].Preview(50),
		Snapshot:        snapshot,
		Messages:        settled,
		CleanlabEnabled: cleanlab,
	})
}

// requestError maps a failed streaming request to the user-facing error.
func requestError(err error) *thread.ThreadError {
	var cerr *agent.ClientError
	if errors.As(err, &cerr) {
		switch cerr.Type {
		case agent.ErrTypeNoBody:
			return &thread.ThreadError{
				Message:  "Streaming responses are not supported",
				CanRetry: false,
			}
		case agent.ErrTypeHTTPStatus:
			return &thread.ThreadError{Message: cerr.Message, CanRetry: true}
		}
	}
	return &thread.ThreadError{Message: "Request failed", CanRetry: true}
}
