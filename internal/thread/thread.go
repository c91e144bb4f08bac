// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package thread contains the data structures for chat threads and messages.
package thread

// =============================================================================
// STREAMING STATUS
// =============================================================================

// Status tracks a thread's position in the response-streaming state machine:
//
//	threadPending → responsePending → {contentPending | metadataPending}
//	                                → complete | failed
//
// complete and failed are terminal.
type Status string

const (
	// StatusThreadPending is set immediately on submit, before any network
	// confirmation.
	StatusThreadPending Status = "threadPending"

	// StatusResponsePending is set once the streaming request is dispatched
	// and again on an explicit run-in-progress event.
	StatusResponsePending Status = "responsePending"

	// StatusContentPending means assistant text is still arriving.
	StatusContentPending Status = "contentPending"

	// StatusMetadataPending means content finished but auxiliary scoring
	// metadata has not been attached yet.
	StatusMetadataPending Status = "metadataPending"

	// StatusComplete is reached only on an explicit run-completed event.
	StatusComplete Status = "complete"

	// StatusFailed is reached on transport failure, an explicit run-failed
	// event, or a premature stream end.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Pending reports whether the status counts as in-flight for the thread's
// derived IsPending flag.
func (s Status) Pending() bool {
	switch s {
	case StatusThreadPending, StatusResponsePending, StatusContentPending, StatusMetadataPending:
		return true
	default:
		return false
	}
}

// =============================================================================
// THREAD ERRORS
// =============================================================================

// Retry action labels shown next to a failed turn.
const (
	RetryLabelSendAgain = "Send message again"
	RetryLabelRetry     = "Retry"
)

// ThreadError is a user-facing stream/transport failure attached to a thread.
type ThreadError struct {
	Message    string `json:"message"`
	CanRetry   bool   `json:"canRetry"`
	RetryLabel string `json:"retryLabel,omitempty"`
	AtStatus   Status `json:"atStatus,omitempty"`
}

// ErrorForStatus maps the last non-terminal status a thread reached to the
// user-facing error shown when the connection drops in that state. Terminal
// statuses yield nil: a completed or already-failed thread has nothing new
// to report.
func ErrorForStatus(status Status) *ThreadError {
	var err *ThreadError
	switch status {
	case "", StatusThreadPending:
		err = &ThreadError{Message: "Could not create thread", CanRetry: true}
	case StatusResponsePending:
		err = &ThreadError{Message: "Unable to send message", CanRetry: true}
	case StatusContentPending:
		err = &ThreadError{Message: "Response did not complete", CanRetry: true, RetryLabel: RetryLabelSendAgain}
	case StatusMetadataPending:
		err = &ThreadError{Message: "Could not retrieve trustworthiness score", CanRetry: true, RetryLabel: RetryLabelSendAgain}
	case StatusComplete, StatusFailed:
		return nil
	}
	if err != nil {
		err.AtStatus = status
	}
	return err
}

// =============================================================================
// CURRENT THREAD
// =============================================================================

// CurrentThread is the thread currently rendered. It is replaced wholesale
// when switching threads and set to nil when nothing is selected.
//
// A thread is identified by ThreadID (server-assigned) and/or LocalThreadID
// (client-only, pre-assignment); at least one is always non-empty.
type CurrentThread struct {
	ThreadID      string `json:"threadId,omitempty"`
	LocalThreadID string `json:"localThreadId,omitempty"`

	// Messages are kept in insertion order, which is conversation order.
	Messages []Message `json:"messages"`

	Status Status `json:"status,omitempty"`

	// IsPending is derived from Status but stored so renderers do not need
	// to know the state machine.
	IsPending bool `json:"isPending,omitempty"`

	// Error is the last-known stream/transport error, cleared on success.
	Error *ThreadError `json:"error,omitempty"`

	// CleanlabEnabled is the per-thread trust-scoring toggle sent with each
	// turn and persisted alongside history.
	CleanlabEnabled bool `json:"cleanlabEnabled,omitempty"`
}

// Matches reports whether the given ids identify this thread, using the same
// id-or-localId rule as messages.
func (t *CurrentThread) Matches(threadID, localThreadID string) bool {
	if t == nil {
		return false
	}
	if threadID != "" && threadID == t.ThreadID {
		return true
	}
	if localThreadID != "" && localThreadID == t.LocalThreadID {
		return true
	}
	return false
}

// FirstUserMessage returns the first user message, or nil.
func (t *CurrentThread) FirstUserMessage() *Message {
	if t == nil {
		return nil
	}
	for i := range t.Messages {
		if t.Messages[i].Role == RoleUser {
			return &t.Messages[i]
		}
	}
	return nil
}

// LatestAssistantMessage returns the most recent assistant message, or nil.
func (t *CurrentThread) LatestAssistantMessage() *Message {
	if t == nil {
		return nil
	}
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleAssistant {
			return &t.Messages[i]
		}
	}
	return nil
}

// LastUserMessage returns the most recent user message, or nil. Retry uses
// it to replay the turn's content.
func (t *CurrentThread) LastUserMessage() *Message {
	if t == nil {
		return nil
	}
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleUser {
			return &t.Messages[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the thread.
func (t *CurrentThread) Clone() *CurrentThread {
	if t == nil {
		return nil
	}
	out := *t
	out.Messages = CloneMessages(t.Messages)
	if t.Error != nil {
		errCopy := *t.Error
		out.Error = &errCopy
	}
	return &out
}

// Title returns the thread title derived from the first user message.
func (t *CurrentThread) Title() string {
	if first := t.FirstUserMessage(); first != nil && first.Content != "" {
		return first.Preview(50)
	}
	return "New thread"
}
