// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the in-memory state of the currently displayed thread.
//
// The store is reducer-style: a small set of mutating operations, each of
// which is a no-op when the target thread id does not match the loaded
// thread. That guard is what keeps a backgrounded stream from writing into
// an unrelated thread the user has navigated to; backgrounded streams keep
// depositing into the buffer registry instead.
//
// All operations are safe for concurrent use. Reads return deep copies so
// callers can never mutate store state in place.
package store

import (
	"sync"

	"github.com/jeranaias/agentchat-tui/internal/thread"
)

// =============================================================================
// MESSAGE STORE
// =============================================================================

// Store owns the current thread's message list and streaming status.
type Store struct {
	mu      sync.Mutex
	current *thread.CurrentThread
}

// New creates an empty message store.
func New() *Store {
	return &Store{}
}

// Reset fully clears the store state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// SetCurrentThread replaces the current thread wholesale. Passing nil clears
// the selection.
func (s *Store) SetCurrentThread(t *thread.CurrentThread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = t.Clone()
}

// CurrentThread returns a deep copy of the current thread, or nil.
func (s *Store) CurrentThread() *thread.CurrentThread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// IsPending reports whether the current thread has a turn in flight.
func (s *Store) IsPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.IsPending
}

// Status returns the current thread's streaming status, or "" when no
// thread is loaded.
func (s *Store) Status() thread.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Status
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AppendMessage reconciles an incoming message into the current thread.
//
// Policy:
//   - An existing message with matching identity (id-or-localId) is replaced
//     by the incoming message. The original optimistic localId is preserved
//     only when the incoming message supplies none.
//   - Tool messages always append, preserving tool-call streaming order.
//   - Assistant messages remove the first pending assistant placeholder (if
//     any) and append at the end, so exactly one live assistant slot exists
//     per turn and the final content lands last.
//   - User and anything unmatched append.
//
// No-op when threadID does not match the loaded thread.
func (s *Store) AppendMessage(threadID string, msg thread.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ThreadID != threadID {
		return
	}

	incoming := msg.Clone()
	for i := range s.current.Messages {
		if thread.SameByIDOrLocalID(s.current.Messages[i], incoming) {
			if incoming.LocalID == "" && s.current.Messages[i].LocalID != "" {
				incoming.LocalID = s.current.Messages[i].LocalID
			}
			s.current.Messages[i] = incoming
			return
		}
	}

	switch incoming.Role {
	case thread.RoleTool:
		s.current.Messages = append(s.current.Messages, incoming)
	case thread.RoleAssistant:
		for i := range s.current.Messages {
			if s.current.Messages[i].Role == thread.RoleAssistant && s.current.Messages[i].IsPending {
				s.current.Messages = append(s.current.Messages[:i], s.current.Messages[i+1:]...)
				break
			}
		}
		s.current.Messages = append(s.current.Messages, incoming)
	default:
		s.current.Messages = append(s.current.Messages, incoming)
	}
}

// UpdateMessageContent appends a content delta to the message with the given
// server id. No-op when the thread or message is not found.
func (s *Store) UpdateMessageContent(threadID, messageID, delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ThreadID != threadID {
		return
	}
	for i := range s.current.Messages {
		if s.current.Messages[i].ID == messageID {
			s.current.Messages[i].Content += delta
			return
		}
	}
}

// MessagePatch holds the partial fields UpdateMessage can merge into an
// existing message. Nil pointers leave the field untouched; Metadata is
// merged per key rather than replaced.
type MessagePatch struct {
	Content          *string
	Metadata         thread.Metadata
	IsPending        *bool
	IsContentPending *bool
	Error            *string
}

// UpdateMessage deep-merges partial fields into the message matching the
// given id (server id or local id). No-op when not found.
func (s *Store) UpdateMessage(threadID, messageID string, patch MessagePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ThreadID != threadID {
		return
	}
	for i := range s.current.Messages {
		m := &s.current.Messages[i]
		if m.ID != messageID && m.LocalID != messageID {
			continue
		}
		if patch.Content != nil {
			m.Content = *patch.Content
		}
		if patch.Metadata != nil {
			m.Metadata = m.Metadata.Merge(patch.Metadata)
		}
		if patch.IsPending != nil {
			m.IsPending = *patch.IsPending
		}
		if patch.IsContentPending != nil {
			m.IsContentPending = *patch.IsContentPending
		}
		if patch.Error != nil {
			m.Error = *patch.Error
		}
		return
	}
}

// UpdateMessageMetadata merges metadata into the message with the given
// server id, skipping nil values so a partial update never erases a key.
func (s *Store) UpdateMessageMetadata(threadID, messageID string, metadata thread.Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ThreadID != threadID {
		return
	}
	for i := range s.current.Messages {
		if s.current.Messages[i].ID == messageID {
			s.current.Messages[i].Metadata = s.current.Messages[i].Metadata.Merge(metadata)
			return
		}
	}
}

// =============================================================================
// STATUS OPERATIONS
// =============================================================================

// StatusUpdate targets the current thread by the id-or-localId rule.
type StatusUpdate struct {
	ThreadID      string
	LocalThreadID string
	Status        thread.Status
	// Error, when SetError is true, replaces the thread error (nil clears).
	Error    *thread.ThreadError
	SetError bool
}

// SetThreadStatus records a streaming status transition. Non-terminal
// statuses mark the thread pending; terminal statuses settle it via
// setThreadDone. No-op when the update does not target the loaded thread.
func (s *Store) SetThreadStatus(u StatusUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current.Matches(u.ThreadID, u.LocalThreadID) {
		return
	}

	s.current.Status = u.Status
	if u.SetError {
		s.current.Error = cloneThreadError(u.Error)
	}

	if u.Status.Terminal() {
		s.setDoneLocked(u.Error)
		return
	}
	if u.Status.Pending() {
		s.current.IsPending = true
	}
}

// SetThreadDone settles the thread: every message's pending flags are
// cleared, and messages that were still pending at that moment get the
// terminal error (if any) stamped on them. No-op when the ids do not target
// the loaded thread.
func (s *Store) SetThreadDone(threadID, localThreadID string, err *thread.ThreadError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current.Matches(threadID, localThreadID) {
		return
	}
	if err != nil {
		s.current.Error = cloneThreadError(err)
	}
	s.setDoneLocked(err)
}

func (s *Store) setDoneLocked(err *thread.ThreadError) {
	for i := range s.current.Messages {
		m := &s.current.Messages[i]
		wasPending := m.IsPending || m.IsContentPending
		m.IsPending = false
		m.IsContentPending = false
		if wasPending && err != nil {
			m.Error = err.Message
		}
	}
	s.current.IsPending = false
}

func cloneThreadError(err *thread.ThreadError) *thread.ThreadError {
	if err == nil {
		return nil
	}
	out := *err
	return &out
}
