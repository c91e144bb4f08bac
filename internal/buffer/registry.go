// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package buffer accumulates streamed messages per thread for the lifetime
// of the process.
//
// A stream outlives the display of its thread: the user can navigate away
// mid-response and come back. The registry is where every stream deposits
// its messages regardless of what is on screen, so returning to a thread
// shows accurate in-progress content and the terminal event can assemble a
// complete history record. Entries exist from the first append until the
// stream's terminal event clears them.
//
// The registry is an injectable value, not package-level state; construct
// one in main and hand it to whatever needs it.
package buffer

import (
	"sync"

	"github.com/jeranaias/agentchat-tui/internal/thread"
)

// =============================================================================
// REGISTRY
// =============================================================================

// Registry maps thread ids to accumulating message lists.
type Registry struct {
	mu      sync.Mutex
	buffers map[string][]thread.Message
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{buffers: make(map[string][]thread.Message)}
}

// AppendUser pushes a user message onto the thread's buffer.
func (r *Registry) AppendUser(threadID string, msg thread.Message) {
	r.push(threadID, msg)
}

// AppendTool pushes a tool message onto the thread's buffer. Tool entries
// never merge; order of arrival is order of record.
func (r *Registry) AppendTool(threadID string, msg thread.Message) {
	r.push(threadID, msg)
}

// AppendAssistantChunk folds a streamed assistant chunk into the buffer.
// When the trailing entry is an assistant message the chunk's content is
// concatenated onto it and its metadata merged in; otherwise the chunk
// starts a new entry.
func (r *Registry) AppendAssistantChunk(threadID string, msg thread.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if threadID == "" {
		return
	}

	msgs := r.buffers[threadID]
	if n := len(msgs); n > 0 && msgs[n-1].Role == thread.RoleAssistant {
		last := &msgs[n-1]
		last.Content += msg.Content
		last.Metadata = last.Metadata.Merge(msg.Metadata)
		if msg.ID != "" {
			last.ID = msg.ID
		}
		return
	}
	r.buffers[threadID] = append(msgs, msg.Clone())
}

// SeedFromMessages initializes the buffer from an existing message list,
// but only when the buffer is currently empty. Used when resuming a thread
// that already has in-memory messages, so prior turns are not lost from the
// record a terminal event will assemble.
func (r *Registry) SeedFromMessages(threadID string, messages []thread.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if threadID == "" || len(r.buffers[threadID]) > 0 {
		return
	}
	if len(messages) == 0 {
		return
	}
	r.buffers[threadID] = thread.CloneMessages(messages)
}

// Snapshot returns a deep copy of the thread's buffered messages, or nil
// when the thread has no buffer.
func (r *Registry) Snapshot(threadID string) []thread.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return thread.CloneMessages(r.buffers[threadID])
}

// Clear drops the thread's buffer. Called on stream-terminal events.
func (r *Registry) Clear(threadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, threadID)
}

func (r *Registry) push(threadID string, msg thread.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if threadID == "" {
		return
	}
	r.buffers[threadID] = append(r.buffers[threadID], msg.Clone())
}
