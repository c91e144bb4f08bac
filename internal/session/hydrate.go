// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"github.com/jeranaias/agentchat-tui/internal/thread"
)

// =============================================================================
// THREAD HYDRATION
// =============================================================================

// OpenThread loads a thread into the message store. Resolution order:
//
//  1. Caller-supplied messages are used verbatim and marked complete.
//  2. A non-empty in-flight buffer snapshot hydrates the thread as
//     responsePending, so a thread still streaming elsewhere never shows
//     stale or empty state.
//  3. A history entry with full messages hydrates with all pending flags
//     forced false; history is always settled.
//  4. A history entry with only a legacy two-message snapshot synthesizes a
//     two-message thread.
//  5. Nothing known: the current thread is cleared.
func (c *Controller) OpenThread(threadID string, messages []thread.Message) {
	defer c.notify()

	if len(messages) > 0 {
		c.store.SetCurrentThread(&thread.CurrentThread{
			ThreadID:        threadID,
			Messages:        messages,
			Status:          thread.StatusComplete,
			CleanlabEnabled: c.CleanlabEnabled(),
		})
		return
	}

	if snapshot := c.buffers.Snapshot(threadID); len(snapshot) > 0 {
		c.store.SetCurrentThread(&thread.CurrentThread{
			ThreadID:        threadID,
			Messages:        snapshot,
			Status:          thread.StatusResponsePending,
			IsPending:       true,
			CleanlabEnabled: c.CleanlabEnabled(),
		})
		return
	}

	if entry, ok := c.history.Find(threadID, threadID); ok {
		if len(entry.Messages) > 0 {
			settled := thread.CloneMessages(entry.Messages)
			for i := range settled {
				settled[i].IsPending = false
				settled[i].IsContentPending = false
			}
			c.store.SetCurrentThread(&thread.CurrentThread{
				ThreadID:        entry.ID,
				Messages:        settled,
				Status:          thread.StatusComplete,
				CleanlabEnabled: entry.CleanlabEnabled,
			})
			return
		}
		if len(entry.Snapshot) > 0 {
			c.store.SetCurrentThread(&thread.CurrentThread{
				ThreadID:        entry.ID,
				Messages:        synthesizeFromSnapshot(entry.Snapshot),
				Status:          thread.StatusComplete,
				CleanlabEnabled: entry.CleanlabEnabled,
			})
			return
		}
	}

	c.store.SetCurrentThread(nil)
}

// CloseThread clears the current thread; any in-flight stream keeps
// depositing into the buffers.
func (c *Controller) CloseThread() {
	c.store.SetCurrentThread(nil)
	c.notify()
}

// synthesizeFromSnapshot builds a displayable two-message thread from a
// legacy preview snapshot.
func synthesizeFromSnapshot(snapshot []thread.Message) []thread.Message {
	var user, assistant thread.Message
	user = thread.Message{LocalID: "user", Role: thread.RoleUser, Metadata: thread.Metadata{}}
	assistant = thread.Message{LocalID: "assistant", Role: thread.RoleAssistant, Metadata: thread.Metadata{}}
	for _, m := range snapshot {
		switch m.Role {
		case thread.RoleUser:
			user.Content = m.Content
			user.Metadata = m.Metadata.Clone()
		case thread.RoleAssistant:
			assistant.Content = m.Content
			assistant.Metadata = m.Metadata.Clone()
		}
	}
	return []thread.Message{user, assistant}
}
