// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides durable chat-history persistence.
//
// History is the settled record of conversations: each entry carries a
// title, a lightweight two-message snapshot for previews, and the full
// message list for rehydration. Entries are keyed by the same id-or-localId
// identity rule as messages, and no two entries ever share an identity.
//
// The backing file is a versioned JSON record; see persist.go for the
// schema and migration. Writes are best-effort: a failed flush is logged
// and never blocks the chat flow.
package history

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jeranaias/agentchat-tui/internal/thread"
)

// =============================================================================
// HISTORY THREAD TYPE
// =============================================================================

// Thread is one persisted conversation.
type Thread struct {
	// Identity. ID is server-assigned; LocalThreadID exists only before the
	// server acknowledges the thread and is stripped from finished history.
	ID            string `json:"id,omitempty"`
	LocalThreadID string `json:"localThreadId,omitempty"`

	// Title defaults to the first user message text.
	Title string `json:"title,omitempty"`

	// Snapshot is the first user + latest assistant message, kept small for
	// sidebar previews.
	Snapshot []thread.Message `json:"snapshot,omitempty"`

	// Messages is the full conversation, used for rehydration.
	Messages []thread.Message `json:"messages,omitempty"`

	// CleanlabEnabled persists the per-thread trust-scoring toggle.
	CleanlabEnabled bool `json:"cleanlabEnabled,omitempty"`

	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Matches reports whether the given ids identify this entry.
func (t *Thread) Matches(threadID, localThreadID string) bool {
	if threadID != "" && threadID == t.ID {
		return true
	}
	if localThreadID != "" && localThreadID == t.LocalThreadID {
		return true
	}
	return false
}

// Clone returns a deep copy of the entry.
func (t Thread) Clone() Thread {
	out := t
	out.Snapshot = thread.CloneMessages(t.Snapshot)
	out.Messages = thread.CloneMessages(t.Messages)
	return out
}

// Response ratings, keyed by server thread id.
const (
	RatingUp   = "up"
	RatingDown = "down"
)

// Patch holds the partial fields Update can merge into an entry.
type Patch struct {
	// ID, when non-empty, records the server-assigned thread id on an entry
	// previously known only by its local id.
	ID              string
	Title           *string
	Snapshot        []thread.Message
	Messages        []thread.Message
	CleanlabEnabled *bool
}

// =============================================================================
// HISTORY STORE
// =============================================================================

// Store is the in-memory history collection backed by a JSON file.
type Store struct {
	mu      sync.Mutex
	path    string
	threads []Thread
	ratings map[string]string

	// MaxThreads limits stored entries (0 = unlimited); oldest are evicted.
	MaxThreads int
}

// Open loads the history store from path. A missing or unreadable file
// yields an empty store; load errors are logged, not returned, because
// history must never block the chat flow.
func Open(path string) *Store {
	s := &Store{
		path:       path,
		ratings:    make(map[string]string),
		MaxThreads: 100,
	}
	if err := s.Reload(); err != nil {
		log.Printf("history: load %s: %v (starting empty)", path, err)
	}
	return s
}

// Add inserts the entry, replacing any existing entry with the same
// identity. The collection never holds two entries for one thread.
func (s *Store) Add(entry Thread) {
	s.mu.Lock()
	entry.UpdatedAt = time.Now()
	if entry.Title == "" {
		entry.Title = titleFor(entry)
	}
	replaced := false
	for i := range s.threads {
		if s.threads[i].Matches(entry.ID, entry.LocalThreadID) {
			s.threads[i] = entry.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		s.threads = append(s.threads, entry.Clone())
		s.evictLocked()
	}
	s.mu.Unlock()
	s.flush()
}

// Update merges partial fields into the entry matching the given identity.
// No-op when no entry matches.
func (s *Store) Update(threadID, localThreadID string, patch Patch) {
	s.mu.Lock()
	updated := false
	for i := range s.threads {
		t := &s.threads[i]
		if !t.Matches(threadID, localThreadID) {
			continue
		}
		if patch.ID != "" {
			t.ID = patch.ID
		}
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Snapshot != nil {
			t.Snapshot = thread.CloneMessages(patch.Snapshot)
		}
		if patch.Messages != nil {
			t.Messages = thread.CloneMessages(patch.Messages)
		}
		if patch.CleanlabEnabled != nil {
			t.CleanlabEnabled = *patch.CleanlabEnabled
		}
		t.UpdatedAt = time.Now()
		updated = true
		break
	}
	s.mu.Unlock()
	if updated {
		s.flush()
	}
}

// Remove deletes the entry matching the given identity.
func (s *Store) Remove(threadID, localThreadID string) {
	s.mu.Lock()
	removed := false
	for i := range s.threads {
		if s.threads[i].Matches(threadID, localThreadID) {
			s.threads = append(s.threads[:i], s.threads[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.flush()
	}
}

// Clear drops all history and ratings.
func (s *Store) Clear() {
	s.mu.Lock()
	s.threads = nil
	s.ratings = make(map[string]string)
	s.mu.Unlock()
	s.flush()
}

// Find returns a deep copy of the entry matching the given identity.
func (s *Store) Find(threadID, localThreadID string) (Thread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.threads {
		if s.threads[i].Matches(threadID, localThreadID) {
			return s.threads[i].Clone(), true
		}
	}
	return Thread{}, false
}

// List returns all entries, most recently updated first.
func (s *Store) List() []Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Thread, len(s.threads))
	for i, t := range s.threads {
		out[i] = t.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// =============================================================================
// RESPONSE RATINGS
// =============================================================================

// SetRating records a thumbs up/down for a thread's response. An empty
// rating removes the entry.
func (s *Store) SetRating(threadID, rating string) {
	if threadID == "" {
		return
	}
	s.mu.Lock()
	if rating == "" {
		delete(s.ratings, threadID)
	} else {
		s.ratings[threadID] = rating
	}
	s.mu.Unlock()
	s.flush()
}

// Rating returns the recorded rating for a thread, or "".
func (s *Store) Rating(threadID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratings[threadID]
}

// =============================================================================
// HELPERS
// =============================================================================

// evictLocked enforces MaxThreads by dropping the oldest entries.
func (s *Store) evictLocked() {
	if s.MaxThreads <= 0 || len(s.threads) <= s.MaxThreads {
		return
	}
	sort.SliceStable(s.threads, func(i, j int) bool {
		return s.threads[i].UpdatedAt.Before(s.threads[j].UpdatedAt)
	})
	excess := len(s.threads) - s.MaxThreads
	for _, old := range s.threads[:excess] {
		delete(s.ratings, old.ID)
	}
	s.threads = s.threads[excess:]
}

func titleFor(entry Thread) string {
	msgs := entry.Messages
	if len(msgs) == 0 {
		msgs = entry.Snapshot
	}
	for _, m := range msgs {
		if m.Role == thread.RoleUser && m.Content != "" {
			return m.Preview(50)
		}
	}
	return "New thread"
}
