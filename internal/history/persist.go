// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"encoding/json"
	"log"
	"os"

	"github.com/jeranaias/agentchat-tui/internal/util"
)

// =============================================================================
// PERSISTED RECORD
// =============================================================================

// CurrentVersion is the persisted record schema version.
//
// Version history:
//   - 1: history was a mapping from an external grouping key to arrays of
//     threads, and entries carried a legacy assistantId field.
//   - 2: history is a flat list; assistantId is gone.
const CurrentVersion = 2

// record is the on-disk shape. Only history and ratings are persisted;
// everything session-transient stays in memory.
type record struct {
	History         json.RawMessage   `json:"history"`
	ResponseRatings map[string]string `json:"responseRatings,omitempty"`
	Version         int               `json:"version"`
}

// =============================================================================
// LOAD + MIGRATION
// =============================================================================

// Reload re-reads the backing file, running migrations as needed. A missing
// file yields an empty store. Corrupt content is an error; the caller
// decides whether to start empty.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	threads, err := decodeHistory(rec)
	if err != nil {
		return err
	}

	// Unfinished-thread filter runs on every load regardless of version:
	// entries never assigned a server thread id are transient and dropped,
	// and survivors lose their local-only ids.
	threads = pruneUnfinished(threads)

	s.mu.Lock()
	s.threads = threads
	if rec.ResponseRatings != nil {
		s.ratings = rec.ResponseRatings
	} else {
		s.ratings = make(map[string]string)
	}
	s.mu.Unlock()
	return nil
}

// decodeHistory decodes the history field, flattening the v1 grouped
// mapping into a flat list. Legacy per-item fields (assistantId) disappear
// during decoding since the current schema does not carry them.
func decodeHistory(rec record) ([]Thread, error) {
	if len(rec.History) == 0 {
		return nil, nil
	}

	if rec.Version >= CurrentVersion {
		var threads []Thread
		if err := json.Unmarshal(rec.History, &threads); err != nil {
			return nil, err
		}
		return threads, nil
	}

	// v1: mapping of arbitrary keys to thread arrays.
	var grouped map[string][]Thread
	if err := json.Unmarshal(rec.History, &grouped); err != nil {
		// Some v1 writers already stored a flat list; accept it.
		var threads []Thread
		if flatErr := json.Unmarshal(rec.History, &threads); flatErr == nil {
			return threads, nil
		}
		return nil, err
	}

	var threads []Thread
	for _, group := range grouped {
		threads = append(threads, group...)
	}
	return threads, nil
}

// pruneUnfinished drops entries without a server thread id and strips
// local-only ids from the rest, so abandoned never-sent threads cannot
// accumulate across restarts.
func pruneUnfinished(threads []Thread) []Thread {
	out := threads[:0]
	for _, t := range threads {
		if t.ID == "" {
			continue
		}
		t.LocalThreadID = ""
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// =============================================================================
// SAVE
// =============================================================================

// flush writes the current state to disk, best-effort. Failures are logged
// and swallowed: persistence never blocks the chat flow.
func (s *Store) flush() {
	if s.path == "" {
		return
	}
	if err := s.Save(); err != nil {
		log.Printf("history: save %s: %v", s.path, err)
	}
}

// Save writes the versioned record atomically. Only finished entries are
// persisted; the in-memory store may still hold unfinished ones for the
// running session.
func (s *Store) Save() error {
	s.mu.Lock()
	persisted := pruneUnfinished(cloneThreads(s.threads))
	if persisted == nil {
		persisted = []Thread{}
	}
	historyJSON, err := json.Marshal(persisted)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	rec := record{
		History:         historyJSON,
		ResponseRatings: s.ratings,
		Version:         CurrentVersion,
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}
	// Conversations are private: user-only file in a user-only directory.
	return util.AtomicWriteFileWithDir(s.path, data, 0600, 0700)
}

func cloneThreads(threads []Thread) []Thread {
	out := make([]Thread, len(threads))
	for i, t := range threads {
		out[i] = t.Clone()
	}
	return out
}
