// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/agentchat-tui/internal/thread"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "history.json"))
}

// =============================================================================
// STORE OPERATIONS
// =============================================================================

func TestAddReplacesByIdentity(t *testing.T) {
	s := newTestStore(t)

	s.Add(Thread{ID: "t1", Title: "first title"})
	s.Add(Thread{ID: "t1", Title: "replaced title"})

	assert.Equal(t, 1, s.Len(), "same identity must not duplicate")
	got, ok := s.Find("t1", "")
	require.True(t, ok)
	assert.Equal(t, "replaced title", got.Title)
}

func TestAddMatchesByLocalID(t *testing.T) {
	s := newTestStore(t)

	s.Add(Thread{LocalThreadID: "lt1", Title: "optimistic"})
	s.Add(Thread{ID: "t1", LocalThreadID: "lt1", Title: "acknowledged"})

	assert.Equal(t, 1, s.Len())
	got, ok := s.Find("t1", "")
	require.True(t, ok)
	assert.Equal(t, "acknowledged", got.Title)
}

func TestAddDefaultsTitle(t *testing.T) {
	s := newTestStore(t)

	s.Add(Thread{
		ID: "t1",
		Messages: []thread.Message{
			{Role: thread.RoleUser, Content: "How do I reset my password"},
			{Role: thread.RoleAssistant, Content: "Click the link."},
		},
	})

	got, _ := s.Find("t1", "")
	assert.Equal(t, "How do I reset my password", got.Title)
}

func TestUpdateMergesPartialFields(t *testing.T) {
	s := newTestStore(t)
	s.Add(Thread{ID: "t1", Title: "keep me", CleanlabEnabled: false})

	enabled := true
	s.Update("t1", "", Patch{
		Messages:        []thread.Message{{Role: thread.RoleUser, Content: "q"}},
		CleanlabEnabled: &enabled,
	})

	got, _ := s.Find("t1", "")
	assert.Equal(t, "keep me", got.Title, "unset patch fields must not change")
	assert.True(t, got.CleanlabEnabled)
	assert.Len(t, got.Messages, 1)
}

func TestUpdateAbsentIsNoop(t *testing.T) {
	s := newTestStore(t)

	title := "ghost"
	s.Update("missing", "", Patch{Title: &title})

	assert.Equal(t, 0, s.Len())
}

func TestUpdateAssignsServerID(t *testing.T) {
	s := newTestStore(t)
	s.Add(Thread{LocalThreadID: "lt1", Title: "pending"})

	s.Update("", "lt1", Patch{ID: "t1"})

	got, ok := s.Find("t1", "")
	require.True(t, ok)
	assert.Equal(t, "t1", got.ID)
}

func TestSaveCreatesPrivateStoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentchat", "history.json")
	s := Open(path)

	s.Add(Thread{ID: "t1", Messages: []thread.Message{
		{Role: thread.RoleUser, Content: "q"},
	}})

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "history file must be user-only")

	dirInfo, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm(), "history directory must be user-only")
}

func TestRemoveAndClear(t *testing.T) {
	s := newTestStore(t)
	s.Add(Thread{ID: "t1"})
	s.Add(Thread{ID: "t2"})

	s.Remove("t1", "")
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestRatings(t *testing.T) {
	s := newTestStore(t)

	s.SetRating("t1", RatingUp)
	assert.Equal(t, RatingUp, s.Rating("t1"))

	s.SetRating("t1", "")
	assert.Equal(t, "", s.Rating("t1"))

	s.SetRating("", RatingDown) // no-op
	assert.Equal(t, "", s.Rating(""))
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := Open(path)
	s.Add(Thread{
		ID:    "t1",
		Title: "persisted",
		Snapshot: []thread.Message{
			{LocalID: "user", Role: thread.RoleUser, Content: "q"},
			{LocalID: "assistant", Role: thread.RoleAssistant, Content: "a"},
		},
		CleanlabEnabled: true,
	})
	s.SetRating("t1", RatingUp)

	reloaded := Open(path)
	require.Equal(t, 1, reloaded.Len())
	got, ok := reloaded.Find("t1", "")
	require.True(t, ok)
	assert.Equal(t, "persisted", got.Title)
	assert.True(t, got.CleanlabEnabled)
	assert.Len(t, got.Snapshot, 2)
	assert.Equal(t, RatingUp, reloaded.Rating("t1"))
}

func TestPersistedRecordIsVersioned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := Open(path)
	s.Add(Thread{ID: "t1"})

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, float64(CurrentVersion), rec["version"])
	assert.Contains(t, rec, "history")
}

func TestUnfinishedThreadsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	s := Open(path)
	s.Add(Thread{LocalThreadID: "lt1", Title: "never acknowledged"})
	s.Add(Thread{ID: "t1", LocalThreadID: "lt2", Title: "finished"})

	reloaded := Open(path)
	assert.Equal(t, 1, reloaded.Len())
	got, ok := reloaded.Find("t1", "")
	require.True(t, ok)
	assert.Equal(t, "", got.LocalThreadID, "local ids are stripped from finished history")
	_, ok = reloaded.Find("", "lt1")
	assert.False(t, ok, "unfinished entry must be pruned on load")
}

func TestLoadCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := Open(path)
	assert.Equal(t, 0, s.Len())
}

// =============================================================================
// MIGRATION
// =============================================================================

func TestMigrationV1FlattensGroupedHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	v1 := `{
		"version": 1,
		"history": {
			"app-a": [
				{"id": "t1", "title": "first", "assistantId": "legacy-1"},
				{"localThreadId": "lt-abandoned", "title": "never sent"}
			],
			"app-b": [
				{"id": "t2", "localThreadId": "lt2", "title": "second", "assistantId": "legacy-2"}
			]
		},
		"responseRatings": {"t1": "up"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(v1), 0644))

	s := Open(path)

	assert.Equal(t, 2, s.Len(), "flattened list keeps only server-acknowledged entries")

	t1, ok := s.Find("t1", "")
	require.True(t, ok)
	assert.Equal(t, "first", t1.Title)

	t2, ok := s.Find("t2", "")
	require.True(t, ok)
	assert.Equal(t, "", t2.LocalThreadID, "local id stripped from survivor")

	_, ok = s.Find("", "lt-abandoned")
	assert.False(t, ok, "entry without server id dropped during migration")

	assert.Equal(t, RatingUp, s.Rating("t1"), "ratings survive migration")

	// Saving after migration writes the current schema.
	s.Add(Thread{ID: "t3"})
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec struct {
		History []Thread `json:"history"`
		Version int      `json:"version"`
	}
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, CurrentVersion, rec.Version)
	assert.Len(t, rec.History, 3)
}

func TestMigrationAcceptsV1FlatList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	v1 := `{"version": 1, "history": [{"id": "t1", "title": "already flat"}]}`
	require.NoError(t, os.WriteFile(path, []byte(v1), 0644))

	s := Open(path)
	assert.Equal(t, 1, s.Len())
}

// =============================================================================
// SEARCH INDEX
// =============================================================================

func TestSearchIndex(t *testing.T) {
	dir := t.TempDir()
	s := Open(filepath.Join(dir, "history.json"))
	s.Add(Thread{
		ID:    "t1",
		Title: "Booking change",
		Messages: []thread.Message{
			{Role: thread.RoleUser, Content: "Can I change my flight to Tuesday"},
			{Role: thread.RoleAssistant, Content: "Yes, rebooking is free within 24 hours."},
		},
	})
	s.Add(Thread{
		ID:    "t2",
		Title: "Baggage",
		Messages: []thread.Message{
			{Role: thread.RoleUser, Content: "What is the baggage allowance"},
		},
	})

	ix, err := OpenSearchIndex(filepath.Join(dir, "search.db"))
	require.NoError(t, err)
	defer ix.Close()
	require.NoError(t, ix.Rebuild(s))

	results, err := ix.Search("rebooking")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t1", results[0].ThreadID)
	assert.Contains(t, results[0].Fragment, "rebooking")

	results, err = ix.Search("Baggage")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t2", results[0].ThreadID)

	results, err = ix.Search("nonexistent")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = ix.Search("   ")
	require.NoError(t, err)
	assert.Empty(t, results)
}
