// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SEARCH INDEX
// =============================================================================

// searchSchema holds threads and their message text for content search.
// The index is disposable: it is rebuilt from the history store and never
// the source of truth.
const searchSchema = `
CREATE TABLE IF NOT EXISTS threads (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE,
	role      TEXT NOT NULL,
	content   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id);
`

// SearchIndex is a SQLite-backed content index over history threads.
type SearchIndex struct {
	db   *sql.DB
	path string
}

// SearchResult is one matching thread.
type SearchResult struct {
	ThreadID string
	Title    string
	// Fragment is a message excerpt containing the match.
	Fragment string
}

// OpenSearchIndex opens (or creates) the index database at path.
func OpenSearchIndex(path string) (*SearchIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	// SQLite supports one writer at a time; keep a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(searchSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SearchIndex{db: db, path: path}, nil
}

// Rebuild replaces the index contents from the given history store.
func (ix *SearchIndex) Rebuild(store *Store) error {
	tx, err := ix.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM threads"); err != nil {
		return err
	}

	for _, t := range store.List() {
		if t.ID == "" {
			continue
		}
		if _, err := tx.Exec(
			"INSERT INTO threads (id, title, updated_at) VALUES (?, ?, ?)",
			t.ID, t.Title, t.UpdatedAt.Unix(),
		); err != nil {
			return err
		}
		msgs := t.Messages
		if len(msgs) == 0 {
			msgs = t.Snapshot
		}
		for _, m := range msgs {
			if _, err := tx.Exec(
				"INSERT INTO messages (thread_id, role, content) VALUES (?, ?, ?)",
				t.ID, m.Role.String(), m.Content,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// Search returns threads whose title or message content contains the query
// (case-insensitive), most recently updated first.
func (ix *SearchIndex) Search(query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(query) + "%"

	rows, err := ix.db.Query(`
		SELECT t.id, t.title, COALESCE(MIN(m.content), '')
		FROM threads t
		LEFT JOIN messages m
			ON m.thread_id = t.id
			AND m.content LIKE ? ESCAPE '\'
		WHERE t.title LIKE ? ESCAPE '\' OR m.thread_id IS NOT NULL
		GROUP BY t.id, t.title
		ORDER BY MAX(t.updated_at) DESC
	`, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var fragment string
		if err := rows.Scan(&r.ThreadID, &r.Title, &fragment); err != nil {
			return nil, err
		}
		r.Fragment = excerpt(fragment, query, 80)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the index database.
func (ix *SearchIndex) Close() error {
	return ix.db.Close()
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// excerpt returns a window of content around the first occurrence of query.
func excerpt(content, query string, width int) string {
	if content == "" {
		return ""
	}
	lower := strings.ToLower(content)
	pos := strings.Index(lower, strings.ToLower(query))
	if pos < 0 {
		pos = 0
	}

	runes := []rune(content)
	// Byte offset to rune offset.
	start := len([]rune(content[:pos]))
	if start > width/2 {
		start -= width / 2
	} else {
		start = 0
	}
	end := start + width
	if end > len(runes) {
		end = len(runes)
	}
	out := string(runes[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return strings.ReplaceAll(out, "\n", " ")
}
