// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/agentchat-tui/internal/agent"
	"github.com/jeranaias/agentchat-tui/internal/buffer"
	"github.com/jeranaias/agentchat-tui/internal/history"
	"github.com/jeranaias/agentchat-tui/internal/session"
	"github.com/jeranaias/agentchat-tui/internal/store"
	"github.com/jeranaias/agentchat-tui/internal/thread"
)

func newPlainModeController(t *testing.T) *session.Controller {
	t.Helper()
	return session.NewController(
		agent.NewClientWithConfig(&agent.Config{BaseURL: "http://127.0.0.1:1"}),
		store.New(),
		buffer.NewRegistry(),
		history.Open(filepath.Join(t.TempDir(), "history.json")),
		session.Options{},
	)
}

func TestSubscribeServesSequentialTurns(t *testing.T) {
	c := newPlainModeController(t)
	updates := subscribe(c)

	// One subscription serves every turn; the callback is never swapped, so
	// a stream goroutine outliving its turn still has a safe target.
	for turn := 0; turn < 3; turn++ {
		c.OnUpdate()
		select {
		case <-updates:
		case <-time.After(time.Second):
			t.Fatalf("turn %d: update not delivered", turn)
		}
	}
}

func TestWaitForTerminalReturnsOnSettledThread(t *testing.T) {
	c := newPlainModeController(t)
	c.OpenThread("srv-1", []thread.Message{
		{ID: "u1", Role: thread.RoleUser, Content: "hi"},
	})

	updates := subscribe(c)
	done := make(chan struct{})
	go func() {
		waitForTerminal(c, updates)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waitForTerminal must return once the thread is settled")
	}
}
