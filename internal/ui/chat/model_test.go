// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agentchat-tui/internal/agent"
	"github.com/jeranaias/agentchat-tui/internal/buffer"
	"github.com/jeranaias/agentchat-tui/internal/history"
	"github.com/jeranaias/agentchat-tui/internal/session"
	"github.com/jeranaias/agentchat-tui/internal/store"
	"github.com/jeranaias/agentchat-tui/internal/thread"
	"github.com/jeranaias/agentchat-tui/internal/ui/styles"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()

	hist := history.Open(filepath.Join(t.TempDir(), "history.json"))
	controller := session.NewController(
		agent.NewClientWithConfig(&agent.Config{BaseURL: "http://127.0.0.1:1"}),
		store.New(),
		buffer.NewRegistry(),
		hist,
		session.Options{},
	)

	m := New(controller, styles.NewTheme(), true)
	m.setSize(100, 30)
	return m
}

func TestModelViewRendersEmptyState(t *testing.T) {
	m := newTestModel(t)

	view := m.View()
	if !strings.Contains(view, "No messages yet") {
		t.Errorf("empty view missing placeholder:\n%s", view)
	}
}

func TestModelRendersLoadedThread(t *testing.T) {
	m := newTestModel(t)

	m.controller.OpenThread("srv-1", []thread.Message{
		{ID: "u1", Role: thread.RoleUser, Content: "What is my baggage allowance?"},
		{ID: "a1", Role: thread.RoleAssistant, Content: "Two checked bags.",
			Metadata: thread.Metadata{"trustworthiness_score": 0.9}},
	})
	m.syncFromStore()

	view := m.View()
	if !strings.Contains(view, "baggage allowance") {
		t.Errorf("view missing user message:\n%s", view)
	}
	if !strings.Contains(view, "Two checked bags") {
		t.Errorf("view missing assistant message:\n%s", view)
	}
	if !strings.Contains(view, "90%") {
		t.Errorf("view missing trust score:\n%s", view)
	}
}

func TestModelTrustToggleHidesScores(t *testing.T) {
	m := newTestModel(t)

	m.controller.OpenThread("srv-1", []thread.Message{
		{ID: "a1", Role: thread.RoleAssistant, Content: "Answer.",
			Metadata: thread.Metadata{"trustworthiness_score": 0.9}},
	})
	m.syncFromStore()

	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlT})
	if strings.Contains(m.View(), "90%") {
		t.Error("trust scores should be hidden after toggle")
	}
}

func TestModelSidebarToggle(t *testing.T) {
	m := newTestModel(t)

	m.controller.History().Add(history.Thread{ID: "t1", Title: "Refund request"})

	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlH})
	if !m.showSidebar {
		t.Fatal("sidebar should open on ctrl+h")
	}
	if !strings.Contains(m.View(), "Refund request") {
		t.Error("sidebar should list history threads")
	}

	m.handleKey(tea.KeyMsg{Type: tea.KeyEscape})
	if m.showSidebar {
		t.Error("sidebar should close on escape")
	}
}

func TestModelSidebarOpensThread(t *testing.T) {
	m := newTestModel(t)

	m.controller.History().Add(history.Thread{
		ID:    "t1",
		Title: "Refund request",
		Messages: []thread.Message{
			{ID: "u1", Role: thread.RoleUser, Content: "I want a refund"},
			{ID: "a1", Role: thread.RoleAssistant, Content: "Processing your refund."},
		},
	})

	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlH})
	m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})

	if m.showSidebar {
		t.Error("sidebar should close after opening a thread")
	}
	cur := m.controller.Store().CurrentThread()
	if cur == nil || cur.ThreadID != "t1" {
		t.Fatalf("thread not opened, got %+v", cur)
	}
	if !strings.Contains(m.View(), "Processing your refund") {
		t.Error("opened thread content should render")
	}
}

func TestModelRatingKeyToggles(t *testing.T) {
	m := newTestModel(t)

	m.controller.OpenThread("srv-1", []thread.Message{
		{ID: "a1", Role: thread.RoleAssistant, Content: "Answer."},
	})
	m.syncFromStore()

	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlG})
	if got := m.controller.History().Rating("srv-1"); got != history.RatingUp {
		t.Errorf("Rating = %q, want %q", got, history.RatingUp)
	}
	if !strings.Contains(m.View(), "rated +1") {
		t.Error("status bar should show the rating")
	}

	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlG})
	if got := m.controller.History().Rating("srv-1"); got != "" {
		t.Errorf("repeat rating should clear, got %q", got)
	}
}

func TestModelSidebarDeleteThread(t *testing.T) {
	m := newTestModel(t)

	m.controller.History().Add(history.Thread{ID: "t1", Title: "Refund request"})

	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlH})
	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlD})

	if n := m.controller.History().Len(); n != 0 {
		t.Errorf("history Len = %d after delete, want 0", n)
	}
}

func TestModelSubmitEmptyInputIsNoop(t *testing.T) {
	m := newTestModel(t)

	m.input.SetValue("   ")
	if cmd := m.submit(); cmd != nil {
		t.Error("blank submit should be a no-op")
	}
	if m.controller.Store().IsPending() {
		t.Error("blank submit should not start a stream")
	}
}

func TestModelNewThreadClearsView(t *testing.T) {
	m := newTestModel(t)

	m.controller.OpenThread("srv-1", []thread.Message{
		{ID: "u1", Role: thread.RoleUser, Content: "hello"},
	})
	m.syncFromStore()

	m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlN})
	m.syncFromStore()

	if cur := m.controller.Store().CurrentThread(); cur != nil {
		t.Errorf("new thread should clear current thread, got %+v", cur)
	}
	if !strings.Contains(m.View(), "No messages yet") {
		t.Error("view should show empty state after new thread")
	}
}
