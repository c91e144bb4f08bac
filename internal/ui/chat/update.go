// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/agentchat-tui/internal/history"
	"github.com/jeranaias/agentchat-tui/internal/thread"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update handles Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case storeUpdatedMsg:
		m.syncFromStore()
		cmds = append(cmds, m.waitForUpdate())
		if m.streamPending() && !m.spinner.IsActive() {
			cmds = append(cmds, m.spinner.Start())
		}
		return m, tea.Batch(cmds...)

	case historyReloadedMsg:
		m.sidebar.SetThreads(m.controller.History().List())
		return m, m.waitForHistoryReload()

	case sendFailedMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil
	}

	// Forward everything else (spinner ticks, blink, mouse) to components.
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes a key press. The second return reports whether the key
// was consumed.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.toggleSidebar()
		return nil, true

	case key.Matches(msg, m.keys.ToggleTrust):
		m.showTrustScores = !m.showTrustScores
		m.refreshViewport()
		return nil, true

	case key.Matches(msg, m.keys.NewThread):
		m.controller.CloseThread()
		m.showSidebar = false
		m.setSize(m.width, m.height)
		return nil, true

	case key.Matches(msg, m.keys.ToggleScoring):
		m.controller.SetCleanlabEnabled(!m.controller.CleanlabEnabled())
		m.syncFromStore()
		return nil, true

	case key.Matches(msg, m.keys.RateUp):
		m.rateResponse(history.RatingUp)
		return nil, true

	case key.Matches(msg, m.keys.RateDown):
		m.rateResponse(history.RatingDown)
		return nil, true

	case key.Matches(msg, m.keys.Retry):
		if err := m.controller.Retry(context.Background()); err != nil {
			m.notice = err.Error()
		}
		return nil, true
	}

	if m.showSidebar {
		return m.handleSidebarKey(msg), true
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m.submit(), true

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil, true

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil, true
	}

	return nil, false
}

// handleSidebarKey processes keys while the thread list has focus.
func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.MoveUp()

	case key.Matches(msg, m.keys.Down):
		m.sidebar.MoveDown()

	case key.Matches(msg, m.keys.Send):
		if sel, ok := m.sidebar.Selected(); ok {
			m.controller.OpenThread(sel.ID, nil)
			m.showSidebar = false
			m.setSize(m.width, m.height)
		}

	case key.Matches(msg, m.keys.Escape):
		m.showSidebar = false
		m.setSize(m.width, m.height)

	case key.Matches(msg, m.keys.DeleteThread):
		if sel, ok := m.sidebar.Selected(); ok {
			m.controller.History().Remove(sel.ID, sel.LocalThreadID)
			m.sidebar.SetThreads(m.controller.History().List())
		}

	case key.Matches(msg, m.keys.ClearHistory):
		m.controller.History().Clear()
		m.sidebar.SetThreads(nil)

	case msg.Type == tea.KeyBackspace:
		if q := m.sidebar.Filter(); q != "" {
			m.sidebar.SetFilter(q[:len(q)-1])
		}

	case msg.Type == tea.KeyRunes:
		m.sidebar.SetFilter(m.sidebar.Filter() + string(msg.Runes))
	}
	return nil
}

// submit sends the current input line through the controller.
func (m *Model) submit() tea.Cmd {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return nil
	}

	if err := m.controller.SendMessage(context.Background(), content); err != nil {
		m.notice = err.Error()
		return nil
	}

	m.input.Reset()
	m.syncFromStore()
	return m.spinner.Start()
}

// toggleSidebar opens or closes the thread list.
func (m *Model) toggleSidebar() {
	m.showSidebar = !m.showSidebar
	if m.showSidebar {
		m.sidebar.SetThreads(m.controller.History().List())
		m.sidebar.SetFilter("")
	}
	m.setSize(m.width, m.height)
}

// rateResponse toggles a thumbs rating on the loaded thread's response.
func (m *Model) rateResponse(rating string) {
	cur := m.controller.Store().CurrentThread()
	if cur == nil || cur.ThreadID == "" {
		m.notice = "nothing to rate yet"
		return
	}
	hist := m.controller.History()
	if hist.Rating(cur.ThreadID) == rating {
		rating = ""
	}
	hist.SetRating(cur.ThreadID, rating)
	m.syncFromStore()
}

// syncFromStore re-reads controller state into the view.
func (m *Model) syncFromStore() {
	cur := m.controller.Store().CurrentThread()

	if cur != nil {
		m.statusBar.SetStatus(cur.Status)
		m.errBanner.SetError(cur.Error)
		m.spinner.SetStatus(cur.Status)
		m.statusBar.SetRating(m.controller.History().Rating(cur.ThreadID))
		if !cur.IsPending {
			m.spinner.Stop()
		}
	} else {
		m.statusBar.SetStatus("")
		m.errBanner.SetError(nil)
		m.statusBar.SetRating("")
		m.spinner.Stop()
	}
	m.statusBar.SetCleanlabEnabled(m.controller.CleanlabEnabled())

	m.refreshViewport()
}

// streamPending reports whether the loaded thread is mid-stream.
func (m *Model) streamPending() bool {
	cur := m.controller.Store().CurrentThread()
	return cur != nil && cur.IsPending
}

// refreshViewport rebuilds the transcript and scrolls to the bottom.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// currentStatus returns the loaded thread's status, or empty.
func (m *Model) currentStatus() thread.Status {
	cur := m.controller.Store().CurrentThread()
	if cur == nil {
		return ""
	}
	return cur.Status
}
