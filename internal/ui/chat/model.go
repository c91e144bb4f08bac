// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/agentchat-tui/internal/session"
	"github.com/jeranaias/agentchat-tui/internal/ui/components"
	"github.com/jeranaias/agentchat-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the root Bubble Tea model for the chat view.
type Model struct {
	// Session
	controller *session.Controller

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// UI components
	viewport  viewport.Model
	input     textinput.Model
	spinner   components.Spinner
	statusBar *components.StatusBar
	errBanner *components.ErrorBanner
	sidebar   *components.Sidebar

	// Markdown rendering for settled assistant responses
	renderer *glamour.TermRenderer

	// Key bindings
	keys KeyMap

	// View state
	showSidebar     bool
	showTrustScores bool
	notice          string

	// Controller/watcher notification bridges. The controller's stream
	// goroutines push here; waitForUpdate turns each push into a Bubble Tea
	// message.
	updates   chan struct{}
	historyCh chan struct{}
}

// New creates a new chat model wired to the session controller.
func New(controller *session.Controller, theme *styles.Theme, showTrustScores bool) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	m := &Model{
		controller:      controller,
		theme:           theme,
		viewport:        vp,
		input:           ti,
		spinner:         components.NewSpinner(),
		statusBar:       components.NewStatusBar(theme),
		errBanner:       components.NewErrorBanner(theme),
		sidebar:         components.NewSidebar(theme),
		keys:            DefaultKeyMap(),
		showTrustScores: showTrustScores,
		updates:         make(chan struct{}, 8),
		historyCh:       make(chan struct{}, 1),
	}

	controller.OnUpdate = m.notifyUpdate

	return m
}

// notifyUpdate is called from controller goroutines; it never blocks.
func (m *Model) notifyUpdate() {
	select {
	case m.updates <- struct{}{}:
	default:
	}
}

// NotifyHistoryReload is handed to the history watcher; it never blocks.
func (m *Model) NotifyHistoryReload() {
	select {
	case m.historyCh <- struct{}{}:
	default:
	}
}

// waitForUpdate blocks until the controller reports a state change.
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return storeUpdatedMsg{}
	}
}

// waitForHistoryReload blocks until the history file is rewritten on disk.
func (m *Model) waitForHistoryReload() tea.Cmd {
	return func() tea.Msg {
		<-m.historyCh
		return historyReloadedMsg{}
	}
}

// Init starts the notification listeners and cursor blink.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.waitForUpdate(),
		m.waitForHistoryReload(),
	)
}

// setSize recomputes component dimensions after a resize.
func (m *Model) setSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	contentWidth := width
	if m.showSidebar {
		contentWidth = width - sidebarWidth(width)
	}

	// Header (1) + input (3) + status bar (1) + banner space
	viewportHeight := height - 6
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	m.viewport.Width = contentWidth
	m.viewport.Height = viewportHeight
	m.input.Width = contentWidth - 4
	m.statusBar.SetWidth(width)
	m.errBanner.SetWidth(contentWidth)
	m.sidebar.SetSize(sidebarWidth(width), viewportHeight)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(contentWidth-8),
	)
	if err == nil {
		m.renderer = renderer
	}

	m.ready = true
	m.refreshViewport()
}

// sidebarWidth returns the sidebar width for a given terminal width.
func sidebarWidth(total int) int {
	w := total / 3
	if w < 24 {
		w = 24
	}
	if w > 40 {
		w = 40
	}
	return w
}
