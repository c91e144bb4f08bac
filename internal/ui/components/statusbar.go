// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/agentchat-tui/internal/thread"
	"github.com/jeranaias/agentchat-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the bottom status line: stream state, trust toggle, and
// key shortcuts.
type StatusBar struct {
	Status          thread.Status
	CleanlabEnabled bool
	Rating          string
	Width           int
	theme           *styles.Theme
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Width: 80,
		theme: theme,
	}
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus sets the current stream status.
func (s *StatusBar) SetStatus(status thread.Status) {
	s.Status = status
}

// SetCleanlabEnabled sets the trust-scoring toggle indicator.
func (s *StatusBar) SetCleanlabEnabled(enabled bool) {
	s.CleanlabEnabled = enabled
}

// SetRating sets the response-rating indicator ("up", "down", or "").
func (s *StatusBar) SetRating(rating string) {
	s.Rating = rating
}

// View renders the status bar.
func (s *StatusBar) View() string {
	left := s.renderStatus()
	right := s.renderShortcuts()

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + right
	return s.theme.StatusBar.Width(s.Width).Render(line)
}

func (s *StatusBar) renderStatus() string {
	var state string
	switch s.Status {
	case thread.StatusComplete:
		state = lipgloss.NewStyle().Foreground(styles.Emerald).Render("ready")
	case thread.StatusFailed:
		state = lipgloss.NewStyle().Foreground(styles.Rose).Render("failed")
	case "":
		state = lipgloss.NewStyle().Foreground(styles.TextMuted).Render("idle")
	default:
		state = lipgloss.NewStyle().Foreground(styles.Amber).Render(string(s.Status))
	}

	trust := "trust off"
	trustStyle := lipgloss.NewStyle().Foreground(styles.TextMuted)
	if s.CleanlabEnabled {
		trust = "trust on"
		trustStyle = lipgloss.NewStyle().Foreground(styles.Emerald)
	}

	line := state + "  " + trustStyle.Render(trust)

	switch s.Rating {
	case "up":
		line += "  " + lipgloss.NewStyle().Foreground(styles.Emerald).Render("rated +1")
	case "down":
		line += "  " + lipgloss.NewStyle().Foreground(styles.Rose).Render("rated -1")
	}
	return line
}

func (s *StatusBar) renderShortcuts() string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"^n", "new"},
		{"^h", "threads"},
		{"^r", "retry"},
		{"^c", "quit"},
	}

	var parts []string
	for _, sc := range shortcuts {
		parts = append(parts,
			s.theme.ShortcutKey.Render(sc.key)+" "+s.theme.ShortcutDesc.Render(sc.desc))
	}
	return strings.Join(parts, "  ")
}
