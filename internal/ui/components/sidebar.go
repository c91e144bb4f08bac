// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/agentchat-tui/internal/history"
	"github.com/jeranaias/agentchat-tui/internal/ui/styles"
	"github.com/jeranaias/agentchat-tui/internal/util"
)

// =============================================================================
// SIDEBAR THREAD LIST
// =============================================================================

// Sidebar renders the thread history list with selection and filtering.
type Sidebar struct {
	threads  []history.Thread
	filtered []history.Thread
	filter   string
	selected int

	Width  int
	Height int
	theme  *styles.Theme
}

// NewSidebar creates a new sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{
		Width:  32,
		Height: 24,
		theme:  theme,
	}
}

// SetThreads replaces the thread list, keeping the selection on the same
// thread where possible.
func (s *Sidebar) SetThreads(threads []history.Thread) {
	var selectedID string
	if cur, ok := s.Selected(); ok {
		selectedID = cur.ID
	}

	s.threads = threads
	s.applyFilter()

	s.selected = 0
	if selectedID != "" {
		for i, th := range s.filtered {
			if th.ID == selectedID {
				s.selected = i
				break
			}
		}
	}
}

// SetSize sets the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetFilter sets the title/preview filter query.
func (s *Sidebar) SetFilter(query string) {
	s.filter = query
	s.applyFilter()
	if s.selected >= len(s.filtered) {
		s.selected = 0
	}
}

// Filter returns the current filter query.
func (s *Sidebar) Filter() string {
	return s.filter
}

// MoveUp moves the selection up.
func (s *Sidebar) MoveUp() {
	if s.selected > 0 {
		s.selected--
	}
}

// MoveDown moves the selection down.
func (s *Sidebar) MoveDown() {
	if s.selected < len(s.filtered)-1 {
		s.selected++
	}
}

// Selected returns the currently selected thread.
func (s *Sidebar) Selected() (history.Thread, bool) {
	if s.selected < 0 || s.selected >= len(s.filtered) {
		return history.Thread{}, false
	}
	return s.filtered[s.selected], true
}

// Len returns the number of visible threads.
func (s *Sidebar) Len() int {
	return len(s.filtered)
}

func (s *Sidebar) applyFilter() {
	if s.filter == "" {
		s.filtered = s.threads
		return
	}

	query := strings.ToLower(s.filter)
	filtered := make([]history.Thread, 0, len(s.threads))
	for _, th := range s.threads {
		if strings.Contains(strings.ToLower(th.Title), query) {
			filtered = append(filtered, th)
		}
	}
	s.filtered = filtered
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Bold(true)
	header := titleStyle.Render("Threads")
	if s.filter != "" {
		header += " " + s.theme.ThreadMeta.Render("/"+s.filter)
	}

	lines := []string{header, ""}

	if len(s.filtered) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render("No threads")
		lines = append(lines, empty)
	}

	itemWidth := s.Width - 6
	if itemWidth < 10 {
		itemWidth = 10
	}

	maxItems := s.Height - 4
	if maxItems < 1 {
		maxItems = 1
	}

	// Keep the selection visible in a scrolling window.
	start := 0
	if s.selected >= maxItems {
		start = s.selected - maxItems + 1
	}
	end := start + maxItems
	if end > len(s.filtered) {
		end = len(s.filtered)
	}

	for i := start; i < end; i++ {
		th := s.filtered[i]
		title := util.TruncateWidth(th.Title, itemWidth)

		var line string
		if i == s.selected {
			line = s.theme.ThreadItemSelected.Render(title)
		} else {
			line = s.theme.ThreadItem.Render(title)
		}

		meta := s.theme.ThreadMeta.Render("  " + relativeTime(th.UpdatedAt))
		lines = append(lines, line, meta)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return s.theme.Sidebar.Width(s.Width - 4).Render(content)
}

// relativeTime formats a timestamp relative to now ("2m ago", "3d ago").
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return util.IntToString(int(d.Minutes())) + "m ago"
	case d < 24*time.Hour:
		return util.IntToString(int(d.Hours())) + "h ago"
	default:
		return util.IntToString(int(d.Hours()/24)) + "d ago"
	}
}
