// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/agentchat-tui/internal/thread"
	"github.com/jeranaias/agentchat-tui/internal/ui/styles"
)

// =============================================================================
// ERROR BANNER
// =============================================================================

// ErrorBanner renders a failed stream's error with its retry action label.
type ErrorBanner struct {
	Error *thread.ThreadError
	Width int
	theme *styles.Theme
}

// NewErrorBanner creates a new error banner.
func NewErrorBanner(theme *styles.Theme) *ErrorBanner {
	return &ErrorBanner{
		Width: 80,
		theme: theme,
	}
}

// SetError sets the error to display. Nil hides the banner.
func (e *ErrorBanner) SetError(err *thread.ThreadError) {
	e.Error = err
}

// SetWidth sets the banner width.
func (e *ErrorBanner) SetWidth(width int) {
	e.Width = width
}

// Visible reports whether the banner has anything to show.
func (e *ErrorBanner) Visible() bool {
	return e.Error != nil && e.Error.Message != ""
}

// View renders the banner.
func (e *ErrorBanner) View() string {
	if !e.Visible() {
		return ""
	}

	title := e.theme.ErrorTitle.Render(styles.StatusIndicators.Error + " " + e.Error.Message)
	lines := []string{title}

	if e.Error.CanRetry {
		label := e.Error.RetryLabel
		if label == "" {
			label = thread.RetryLabelRetry
		}
		hint := e.theme.RetryHint.Render("ctrl+r " + label)
		lines = append(lines, hint)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)

	maxWidth := e.Width - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	return e.theme.ErrorBox.MaxWidth(maxWidth).Render(content)
}
