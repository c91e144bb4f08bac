// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/agentchat-tui/internal/thread"
	"github.com/jeranaias/agentchat-tui/internal/ui/components"
	"github.com/jeranaias/agentchat-tui/internal/ui/styles"
	"github.com/jeranaias/agentchat-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the full chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()

	var body string
	main := m.renderMain()
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	} else {
		body = main
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.renderInput(),
		m.statusBar.View(),
	)
}

// renderHeader renders the top title line.
func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("agentchat")

	subtitle := ""
	if cur := m.controller.Store().CurrentThread(); cur != nil && len(cur.Messages) > 0 {
		subtitle = m.theme.HeaderSubtitle.Render(
			util.TruncateWidth(cur.Messages[0].Content, m.width/2))
	}

	if subtitle == "" {
		return title
	}
	return title + "  " + subtitle
}

// renderMain renders the transcript viewport plus any pending/error chrome.
func (m *Model) renderMain() string {
	parts := []string{m.viewport.View()}

	if m.spinner.IsActive() {
		parts = append(parts, m.spinner.View())
	}
	if m.errBanner.Visible() {
		parts = append(parts, m.errBanner.View())
	}
	if m.notice != "" {
		parts = append(parts, styles.RenderInfo(m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderInput renders the input line.
func (m *Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width - 2).Render(m.input.View())
}

// renderTranscript renders the loaded thread's messages.
//
// Settled assistant responses go through the markdown renderer; everything
// else (user turns, tool output, still-streaming assistant text) renders as
// plain bubbles.
func (m *Model) renderTranscript() string {
	cur := m.controller.Store().CurrentThread()
	if cur == nil || len(cur.Messages) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Width(m.viewport.Width).
			Align(lipgloss.Center).
			Padding(2, 0)
		return emptyStyle.Render("No messages yet. Start a conversation!")
	}

	var parts []string
	for _, msg := range cur.Messages {
		if msg.Role == thread.RoleAssistant && !msg.IsPending && !msg.IsContentPending && msg.Content != "" {
			parts = append(parts, m.renderSettledAssistant(msg))
			continue
		}

		bubble := components.NewMessageBubble(msg, m.theme)
		bubble.SetWidth(m.viewport.Width)
		bubble.ShowTrustScores = m.showTrustScores
		parts = append(parts, bubble.View())
	}

	return strings.Join(parts, "\n")
}

// renderSettledAssistant renders a completed assistant turn as markdown with
// the trust line underneath.
func (m *Model) renderSettledAssistant(msg thread.Message) string {
	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	header := roleStyle.Render("assistant")

	content := msg.Content
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(content); err == nil {
			content = strings.TrimRight(rendered, "\n")
		}
	}

	parts := []string{header, content}

	if m.showTrustScores {
		if score, ok := components.TrustScore(msg.Metadata); ok {
			label := m.theme.TrustLabel.Render("trust ")
			value := m.theme.TrustScoreStyle(score).Render(util.FormatScorePercent(score))
			parts = append(parts, lipgloss.NewStyle().PaddingLeft(2).Render(label+value))
		}
	}
	if msg.Error != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(styles.Rose).
			PaddingLeft(2).
			Render(styles.StatusIndicators.Error+" "+msg.Error))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
