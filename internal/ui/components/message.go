// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/agentchat-tui/internal/thread"
	"github.com/jeranaias/agentchat-tui/internal/ui/styles"
	"github.com/jeranaias/agentchat-tui/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders a single conversational turn.
type MessageBubble struct {
	Message         thread.Message
	Width           int
	IsLatest        bool
	ShowTrustScores bool
	theme           *styles.Theme
}

// NewMessageBubble creates a new MessageBubble.
func NewMessageBubble(msg thread.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:         msg,
		Width:           80,
		ShowTrustScores: true,
		theme:           theme,
	}
}

// SetWidth sets the bubble width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// SetIsLatest marks this as the latest message.
func (b *MessageBubble) SetIsLatest(latest bool) {
	b.IsLatest = latest
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	switch b.Message.Role {
	case thread.RoleUser:
		return b.renderUserBubble()
	case thread.RoleAssistant:
		return b.renderAssistantBubble()
	case thread.RoleTool:
		return b.renderToolBubble()
	default:
		return b.renderGenericBubble()
	}
}

// ==========================================================================
// USER BUBBLE - Blue tones, right-aligned feel
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	content := b.Message.Content
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	contentWidth := minInt(maxLineWidth(wrappedContent)+4, b.Width-8)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.UserBubbleFg).
		Background(styles.UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.UserBubbleBorder).
		Padding(0, 2).
		Width(contentWidth)

	bubble := bubbleStyle.Render(wrappedContent)

	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	header := roleStyle.Render("you")
	if b.Message.IsPending {
		header += " " + roleStyle.Render("(sending)")
	}

	// Right-align the bubble with left margin
	leftMargin := b.Width - contentWidth - 4
	if leftMargin < 0 {
		leftMargin = 0
	}
	marginStyle := lipgloss.NewStyle().MarginLeft(leftMargin)

	return lipgloss.JoinVertical(lipgloss.Right,
		marginStyle.Render(header),
		marginStyle.Render(bubble),
	)
}

// ==========================================================================
// ASSISTANT BUBBLE - Purple/violet tones, left-aligned
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	content := b.Message.Content

	// Show cursor while content is still streaming in.
	if b.Message.IsContentPending {
		content += b.renderStreamingCursor()
	}
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	contentWidth := minInt(maxLineWidth(wrappedContent)+4, b.Width-8)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.AssistantBubbleFg).
		Background(styles.AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.AssistantBubbleBorder).
		Padding(0, 2).
		Width(contentWidth).
		MarginRight(4)

	bubble := bubbleStyle.Render(wrappedContent)

	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	header := roleStyle.Render("assistant")

	result := lipgloss.JoinVertical(lipgloss.Left, header, bubble)

	if trustLine := b.renderTrustLine(); trustLine != "" {
		result = lipgloss.JoinVertical(lipgloss.Left, result, trustLine)
	}
	if b.Message.Error != "" {
		errLine := lipgloss.NewStyle().
			Foreground(styles.Rose).
			PaddingLeft(2).
			Render(styles.StatusIndicators.Error + " " + b.Message.Error)
		result = lipgloss.JoinVertical(lipgloss.Left, result, errLine)
	}

	return result
}

// ==========================================================================
// TOOL BUBBLE - Emerald left border, dimmed body
// ==========================================================================

func (b *MessageBubble) renderToolBubble() string {
	maxContentWidth := b.Width - 10
	if maxContentWidth < 30 {
		maxContentWidth = 30
	}

	// Serialized tool payloads render as highlighted JSON; anything else is
	// treated as text with fenced and inline code passed through the
	// code-block renderer.
	var body string
	if pretty, ok := prettyJSON(b.Message.Content); ok {
		content, truncated := truncateLines(pretty, toolOutputMaxLines)
		cb := NewCodeBlock("json", content)
		cb.SetMaxWidth(maxContentWidth)
		body = cb.Render()
		if truncated {
			body += "\n... (output truncated)"
		}
	} else {
		content, truncated := truncateLines(b.Message.Content, toolOutputMaxLines)
		if truncated {
			content += "\n... (output truncated)"
		}
		body = ParseInlineCode(ParseCodeBlocks(content, maxContentWidth))
	}

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.ToolBlockFg).
		Background(styles.ToolBlockBg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Emerald).
		BorderLeft(true).
		PaddingLeft(2).
		MaxWidth(b.Width - 4)

	bubble := bubbleStyle.Render(body)

	headerStyle := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Bold(true)
	header := headerStyle.Render("tool")

	return lipgloss.JoinVertical(lipgloss.Left, header, bubble)
}

// toolOutputMaxLines caps how much tool output one bubble shows.
const toolOutputMaxLines = 20

// truncateLines keeps the first max lines and reports whether anything was
// cut.
func truncateLines(s string, max int) (string, bool) {
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s, false
	}
	return strings.Join(lines[:max], "\n"), true
}

// prettyJSON re-indents a serialized JSON payload for display. Reports
// false for content that is not a JSON object or array.
func prettyJSON(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return "", false
	}
	return buf.String(), true
}

// ==========================================================================
// GENERIC BUBBLE - Fallback for unknown roles
// ==========================================================================

func (b *MessageBubble) renderGenericBubble() string {
	content := b.Message.Content
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 10
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 2)

	return bubbleStyle.Render(wrappedContent)
}

// ==========================================================================
// HELPER METHODS
// ==========================================================================

// renderTrustLine renders the trustworthiness score under an assistant
// message, colored by score band. Empty when the score is absent, still
// pending, or disabled.
func (b *MessageBubble) renderTrustLine() string {
	if !b.ShowTrustScores || b.Message.IsPending || b.Message.IsContentPending {
		return ""
	}
	score, ok := TrustScore(b.Message.Metadata)
	if !ok {
		return ""
	}

	label := b.theme.TrustLabel.Render("trust ")
	value := b.theme.TrustScoreStyle(score).Render(util.FormatScorePercent(score))

	line := label + value
	if flagged, ok := b.Message.Metadata["guardrailed"].(bool); ok && flagged {
		line += " " + b.theme.TrustLabel.Render("(guardrailed)")
	}

	return lipgloss.NewStyle().PaddingLeft(2).Render(line)
}

// renderStreamingCursor renders the streaming cursor animation.
func (b *MessageBubble) renderStreamingCursor() string {
	cursorStyle := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Blink(true)
	return cursorStyle.Render("_")
}

// TrustScore extracts the trustworthiness score from message metadata.
// Handles both float64 (decoded JSON) and int values.
func TrustScore(md thread.Metadata) (float64, bool) {
	v, ok := md["trustworthiness_score"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// ==========================================================================
// UTILITY FUNCTIONS
// ==========================================================================

// wordWrap wraps text to fit within the specified width.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for lineIdx, line := range lines {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLine := words[0]
		for _, word := range words[1:] {
			if util.RuneLen(currentLine)+1+util.RuneLen(word) <= width {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}

		result.WriteString(currentLine)
	}

	return result.String()
}

// maxLineWidth returns the width of the longest line in runes (characters).
func maxLineWidth(text string) int {
	maxWidth := 0
	for _, line := range strings.Split(text, "\n") {
		lineWidth := util.RuneLen(line)
		if lineWidth > maxWidth {
			maxWidth = lineWidth
		}
	}
	return maxWidth
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
