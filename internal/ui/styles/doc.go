// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the agentchat TUI.
//
// All colors use Lip Gloss AdaptiveColor so the palette adjusts to light and
// dark terminal backgrounds automatically. The Theme type bundles every style
// the chat view, sidebar, and components need, configured once at startup.
//
// # Key Types
//
//   - Theme: All styled components, plus terminal capability detection
//   - LayoutMode: Responsive layout breakpoints (narrow/medium/wide)
//   - StatusIndicatorSet: ASCII shape indicators for colorblind accessibility
//
// # Usage
//
//	theme := styles.NewTheme()
//	theme.SetSize(width, height)
//
//	rendered := theme.AssistantBubble.Render(content)
//	score := theme.TrustScoreStyle(0.91).Render("91%")
package styles
