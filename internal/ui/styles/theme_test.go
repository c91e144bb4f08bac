// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	// Spot-check that core styles are configured.
	if !theme.HeaderTitle.GetBold() {
		t.Error("HeaderTitle should be bold")
	}
	if !theme.ThreadItemSelected.GetBold() {
		t.Error("ThreadItemSelected should be bold")
	}
	if theme.UserBubble.GetMarginLeft() == 0 {
		t.Error("UserBubble should be indented from the left")
	}
	if theme.AssistantBubble.GetMarginRight() == 0 {
		t.Error("AssistantBubble should be indented from the right")
	}
}

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(120, 40)

	if theme.Width != 120 || theme.Height != 40 {
		t.Errorf("SetSize: got %dx%d, want 120x40", theme.Width, theme.Height)
	}
}

func TestGetLayoutMode(t *testing.T) {
	testCases := []struct {
		width    int
		expected LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	theme := NewTheme()
	for _, tc := range testCases {
		theme.SetSize(tc.width, 24)
		if got := theme.GetLayoutMode(); got != tc.expected {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tc.width, got, tc.expected)
		}
	}
}

func TestTrustScoreColor(t *testing.T) {
	testCases := []struct {
		score    float64
		expected string
	}{
		{0.95, TrustHigh.Dark},
		{0.8, TrustHigh.Dark},
		{0.65, TrustMedium.Dark},
		{0.5, TrustMedium.Dark},
		{0.2, TrustLow.Dark},
		{0, TrustLow.Dark},
	}

	for _, tc := range testCases {
		if got := TrustScoreColor(tc.score); got.Dark != tc.expected {
			t.Errorf("TrustScoreColor(%v).Dark = %q, want %q", tc.score, got.Dark, tc.expected)
		}
	}
}

func TestRenderIndicators(t *testing.T) {
	if got := RenderError("stream failed"); got == "" {
		t.Error("RenderError returned empty string")
	}
	if got := RenderInfo("reconnecting"); got == "" {
		t.Error("RenderInfo returned empty string")
	}
}
