// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package thread

import "testing"

// =============================================================================
// IDENTITY TESTS
// =============================================================================

func TestSameByIDOrLocalID(t *testing.T) {
	tests := []struct {
		name string
		a, b Message
		want bool
	}{
		{
			name: "matching server ids",
			a:    Message{ID: "m1"},
			b:    Message{ID: "m1", LocalID: "other"},
			want: true,
		},
		{
			name: "matching local ids",
			a:    Message{LocalID: "l1"},
			b:    Message{LocalID: "l1"},
			want: true,
		},
		{
			name: "empty ids never match",
			a:    Message{},
			b:    Message{},
			want: false,
		},
		{
			name: "different ids",
			a:    Message{ID: "m1", LocalID: "l1"},
			b:    Message{ID: "m2", LocalID: "l2"},
			want: false,
		},
		{
			name: "server id wins over differing local ids",
			a:    Message{ID: "m1", LocalID: "l1"},
			b:    Message{ID: "m1", LocalID: "l2"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameByIDOrLocalID(tt.a, tt.b); got != tt.want {
				t.Errorf("SameByIDOrLocalID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hello")
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want 'user'", msg.Role)
	}
	if msg.Content != "hello" {
		t.Errorf("Content = %q, want 'hello'", msg.Content)
	}
	if msg.LocalID == "" {
		t.Error("expected a generated local id")
	}
	if msg.IsPending {
		t.Error("user message should not start pending")
	}
}

func TestNewPendingAssistantMessage(t *testing.T) {
	msg := NewPendingAssistantMessage()
	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want 'assistant'", msg.Role)
	}
	if !msg.IsPending || !msg.IsContentPending {
		t.Error("placeholder must be pending and content-pending")
	}
	if msg.Content != "" {
		t.Errorf("Content = %q, want empty", msg.Content)
	}
}

func TestSerializeToolPayload(t *testing.T) {
	if got := SerializeToolPayload("plain text"); got != "plain text" {
		t.Errorf("string payload = %q, want passthrough", got)
	}
	got := SerializeToolPayload(map[string]any{"tool": "search"})
	if got != `{"tool":"search"}` {
		t.Errorf("structured payload = %q", got)
	}
}

// =============================================================================
// METADATA TESTS
// =============================================================================

func TestMetadataMergeSkipsNil(t *testing.T) {
	base := Metadata{"trustworthiness_score": 0.92, "guardrailed": false}
	merged := base.Merge(Metadata{"trustworthiness_score": nil, "guardrailed": true})

	if merged["trustworthiness_score"] != 0.92 {
		t.Errorf("nil value erased key: got %v", merged["trustworthiness_score"])
	}
	if merged["guardrailed"] != true {
		t.Errorf("guardrailed = %v, want true", merged["guardrailed"])
	}
	if base["guardrailed"] != false {
		t.Error("Merge mutated the receiver")
	}
}

func TestMetadataMergeIntoNil(t *testing.T) {
	var base Metadata
	merged := base.Merge(Metadata{"k": "v"})
	if merged["k"] != "v" {
		t.Errorf("merged[k] = %v, want 'v'", merged["k"])
	}
}

func TestMetadataCloneDeep(t *testing.T) {
	base := Metadata{"nested": map[string]any{"score": 0.5}}
	clone := base.Clone()
	clone["nested"].(map[string]any)["score"] = 0.9
	if base["nested"].(map[string]any)["score"] != 0.5 {
		t.Error("Clone shares nested map with original")
	}
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
		pending  bool
	}{
		{StatusThreadPending, false, true},
		{StatusResponsePending, false, true},
		{StatusContentPending, false, true},
		{StatusMetadataPending, false, true},
		{StatusComplete, true, false},
		{StatusFailed, true, false},
		{"", false, false},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%q.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
		if got := tt.status.Pending(); got != tt.pending {
			t.Errorf("%q.Pending() = %v, want %v", tt.status, got, tt.pending)
		}
	}
}

func TestErrorForStatus(t *testing.T) {
	tests := []struct {
		status     Status
		wantMsg    string
		wantRetry  bool
		wantLabel  string
		wantAbsent bool
	}{
		{status: "", wantMsg: "Could not create thread", wantRetry: true},
		{status: StatusThreadPending, wantMsg: "Could not create thread", wantRetry: true},
		{status: StatusResponsePending, wantMsg: "Unable to send message", wantRetry: true},
		{status: StatusContentPending, wantMsg: "Response did not complete", wantRetry: true, wantLabel: RetryLabelSendAgain},
		{status: StatusMetadataPending, wantMsg: "Could not retrieve trustworthiness score", wantRetry: true, wantLabel: RetryLabelSendAgain},
		{status: StatusComplete, wantAbsent: true},
		{status: StatusFailed, wantAbsent: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			err := ErrorForStatus(tt.status)
			if tt.wantAbsent {
				if err != nil {
					t.Fatalf("expected nil error, got %+v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.CanRetry != tt.wantRetry {
				t.Errorf("CanRetry = %v, want %v", err.CanRetry, tt.wantRetry)
			}
			if err.RetryLabel != tt.wantLabel {
				t.Errorf("RetryLabel = %q, want %q", err.RetryLabel, tt.wantLabel)
			}
			if err.AtStatus != tt.status {
				t.Errorf("AtStatus = %q, want %q", err.AtStatus, tt.status)
			}
		})
	}
}

// =============================================================================
// CURRENT THREAD TESTS
// =============================================================================

func TestCurrentThreadMatches(t *testing.T) {
	th := &CurrentThread{ThreadID: "t1", LocalThreadID: "l1"}

	if !th.Matches("t1", "") {
		t.Error("should match by server thread id")
	}
	if !th.Matches("", "l1") {
		t.Error("should match by local thread id")
	}
	if th.Matches("t2", "l2") {
		t.Error("should not match foreign ids")
	}
	if th.Matches("", "") {
		t.Error("empty ids must not match")
	}

	var nilThread *CurrentThread
	if nilThread.Matches("t1", "l1") {
		t.Error("nil thread matches nothing")
	}
}

func TestCurrentThreadMessageLookups(t *testing.T) {
	th := &CurrentThread{
		Messages: []Message{
			{Role: RoleUser, Content: "first question"},
			{Role: RoleAssistant, Content: "first answer"},
			{Role: RoleUser, Content: "second question"},
			{Role: RoleAssistant, Content: "second answer"},
		},
	}

	if got := th.FirstUserMessage(); got == nil || got.Content != "first question" {
		t.Errorf("FirstUserMessage = %+v", got)
	}
	if got := th.LastUserMessage(); got == nil || got.Content != "second question" {
		t.Errorf("LastUserMessage = %+v", got)
	}
	if got := th.LatestAssistantMessage(); got == nil || got.Content != "second answer" {
		t.Errorf("LatestAssistantMessage = %+v", got)
	}

	empty := &CurrentThread{}
	if empty.FirstUserMessage() != nil || empty.LatestAssistantMessage() != nil {
		t.Error("lookups on empty thread should return nil")
	}
}

func TestCurrentThreadClone(t *testing.T) {
	th := &CurrentThread{
		ThreadID: "t1",
		Messages: []Message{{Role: RoleUser, Content: "hi", Metadata: Metadata{"k": "v"}}},
		Error:    &ThreadError{Message: "boom"},
	}
	clone := th.Clone()
	clone.Messages[0].Content = "changed"
	clone.Messages[0].Metadata["k"] = "changed"
	clone.Error.Message = "changed"

	if th.Messages[0].Content != "hi" {
		t.Error("Clone shares message slice")
	}
	if th.Messages[0].Metadata["k"] != "v" {
		t.Error("Clone shares metadata")
	}
	if th.Error.Message != "boom" {
		t.Error("Clone shares error")
	}
}

func TestCurrentThreadTitle(t *testing.T) {
	th := &CurrentThread{Messages: []Message{{Role: RoleUser, Content: "How do I change my flight booking to a later date"}}}
	if got := th.Title(); len([]rune(got)) > 50 {
		t.Errorf("title exceeds 50 runes: %q", got)
	}
	empty := &CurrentThread{}
	if got := empty.Title(); got != "New thread" {
		t.Errorf("Title = %q, want 'New thread'", got)
	}
}

func TestPreview(t *testing.T) {
	msg := Message{Content: "héllo wörld this is a fairly long unicode message"}
	got := msg.Preview(10)
	if len([]rune(got)) != 10 {
		t.Errorf("Preview length = %d runes, want 10", len([]rune(got)))
	}
	short := Message{Content: "short"}
	if short.Preview(10) != "short" {
		t.Error("short content should pass through untouched")
	}
}
