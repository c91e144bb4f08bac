// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package buffer

import (
	"testing"

	"github.com/jeranaias/agentchat-tui/internal/thread"
)

func TestAppendAssistantChunkConcatenates(t *testing.T) {
	r := NewRegistry()

	r.AppendAssistantChunk("t1", thread.Message{Role: thread.RoleAssistant, Content: "Hel"})
	r.AppendAssistantChunk("t1", thread.Message{Role: thread.RoleAssistant, Content: "lo"})

	got := r.Snapshot("t1")
	if len(got) != 1 {
		t.Fatalf("len(buffer) = %d, want 1 merged entry", len(got))
	}
	if got[0].Content != "Hello" {
		t.Errorf("Content = %q, want 'Hello'", got[0].Content)
	}
}

func TestAppendAssistantChunkMergesMetadata(t *testing.T) {
	r := NewRegistry()

	r.AppendAssistantChunk("t1", thread.Message{
		Role:     thread.RoleAssistant,
		Content:  "part",
		Metadata: thread.Metadata{"trustworthiness_score": 0.7},
	})
	r.AppendAssistantChunk("t1", thread.Message{
		Role:     thread.RoleAssistant,
		Metadata: thread.Metadata{"trustworthiness_score": nil, "guardrailed": true},
	})

	got := r.Snapshot("t1")
	md := got[0].Metadata
	if md["trustworthiness_score"] != 0.7 {
		t.Errorf("score = %v, nil merge must not erase it", md["trustworthiness_score"])
	}
	if md["guardrailed"] != true {
		t.Errorf("guardrailed = %v, want true", md["guardrailed"])
	}
}

func TestAssistantChunkAfterToolStartsNewEntry(t *testing.T) {
	r := NewRegistry()

	r.AppendAssistantChunk("t1", thread.Message{Role: thread.RoleAssistant, Content: "first"})
	r.AppendTool("t1", thread.Message{Role: thread.RoleTool, Content: `{"q":"x"}`})
	r.AppendAssistantChunk("t1", thread.Message{Role: thread.RoleAssistant, Content: "second"})

	got := r.Snapshot("t1")
	if len(got) != 3 {
		t.Fatalf("len(buffer) = %d, want 3", len(got))
	}
	if got[2].Content != "second" {
		t.Errorf("trailing entry = %q, want new assistant entry", got[2].Content)
	}
}

func TestSeedFromMessagesOnlyWhenEmpty(t *testing.T) {
	r := NewRegistry()
	seed := []thread.Message{
		{Role: thread.RoleUser, Content: "earlier question"},
		{Role: thread.RoleAssistant, Content: "earlier answer"},
	}

	r.SeedFromMessages("t1", seed)
	if got := r.Snapshot("t1"); len(got) != 2 {
		t.Fatalf("seed on empty buffer: len = %d, want 2", len(got))
	}

	r.SeedFromMessages("t1", []thread.Message{{Role: thread.RoleUser, Content: "other"}})
	got := r.Snapshot("t1")
	if len(got) != 2 || got[0].Content != "earlier question" {
		t.Error("second seed must be a no-op on a non-empty buffer")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	r := NewRegistry()
	r.AppendUser("t1", thread.Message{Role: thread.RoleUser, Content: "hi", Metadata: thread.Metadata{"k": "v"}})

	snap := r.Snapshot("t1")
	snap[0].Content = "mutated"
	snap[0].Metadata["k"] = "mutated"

	got := r.Snapshot("t1")
	if got[0].Content != "hi" || got[0].Metadata["k"] != "v" {
		t.Error("Snapshot must not share state with the buffer")
	}
}

func TestClear(t *testing.T) {
	r := NewRegistry()
	r.AppendUser("t1", thread.Message{Role: thread.RoleUser, Content: "hi"})
	r.AppendUser("t2", thread.Message{Role: thread.RoleUser, Content: "other"})

	r.Clear("t1")

	if got := r.Snapshot("t1"); got != nil {
		t.Errorf("cleared buffer snapshot = %v, want nil", got)
	}
	if got := r.Snapshot("t2"); len(got) != 1 {
		t.Error("Clear must only drop the named thread")
	}
}

func TestIndependentThreads(t *testing.T) {
	r := NewRegistry()
	r.AppendAssistantChunk("t1", thread.Message{Role: thread.RoleAssistant, Content: "one"})
	r.AppendAssistantChunk("t2", thread.Message{Role: thread.RoleAssistant, Content: "two"})

	if got := r.Snapshot("t1"); got[0].Content != "one" {
		t.Errorf("t1 buffer = %q", got[0].Content)
	}
	if got := r.Snapshot("t2"); got[0].Content != "two" {
		t.Errorf("t2 buffer = %q", got[0].Content)
	}
}

func TestEmptyThreadIDIgnored(t *testing.T) {
	r := NewRegistry()
	r.AppendUser("", thread.Message{Role: thread.RoleUser, Content: "hi"})
	r.AppendAssistantChunk("", thread.Message{Role: thread.RoleAssistant, Content: "hi"})

	if got := r.Snapshot(""); got != nil {
		t.Errorf("empty-id buffer = %v, want nothing recorded", got)
	}
}
