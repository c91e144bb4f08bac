// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// SSE DECODER TESTS
// =============================================================================

func collectEvents(t *testing.T, input string) []*Event {
	t.Helper()
	d := NewDecoder(strings.NewReader(input))
	var events []*Event
	for {
		ev, err := d.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		events = append(events, ev)
	}
}

func TestDecoderBasicBlocks(t *testing.T) {
	input := "event: thread.run.in_progress\ndata: {}\n\n" +
		"event: thread.message\ndata: {\"data\":{\"role\":\"assistant\",\"content\":\"Hi\"}}\n\n" +
		"event: thread.run.completed\ndata: {}\n\n"

	events := collectEvents(t, input)
	if len(events) != 3 {
		t.Fatalf("len(events) = %d, want 3", len(events))
	}
	want := []string{EventRunInProgress, EventMessage, EventRunCompleted}
	for i, name := range want {
		if events[i].Name != name {
			t.Errorf("events[%d].Name = %q, want %q", i, events[i].Name, name)
		}
	}
}

func TestDecoderEmitsOnceBothFieldsPresent(t *testing.T) {
	// data arriving before event within a block still completes it.
	input := "data: {\"x\":1}\nevent: thread.message\n\n"

	events := collectEvents(t, input)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Name != EventMessage {
		t.Errorf("Name = %q", events[0].Name)
	}
}

func TestDecoderIgnoresIncompleteBlocks(t *testing.T) {
	input := "event: thread.run.in_progress\n\n" + // no data line
		"data: {}\n\n" + // no event line
		"event: thread.run.completed\ndata: {}\n\n"

	events := collectEvents(t, input)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1 (incomplete blocks dropped)", len(events))
	}
	if events[0].Name != EventRunCompleted {
		t.Errorf("Name = %q", events[0].Name)
	}
}

func TestDecoderIgnoresUnknownLines(t *testing.T) {
	input := ": comment line\nretry: 3000\nevent: thread.run.completed\ndata: {}\n"

	events := collectEvents(t, input)
	if len(events) != 1 || events[0].Name != EventRunCompleted {
		t.Fatalf("events = %+v, want single completed event", events)
	}
}

func TestDecoderHandlesMissingTrailingNewline(t *testing.T) {
	input := "event: thread.run.completed\ndata: {}"

	events := collectEvents(t, input)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1 (final unterminated line counts)", len(events))
	}
}

func TestDecoderCRLF(t *testing.T) {
	input := "event: thread.run.completed\r\ndata: {}\r\n\r\n"

	events := collectEvents(t, input)
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if string(events[0].Data) != "{}" {
		t.Errorf("Data = %q, want {} without CR", events[0].Data)
	}
}

// =============================================================================
// PAYLOAD TESTS
// =============================================================================

func TestParseMessagePayload(t *testing.T) {
	raw := json.RawMessage(`{"data":{"role":"assistant","content":"Hello","metadata":{"trustworthiness_score":0.91}}}`)

	p, err := ParseMessagePayload(raw)
	if err != nil {
		t.Fatalf("ParseMessagePayload error = %v", err)
	}
	if p.Data.Role != "assistant" {
		t.Errorf("Role = %q", p.Data.Role)
	}
	if got := p.Data.ContentText(); got != "Hello" {
		t.Errorf("ContentText() = %q, want 'Hello'", got)
	}
	if p.Data.Metadata["trustworthiness_score"] != 0.91 {
		t.Errorf("metadata = %v", p.Data.Metadata)
	}
}

func TestContentTextStructuredPayload(t *testing.T) {
	d := MessageData{Content: json.RawMessage(`{"tool":"lookup","args":{"q":"x"}}`)}
	got := d.ContentText()
	if !strings.Contains(got, `"tool":"lookup"`) {
		t.Errorf("ContentText() = %q, want compact JSON text", got)
	}
}

func TestParseMessagePayloadMalformed(t *testing.T) {
	if _, err := ParseMessagePayload(json.RawMessage(`{invalid`)); err == nil {
		t.Error("expected error for malformed payload")
	}
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestStreamMessageRequestShape(t *testing.T) {
	var gotPath, gotThreadID, gotCleanlab, gotAccept, gotContentType string
	var gotBody streamBody

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotThreadID = r.URL.Query().Get("thread_id")
		gotCleanlab = r.URL.Query().Get("cleanlab_enabled")
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "event: thread.run.completed\ndata: {}\n\n")
	}))
	defer srv.Close()

	client := NewClientWithConfig(&Config{BaseURL: srv.URL})
	stream, err := client.StreamMessage(context.Background(), StreamRequest{
		ThreadID:        "t1",
		Content:         "Hello",
		CleanlabEnabled: true,
	})
	if err != nil {
		t.Fatalf("StreamMessage error = %v", err)
	}
	defer stream.Close()

	if gotPath != "/api/support-agent/stream" {
		t.Errorf("path = %q", gotPath)
	}
	if gotThreadID != "t1" || gotCleanlab != "true" {
		t.Errorf("query = thread_id=%q cleanlab_enabled=%q", gotThreadID, gotCleanlab)
	}
	if gotAccept != "text/event-stream" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if gotBody.Role != "user" || gotBody.Content != "Hello" || gotBody.ThreadID != "t1" {
		t.Errorf("body = %+v", gotBody)
	}

	ev, err := stream.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if ev.Name != EventRunCompleted {
		t.Errorf("event = %q", ev.Name)
	}
	if _, err := stream.Next(); err != io.EOF {
		t.Errorf("expected EOF after last event, got %v", err)
	}
}

func TestStreamMessageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClientWithConfig(&Config{BaseURL: srv.URL})
	_, err := client.StreamMessage(context.Background(), StreamRequest{ThreadID: "t1", Content: "hi"})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}

	var cerr *ClientError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type = %T, want *ClientError", err)
	}
	if cerr.Type != ErrTypeHTTPStatus {
		t.Errorf("Type = %v, want ErrTypeHTTPStatus", cerr.Type)
	}
	if cerr.Message != "HTTP error! status: 502" {
		t.Errorf("Message = %q", cerr.Message)
	}
}

func TestStreamMessageConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewClientWithConfig(&Config{BaseURL: srv.URL})
	_, err := client.StreamMessage(context.Background(), StreamRequest{ThreadID: "t1", Content: "hi"})
	if !errors.Is(err, ErrConnection) {
		t.Errorf("error = %v, want connection error", err)
	}
}

func TestDefaultConfigFill(t *testing.T) {
	client := NewClientWithConfig(&Config{})
	if client.config.StreamPath != "/api/support-agent/stream" {
		t.Errorf("StreamPath = %q", client.config.StreamPath)
	}
	if client.config.BaseURL == "" {
		t.Error("BaseURL default missing")
	}
}
