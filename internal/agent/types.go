// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent provides the HTTP client for the support-agent streaming API.
package agent

import (
	"encoding/json"

	"github.com/jeranaias/agentchat-tui/internal/thread"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// Server-sent event names emitted by the agent service.
const (
	EventRunInProgress = "thread.run.in_progress"
	EventMessage       = "thread.message"
	EventRunCompleted  = "thread.run.completed"
	EventRunFailed     = "thread.run.failed"
)

// Event is one decoded server-sent event block.
type Event struct {
	Name string
	// Data is the raw JSON payload; callers decode per event name.
	Data json.RawMessage
}

// MessagePayload is the payload of a thread.message event.
type MessagePayload struct {
	Data MessageData `json:"data"`
}

// MessageData is the message carried by a thread.message event. Content is
// raw because tool messages may carry a structured payload where assistant
// messages carry plain text.
type MessageData struct {
	ID       string          `json:"id,omitempty"`
	Role     thread.Role     `json:"role"`
	Content  json.RawMessage `json:"content"`
	Metadata thread.Metadata `json:"metadata,omitempty"`
}

// ContentText returns the message content as text. Strings decode directly;
// structured payloads serialize to compact JSON at this boundary.
func (d MessageData) ContentText() string {
	if len(d.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(d.Content, &s); err == nil {
		return s
	}
	var v any
	if err := json.Unmarshal(d.Content, &v); err != nil {
		return string(d.Content)
	}
	return thread.SerializeToolPayload(v)
}

// ParseMessagePayload decodes a thread.message payload.
func ParseMessagePayload(data json.RawMessage) (*MessagePayload, error) {
	var p MessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// STREAM REQUEST
// =============================================================================

// StreamRequest describes one user turn sent to the streaming endpoint.
type StreamRequest struct {
	ThreadID        string
	Content         string
	CleanlabEnabled bool
}

// streamBody is the JSON request body.
type streamBody struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	ThreadID string `json:"thread_id"`
}
