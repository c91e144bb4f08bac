// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package thread contains the data structures for chat threads and messages.
package thread

import (
	"encoding/json"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// =============================================================================
// METADATA
// =============================================================================

// Metadata is an open key-value bag attached to a message. It carries
// trustworthiness scores, guardrail flags, original-response text and
// whatever else the agent service chooses to report.
type Metadata map[string]any

// Clone returns a copy of the metadata. Nested values are copied one level
// deep via JSON round-trip when they are maps or slices.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge returns a new Metadata with entries from other applied on top of m.
// Nil values in other are skipped, so a partial update can never erase a
// previously received key. Neither input is mutated.
func (m Metadata) Merge(other Metadata) Metadata {
	out := m.Clone()
	if out == nil {
		out = make(Metadata, len(other))
	}
	for k, v := range other {
		if v == nil {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return v
		}
		var copied any
		if err := json.Unmarshal(data, &copied); err != nil {
			return v
		}
		return copied
	default:
		return v
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single conversational turn.
//
// Identity: a message carries a client-generated LocalID from the moment it
// is created, and a server-assigned ID once the agent service acknowledges
// it. Two messages are the same message when either their IDs match (both
// non-empty) or their LocalIDs match; see SameByIDOrLocalID.
type Message struct {
	// Identity
	LocalID string `json:"localId,omitempty"`
	ID      string `json:"id,omitempty"`

	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Metadata is merged, never replaced, on update.
	Metadata Metadata `json:"metadata,omitempty"`

	// Transient streaming flags. Always false once the thread reaches a
	// terminal state.
	IsPending        bool `json:"isPending,omitempty"`
	IsContentPending bool `json:"isContentPending,omitempty"`

	// Error holds a message-level failure, e.g. when the stream dropped
	// while this message was still pending.
	Error string `json:"error,omitempty"`
}

// NewLocalID generates a client-side identifier for optimistic UI matching.
func NewLocalID() string {
	return uuid.NewString()
}

// NewUserMessage creates a user message with a fresh local id.
func NewUserMessage(content string) Message {
	return Message{
		LocalID:  NewLocalID(),
		Role:     RoleUser,
		Content:  content,
		Metadata: Metadata{},
	}
}

// NewPendingAssistantMessage creates the optimistic assistant placeholder
// shown while a response is streaming in.
func NewPendingAssistantMessage() Message {
	return Message{
		LocalID:          NewLocalID(),
		Role:             RoleAssistant,
		Content:          "",
		Metadata:         Metadata{},
		IsPending:        true,
		IsContentPending: true,
	}
}

// NewAssistantMessage creates an assistant message from streamed content.
func NewAssistantMessage(content string, metadata Metadata) Message {
	if metadata == nil {
		metadata = Metadata{}
	}
	return Message{
		LocalID:  NewLocalID(),
		Role:     RoleAssistant,
		Content:  content,
		Metadata: metadata,
	}
}

// NewToolMessage creates a tool message. Structured payloads are serialized
// to JSON text at this boundary; plain strings pass through unchanged.
func NewToolMessage(payload any, metadata Metadata) Message {
	if metadata == nil {
		metadata = Metadata{}
	}
	return Message{
		LocalID:  NewLocalID(),
		Role:     RoleTool,
		Content:  SerializeToolPayload(payload),
		Metadata: metadata,
	}
}

// SerializeToolPayload converts a tool payload to its text form. Strings are
// returned as-is; anything else is marshaled to compact JSON.
func SerializeToolPayload(payload any) string {
	if s, ok := payload.(string); ok {
		return s
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(data)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// SameByIDOrLocalID reports whether a and b identify the same message:
// matching non-empty server IDs, or matching non-empty local ids.
func SameByIDOrLocalID(a, b Message) bool {
	if a.ID != "" && a.ID == b.ID {
		return true
	}
	if a.LocalID != "" && a.LocalID == b.LocalID {
		return true
	}
	return false
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	out := m
	out.Metadata = m.Metadata.Clone()
	return out
}

// CloneMessages returns a deep copy of a message slice.
func CloneMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	for i, msg := range messages {
		out[i] = msg.Clone()
	}
	return out
}

// Preview returns a truncated single-line preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m Message) IsEmpty() bool {
	return len(m.Content) == 0
}
