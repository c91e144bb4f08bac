// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the agent client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is checks against sentinel client errors by type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeHTTPStatus
	ErrTypeNoBody
	ErrTypeStreamRead
)

// Sentinel errors for easy checking.
var (
	ErrConnection = &ClientError{Type: ErrTypeConnection, Message: "connection to agent service failed"}
	ErrNoBody     = &ClientError{Type: ErrTypeNoBody, Message: "response has no streaming body"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the agent client.
type Config struct {
	// BaseURL is the agent service base URL.
	BaseURL string

	// StreamPath is the streaming endpoint path
	// (default: /api/support-agent/stream).
	StreamPath string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://127.0.0.1:8000",
		StreamPath: "/api/support-agent/stream",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the agent service.
//
// The Client is thread-safe for concurrent use. The streaming HTTP client
// carries no timeout: a response streams for as long as the agent keeps
// talking, and failure is detected through the transport, the status code,
// or the stream ending early.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates an agent client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates an agent client with custom configuration.
func NewClientWithConfig(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.StreamPath == "" {
		config.StreamPath = "/api/support-agent/stream"
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{},
	}
}

// =============================================================================
// STREAMING
// =============================================================================

// Stream is one open streaming response. The caller owns it and must Close
// it when done reading.
type Stream struct {
	body    io.ReadCloser
	decoder *Decoder
}

// Next returns the next server event, or io.EOF when the stream ends.
func (s *Stream) Next() (*Event, error) {
	ev, err := s.decoder.Next()
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &ClientError{Type: ErrTypeStreamRead, Message: "stream read failed", Cause: err}
	}
	return ev, nil
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.body.Close()
}

// StreamMessage posts one user turn and returns the open event stream.
//
// The request is POST {base}{path}?thread_id=...&cleanlab_enabled=... with
// a JSON body {role, content, thread_id} and an Accept: text/event-stream
// header. A non-2xx status is returned as a ClientError carrying the
// status code in its message.
func (c *Client) StreamMessage(ctx context.Context, req StreamRequest) (*Stream, error) {
	endpoint, err := c.streamURL(req)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "invalid agent service URL", Cause: err}
	}

	body, err := json.Marshal(streamBody{
		Role:     "user",
		Content:  req.Content,
		ThreadID: req.ThreadID,
	})
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnknown, Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "connection to agent service failed", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &ClientError{
			Type:    ErrTypeHTTPStatus,
			Message: "HTTP error! status: " + strconv.Itoa(resp.StatusCode),
		}
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrNoBody
	}

	return &Stream{
		body:    resp.Body,
		decoder: NewDecoder(resp.Body),
	}, nil
}

// streamURL builds the endpoint URL with thread and feature-flag query
// parameters.
func (c *Client) streamURL(req StreamRequest) (string, error) {
	u, err := url.Parse(strings.TrimRight(c.config.BaseURL, "/") + c.config.StreamPath)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("thread_id", req.ThreadID)
	q.Set("cleanlab_enabled", strconv.FormatBool(req.CleanlabEnabled))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
