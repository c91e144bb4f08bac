// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package agent

import (
	"bufio"
	"io"
	"strings"
)

// =============================================================================
// SSE DECODER
// =============================================================================

// Decoder incrementally parses a server-sent event stream. The body is
// decoded as UTF-8 text and split on line boundaries; an `event:` line and
// a `data:` line accumulate into a block that is emitted as soon as both
// are present. Blank lines discard an incomplete block, and any other line
// is ignored.
type Decoder struct {
	reader *bufio.Reader

	event    string
	hasEvent bool
	data     string
	hasData  bool
}

// NewDecoder creates a decoder over a streaming response body.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: bufio.NewReader(r)}
}

// Next returns the next complete event. It returns io.EOF when the stream
// ends; a block left incomplete at end-of-stream is dropped, matching the
// framing contract that a block without both fields is ignored.
func (d *Decoder) Next() (*Event, error) {
	for {
		line, err := d.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && line != "" {
				// Final line without a trailing newline still counts.
				if ev := d.consumeLine(line); ev != nil {
					return ev, nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		if ev := d.consumeLine(line); ev != nil {
			return ev, nil
		}
	}
}

// consumeLine folds one line into the pending block and returns the event
// once both fields have been seen.
func (d *Decoder) consumeLine(line string) *Event {
	line = strings.TrimRight(line, "\r\n")

	switch {
	case line == "":
		d.reset()
		return nil
	case strings.HasPrefix(line, "event: "):
		d.event = line[len("event: "):]
		d.hasEvent = true
	case strings.HasPrefix(line, "data: "):
		d.data = line[len("data: "):]
		d.hasData = true
	default:
		return nil
	}

	if d.hasEvent && d.hasData {
		ev := &Event{Name: d.event, Data: []byte(d.data)}
		d.reset()
		return ev
	}
	return nil
}

func (d *Decoder) reset() {
	d.event = ""
	d.hasEvent = false
	d.data = ""
	d.hasData = false
}
