// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives the conversation lifecycle: sending a user
// message, consuming the agent's event stream, and settling the thread
// into history.
//
// # Key Types
//
//   - Controller: Owns one in-flight stream at a time and applies its
//     events to the message store and buffer registry
//   - Options: Feature flags and send throttling for the controller
//
// # Usage
//
// Create a controller and send a message:
//
//	c := session.NewController(client, store.New(), buffer.NewRegistry(), hist, session.Options{})
//	c.OnUpdate = func() { /* repaint */ }
//	if err := c.SendMessage(ctx, "What is my baggage allowance?"); err != nil {
//	    // rejected before the stream started (throttled, already pending)
//	}
//
// The stream runs on its own goroutine; every state change fires
// OnUpdate. When the thread reaches a terminal status the controller
// writes it to history and clears the streaming buffer.
//
// Reopen a saved thread:
//
//	c.OpenThread(threadID, nil) // hydrates messages from history
package session
