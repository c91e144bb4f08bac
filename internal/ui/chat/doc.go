// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// The chat Model is the root Bubble Tea model: it owns the input line, the
// transcript viewport, the thread sidebar, and the status bar, and drives
// the session controller for sends, retries, and thread navigation.
//
// Streams run in the controller's goroutines; the controller notifies the
// model through an update channel that is bridged into Bubble Tea messages,
// so the transcript refreshes as chunks arrive without the view layer ever
// touching a socket.
package chat
