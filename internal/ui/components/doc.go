// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the agentchat TUI.
//
// Components render domain state (threads, messages, trust scores, stream
// errors) into styled terminal output. They are plain view helpers plus a few
// small Bubble Tea models; all interactive state lives in the chat package.
//
// # Key Components
//
//   - MessageBubble: Chat transcript rendering, one conversational turn
//   - ErrorBanner: Failed-stream banner with the retry action label
//   - Sidebar: Thread history list with filtering
//   - StatusBar: Stream status, trust toggle, and shortcuts
//   - CodeBlock: Syntax-highlighted code blocks via chroma
//   - Spinner: Loading indicators for pending streams
package components
