// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// storeUpdatedMsg signals that the session controller mutated the message
// store or history; the view re-reads state and re-renders.
type storeUpdatedMsg struct{}

// historyReloadedMsg signals that the history file was rewritten on disk and
// the sidebar should refresh.
type historyReloadedMsg struct{}

// sendFailedMsg carries a synchronous send/retry rejection (empty input,
// throttled, already pending).
type sendFailedMsg struct {
	err error
}
