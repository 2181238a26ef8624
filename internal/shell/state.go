// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

// State is the shell's process-local UI state. It is never persisted.
type State struct {
	// ActiveView selects the mounted surface.
	ActiveView View

	// AdminAuthenticated gates the admin dashboard. Only the admin surface
	// sets it to true, through AdminProps.SetAuthenticated.
	AdminAuthenticated bool
}

// NewState returns the initial state: chat view, not authenticated.
func NewState() State {
	return State{ActiveView: ViewChat}
}
