// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import tea "github.com/charmbracelet/bubbletea"

// ChatSurface is the conversation view. The shell passes it no state and
// never inspects its state.
//
// Surfaces receive a tea.WindowSizeMsg carrying the body size (the window
// minus header and footer) when mounted and on every resize.
type ChatSurface interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View() string
}

// AdminProps is what the shell hands the admin surface on every Update and View.
type AdminProps struct {
	// Authenticated is a snapshot of the shell's flag.
	Authenticated bool

	// SetAuthenticated writes the shell's flag. The new value is visible
	// to the next View.
	SetAuthenticated func(bool)
}

// AdminSurface is the admin login/dashboard view.
type AdminSurface interface {
	Init() tea.Cmd
	Update(msg tea.Msg, props AdminProps) tea.Cmd
	View(props AdminProps) string
}

// ChatFactory builds a fresh chat surface each time CHAT is mounted.
type ChatFactory func() ChatSurface

// AdminFactory builds a fresh admin surface each time ADMIN is mounted.
type AdminFactory func() AdminSurface
