// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jeranaias/memchat-tui/internal/config"
)

// SelectViewMsg asks the shell to activate a view through the event loop.
type SelectViewMsg struct {
	View View
}

// SelectViewCmd returns a command producing SelectViewMsg.
func SelectViewCmd(v View) tea.Cmd {
	return func() tea.Msg {
		return SelectViewMsg{View: v}
	}
}

// ConfigReloadedMsg carries a reloaded ui config section. Header and footer
// text are replaced; the view state is untouched.
type ConfigReloadedMsg struct {
	UI config.UIConfig
}
