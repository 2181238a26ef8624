// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/memchat-tui/internal/model"
)

// View renders the transcript above the input line.
func (m *Model) View() string {
	rule := m.theme.MutedStyle.Render(strings.Repeat("─", m.width))
	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		rule,
		m.renderInput(),
		m.renderHints(),
	)
}

func (m *Model) renderInput() string {
	if m.pending {
		return m.spinner.View() + " " + m.theme.Pending.Render(m.assistantName+" is thinking...  (esc to cancel)")
	}
	return m.input.View()
}

func (m *Model) renderHints() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	// MaxWidth is escape-aware; the parts are already styled.
	return lipgloss.NewStyle().MaxWidth(m.width).Render(strings.Join(parts, "  "))
}

func (m *Model) renderTranscript() string {
	if m.conv.IsEmpty() {
		return m.theme.MutedStyle.Render("No messages yet. Type below and press Enter.")
	}

	blocks := make([]string, 0, len(m.conv.Messages))
	for _, msg := range m.conv.Messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg *model.Message) string {
	t := m.theme
	name := msg.Role.DisplayName()
	if msg.Role == model.RoleAssistant {
		name = m.assistantName
	}
	label := t.RoleLabel.Render(name) + " " + t.Timestamp.Render(msg.FormatTime())

	width := m.bubbleWidth()
	switch msg.Role {
	case model.RoleUser:
		body := t.UserBubble.Width(width).Render(msg.Content)
		return lipgloss.JoinVertical(lipgloss.Right, label, body)

	case model.RoleAssistant:
		content := msg.Content
		if m.markdown {
			if out, ok := m.md.render(content); ok {
				content = out
			}
		}
		return lipgloss.JoinVertical(lipgloss.Left, label, t.AssistantBubble.Width(width).Render(content))

	default:
		return t.SystemBubble.Width(m.width - 2).Render(msg.Content)
	}
}
