// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components shared by the memchat views.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/memchat-tui/internal/ui/styles"
	"github.com/jeranaias/memchat-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT - Title bar with navigation tabs
// =============================================================================

const (
	// HeaderHeight is the number of terminal rows the header occupies.
	HeaderHeight = 4

	// tabRow is the row (relative to the header top) holding the tabs.
	tabRow = 2

	// contentLeft is the column of the first content cell: border + padding.
	contentLeft = 2

	// minHeaderWidth fits the border, padding and an empty "<  >" brand.
	minHeaderWidth = 8
)

// Tab is one navigation control in the header.
type Tab struct {
	Label  string // "Chat"
	Key    string // shortcut hint, "F1"
	Active bool
}

// text is the unstyled tab caption. Active and inactive captions have equal
// width so tab positions never move when the selection changes.
func (t Tab) text() string {
	marker := " "
	if t.Active {
		marker = "*"
	}
	if t.Key == "" {
		return marker + " " + t.Label
	}
	return marker + " " + t.Key + " " + t.Label
}

// width is the rendered cell width of the tab including its padding.
func (t Tab) width() int {
	return util.StringWidth(t.text()) + 2
}

// Header represents the title bar component
type Header struct {
	Title         string
	Subtitle      string
	Tabs          []Tab
	Authenticated bool // admin badge state
	Width         int
	theme         *styles.Theme
}

// NewHeader creates a new Header component with default values
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "memchat",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetActive marks the tab at index i active and every other tab inactive.
func (h *Header) SetActive(i int) {
	for idx := range h.Tabs {
		h.Tabs[idx].Active = idx == i
	}
}

// width never exceeds the terminal; a wider header would wrap and push the
// body down.
func (h *Header) width() int {
	return max(h.Width, minHeaderWidth)
}

// innerWidth is the usable content width inside border and padding.
func (h *Header) innerWidth() int {
	return h.width() - 2*contentLeft
}

// TabAt returns the index of the tab under the header-relative cell (x, y),
// or -1 when the cell is not on a tab.
func (h *Header) TabAt(x, y int) int {
	if y != tabRow {
		return -1
	}
	start := contentLeft
	limit := contentLeft + h.innerWidth()
	for i, tab := range h.Tabs {
		end := start + tab.width()
		if end > limit {
			return -1
		}
		if x >= start && x < end {
			return i
		}
		start = end + 1 // one-cell gap between tabs
	}
	return -1
}

// View renders the header component
func (h *Header) View() string {
	inner := h.innerWidth()

	// Brand line: "< Title >  subtitle"
	title := util.TruncateWidth(h.Title, max(inner-4, 0))
	brand := lipgloss.NewStyle().Foreground(styles.Purple).Render("< ") +
		h.theme.HeaderBrand.Render(title) +
		lipgloss.NewStyle().Foreground(styles.Purple).Render(" >")
	brandLine := brand
	if room := inner - util.StringWidth(title) - 4 - 2; room > 0 && h.Subtitle != "" {
		brandLine += "  " + h.theme.HeaderSubtitle.Render(util.TruncateWidth(h.Subtitle, room))
	}

	// Tab line: tabs on the left, auth badge on the right. Tabs that do not
	// fit are dropped, matching TabAt.
	var tabs []string
	used := 0
	for i, tab := range h.Tabs {
		next := used + tab.width()
		if i > 0 {
			next++
		}
		if next > inner {
			break
		}
		used = next
		style := h.theme.TabInactive
		if tab.Active {
			style = h.theme.TabActive
		}
		tabs = append(tabs, style.Render(tab.text()))
	}
	tabLine := strings.Join(tabs, " ")

	badgeText, badgeStyle := h.badge()
	if gap := inner - used - util.StringWidth(badgeText); gap >= 1 {
		tabLine += strings.Repeat(" ", gap) + badgeStyle.Render(badgeText)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, brandLine, tabLine)
	return h.theme.Header.Width(h.width() - 2).Render(content)
}

func (h *Header) badge() (string, lipgloss.Style) {
	if h.Authenticated {
		return styles.StatusIndicators.Success + " admin", h.theme.BadgeUnlocked
	}
	return styles.StatusIndicators.Pending + " locked", h.theme.BadgeLocked
}
