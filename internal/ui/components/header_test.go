// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/memchat-tui/internal/ui/styles"
)

func testHeader() *Header {
	h := NewHeader(styles.NewTheme(styles.ModeDark))
	h.Title = "Memory Chatbot"
	h.Subtitle = "A conversational agent that remembers"
	h.Tabs = []Tab{
		{Label: "Chat", Key: "F1", Active: true},
		{Label: "Admin", Key: "F2"},
	}
	h.SetWidth(80)
	return h
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestNewHeader(t *testing.T) {
	h := NewHeader(styles.NewTheme(styles.ModeDark))
	if h == nil {
		t.Fatal("NewHeader() returned nil")
	}
	if h.Title != "memchat" {
		t.Errorf("NewHeader() Title = %q, want %q", h.Title, "memchat")
	}
	if h.Width != 80 {
		t.Errorf("NewHeader() Width = %d, want 80", h.Width)
	}
}

func TestHeaderView_ContainsTitleAndTabs(t *testing.T) {
	h := testHeader()
	view := h.View()

	for _, want := range []string{"Memory Chatbot", "Chat", "Admin", "* F1 Chat", "locked"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if got := lipgloss.Height(view); got != HeaderHeight {
		t.Errorf("View() height = %d, want %d", got, HeaderHeight)
	}
	if got := lipgloss.Width(view); got != 80 {
		t.Errorf("View() width = %d, want 80", got)
	}
}

func TestHeaderView_MarksOnlyActiveTab(t *testing.T) {
	h := testHeader()
	h.SetActive(1)

	view := h.View()
	if !strings.Contains(view, "* F2 Admin") {
		t.Error("active admin tab not marked")
	}
	if strings.Contains(view, "* F1 Chat") {
		t.Error("inactive chat tab still marked")
	}
}

func TestHeaderView_AuthBadge(t *testing.T) {
	h := testHeader()
	h.Authenticated = true
	if view := h.View(); !strings.Contains(view, styles.StatusIndicators.Success+" admin") {
		t.Errorf("authenticated badge missing from %q", view)
	}
}

func TestHeaderView_NarrowTerminal(t *testing.T) {
	for _, width := range []int{30, 20, 10, minHeaderWidth} {
		h := testHeader()
		h.SetWidth(width)
		view := h.View()
		if got := lipgloss.Width(view); got != width {
			t.Errorf("width %d: View() width = %d, want %d", width, got, width)
		}
		if got := lipgloss.Height(view); got != HeaderHeight {
			t.Errorf("width %d: View() height = %d, want %d", width, got, HeaderHeight)
		}
	}
}

func TestHeaderView_DropsTabsThatDoNotFit(t *testing.T) {
	h := testHeader()
	h.SetWidth(20)
	view := h.View()

	if !strings.Contains(view, "F1 Chat") {
		t.Error("View() missing first tab")
	}
	if strings.Contains(view, "F2 Admin") {
		t.Error("View() rendered a tab wider than the header")
	}
	second := contentLeft + h.Tabs[0].width() + 1
	if got := h.TabAt(second, tabRow); got != -1 {
		t.Errorf("TabAt() on a dropped tab = %d, want -1", got)
	}
}

// =============================================================================
// HIT TESTING
// =============================================================================

func TestHeaderTabAt(t *testing.T) {
	h := testHeader()
	chatWidth := h.Tabs[0].width()

	tests := []struct {
		name string
		x, y int
		want int
	}{
		{"first cell of chat", contentLeft, tabRow, 0},
		{"last cell of chat", contentLeft + chatWidth - 1, tabRow, 0},
		{"gap between tabs", contentLeft + chatWidth, tabRow, -1},
		{"first cell of admin", contentLeft + chatWidth + 1, tabRow, 1},
		{"border", 0, tabRow, -1},
		{"brand row", contentLeft, 1, -1},
		{"far right", 79, tabRow, -1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := h.TabAt(tc.x, tc.y); got != tc.want {
				t.Errorf("TabAt(%d, %d) = %d, want %d", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestHeaderTabAt_StableAcrossSelection(t *testing.T) {
	h := testHeader()
	x := contentLeft + h.Tabs[0].width() + 1

	h.SetActive(1)
	if got := h.TabAt(x, tabRow); got != 1 {
		t.Errorf("TabAt after SetActive(1) = %d, want 1", got)
	}
}

// =============================================================================
// FOOTER TESTS
// =============================================================================

func TestFooterView(t *testing.T) {
	f := NewFooter(styles.NewTheme(styles.ModeDark), "Conversations stay on this machine")
	f.Shortcuts = []Shortcut{{Key: "F1", Desc: "chat"}, {Key: "F2", Desc: "admin"}}
	f.SetWidth(80)

	view := f.View()
	if !strings.Contains(view, "Conversations stay on this machine") {
		t.Error("View() missing caption")
	}
	if !strings.Contains(view, "admin") {
		t.Error("View() missing shortcut hint")
	}
	if got := lipgloss.Width(view); got != 80 {
		t.Errorf("View() width = %d, want 80", got)
	}
}

func TestFooterView_DropsHintsWhenNarrow(t *testing.T) {
	f := NewFooter(styles.NewTheme(styles.ModeDark), "Conversations stay on this machine")
	f.Shortcuts = []Shortcut{{Key: "ctrl+c", Desc: "quit"}}
	f.SetWidth(30)

	view := f.View()
	if strings.Contains(view, "quit") {
		t.Error("View() kept a hint that does not fit")
	}
	if !strings.Contains(view, "...") {
		t.Error("View() did not truncate the caption")
	}
}
