// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/memchat-tui/internal/ui/styles"
	"github.com/jeranaias/memchat-tui/internal/util"
)

// FooterHeight is the number of terminal rows the footer occupies.
const FooterHeight = 1

// Shortcut is a key hint shown in the footer.
type Shortcut struct {
	Key  string
	Desc string
}

// Footer renders the fixed caption plus key hints on one line.
type Footer struct {
	Caption   string
	Shortcuts []Shortcut
	Width     int
	theme     *styles.Theme
}

// NewFooter creates a footer with the given caption.
func NewFooter(theme *styles.Theme, caption string) *Footer {
	return &Footer{
		Caption: caption,
		Width:   80,
		theme:   theme,
	}
}

// SetWidth updates the footer width
func (f *Footer) SetWidth(width int) {
	f.Width = width
}

// View renders the footer. Hints are dropped from the right until they fit;
// the caption is truncated last.
func (f *Footer) View() string {
	inner := f.Width - 2
	if inner < 1 {
		inner = 1
	}

	caption := util.TruncateWidth(f.Caption, inner)
	room := inner - util.StringWidth(caption)

	var hints []string
	used := 0
	for _, s := range f.Shortcuts {
		plain := s.Key + " " + s.Desc
		need := util.StringWidth(plain) + 2 // separator
		if used+need-2 > room-1 {
			break
		}
		used += need
		hints = append(hints, f.theme.ShortcutKey.Render(s.Key)+" "+f.theme.ShortcutDesc.Render(s.Desc))
	}

	line := f.theme.FooterCaption.Render(caption)
	if len(hints) > 0 {
		gap := room - (used - 2)
		if gap < 1 {
			gap = 1
		}
		line += strings.Repeat(" ", gap) + strings.Join(hints, "  ")
	}
	return f.theme.Footer.Width(f.Width).Render(line)
}
