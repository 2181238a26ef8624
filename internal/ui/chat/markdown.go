// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer wraps a glamour renderer and rebuilds it when the wrap
// width changes. A nil renderer or a render error falls back to plain text.
type markdownRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

func newMarkdownRenderer(dark bool) *markdownRenderer {
	style := "light"
	if dark {
		style = "dark"
	}
	return &markdownRenderer{style: style}
}

func (r *markdownRenderer) setWidth(width int) {
	if width == r.width && r.renderer != nil {
		return
	}
	r.width = width
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r.renderer = nil
		return
	}
	r.renderer = tr
}

// render returns the rendered markdown and whether rendering succeeded.
func (r *markdownRenderer) render(content string) (string, bool) {
	if r == nil || r.renderer == nil {
		return "", false
	}
	out, err := r.renderer.Render(content)
	if err != nil {
		return "", false
	}
	return strings.Trim(out, "\n"), true
}
