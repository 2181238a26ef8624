// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme_ForcedModes(t *testing.T) {
	if th := NewTheme(ModeDark); !th.IsDark {
		t.Error("NewTheme(dark).IsDark = false, want true")
	}
	if th := NewTheme(ModeLight); th.IsDark {
		t.Error("NewTheme(light).IsDark = true, want false")
	}
}

func TestRenderHelpers_IncludeIndicators(t *testing.T) {
	tests := []struct {
		name   string
		render func(string) string
		want   string
	}{
		{"success", RenderSuccess, StatusIndicators.Success},
		{"error", RenderError, StatusIndicators.Error},
		{"warning", RenderWarning, StatusIndicators.Warning},
		{"info", RenderInfo, StatusIndicators.Info},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.render("saved")
			if !strings.Contains(got, tc.want) || !strings.Contains(got, "saved") {
				t.Errorf("%s(%q) = %q, want indicator %q and message", tc.name, "saved", got, tc.want)
			}
		})
	}
}
