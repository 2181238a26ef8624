// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/memchat-tui/internal/shell"
	"github.com/jeranaias/memchat-tui/internal/ui/styles"
	"github.com/jeranaias/memchat-tui/internal/util"
)

// View renders the login form or the dashboard depending on props.
func (m *Model) View(props shell.AdminProps) string {
	if props.Authenticated {
		return m.renderDashboard()
	}
	return m.renderLogin()
}

// =============================================================================
// LOGIN FORM
// =============================================================================

var fieldLabels = []string{"Username", "Password", "Code"}

func (m *Model) renderLogin() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.FormTitle.Render("Admin sign-in"))
	b.WriteString("\n")

	for i, in := range m.inputs {
		label := t.FormLabel.Render(fieldLabels[i])
		if i == m.focus {
			label = t.FormLabelFocus.Render(fieldLabels[i])
		}
		b.WriteString(label + " " + in.View() + "\n")
	}

	switch {
	case m.submitting:
		b.WriteString("\n" + m.spinner.View() + t.Pending.Render(" Checking credentials..."))
	case m.err != "":
		b.WriteString("\n" + styles.RenderError(m.err))
	case !m.auth.Configured():
		b.WriteString("\n" + styles.RenderWarning("No admin password configured. Run `memchat hash-password`."))
	}

	b.WriteString(t.FormHint.Render("\ntab next field  enter sign in  esc clear error"))

	box := t.FormBox.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// DASHBOARD
// =============================================================================

func (m *Model) renderDashboard() string {
	t := m.theme

	if m.data == nil {
		msg := "Loading dashboard..."
		if m.notice != "" {
			msg = m.notice
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" "+t.MutedStyle.Render(msg))
	}

	half := (m.width - 4) / 2
	if half < 24 {
		half = 24
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		t.Panel.Width(half).Render(m.renderSession()),
		" ",
		t.Panel.Width(half).Render(m.renderStats()),
	)

	events := t.Panel.Width(m.width - 2).Render(m.renderEvents(m.width - 6))

	hint := t.MutedStyle.Render("r refresh  u unlock all  ctrl+l sign out")
	if m.loading {
		hint = m.spinner.View() + " " + hint
	}
	if m.notice != "" {
		hint = m.notice + "  " + hint
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, events, hint)
}

func (m *Model) renderSession() string {
	t := m.theme
	lines := []string{t.PanelTitle.Render("Session")}

	s := m.data.stats.Session
	if s == nil {
		lines = append(lines, t.MutedStyle.Render("no active session"))
		return strings.Join(lines, "\n")
	}
	lines = append(lines,
		row(t, "User", s.User),
		row(t, "ID", util.TruncateRunes(s.ID, 13)),
		row(t, "Since", s.StartedAt.Format("15:04:05")+" ("+formatAge(m.data.loadedAt.Sub(s.StartedAt))+")"),
	)
	return strings.Join(lines, "\n")
}

func (m *Model) renderStats() string {
	t := m.theme
	st := m.data.stats

	mfa := "off"
	if st.MFAEnabled {
		mfa = "on"
	}

	lines := []string{
		t.PanelTitle.Render("Authentication"),
		row(t, "Successes", fmt.Sprint(st.Successes)),
		row(t, "Failures", fmt.Sprint(st.Failures)),
		row(t, "Lockouts", fmt.Sprint(st.Lockouts)),
		row(t, "Locked now", fmt.Sprint(len(st.Locked))),
		row(t, "MFA", mfa),
		row(t, "Lock after", pluralize(st.MaxAttempts, "failure", "failures")),
		row(t, "Audit log", pluralize(m.data.counts.Total, "event", "events")),
	}
	if m.data.store != "" {
		lines = append(lines, row(t, "Database", util.TruncateRunes(m.data.store, max(m.width/2-16, 8))))
	}
	for _, e := range st.Locked {
		lines = append(lines, t.EventBad.Render(fmt.Sprintf("  %s %s (%s left)",
			styles.StatusIndicators.Error, e.Identifier, formatAge(e.TimeRemaining))))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderEvents(width int) string {
	t := m.theme
	lines := []string{t.PanelTitle.Render("Recent activity")}

	if len(m.data.events) == 0 {
		lines = append(lines, t.MutedStyle.Render("no audit events yet"))
		return strings.Join(lines, "\n")
	}

	for _, e := range m.data.events {
		indicator, style := styles.StatusIndicators.Success, t.EventOK
		if !e.Success {
			indicator, style = styles.StatusIndicators.Error, t.EventBad
		}
		text := fmt.Sprintf("%s %-15s %-8s %s",
			e.Time.Format("01-02 15:04:05"), string(e.Type), e.Actor, e.Detail)
		lines = append(lines, style.Render(indicator)+" "+util.TruncateWidth(text, width-len(indicator)-1))
	}
	return strings.Join(lines, "\n")
}

func row(t *styles.Theme, label, value string) string {
	return t.StatsLabel.Render(util.PadRight(label, 11)) + t.StatsValue.Render(value)
}

// formatAge renders a duration coarsely: 42s, 5m, 3h, 2d.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
