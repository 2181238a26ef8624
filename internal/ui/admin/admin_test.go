// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jeranaias/memchat-tui/internal/auth"
	"github.com/jeranaias/memchat-tui/internal/config"
	"github.com/jeranaias/memchat-tui/internal/shell"
	"github.com/jeranaias/memchat-tui/internal/storage"
	"github.com/jeranaias/memchat-tui/internal/ui/styles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const testPassword = "hunter22"

// flag stands in for the shell's authentication state.
type flag struct{ value bool }

func (f *flag) props() shell.AdminProps {
	return shell.AdminProps{
		Authenticated:    f.value,
		SetAuthenticated: func(v bool) { f.value = v },
	}
}

type fixture struct {
	m     *Model
	auth  *auth.Authenticator
	store *storage.AuditStore
	flag  *flag
}

func newFixture(t *testing.T, mutate ...func(*config.AdminConfig)) *fixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.AdminConfig{
		Username:         "admin",
		PasswordHash:     string(hash),
		MaxLoginAttempts: 3,
		LockoutMinutes:   15,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}

	store, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	a := auth.New(cfg, auth.WithRecorder(store), auth.WithLimiter(rate.NewLimiter(rate.Inf, 1)))
	f := &fixture{
		auth:  a,
		store: store,
		flag:  &flag{},
	}
	f.m = f.mount()
	return f
}

// mount builds a fresh surface, as the shell does on every switch to ADMIN.
func (f *fixture) mount() *Model {
	m := New(f.auth, f.store, styles.NewTheme(styles.ModeDark))
	f.pump(m, m.Init())
	return m
}

// pump runs cmd and feeds this package's async results back into m until
// nothing is left. Blink and spinner ticks are not fed back; they would sleep.
func (f *fixture) pump(m *Model, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case mountedMsg, loginResultMsg, dashboardLoadedMsg, unlockDoneMsg:
			queue = append(queue, m.Update(msg, f.flag.props()))
		}
	}
}

func (f *fixture) send(msg tea.Msg) {
	f.pump(f.m, f.m.Update(msg, f.flag.props()))
}

func (f *fixture) typeText(s string) {
	f.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (f *fixture) login(user, password string) {
	f.typeText(user)
	f.send(tea.KeyMsg{Type: tea.KeyEnter})
	f.typeText(password)
	f.send(tea.KeyMsg{Type: tea.KeyEnter})
}

func (f *fixture) view() string {
	return f.m.View(f.flag.props())
}

// =============================================================================
// LOGIN
// =============================================================================

func TestLogin_SuccessSetsFlagAndLoadsDashboard(t *testing.T) {
	f := newFixture(t)
	assert.Contains(t, f.view(), "Admin sign-in")

	f.login("admin", testPassword)

	assert.True(t, f.flag.value)
	require.NotNil(t, f.m.data)
	view := f.view()
	assert.Contains(t, view, "Session")
	assert.Contains(t, view, "admin")
	assert.Contains(t, view, string(storage.EventLoginSuccess))
	assert.NotContains(t, view, "Admin sign-in")
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)
	f.login("admin", "wrong")

	assert.False(t, f.flag.value)
	assert.Contains(t, f.view(), "Invalid username or password. 2 attempts left.")
	assert.Equal(t, "", f.m.inputs[fieldPassword].Value(), "password must be cleared after a failed attempt")
	assert.Equal(t, fieldPassword, f.m.focus)
}

func TestLogin_EmptyFields(t *testing.T) {
	f := newFixture(t)
	f.send(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.False(t, f.flag.value)
	assert.Contains(t, f.view(), "Enter a username and password.")
}

func TestLogin_LockoutMessage(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.m.inputs[fieldUser].SetValue("admin")
		f.m.inputs[fieldPassword].SetValue("wrong")
		f.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	}

	assert.False(t, f.flag.value)
	assert.Contains(t, f.view(), "Too many failed attempts.")
}

func TestLogin_MFA(t *testing.T) {
	f := newFixture(t, func(c *config.AdminConfig) { c.TOTPSecret = "JBSWY3DPEHPK3PXP" })
	require.Len(t, f.m.inputs, 3)

	f.m.inputs[fieldUser].SetValue("admin")
	f.m.inputs[fieldPassword].SetValue(testPassword)
	f.send(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.False(t, f.flag.value)
	assert.Equal(t, fieldCode, f.m.focus)
	assert.Contains(t, f.view(), "authenticator app")
}

func TestFormNavigation(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, fieldUser, f.m.focus)

	f.send(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldPassword, f.m.focus)
	f.send(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, fieldUser, f.m.focus, "focus wraps")
	f.send(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, fieldPassword, f.m.focus)

	f.typeText("secret")
	assert.NotContains(t, f.view(), "secret", "password must not be echoed")
}

// =============================================================================
// DASHBOARD
// =============================================================================

func TestRemountWhileAuthenticatedLoadsDashboard(t *testing.T) {
	f := newFixture(t)
	f.login("admin", testPassword)
	require.True(t, f.flag.value)

	f.m = f.mount()

	assert.NotNil(t, f.m.data, "a remounted surface loads the dashboard when already authenticated")
	assert.Equal(t, "", f.m.inputs[fieldUser].Value(), "form state does not survive a remount")
}

func TestMountWithoutSessionClearsFlag(t *testing.T) {
	f := newFixture(t)
	f.flag.value = true

	f.m = f.mount()

	assert.False(t, f.flag.value, "a flag with no backing session is dropped")
	assert.Nil(t, f.m.data)
	assert.Contains(t, f.view(), "Admin sign-in")
}

func TestDashboardShowsLockoutPolicyAndStore(t *testing.T) {
	f := newFixture(t)
	f.login("admin", testPassword)

	view := f.view()
	assert.Contains(t, view, "3 failures")
	assert.Contains(t, view, storage.MemoryPath)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.login("admin", testPassword)
	require.NotNil(t, f.auth.Session())

	f.send(tea.KeyMsg{Type: tea.KeyCtrlL})

	assert.False(t, f.flag.value)
	assert.Nil(t, f.auth.Session())
	assert.Contains(t, f.view(), "Admin sign-in")

	events, err := f.store.Recent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, storage.EventLogout, events[0].Type)
}

func TestUnlockAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = f.auth.Login(ctx, auth.Credentials{Username: "guest", Password: "x"})
	}
	f.login("admin", testPassword)
	require.Len(t, f.m.data.stats.Locked, 1)

	f.typeText("u")

	assert.Contains(t, f.view(), "1 identifier unlocked")
	assert.Empty(t, f.m.data.stats.Locked)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	f.login("admin", testPassword)
	before := len(f.m.data.events)

	require.NoError(t, f.store.Record(context.Background(), storage.Event{Type: storage.EventUnlock, Actor: "x"}))
	f.typeText("r")

	assert.Len(t, f.m.data.events, before+1)
}

func TestStaleMessagesIgnored(t *testing.T) {
	f := newFixture(t)
	f.send(loginResultMsg{id: "another-instance", session: &auth.Session{User: "admin"}})

	assert.False(t, f.flag.value)
	assert.Nil(t, f.m.data)
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{5, "5s"},
		{125, "2m"},
		{7200, "2h"},
		{3 * 86400, "3d"},
	}
	for _, tc := range tests {
		if got := formatAge(time.Duration(tc.secs) * time.Second); got != tc.want {
			t.Errorf("formatAge(%ds) = %q, want %q", tc.secs, got, tc.want)
		}
	}
}
