// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package admin provides the admin view: a login form while the shell's
// authentication flag is false, and the audit dashboard once it is true.
//
// The view never stores the flag itself. It reads it from shell.AdminProps
// on every Update and View and changes it only through
// AdminProps.SetAuthenticated.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jeranaias/memchat-tui/internal/auth"
	"github.com/jeranaias/memchat-tui/internal/logging"
	"github.com/jeranaias/memchat-tui/internal/shell"
	"github.com/jeranaias/memchat-tui/internal/storage"
	"github.com/jeranaias/memchat-tui/internal/ui/styles"
)

const (
	// DefaultTimeout bounds login and dashboard loads.
	DefaultTimeout = 5 * time.Second

	// RecentEvents is how many audit events the dashboard shows.
	RecentEvents = 12
)

// Field indexes in the login form.
const (
	fieldUser = iota
	fieldPassword
	fieldCode
)

// Authenticator is the subset of *auth.Authenticator the view uses.
type Authenticator interface {
	Login(ctx context.Context, creds auth.Credentials) (*auth.Session, error)
	Logout(ctx context.Context)
	UnlockAll(ctx context.Context) int
	AttemptsLeft(username string) int
	Session() *auth.Session
	Stats() auth.Stats
	Configured() bool
	MFAEnabled() bool
}

// AuditSource is the subset of *storage.AuditStore the dashboard reads.
type AuditSource interface {
	Recent(ctx context.Context, limit int) ([]storage.Event, error)
	Counts(ctx context.Context) (storage.Counts, error)
	Path() string
}

// Model is the admin surface. A new Model is built each time the admin view
// is mounted, so form contents and dashboard data do not survive a switch.
type Model struct {
	id      string
	auth    Authenticator
	audit   AuditSource
	theme   *styles.Theme
	logger  *slog.Logger
	timeout time.Duration

	// Login form
	inputs     []textinput.Model
	focus      int
	submitting bool
	err        string

	// Dashboard
	loading bool
	data    *dashboard
	notice  string

	spinner spinner.Model
	width   int
	height  int
}

// dashboard is one snapshot of the data the dashboard renders.
type dashboard struct {
	stats    auth.Stats
	counts   storage.Counts
	events   []storage.Event
	store    string
	loadedAt time.Time
}

// Option is a functional option for configuring Model.
type Option func(*Model)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// New creates an admin surface.
func New(a Authenticator, audit AuditSource, theme *styles.Theme, opts ...Option) *Model {
	m := &Model{
		id:      uuid.NewString(),
		auth:    a,
		audit:   audit,
		theme:   theme,
		logger:  logging.Discard(),
		timeout: DefaultTimeout,
		width:   80,
		height:  20,
	}
	for _, opt := range opts {
		opt(m)
	}

	user := textinput.New()
	user.Prompt = ""
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Focus()

	pass := textinput.New()
	pass.Prompt = ""
	pass.Placeholder = "password"
	pass.CharLimit = 256
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	m.inputs = []textinput.Model{user, pass}

	if a.MFAEnabled() {
		code := textinput.New()
		code.Prompt = ""
		code.Placeholder = "6-digit code"
		code.CharLimit = 8
		m.inputs = append(m.inputs, code)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Pending
	m.spinner = sp

	return m
}

// ID returns the instance ID carried by this surface's async messages.
func (m *Model) ID() string {
	return m.id
}

// =============================================================================
// MESSAGES
// =============================================================================

// mountedMsg is delivered once after Init so the first Update sees props.
type mountedMsg struct{ id string }

type loginResultMsg struct {
	id      string
	user    string
	session *auth.Session
	err     error
}

type dashboardLoadedMsg struct {
	id   string
	data *dashboard
	err  error
}

type unlockDoneMsg struct {
	id       string
	released int
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the surface.
func (m *Model) Init() tea.Cmd {
	id := m.id
	return tea.Batch(
		textinput.Blink,
		func() tea.Msg { return mountedMsg{id: id} },
	)
}

// Update handles messages. props is the shell's current authentication state.
func (m *Model) Update(msg tea.Msg, props shell.AdminProps) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return nil

	case mountedMsg:
		if msg.id != m.id || !props.Authenticated {
			return nil
		}
		// The flag can outlive a session that was ended elsewhere.
		if m.auth.Session() == nil {
			m.logger.Warn("admin flag set without a session; signing out")
			props.SetAuthenticated(false)
			return nil
		}
		return m.load()

	case loginResultMsg:
		if msg.id != m.id {
			return nil
		}
		return m.handleLoginResult(msg, props)

	case dashboardLoadedMsg:
		if msg.id != m.id {
			return nil
		}
		m.loading = false
		if msg.err != nil {
			m.notice = styles.RenderError("load failed: " + msg.err.Error())
			m.logger.Error("dashboard load failed", "error", msg.err)
			return nil
		}
		m.data = msg.data
		return nil

	case unlockDoneMsg:
		if msg.id != m.id {
			return nil
		}
		m.notice = styles.RenderSuccess(pluralize(msg.released, "identifier", "identifiers") + " unlocked")
		return m.load()

	case spinner.TickMsg:
		if !m.busy() {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		if props.Authenticated {
			return m.handleDashboardKey(msg, props)
		}
		return m.handleFormKey(msg)
	}

	if !props.Authenticated {
		return m.updateFocused(msg)
	}
	return nil
}

func (m *Model) busy() bool {
	return m.submitting || m.loading
}

// =============================================================================
// LOGIN FORM
// =============================================================================

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	if m.submitting {
		return nil
	}

	switch msg.String() {
	case "tab", "down":
		return m.setFocus(m.focus + 1)
	case "shift+tab", "up":
		return m.setFocus(m.focus - 1)
	case "ctrl+s":
		return m.submit()
	case "enter":
		if m.focus == len(m.inputs)-1 {
			return m.submit()
		}
		return m.setFocus(m.focus + 1)
	case "esc":
		m.err = ""
		return nil
	}
	return m.updateFocused(msg)
}

func (m *Model) setFocus(i int) tea.Cmd {
	n := len(m.inputs)
	m.focus = ((i % n) + n) % n
	for idx := range m.inputs {
		if idx == m.focus {
			m.inputs[idx].Focus()
		} else {
			m.inputs[idx].Blur()
		}
	}
	return textinput.Blink
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

// submit starts an asynchronous login. bcrypt is deliberately slow, so the
// check runs off the event loop and reports back with loginResultMsg.
func (m *Model) submit() tea.Cmd {
	creds := auth.Credentials{
		Username: m.inputs[fieldUser].Value(),
		Password: m.inputs[fieldPassword].Value(),
	}
	if len(m.inputs) > fieldCode {
		creds.Code = m.inputs[fieldCode].Value()
	}
	if creds.Username == "" || creds.Password == "" {
		m.err = "Enter a username and password."
		return nil
	}

	m.submitting = true
	m.err = ""

	id, a, timeout := m.id, m.auth, m.timeout
	login := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		session, err := a.Login(ctx, creds)
		return loginResultMsg{id: id, user: creds.Username, session: session, err: err}
	}
	return tea.Batch(login, m.spinner.Tick)
}

func (m *Model) handleLoginResult(msg loginResultMsg, props shell.AdminProps) tea.Cmd {
	m.submitting = false
	m.inputs[fieldPassword].SetValue("")
	if len(m.inputs) > fieldCode {
		m.inputs[fieldCode].SetValue("")
	}

	if msg.err != nil {
		m.err = loginErrorText(msg.err)
		if errors.Is(msg.err, auth.ErrInvalidCredentials) || errors.Is(msg.err, auth.ErrMFAInvalid) {
			m.err += " " + pluralize(m.auth.AttemptsLeft(msg.user), "attempt", "attempts") + " left."
		}
		if errors.Is(msg.err, auth.ErrMFARequired) && len(m.inputs) > fieldCode {
			return m.setFocus(fieldCode)
		}
		return m.setFocus(fieldPassword)
	}

	props.SetAuthenticated(true)
	m.notice = styles.RenderSuccess("Signed in as " + msg.session.User)
	return m.load()
}

func loginErrorText(err error) string {
	switch {
	case errors.Is(err, auth.ErrLocked):
		return "Too many failed attempts. " + capitalize(err.Error()) + "."
	case errors.Is(err, auth.ErrThrottled):
		return "Too many attempts. Wait a moment and try again."
	case errors.Is(err, auth.ErrMFARequired):
		return "Enter the code from your authenticator app."
	case errors.Is(err, auth.ErrMFAInvalid):
		return "That authenticator code is not valid."
	case errors.Is(err, auth.ErrNotConfigured):
		return "No admin password is configured. Run `memchat hash-password`."
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid username or password."
	default:
		return "Login failed: " + err.Error()
	}
}

// =============================================================================
// DASHBOARD
// =============================================================================

func (m *Model) handleDashboardKey(msg tea.KeyMsg, props shell.AdminProps) tea.Cmd {
	switch msg.String() {
	case "r":
		m.notice = ""
		return m.load()

	case "u":
		id, a, timeout := m.id, m.auth, m.timeout
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return unlockDoneMsg{id: id, released: a.UnlockAll(ctx)}
		}

	case "ctrl+l":
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		m.auth.Logout(ctx)
		props.SetAuthenticated(false)

		m.data = nil
		m.notice = ""
		m.err = ""
		for i := range m.inputs {
			m.inputs[i].SetValue("")
		}
		return m.setFocus(fieldUser)
	}
	return nil
}

// load fetches dashboard data asynchronously.
func (m *Model) load() tea.Cmd {
	m.loading = true
	id, a, audit, timeout := m.id, m.auth, m.audit, m.timeout

	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		d := &dashboard{stats: a.Stats(), loadedAt: time.Now()}
		if audit != nil {
			events, err := audit.Recent(ctx, RecentEvents)
			if err != nil {
				return dashboardLoadedMsg{id: id, err: err}
			}
			counts, err := audit.Counts(ctx)
			if err != nil {
				return dashboardLoadedMsg{id: id, err: err}
			}
			d.events = events
			d.counts = counts
			d.store = audit.Path()
		}
		return dashboardLoadedMsg{id: id, data: d}
	}
	return tea.Batch(fetch, m.spinner.Tick)
}
