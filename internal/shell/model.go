// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package shell is the root Bubble Tea model of memchat.
//
// The shell owns two pieces of state: which view is active and whether the
// admin is authenticated. It renders a header with one navigation control
// per view, exactly one mounted surface, and a footer. Switching views
// discards the old surface instance and builds a fresh one from its factory,
// so surface-local state never survives a switch. The authentication flag
// lives in the shell and does survive.
//
// All state changes happen inside Update on the Bubble Tea goroutine. The
// admin surface writes the flag through AdminProps.SetAuthenticated from its
// own Update, so the next View observes the new value without locking.
package shell

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jeranaias/memchat-tui/internal/config"
	"github.com/jeranaias/memchat-tui/internal/logging"
	"github.com/jeranaias/memchat-tui/internal/ui/components"
	"github.com/jeranaias/memchat-tui/internal/ui/styles"
)

// Options configures a shell Model.
type Options struct {
	UI       config.UIConfig
	NewChat  ChatFactory
	NewAdmin AdminFactory
	Theme    *styles.Theme
	Logger   *slog.Logger

	// InitialView is mounted first. Invalid values fall back to ViewChat.
	InitialView View

	// LogoutOnLeave clears the authentication flag when ADMIN is left.
	LogoutOnLeave bool

	// OnAuthReset runs when the shell itself clears the flag
	// (LogoutOnLeave), so the backing session can be ended too.
	OnAuthReset func()
}

// Model is the application shell.
type Model struct {
	state State

	// Exactly one of these is non-nil.
	chat  ChatSurface
	admin AdminSurface

	newChat  ChatFactory
	newAdmin AdminFactory

	header *components.Header
	footer *components.Footer
	theme  *styles.Theme
	logger *slog.Logger

	logoutOnLeave bool
	onAuthReset   func()

	width  int
	height int
}

// New creates the shell and mounts the initial surface.
func New(opts Options) *Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(opts.UI.Theme)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	m := &Model{
		state:         NewState(),
		newChat:       opts.NewChat,
		newAdmin:      opts.NewAdmin,
		theme:         opts.Theme,
		logger:        opts.Logger,
		logoutOnLeave: opts.LogoutOnLeave,
		onAuthReset:   opts.OnAuthReset,
	}

	m.header = components.NewHeader(m.theme)
	for _, c := range Registry {
		m.header.Tabs = append(m.header.Tabs, components.Tab{Label: c.Label, Key: c.Hint})
	}
	m.footer = components.NewFooter(m.theme, "")
	m.footer.Shortcuts = []components.Shortcut{
		{Key: "F1", Desc: "chat"},
		{Key: "F2", Desc: "admin"},
		{Key: "ctrl+t", Desc: "switch"},
		{Key: "ctrl+c", Desc: "quit"},
	}
	m.applyUI(opts.UI)

	if opts.InitialView.Valid() {
		m.state.ActiveView = opts.InitialView
	}
	m.mount()
	return m
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns a copy of the shell state.
func (m *Model) State() State {
	return m.state
}

// ActiveView returns the active view.
func (m *Model) ActiveView() View {
	return m.state.ActiveView
}

// AdminAuthenticated returns the authentication flag.
func (m *Model) AdminAuthenticated() bool {
	return m.state.AdminAuthenticated
}

// ChatSurface returns the mounted chat surface, or nil.
func (m *Model) ChatSurface() ChatSurface {
	return m.chat
}

// AdminSurface returns the mounted admin surface, or nil.
func (m *Model) AdminSurface() AdminSurface {
	return m.admin
}

// props builds the admin surface's view of the shell state.
func (m *Model) props() AdminProps {
	return AdminProps{
		Authenticated:    m.state.AdminAuthenticated,
		SetAuthenticated: m.setAuthenticated,
	}
}

// =============================================================================
// STATE MUTATION
// =============================================================================

// SelectView activates target. Re-selecting the active view keeps the
// mounted instance; unknown targets are ignored. The returned command is the
// new surface's Init.
func (m *Model) SelectView(target View) tea.Cmd {
	from := m.state.ActiveView
	next, changed := Transition(from, target)
	if !changed {
		if !target.Valid() {
			m.logger.Debug("ignoring unknown view", "view", int(target))
		}
		return nil
	}

	if from == ViewAdmin && m.logoutOnLeave && m.state.AdminAuthenticated {
		m.setAuthenticated(false)
		if m.onAuthReset != nil {
			m.onAuthReset()
		}
	}

	m.state.ActiveView = next
	m.logger.Info("view changed", "from", from.String(), "to", next.String())
	return m.mount()
}

func (m *Model) setAuthenticated(v bool) {
	if m.state.AdminAuthenticated == v {
		return
	}
	m.state.AdminAuthenticated = v
	m.logger.Info("admin authentication changed", "authenticated", v)
}

// mount discards the mounted surface and builds the one for the active view.
func (m *Model) mount() tea.Cmd {
	m.chat = nil
	m.admin = nil

	var cmds []tea.Cmd
	switch m.state.ActiveView {
	case ViewAdmin:
		m.admin = m.newAdmin()
		cmds = append(cmds, m.admin.Init())
	default:
		m.chat = m.newChat()
		cmds = append(cmds, m.chat.Init())
	}
	if m.width > 0 {
		cmds = append(cmds, m.forward(m.bodySize()))
	}
	m.header.SetActive(indexOf(m.state.ActiveView))
	return tea.Batch(cmds...)
}

// forward sends msg to the mounted surface.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	if m.admin != nil {
		return m.admin.Update(msg, m.props())
	}
	if m.chat != nil {
		return m.chat.Update(msg)
	}
	return nil
}

func (m *Model) applyUI(ui config.UIConfig) {
	m.header.Title = ui.Title
	m.header.Subtitle = ui.Subtitle
	m.footer.Caption = ui.Footer
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	if m.admin != nil {
		return m.admin.Init()
	}
	return m.chat.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.header.SetWidth(msg.Width)
		m.footer.SetWidth(msg.Width)
		return m, m.forward(m.bodySize())

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case SelectViewMsg:
		return m, m.SelectView(msg.View)

	case ConfigReloadedMsg:
		m.applyUI(msg.UI)
		m.logger.Info("ui config reloaded", "title", msg.UI.Title)
		return m, nil
	}

	return m, m.forward(msg)
}

// handleKeyPress processes navigation keys and forwards everything else.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+t":
		return m, m.SelectView(Next(m.state.ActiveView))
	}

	if v, ok := ViewForKey(key); ok {
		return m, m.SelectView(v)
	}
	return m, m.forward(msg)
}

// handleMouse activates a clicked tab; other mouse events go to the surface
// with coordinates relative to the body.
func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Y < components.HeaderHeight {
		if msg.Type == tea.MouseLeft {
			if i := m.header.TabAt(msg.X, msg.Y); i >= 0 {
				return m, m.SelectView(Registry[i].View)
			}
		}
		return m, nil
	}
	msg.Y -= components.HeaderHeight
	return m, m.forward(msg)
}

// bodySize is the window size minus header and footer.
func (m *Model) bodySize() tea.WindowSizeMsg {
	h := m.height - components.HeaderHeight - components.FooterHeight
	if h < 1 {
		h = 1
	}
	return tea.WindowSizeMsg{Width: m.width, Height: h}
}

// View renders header, the mounted surface, and footer.
func (m *Model) View() string {
	m.header.Authenticated = m.state.AdminAuthenticated

	var body string
	if m.admin != nil {
		body = m.admin.View(m.props())
	} else {
		body = m.chat.View()
	}

	if m.height > 0 {
		h := m.bodySize().Height
		body = lipgloss.NewStyle().Height(h).MaxHeight(h).Render(body)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.footer.View(),
	)
}
