// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view: a scrolling transcript, an input line
// and an asynchronous assistant reply.
//
// A Model is created each time the shell mounts the chat view and dropped
// when the user switches away, so the transcript lives only as long as the
// view is visible.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jeranaias/memchat-tui/internal/assistant"
	"github.com/jeranaias/memchat-tui/internal/config"
	"github.com/jeranaias/memchat-tui/internal/export"
	"github.com/jeranaias/memchat-tui/internal/logging"
	"github.com/jeranaias/memchat-tui/internal/model"
	"github.com/jeranaias/memchat-tui/internal/ui/styles"
)

// inputHeight is the number of lines below the transcript: a rule, the
// input line and the hint line.
const inputHeight = 3

// Model is the chat surface.
type Model struct {
	id        string
	responder assistant.Responder
	theme     *styles.Theme
	logger    *slog.Logger
	keys      KeyMap

	assistantName string
	timeout       time.Duration
	markdown      bool
	exportDir     string

	conv     *model.Conversation
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	md       *markdownRenderer

	// seq numbers requests; a reply is applied only if it matches the
	// request still in flight.
	seq     int
	pending bool
	cancel  context.CancelFunc

	width  int
	height int
}

// Option is a functional option for configuring Model.
type Option func(*Model)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		m.logger = l
	}
}

// WithKeyMap overrides DefaultKeyMap.
func WithKeyMap(k KeyMap) Option {
	return func(m *Model) {
		m.keys = k
	}
}

// WithExportDir sets where ctrl+e writes transcripts. Default: current directory.
func WithExportDir(dir string) Option {
	return func(m *Model) {
		m.exportDir = dir
	}
}

// New creates a chat surface backed by r.
func New(r assistant.Responder, theme *styles.Theme, cfg config.ChatConfig, opts ...Option) *Model {
	m := &Model{
		id:            uuid.NewString(),
		responder:     r,
		theme:         theme,
		logger:        logging.Discard(),
		keys:          DefaultKeyMap(),
		assistantName: cfg.AssistantName,
		timeout:       time.Duration(cfg.ReplyTimeoutSecs) * time.Second,
		markdown:      cfg.RenderMarkdown,
		conv:          model.NewConversation(cfg.MaxMessages),
		exportDir:     ".",
		width:         80,
		height:        20,
	}
	if m.assistantName == "" {
		m.assistantName = model.RoleAssistant.DisplayName()
	}
	if m.timeout <= 0 {
		m.timeout = 30 * time.Second
	}
	for _, opt := range opts {
		opt(m)
	}

	ti := textinput.New()
	ti.Placeholder = "Say something..."
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.CharLimit = 4000
	ti.Focus()
	m.input = ti

	m.viewport = viewport.New(80, 20)
	m.viewport.MouseWheelEnabled = true

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Pending
	m.spinner = sp

	if m.markdown {
		m.md = newMarkdownRenderer(theme.IsDark)
	}

	m.resize(m.width, m.height)
	return m
}

// ID returns the instance ID carried by this surface's replies.
func (m *Model) ID() string {
	return m.id
}

// Conversation returns the transcript.
func (m *Model) Conversation() *model.Conversation {
	return m.conv
}

// Pending reports whether a reply is in flight.
func (m *Model) Pending() bool {
	return m.pending
}

// replyMsg carries a responder result back to the instance that asked.
type replyMsg struct {
	id      string
	seq     int
	content string
	err     error
	took    time.Duration
}

type exportDoneMsg struct {
	id   string
	path string
	err  error
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the surface.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return nil

	case replyMsg:
		return m.handleReply(msg)

	case exportDoneMsg:
		if msg.id != m.id {
			return nil
		}
		switch {
		case errors.Is(msg.err, export.ErrEmpty):
			m.conv.AddSystemMessage("Nothing to export yet.")
		case msg.err != nil:
			m.logger.Warn("transcript export failed", "error", msg.err)
			m.conv.AddSystemMessage("Export failed: " + msg.err.Error())
		default:
			m.logger.Info("transcript exported", "path", msg.path)
			m.conv.AddSystemMessage("Transcript saved to " + msg.path)
		}
		m.refresh()
		return nil

	case spinner.TickMsg:
		if !m.pending {
			return nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Cancel):
		if m.pending {
			m.stopPending()
			m.conv.AddSystemMessage("Reply cancelled.")
			m.refresh()
		}
		return nil

	case key.Matches(msg, m.keys.Clear):
		m.stopPending()
		m.conv.Clear()
		m.refresh()
		return nil

	case key.Matches(msg, m.keys.Export):
		return m.exportTranscript(export.Markdown)

	case key.Matches(msg, m.keys.ExportJSON):
		return m.exportTranscript(export.JSON)

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		return nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// submit sends the input line to the responder. Only one reply is in flight
// at a time; submitting while pending is ignored.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.pending {
		return nil
	}

	history := m.conv.History()
	m.conv.AddUserMessage(text)
	m.input.Reset()

	m.seq++
	m.pending = true
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	m.cancel = cancel
	m.refresh()

	id, seq, r := m.id, m.seq, m.responder
	ask := func() tea.Msg {
		defer cancel()
		start := time.Now()
		content, err := r.Respond(ctx, history, text)
		return replyMsg{id: id, seq: seq, content: content, err: err, took: time.Since(start)}
	}
	return tea.Batch(ask, m.spinner.Tick)
}

func (m *Model) handleReply(msg replyMsg) tea.Cmd {
	if msg.id != m.id || msg.seq != m.seq || !m.pending {
		return nil
	}
	m.pending = false
	m.cancel = nil

	if msg.err != nil {
		m.logger.Warn("assistant reply failed", "error", msg.err, "took", msg.took)
		m.conv.AddSystemMessage(replyErrorText(msg.err))
	} else {
		m.logger.Debug("assistant replied", "took", msg.took, "chars", len(msg.content))
		m.conv.AddAssistantMessage(msg.content)
	}
	m.refresh()
	return nil
}

// stopPending cancels the reply in flight, if any. A late reply no longer
// matches seq and is dropped.
func (m *Model) stopPending() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.pending {
		m.pending = false
		m.seq++
	}
}

// exportTranscript writes the transcript with write off the event loop.
// The conversation is copied first so later edits do not race the writer.
// An empty transcript is reported back as export.ErrEmpty.
func (m *Model) exportTranscript(write func(*model.Conversation, *export.Options) (string, error)) tea.Cmd {
	snapshot := *m.conv
	snapshot.Messages = append([]*model.Message(nil), m.conv.Messages...)
	id := m.id
	opts := &export.Options{
		OutputDir:         m.exportDir,
		IncludeTimestamps: true,
		AssistantName:     m.assistantName,
	}
	return func() tea.Msg {
		path, err := write(&snapshot, opts)
		return exportDoneMsg{id: id, path: path, err: err}
	}
}

func replyErrorText(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The assistant took too long to reply."
	case errors.Is(err, assistant.ErrEmptyInput):
		return "Nothing to reply to."
	default:
		return "Could not get a reply: " + err.Error()
	}
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	m.width = max(width, 20)
	m.height = max(height, inputHeight+1)

	m.viewport.Width = m.width
	m.viewport.Height = m.height - inputHeight
	m.input.Width = m.width - len(m.input.Prompt) - 1

	if m.md != nil {
		m.md.setWidth(m.bubbleWidth())
	}
	m.refresh()
}

// bubbleWidth is the content width inside a message bubble: border, padding
// and the four-cell side margin.
func (m *Model) bubbleWidth() int {
	return max(m.width-8, 10)
}

// refresh re-renders the transcript and keeps it pinned to the bottom when
// the user was already there.
func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom || m.pending {
		m.viewport.GotoBottom()
	}
}
