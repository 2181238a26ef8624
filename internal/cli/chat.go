// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/memchat-tui/internal/assistant"
	"github.com/jeranaias/memchat-tui/internal/config"
	"github.com/jeranaias/memchat-tui/internal/export"
	"github.com/jeranaias/memchat-tui/internal/model"
	"github.com/jeranaias/memchat-tui/internal/ui/styles"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(styles.Cyan).Bold(true)
	nameStyle   = lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineReader reads one line of user input.
type LineReader interface {
	ReadInput(prompt string) (string, error)
}

// ChatCLI provides input history and line editing for line-mode chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI and loads saved history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(c.historyFile); err == nil {
		_, _ = c.line.ReadHistory(f)
		f.Close()
	}
	return c
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with 0600 permissions and restores the terminal.
func (c *ChatCLI) Close() {
	defer c.line.Close()

	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = c.line.WriteHistory(f)
}

// =============================================================================
// REPL
// =============================================================================

// ExportDir is where transcripts are written: ~/.memchat/exports, or the
// current directory when the config directory cannot be resolved.
func ExportDir() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "exports")
}

// RunChat runs a line-mode chat until the input ends or the user quits.
// Slash commands: /clear, /export, /help, /quit.
func RunChat(w io.Writer, in LineReader, r assistant.Responder, cfg config.ChatConfig, exportDir string) error {
	name := cfg.AssistantName
	if name == "" {
		name = model.RoleAssistant.DisplayName()
	}
	timeout := time.Duration(cfg.ReplyTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	conv := model.NewConversation(cfg.MaxMessages)

	fmt.Fprintln(w, mutedStyle.Render("Type a message, /help for commands, /quit to leave."))

	for {
		input, err := in.ReadInput(promptStyle.Render("you> "))
		if err != nil {
			fmt.Fprintln(w)
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		fields := strings.Fields(strings.ToLower(input))
		switch fields[0] {
		case "/quit", "/exit", "exit", "quit":
			if len(fields) == 1 {
				return nil
			}
		case "/clear":
			conv.Clear()
			fmt.Fprintln(w, styles.RenderInfo("Conversation cleared."))
			continue
		case "/export":
			exportTranscript(w, conv, fields[1:], &export.Options{
				OutputDir:         exportDir,
				IncludeTimestamps: true,
				AssistantName:     name,
			})
			continue
		case "/help":
			fmt.Fprintln(w, mutedStyle.Render(chatHelp))
			continue
		}

		history := conv.History()
		conv.AddUserMessage(input)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		reply, err := r.Respond(ctx, history, input)
		cancel()
		if err != nil {
			fmt.Fprintln(w, styles.RenderError(fmt.Sprintf("no reply: %v", err)))
			continue
		}
		conv.AddAssistantMessage(reply)
		fmt.Fprintf(w, "%s %s\n", nameStyle.Render(name+">"), reply)
	}
}

const chatHelp = `/clear         forget this conversation
/export [md]   save the transcript as Markdown
/export json   save the transcript as JSON
/quit          leave`

// exportTranscript handles "/export [md|json]".
func exportTranscript(w io.Writer, conv *model.Conversation, args []string, opts *export.Options) {
	write := export.Markdown
	if len(args) > 0 {
		switch args[0] {
		case "md", "markdown":
		case "json":
			write = export.JSON
		default:
			fmt.Fprintln(w, styles.RenderError(fmt.Sprintf("unknown export format %q (want md or json)", args[0])))
			return
		}
	}

	path, err := write(conv, opts)
	switch {
	case errors.Is(err, export.ErrEmpty):
		fmt.Fprintln(w, styles.RenderWarning("Nothing to export yet."))
	case err != nil:
		fmt.Fprintln(w, styles.RenderError(err.Error()))
	default:
		fmt.Fprintln(w, styles.RenderSuccess("Transcript saved to "+path))
	}
}
