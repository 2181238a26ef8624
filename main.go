// memchat - a terminal chat assistant with an admin dashboard.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/memchat-tui/internal/assistant"
	"github.com/jeranaias/memchat-tui/internal/auth"
	"github.com/jeranaias/memchat-tui/internal/cli"
	"github.com/jeranaias/memchat-tui/internal/config"
	"github.com/jeranaias/memchat-tui/internal/logging"
	"github.com/jeranaias/memchat-tui/internal/shell"
	"github.com/jeranaias/memchat-tui/internal/storage"
	"github.com/jeranaias/memchat-tui/internal/ui/admin"
	"github.com/jeranaias/memchat-tui/internal/ui/chat"
	"github.com/jeranaias/memchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdChat:
		err = runChat(args)
	case cli.CmdHashPassword:
		err = cli.HandleHashPassword(os.Stdout, cli.TerminalPrompt(os.Stderr), bcrypt.DefaultCost)
	case cli.CmdTOTPSecret:
		err = runTOTPSecret(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(os.Stdout, args)
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
	default:
		cli.PrintUsage(os.Stderr)
		err = cli.UsageError(args.Subcommand, "unknown command")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCodeFor(err))
	}
}

// loadConfig loads the config and prints any fallback or permission
// warning to stderr. It returns an error only when no config is usable.
func loadConfig(args cli.Args) (*config.Config, error) {
	cfg, err := cli.LoadConfig(args)
	if cfg == nil {
		return nil, err
	}
	cli.PrintConfigWarnings(os.Stderr, cfg, err)
	return cfg, nil
}

func runTOTPSecret(args cli.Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	return cli.HandleTOTPSecret(os.Stdout, cfg.Admin.Username)
}

func runChat(args cli.Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	in := cli.NewChatCLI()
	defer in.Close()
	return cli.RunChat(os.Stdout, in, assistant.NewRules(), cfg.Chat, cli.ExportDir())
}

// runTUI wires config, logging, the audit store and the authenticator into
// the shell and runs it until the user quits.
func runTUI(args cli.Args) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	logger, closeLog := openLogger(cfg)
	defer closeLog()

	dbPath, err := cfg.AuditDBPath()
	if err != nil {
		return cli.ConfigError("tui", "could not resolve audit database path", err)
	}
	store, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close()

	authenticator := auth.New(cfg.Admin, auth.WithRecorder(store), auth.WithLogger(logger))
	if !authenticator.Configured() {
		logger.Warn("admin login disabled: admin.password_hash is empty")
	}

	theme := styles.NewTheme(cfg.UI.Theme)

	// One responder per process, so a name learned in chat survives
	// switching to the admin view and back.
	responder := assistant.NewRules()

	initial := shell.ViewChat
	if args.Admin {
		initial = shell.ViewAdmin
	}

	root := shell.New(shell.Options{
		UI:     cfg.UI,
		Theme:  theme,
		Logger: logger,
		NewChat: func() shell.ChatSurface {
			return chat.New(responder, theme, cfg.Chat,
				chat.WithLogger(logger),
				chat.WithExportDir(cli.ExportDir()),
			)
		},
		NewAdmin: func() shell.AdminSurface {
			return admin.New(authenticator, store, theme, admin.WithLogger(logger))
		},
		InitialView:   initial,
		LogoutOnLeave: cfg.Admin.LogoutOnLeave,
		OnAuthReset: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			authenticator.Logout(ctx)
		},
	})

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(root, opts...)

	if stop := watchConfig(args, p, logger); stop != nil {
		defer stop()
	}

	logger.Info("memchat started", "version", Version, "view", initial.String())
	if _, err := p.Run(); err != nil {
		logger.Error("program exited with error", "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	authenticator.Logout(ctx)
	logger.Info("memchat stopped")
	return nil
}

// openLogger logs to the configured file. The TUI owns the terminal, so a
// log file that cannot be opened silences logging instead of failing.
func openLogger(cfg *config.Config) (*slog.Logger, func()) {
	path, err := cfg.LogPath()
	if err != nil {
		return logging.Discard(), func() {}
	}
	logger, f, err := logging.OpenFile(path, cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return logging.Discard(), func() {}
	}
	return logger, func() { _ = f.Close() }
}

// watchConfig hot-reloads header and footer text while the TUI runs.
func watchConfig(args cli.Args, p *tea.Program, logger *slog.Logger) func() {
	path, err := cli.ConfigPath(args)
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("config watch disabled", "error", err)
		}
		return nil
	}

	w, err := config.Watch(path,
		func(cfg *config.Config) {
			logger.Info("config reloaded", "path", path)
			for _, w := range cfg.Warnings {
				logger.Warn("config warning", "warning", w)
			}
			p.Send(shell.ConfigReloadedMsg{UI: cfg.UI})
		},
		func(err error) {
			logger.Warn("config reload failed", "error", err)
		},
	)
	if err != nil {
		logger.Warn("config watch disabled", "error", err)
		return nil
	}
	return func() { _ = w.Close() }
}
