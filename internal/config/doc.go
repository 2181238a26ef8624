// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for memchat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation and file watching.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - UIConfig: Header, footer and theme settings for the application shell
//   - AdminConfig: Admin dashboard credentials and lockout policy
//   - ChatConfig: Chat surface behaviour
//   - StorageConfig / LoggingConfig: Where audit events and logs are written
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (MEMCHAT_*)
//   - ~/.memchat/config.toml
//   - ~/.memchat/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// Watch for edits while the TUI is running:
//
//	w, err := config.Watch(path, func(cfg *config.Config) {
//	    program.Send(shell.ConfigReloadedMsg{UI: cfg.UI})
//	}, nil)
//	if err == nil {
//	    defer w.Close()
//	}
package config
