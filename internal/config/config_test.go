// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Admin.PasswordHash != "" {
		t.Error("Default() should not ship an admin password hash")
	}
	if cfg.Admin.LogoutOnLeave {
		t.Error("Default() should keep admin auth across view switches")
	}
}

func TestLoad_NoFilesReturnsDefaults(t *testing.T) {
	t.Setenv("MEMCHAT_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.UI.Title != Default().UI.Title {
		t.Errorf("UI.Title = %q, want default", cfg.UI.Title)
	}
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

func TestLoadFromPath_TOMLKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[ui]
title = "Recall"

[admin]
username = "root"
max_login_attempts = 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.UI.Title != "Recall" {
		t.Errorf("UI.Title = %q, want %q", cfg.UI.Title, "Recall")
	}
	if cfg.Admin.Username != "root" {
		t.Errorf("Admin.Username = %q, want %q", cfg.Admin.Username, "root")
	}
	if cfg.Admin.MaxLoginAttempts != 5 {
		t.Errorf("Admin.MaxLoginAttempts = %d, want 5", cfg.Admin.MaxLoginAttempts)
	}
	if cfg.Admin.LockoutMinutes != 15 {
		t.Errorf("Admin.LockoutMinutes = %d, want default 15", cfg.Admin.LockoutMinutes)
	}
	if cfg.UI.Footer != Default().UI.Footer {
		t.Errorf("UI.Footer = %q, want default", cfg.UI.Footer)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"chat":{"assistant_name":"Mneme"}}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Chat.AssistantName != "Mneme" {
		t.Errorf("Chat.AssistantName = %q, want %q", cfg.Chat.AssistantName, "Mneme")
	}
}

func TestLoadFromPath_FixesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("version = \"1.0.0\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", cfg.Warnings)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestLoadTOML_PermissionProblemIsCollected(t *testing.T) {
	cfg := Default()
	missing := filepath.Join(t.TempDir(), "missing.toml")

	if err := LoadTOML(cfg, missing); err == nil {
		t.Fatal("LoadTOML() expected error for a missing file")
	}
	if len(cfg.Warnings) != 1 || !strings.Contains(cfg.Warnings[0], missing) {
		t.Errorf("Warnings = %v, want one naming %s", cfg.Warnings, missing)
	}
	if clone := cfg.Clone(); &clone.Warnings[0] == &cfg.Warnings[0] {
		t.Error("Clone() shares the Warnings slice")
	}
}

func TestLoadFromPath_InvalidRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[ui]\ntheme = \"neon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatal("LoadFromPath() expected validation error")
	}

	var verrs ValidateErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error %v is not ValidateErrors", err)
	}
	if verrs[0].Field != "ui.theme" {
		t.Errorf("Field = %q, want ui.theme", verrs[0].Field)
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.UI.Footer = "custom footer"
	cfg.Admin.LogoutOnLeave = true
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.UI.Footer != "custom footer" {
		t.Errorf("UI.Footer = %q", loaded.UI.Footer)
	}
	if !loaded.Admin.LogoutOnLeave {
		t.Error("Admin.LogoutOnLeave lost in round trip")
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty title", func(c *Config) { c.UI.Title = "  " }, "ui.title"},
		{"bad theme", func(c *Config) { c.UI.Theme = "pink" }, "ui.theme"},
		{"zero attempts", func(c *Config) { c.Admin.MaxLoginAttempts = 0 }, "admin.max_login_attempts"},
		{"huge lockout", func(c *Config) { c.Admin.LockoutMinutes = 5000 }, "admin.lockout_minutes"},
		{"plaintext password", func(c *Config) { c.Admin.PasswordHash = "12345" }, "admin.password_hash"},
		{"bad totp", func(c *Config) { c.Admin.TOTPSecret = "not base32!" }, "admin.totp_secret"},
		{"zero timeout", func(c *Config) { c.Chat.ReplyTimeoutSecs = 0 }, "chat.reply_timeout_secs"},
		{"tiny history", func(c *Config) { c.Chat.MaxMessages = 1 }, "chat.max_messages"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			verrs, ok := err.(ValidateErrors)
			if !ok {
				t.Fatalf("error type = %T, want ValidateErrors", err)
			}
			found := false
			for _, v := range verrs {
				if v.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s in %v", tc.field, verrs)
			}
		})
	}
}

func TestValidate_AcceptsValidSecrets(t *testing.T) {
	cfg := Default()
	cfg.Admin.PasswordHash = "$2a$10$abcdefghijklmnopqrstuuJ0mQ7i6Ll8C2yXx3m1T8b3C1cJ9wK2a"
	cfg.Admin.TOTPSecret = "JBSWY3DPEHPK3PXP"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MEMCHAT_THEME", "light")
	t.Setenv("MEMCHAT_ADMIN_USER", "ops")
	t.Setenv("MEMCHAT_LOGOUT_ON_LEAVE", "true")
	t.Setenv("MEMCHAT_AUDIT_DB", ":memory:")
	t.Setenv("MEMCHAT_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q", cfg.UI.Theme)
	}
	if cfg.Admin.Username != "ops" {
		t.Errorf("Admin.Username = %q", cfg.Admin.Username)
	}
	if !cfg.Admin.LogoutOnLeave {
		t.Error("Admin.LogoutOnLeave not applied")
	}
	if cfg.Storage.AuditDBPath != ":memory:" {
		t.Errorf("Storage.AuditDBPath = %q", cfg.Storage.AuditDBPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestString_RedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.Admin.PasswordHash = "$2a$10$secret"
	cfg.Admin.TOTPSecret = "JBSWY3DPEHPK3PXP"

	out := cfg.String()
	for _, secret := range []string{"$2a$10$secret", "JBSWY3DPEHPK3PXP"} {
		if strings.Contains(out, secret) {
			t.Errorf("String() leaked %q", secret)
		}
	}
	if cfg.Admin.PasswordHash != "$2a$10$secret" {
		t.Error("String() mutated the original config")
	}
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveTOML(Default(), path); err != nil {
		t.Fatal(err)
	}

	changes := make(chan *Config, 4)
	w, err := Watch(path, func(cfg *Config) { changes <- cfg }, nil)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Close()

	cfg := Default()
	cfg.UI.Footer = "reloaded"
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changes:
		if got.UI.Footer != "reloaded" {
			t.Errorf("reloaded footer = %q", got.UI.Footer)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}
