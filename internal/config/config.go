// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for memchat.
//
// Configuration file locations (in order of precedence):
//   - ~/.memchat/config.toml
//   - ~/.memchat/config.json
//   - Built-in defaults
package config

import (
	"encoding/base32"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/memchat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete memchat configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// UI configures the application shell (header, footer, theme).
	UI UIConfig `toml:"ui" json:"ui"`

	// Admin configures the admin dashboard login.
	Admin AdminConfig `toml:"admin" json:"admin"`

	// Chat configures the chat surface.
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Storage configures where audit events are kept.
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Logging configures the diagnostic log file.
	Logging LoggingConfig `toml:"logging" json:"logging"`

	// Warnings collects non-fatal problems met while loading, such as a
	// config file whose permissions could not be tightened. Callers decide
	// where to report them; the TUI owns the terminal while it runs.
	Warnings []string `toml:"-" json:"-"`
}

// UIConfig contains the fixed text and look of the application shell.
type UIConfig struct {
	// Title is the brand shown in the header.
	Title string `toml:"title" json:"title"`
	// Subtitle is shown under the title.
	Subtitle string `toml:"subtitle" json:"subtitle"`
	// Footer is the caption rendered below the body.
	Footer string `toml:"footer" json:"footer"`
	// Theme is "dark", "light" or "auto" (detect from the terminal).
	Theme string `toml:"theme" json:"theme"`
	// Mouse enables clicking the navigation controls.
	Mouse bool `toml:"mouse" json:"mouse"`
}

// AdminConfig contains admin credentials and the AC-7 style lockout policy.
type AdminConfig struct {
	// Username is the admin login name.
	Username string `toml:"username" json:"username"`
	// PasswordHash is a bcrypt hash. Generate one with `memchat hash-password`.
	// Empty means admin login is not configured.
	PasswordHash string `toml:"password_hash" json:"password_hash"`
	// TOTPSecret enables a second factor when set (base32, see `memchat totp-secret`).
	TOTPSecret string `toml:"totp_secret" json:"totp_secret"`
	// MaxLoginAttempts is the number of consecutive failures before lockout.
	MaxLoginAttempts int `toml:"max_login_attempts" json:"max_login_attempts"`
	// LockoutMinutes is how long a locked identifier stays locked.
	LockoutMinutes int `toml:"lockout_minutes" json:"lockout_minutes"`
	// LogoutOnLeave clears the authenticated flag whenever the admin view is left.
	LogoutOnLeave bool `toml:"logout_on_leave" json:"logout_on_leave"`
}

// ChatConfig contains chat surface settings.
type ChatConfig struct {
	// AssistantName is how assistant messages are labelled.
	AssistantName string `toml:"assistant_name" json:"assistant_name"`
	// ReplyTimeoutSecs bounds a single responder call.
	ReplyTimeoutSecs int `toml:"reply_timeout_secs" json:"reply_timeout_secs"`
	// MaxMessages caps the in-memory transcript.
	MaxMessages int `toml:"max_messages" json:"max_messages"`
	// RenderMarkdown renders assistant replies with glamour.
	RenderMarkdown bool `toml:"render_markdown" json:"render_markdown"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	// AuditDBPath is the SQLite file for admin audit events (":memory:" allowed).
	// Empty means ~/.memchat/audit.db.
	AuditDBPath string `toml:"audit_db_path" json:"audit_db_path"`
}

// LoggingConfig contains diagnostic log settings.
type LoggingConfig struct {
	// Path is the log file. Empty means ~/.memchat/memchat.log.
	Path string `toml:"path" json:"path"`
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level"`
	// Format is "text" or "json".
	Format string `toml:"format" json:"format"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		UI: UIConfig{
			Title:    "Memory Chatbot",
			Subtitle: "A conversational agent that remembers",
			Footer:   "Conversations stay on this machine",
			Theme:    "auto",
			Mouse:    true,
		},

		Admin: AdminConfig{
			Username:         "admin",
			PasswordHash:     "",
			MaxLoginAttempts: 3,  // consecutive failures before lockout
			LockoutMinutes:   15, // lockout duration
			LogoutOnLeave:    false,
		},

		Chat: ChatConfig{
			AssistantName:    "Assistant",
			ReplyTimeoutSecs: 30,
			MaxMessages:      500,
			RenderMarkdown:   true,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the memchat configuration directory path.
// MEMCHAT_HOME overrides the default ~/.memchat.
func ConfigDir() (string, error) {
	if dir := os.Getenv("MEMCHAT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".memchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// AuditDBPath resolves the audit database path, defaulting into ConfigDir.
func (c *Config) AuditDBPath() (string, error) {
	if c.Storage.AuditDBPath != "" {
		return c.Storage.AuditDBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.db"), nil
}

// LogPath resolves the log file path, defaulting into ConfigDir.
func (c *Config) LogPath() (string, error) {
	if c.Logging.Path != "" {
		return c.Logging.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "memchat.log"), nil
}

// ensureSecurePermissions tightens config files to 0600; they hold the admin hash.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

func (c *Config) checkPermissions(path string) {
	if err := ensureSecurePermissions(path); err != nil {
		c.Warnings = append(c.Warnings, fmt.Sprintf("could not ensure secure permissions on %s: %v", path, err))
	}
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last. When a file exists but cannot be
// decoded the defaults are returned together with the decode error.
func Load() (*Config, error) {
	var loadErr error

	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := candidate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err != nil {
			loadErr = err
			break
		}
		return cfg, nil
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	cfg.checkPermissions(path)

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	cfg.checkPermissions(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Values missing from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills zero-value fields that must never be empty.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.UI.Title == "" {
		c.UI.Title = defaults.UI.Title
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}

	if c.Admin.Username == "" {
		c.Admin.Username = defaults.Admin.Username
	}
	if c.Admin.MaxLoginAttempts == 0 {
		c.Admin.MaxLoginAttempts = defaults.Admin.MaxLoginAttempts
	}
	if c.Admin.LockoutMinutes == 0 {
		c.Admin.LockoutMinutes = defaults.Admin.LockoutMinutes
	}

	if c.Chat.AssistantName == "" {
		c.Chat.AssistantName = defaults.Chat.AssistantName
	}
	if c.Chat.ReplyTimeoutSecs == 0 {
		c.Chat.ReplyTimeoutSecs = defaults.Chat.ReplyTimeoutSecs
	}
	if c.Chat.MaxMessages == 0 {
		c.Chat.MaxMessages = defaults.Chat.MaxMessages
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# memchat configuration file\n")
	b.WriteString("# Generated by memchat - edit with care\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns ValidateErrors when invalid.
func (c *Config) Validate() error {
	var errs ValidateErrors

	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// UI
	if strings.TrimSpace(c.UI.Title) == "" {
		add("ui.title", "must not be empty")
	}
	switch strings.ToLower(c.UI.Theme) {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme)
	}

	// Admin
	if c.Admin.MaxLoginAttempts < 1 || c.Admin.MaxLoginAttempts > 20 {
		add("admin.max_login_attempts", "must be between 1 and 20, got %d", c.Admin.MaxLoginAttempts)
	}
	if c.Admin.LockoutMinutes < 1 || c.Admin.LockoutMinutes > 1440 {
		add("admin.lockout_minutes", "must be between 1 and 1440, got %d", c.Admin.LockoutMinutes)
	}
	if c.Admin.PasswordHash != "" && !strings.HasPrefix(c.Admin.PasswordHash, "$2") {
		add("admin.password_hash", "must be a bcrypt hash (run 'memchat hash-password')")
	}
	if c.Admin.TOTPSecret != "" {
		secret := strings.ToUpper(strings.TrimRight(c.Admin.TOTPSecret, "="))
		if _, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret); err != nil {
			add("admin.totp_secret", "must be base32 encoded")
		}
	}

	// Chat
	if c.Chat.ReplyTimeoutSecs < 1 || c.Chat.ReplyTimeoutSecs > 600 {
		add("chat.reply_timeout_secs", "must be between 1 and 600, got %d", c.Chat.ReplyTimeoutSecs)
	}
	if c.Chat.MaxMessages < 10 || c.Chat.MaxMessages > 10000 {
		add("chat.max_messages", "must be between 10 and 10000, got %d", c.Chat.MaxMessages)
	}

	// Logging
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("logging.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("logging.format", "invalid format '%s', must be one of: text, json", c.Logging.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - MEMCHAT_THEME: overrides ui.theme
//   - MEMCHAT_ADMIN_USER: overrides admin.username
//   - MEMCHAT_ADMIN_PASSWORD_HASH: overrides admin.password_hash
//   - MEMCHAT_ADMIN_TOTP_SECRET: overrides admin.totp_secret
//   - MEMCHAT_LOGOUT_ON_LEAVE: "1" or "true" to reset auth when leaving the admin view
//   - MEMCHAT_AUDIT_DB: overrides storage.audit_db_path
//   - MEMCHAT_LOG_LEVEL: overrides logging.level
//   - MEMCHAT_LOG_PATH: overrides logging.path
func (c *Config) ApplyEnvOverrides() {
	if theme := os.Getenv("MEMCHAT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if user := os.Getenv("MEMCHAT_ADMIN_USER"); user != "" {
		c.Admin.Username = user
	}
	if hash := os.Getenv("MEMCHAT_ADMIN_PASSWORD_HASH"); hash != "" {
		c.Admin.PasswordHash = hash
	}
	if secret := os.Getenv("MEMCHAT_ADMIN_TOTP_SECRET"); secret != "" {
		c.Admin.TOTPSecret = secret
	}
	if v := os.Getenv("MEMCHAT_LOGOUT_ON_LEAVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Admin.LogoutOnLeave = b
		}
	}
	if path := os.Getenv("MEMCHAT_AUDIT_DB"); path != "" {
		c.Storage.AuditDBPath = path
	}
	if level := os.Getenv("MEMCHAT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if path := os.Getenv("MEMCHAT_LOG_PATH"); path != "" {
		c.Logging.Path = path
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Warnings = append([]string(nil), c.Warnings...)
	return &clone
}

// String returns the configuration as indented JSON with secrets redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Admin.PasswordHash != "" {
		safe.Admin.PasswordHash = "[REDACTED]"
	}
	if safe.Admin.TOTPSecret != "" {
		safe.Admin.TOTPSecret = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
