// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jeranaias/memchat-tui/internal/config"
)

// ConfigPath returns the config file in use: --config when given, otherwise
// the default TOML path.
func ConfigPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return filepath.Abs(args.ConfigPath)
	}
	return config.ConfigPathTOML()
}

// LoadConfig loads the config named by args. --verbose forces debug logging.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if cfg == nil {
		return nil, ConfigError("config", "could not load configuration", err)
	}
	if args.Verbose {
		cfg.Logging.Level = "debug"
	}
	// A broken file still yields defaults; report it without failing.
	if err != nil {
		return cfg, ConfigError("config", "using defaults", err)
	}
	return cfg, nil
}

// PrintConfigWarnings writes the non-fatal problems LoadConfig reported: a
// broken file replaced by defaults, and anything collected in cfg.Warnings.
func PrintConfigWarnings(w io.Writer, cfg *config.Config, err error) {
	if err != nil {
		fmt.Fprintf(w, "Warning: %v\n", err)
	}
	if cfg == nil {
		return
	}
	for _, warning := range cfg.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

// HandleConfig handles "config show", "config path" and "config init".
func HandleConfig(w io.Writer, args Args) error {
	switch args.Subcommand {
	case "", "show":
		cfg, err := LoadConfig(args)
		if cfg == nil {
			return err
		}
		fmt.Fprintln(w, cfg.String())
		return err

	case "path":
		path, err := ConfigPath(args)
		if err != nil {
			return ConfigError("config path", "could not resolve path", err)
		}
		fmt.Fprintln(w, path)
		return nil

	case "init":
		return initConfig(w, args)

	default:
		return UsageError("config", fmt.Sprintf("unknown subcommand %q (want show, path or init)", args.Subcommand))
	}
}

func initConfig(w io.Writer, args Args) error {
	path, err := ConfigPath(args)
	if err != nil {
		return ConfigError("config init", "could not resolve path", err)
	}

	if _, err := os.Stat(path); err == nil && !args.Force {
		return UsageError("config init", path+" already exists (use --force to overwrite)")
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ConfigError("config init", "could not stat "+path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return ConfigError("config init", "could not create directory", err)
	}
	save := func(cfg *config.Config) error { return config.SaveTOML(cfg, path) }
	if args.ConfigPath == "" {
		save = config.Save
	}
	if err := save(config.Default()); err != nil {
		return ConfigError("config init", "could not write config", err)
	}

	fmt.Fprintf(w, "Wrote %s\n", path)
	fmt.Fprintln(w, "Next: run `memchat hash-password` and set admin.password_hash.")
	return nil
}
