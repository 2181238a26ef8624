// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
)

// Exit codes for the different error categories.
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
)

// CommandError is a CLI command failure with the exit code it maps to.
type CommandError struct {
	Command  string
	Message  string
	Cause    error
	ExitCode int
}

func (e *CommandError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// UsageError reports invalid arguments.
func UsageError(command, message string) error {
	return &CommandError{Command: command, Message: message, ExitCode: ExitUsageError}
}

// ConfigError reports a configuration problem.
func ConfigError(command, message string, cause error) error {
	return &CommandError{Command: command, Message: message, Cause: cause, ExitCode: ExitConfigError}
}

// ExitCodeFor returns the process exit code for err.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}
	return ExitGeneralError
}
