// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// IsInteractive returns true if stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsOutputTerminal returns true if stdout is a terminal.
func IsOutputTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// TerminalPrompt reads passwords from the terminal without echo. When stdin
// is not a terminal it reads one line per call from stdin instead, so
// hash-password can be scripted.
func TerminalPrompt(prompts io.Writer) PasswordPrompt {
	if IsInteractive() {
		return func(prompt string) ([]byte, error) {
			fmt.Fprint(prompts, prompt)
			defer fmt.Fprintln(prompts)
			return term.ReadPassword(int(os.Stdin.Fd()))
		}
	}
	return LinePrompt(os.Stdin)
}

// LinePrompt reads one line per call from r.
func LinePrompt(r io.Reader) PasswordPrompt {
	sc := bufio.NewScanner(r)
	return func(string) ([]byte, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, io.ErrUnexpectedEOF
		}
		return append([]byte(nil), sc.Bytes()...), nil
	}
}
