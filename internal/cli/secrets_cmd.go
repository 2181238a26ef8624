// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest admin password hash-password accepts.
const MinPasswordLength = 8

// PasswordPrompt reads one password, printing prompt first.
type PasswordPrompt func(prompt string) ([]byte, error)

// HashPassword validates password and returns its bcrypt hash.
func HashPassword(password []byte, cost int) (string, error) {
	password = bytes.TrimRight(password, "\r\n")
	if len(password) < MinPasswordLength {
		return "", UsageError("hash-password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > 72 {
		return "", UsageError("hash-password", "password must be at most 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword(password, cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// HandleHashPassword asks for a password twice and prints its bcrypt hash.
func HandleHashPassword(w io.Writer, prompt PasswordPrompt, cost int) error {
	first, err := prompt("New admin password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	second, err := prompt("Repeat password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if !bytes.Equal(bytes.TrimRight(first, "\r\n"), bytes.TrimRight(second, "\r\n")) {
		return UsageError("hash-password", "passwords do not match")
	}

	hash, err := HashPassword(first, cost)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, hash)
	return nil
}

// HandleTOTPSecret generates a TOTP key for account and prints the secret
// and the otpauth URL to enrol it in an authenticator app.
func HandleTOTPSecret(w io.Writer, account string) error {
	if account == "" {
		account = "admin"
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "memchat",
		AccountName: account,
	})
	if err != nil {
		return fmt.Errorf("generate totp secret: %w", err)
	}

	fmt.Fprintf(w, "Secret: %s\n", key.Secret())
	fmt.Fprintf(w, "URL:    %s\n", key.URL())
	fmt.Fprintln(w, "Set admin.totp_secret to the secret above.")
	return nil
}
