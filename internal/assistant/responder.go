// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package assistant produces replies for the chat view.
//
// A Responder is the only contract the chat view depends on. The Rules
// responder shipped here is a local pattern matcher; a model-backed
// responder can replace it without touching the UI.
package assistant

import (
	"context"
	"errors"

	"github.com/jeranaias/memchat-tui/internal/model"
)

// ErrEmptyInput is returned when Respond is called with blank input.
var ErrEmptyInput = errors.New("assistant: empty input")

// Responder produces the assistant's reply to input given the prior history.
// Implementations must honour ctx cancellation and be safe for concurrent use.
type Responder interface {
	Respond(ctx context.Context, history []model.Message, input string) (string, error)
}

// ResponderFunc adapts an ordinary function to the Responder interface.
type ResponderFunc func(ctx context.Context, history []model.Message, input string) (string, error)

// Respond calls f(ctx, history, input).
func (f ResponderFunc) Respond(ctx context.Context, history []model.Message, input string) (string, error) {
	return f(ctx, history, input)
}
