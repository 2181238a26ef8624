// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxMessages is the history bound used when none is configured.
const DefaultMaxMessages = 500

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a chat transcript. When it grows past MaxMessages the
// oldest messages are pruned to prevent unbounded memory growth.
type Conversation struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Messages  []*Message `json:"messages"`

	MaxMessages int `json:"-"`
}

// NewConversation creates an empty conversation bounded to maxMessages.
// Non-positive values select DefaultMaxMessages.
func NewConversation(maxMessages int) *Conversation {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	now := time.Now()
	return &Conversation{
		ID:          uuid.NewString(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Messages:    make([]*Message, 0),
		MaxMessages: maxMessages,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage adds a message to the conversation.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.pruneOldMessages()
}

// AddUserMessage creates and adds a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddAssistantMessage creates and adds an assistant message.
func (c *Conversation) AddAssistantMessage(content string) *Message {
	msg := NewAssistantMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddSystemMessage creates and adds a system message.
func (c *Conversation) AddSystemMessage(content string) *Message {
	msg := NewSystemMessage(content)
	c.AddMessage(msg)
	return msg
}

// GetLastMessage returns the most recent message, or nil if empty.
func (c *Conversation) GetLastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// History returns a copy of the user and assistant messages, oldest first.
// System notices and blank messages are excluded.
func (c *Conversation) History() []Message {
	out := make([]Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Role == RoleSystem || m.IsEmpty() {
			continue
		}
		out = append(out, *m)
	}
	return out
}

// Title is a one-line preview of the first user message, or "" when the
// user has not said anything yet.
func (c *Conversation) Title(maxLen int) string {
	for _, m := range c.Messages {
		if m.Role == RoleUser && !m.IsEmpty() {
			return m.Preview(maxLen)
		}
	}
	return ""
}

// Clear removes every message.
func (c *Conversation) Clear() {
	c.Messages = c.Messages[:0]
	c.UpdatedAt = time.Now()
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// IsEmpty returns true if the conversation has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// pruneOldMessages drops the oldest messages beyond MaxMessages.
func (c *Conversation) pruneOldMessages() {
	if c.MaxMessages <= 0 || len(c.Messages) <= c.MaxMessages {
		return
	}
	excess := len(c.Messages) - c.MaxMessages
	// Nil out pruned pointers so the backing array does not retain them.
	for i := 0; i < excess; i++ {
		c.Messages[i] = nil
	}
	c.Messages = append(c.Messages[:0], c.Messages[excess:]...)
}
