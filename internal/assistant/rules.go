// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"

	"github.com/jeranaias/memchat-tui/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// REPLY TEMPLATES
// =============================================================================

// Templates use {name} for " Name" (leading space, or empty) and {who} for
// the bare name.
var templates = map[string][]string{
	"greeting": {
		"Hello{name}! How can I help you today?",
		"Hi{name}! What can I do for you?",
		"Hello{name}! I'm here to assist you.",
	},
	"greeting_again": {
		"Hello{name}! Good to see you again. How can I help?",
		"Hey{name}! What would you like to talk about today?",
	},
	"introduction": {
		"Nice to meet you, {who}! I'll remember that.",
		"Great to meet you, {who}! I've noted your name.",
		"Pleased to meet you, {who}! I'll keep that in mind.",
	},
	"unknown": {
		"I don't have that information yet. Could you tell me more?",
		"I haven't learned about that. Can you share more details?",
		"I'd like to learn more about that. Could you elaborate?",
	},
	"scheduling": {
		"Sure! When would you like to schedule that?",
		"Happy to help plan that. What time works best for you?",
	},
	"goodbye": {
		"Goodbye{name}! Have a great day!",
		"See you later{name}! Take care!",
		"Bye{name}! Looking forward to our next chat!",
	},
	"default": {
		"I understand. Is there anything else you'd like to talk about?",
		"Got it! What else can I help you with?",
		"Understood! Anything else on your mind?",
	},
	"default_named": {
		"I understand, {who}. What else would you like to discuss?",
		"Got it, {who}! How else can I help?",
		"Understood, {who}! What's next?",
	},
}

var (
	greetingWords   = []string{"hi", "hello", "hey", "greetings", "howdy", "sup", "yo"}
	greetingPhrases = []string{"good morning", "good afternoon", "good evening"}
	questionStarts  = []string{"what", "when", "where", "who", "why", "how", "can you",
		"could you", "would you", "do you", "are you", "is there"}
	schedulingWords = []string{"meeting", "schedule", "call", "appointment", "book",
		"plan", "calendar", "reminder"}
	goodbyeWords = []string{"bye", "goodbye", "see you", "farewell", "later", "take care"}

	// "i am X" has many false positives.
	notNames = map[string]bool{
		"a": true, "an": true, "the": true, "going": true, "working": true,
		"living": true, "from": true, "here": true, "fine": true, "good": true,
		"not": true, "so": true, "just": true, "ok": true, "okay": true,
	}

	myNameIs = regexp.MustCompile(`my name is\s+([a-z]+(?:\s+[a-z]+)?)`)
	iAm      = regexp.MustCompile(`\bi(?:'m| am)\s+([a-z]+)(?:\s|$|[.!,])`)
	callMe   = regexp.MustCompile(`call me\s+([a-z]+)`)
	wordRe   = regexp.MustCompile(`[a-z']+`)
)

// =============================================================================
// RULES RESPONDER
// =============================================================================

// Rules is a rule-based Responder. It recognises greetings, name
// introductions, questions, scheduling phrases and goodbyes. The user's name
// is remembered for the lifetime of the Rules value only.
type Rules struct {
	mu     sync.Mutex
	name   string
	pick   func(n int) int
	titler cases.Caser
}

// RulesOption configures a Rules responder.
type RulesOption func(*Rules)

// WithPicker sets the function used to choose among reply variants.
// Tests use it to make replies deterministic.
func WithPicker(pick func(n int) int) RulesOption {
	return func(r *Rules) {
		r.pick = pick
	}
}

// NewRules creates a rule-based responder.
func NewRules(opts ...RulesOption) *Rules {
	r := &Rules{
		pick:   rand.IntN,
		titler: cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the remembered user name, or "" when none was given.
func (r *Rules) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// Respond implements Responder.
func (r *Rules) Respond(ctx context.Context, history []model.Message, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg := strings.ToLower(strings.TrimSpace(input))
	if msg == "" {
		return "", ErrEmptyInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A returning user has prior assistant turns in the transcript.
	seenBefore := false
	for _, m := range history {
		if m.Role == model.RoleAssistant {
			seenBefore = true
			break
		}
	}

	switch {
	case isGreeting(msg):
		if seenBefore && r.name != "" {
			return r.format("greeting_again"), nil
		}
		return r.format("greeting"), nil

	case r.learnName(msg):
		return r.format("introduction"), nil

	case isQuestion(msg):
		return r.answer(msg), nil

	case containsAny(msg, schedulingWords):
		return r.format("scheduling"), nil

	case containsAny(msg, goodbyeWords):
		return r.format("goodbye"), nil

	case r.name != "":
		return r.format("default_named"), nil

	default:
		return r.format("default"), nil
	}
}

// learnName extracts and stores a name from an introduction.
func (r *Rules) learnName(msg string) bool {
	var name string
	if m := myNameIs.FindStringSubmatch(msg); m != nil {
		name = m[1]
	} else if m := iAm.FindStringSubmatch(msg); m != nil && !notNames[m[1]] {
		name = m[1]
	} else if m := callMe.FindStringSubmatch(msg); m != nil {
		name = m[1]
	}
	if name == "" {
		return false
	}
	r.name = r.titler.String(name)
	return true
}

func (r *Rules) answer(msg string) string {
	switch {
	case strings.Contains(msg, "my name") || strings.Contains(msg, "who am i"):
		if r.name != "" {
			return "Your name is " + r.name + "!"
		}
		return "I don't know your name yet. What should I call you?"
	case containsAny(msg, []string{"when", "time", "schedule"}):
		return "I don't have any scheduling information yet. What would you like to know?"
	case containsAny(msg, []string{"task", "todo", "remind"}):
		return "You don't have any tasks recorded yet."
	default:
		return r.format("unknown")
	}
}

func (r *Rules) format(key string) string {
	variants := templates[key]
	reply := variants[r.pick(len(variants))]

	name := ""
	if r.name != "" {
		name = " " + r.name
	}
	return strings.NewReplacer("{name}", name, "{who}", r.name).Replace(reply)
}

// =============================================================================
// CLASSIFIERS
// =============================================================================

func isGreeting(msg string) bool {
	for _, p := range greetingPhrases {
		if strings.HasPrefix(msg, p) {
			return true
		}
	}
	first := wordRe.FindString(msg)
	for _, g := range greetingWords {
		if first == g {
			return true
		}
	}
	return false
}

func isQuestion(msg string) bool {
	if strings.Contains(msg, "?") {
		return true
	}
	for _, q := range questionStarts {
		if strings.HasPrefix(msg, q+" ") {
			return true
		}
	}
	return false
}

func containsAny(msg string, words []string) bool {
	for _, w := range words {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}
