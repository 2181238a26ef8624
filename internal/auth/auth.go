// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth verifies admin credentials for the dashboard.
//
// A login checks, in order: configuration, rate limit, lockout, username and
// bcrypt password, then the optional TOTP code. Every outcome is written to an
// EventRecorder so the dashboard can show the audit trail.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeranaias/memchat-tui/internal/config"
	"github.com/jeranaias/memchat-tui/internal/logging"
	"github.com/jeranaias/memchat-tui/internal/storage"
	"github.com/jeranaias/memchat-tui/internal/util"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLocked             = errors.New("account locked")
	ErrThrottled          = errors.New("too many attempts, slow down")
	ErrMFARequired        = errors.New("authenticator code required")
	ErrMFAInvalid         = errors.New("invalid authenticator code")
	ErrNotConfigured      = errors.New("admin password not configured")
)

// DefaultLoginRate and DefaultLoginBurst bound login attempts across all users.
const (
	DefaultLoginRate  = rate.Limit(2)
	DefaultLoginBurst = 5
)

// =============================================================================
// TYPES
// =============================================================================

// EventRecorder receives audit events. *storage.AuditStore implements it.
type EventRecorder interface {
	Record(ctx context.Context, e storage.Event) error
}

// Credentials are what the login form submits.
type Credentials struct {
	Username string
	Password string
	Code     string // TOTP code, may be empty
}

// Session is an authenticated admin session.
type Session struct {
	ID        string
	User      string
	StartedAt time.Time
}

// Stats summarises authentication activity since the process started.
type Stats struct {
	Successes  int
	Failures   int
	Lockouts   int
	Locked     []LockoutEntry
	Session    *Session
	MFAEnabled bool

	// MaxAttempts is the failure threshold that triggers a lockout.
	MaxAttempts int
}

// Authenticator checks admin credentials. It is safe for concurrent use.
type Authenticator struct {
	mu sync.Mutex

	username   string
	hash       []byte
	totpSecret string

	lockout  *LockoutManager
	limiter  *rate.Limiter
	recorder EventRecorder
	logger   *slog.Logger
	now      func() time.Time

	session   *Session
	successes int
	failures  int
	lockouts  int
}

// Option is a functional option for configuring Authenticator.
type Option func(*Authenticator)

// WithRecorder sets the audit event recorder.
func WithRecorder(r EventRecorder) Option {
	return func(a *Authenticator) {
		a.recorder = r
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = l
	}
}

// WithLimiter replaces the login rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(a *Authenticator) {
		a.limiter = l
	}
}

// WithLockout replaces the lockout manager built from the config.
func WithLockout(l *LockoutManager) Option {
	return func(a *Authenticator) {
		a.lockout = l
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// New creates an Authenticator from the admin config section.
func New(cfg config.AdminConfig, opts ...Option) *Authenticator {
	a := &Authenticator{
		username:   normalize(cfg.Username),
		hash:       []byte(cfg.PasswordHash),
		totpSecret: cfg.TOTPSecret,
		limiter:    rate.NewLimiter(DefaultLoginRate, DefaultLoginBurst),
		logger:     logging.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.lockout == nil {
		a.lockout = NewLockoutManager(
			WithMaxAttempts(cfg.MaxLoginAttempts),
			WithLockoutDuration(time.Duration(cfg.LockoutMinutes)*time.Minute),
			WithLockoutClock(a.now),
		)
	}
	return a
}

// Configured reports whether a password hash is set.
func (a *Authenticator) Configured() bool {
	return len(a.hash) > 0
}

// MFAEnabled reports whether a TOTP code is required.
func (a *Authenticator) MFAEnabled() bool {
	return a.totpSecret != ""
}

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

// Login verifies creds and starts a session. Errors wrap one of the
// package's sentinel errors.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if !a.Configured() {
		return nil, ErrNotConfigured
	}

	user := normalize(creds.Username)
	actor := util.MaskIdentifier(user)

	if !a.limiter.Allow() {
		a.record(ctx, storage.EventThrottled, actor, "rate limit", false)
		return nil, ErrThrottled
	}

	if remaining, locked := a.lockout.Check(user); locked {
		a.record(ctx, storage.EventLoginBlocked, actor, "locked", false)
		return nil, lockedError(remaining)
	}

	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(creds.Password))
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.username)) == 1
	if !userOK || passErr != nil {
		return nil, a.fail(ctx, user, actor, "bad credentials", ErrInvalidCredentials)
	}

	if a.MFAEnabled() {
		if creds.Code == "" {
			a.record(ctx, storage.EventLoginFailure, actor, "code required", false)
			return nil, ErrMFARequired
		}
		if !totp.Validate(creds.Code, a.totpSecret) {
			return nil, a.fail(ctx, user, actor, "bad code", ErrMFAInvalid)
		}
	}

	a.lockout.RecordSuccess(user)

	session := &Session{
		ID:        uuid.NewString(),
		User:      user,
		StartedAt: a.now(),
	}

	a.mu.Lock()
	a.session = session
	a.successes++
	a.mu.Unlock()

	a.record(ctx, storage.EventLoginSuccess, actor, "session "+shortID(session.ID), true)
	a.logger.Info("admin login", "user", actor, "session", shortID(session.ID))

	out := *session
	return &out, nil
}

// fail counts a failure and returns cause, or a lockout error if this
// failure crossed the threshold.
func (a *Authenticator) fail(ctx context.Context, user, actor, detail string, cause error) error {
	locked := a.lockout.RecordFailure(user)

	a.mu.Lock()
	a.failures++
	if locked {
		a.lockouts++
	}
	a.mu.Unlock()

	a.record(ctx, storage.EventLoginFailure, actor, detail, false)
	a.logger.Warn("admin login failed", "user", actor, "reason", detail)

	if locked {
		remaining, _ := a.lockout.Check(user)
		a.record(ctx, storage.EventLockout, actor, "locked for "+remaining.Round(time.Second).String(), false)
		a.logger.Warn("admin locked out", "user", actor, "duration", remaining.Round(time.Second))
		return lockedError(remaining)
	}
	return cause
}

// Logout ends the current session. Logging out without a session is a no-op.
func (a *Authenticator) Logout(ctx context.Context) {
	a.mu.Lock()
	session := a.session
	a.session = nil
	a.mu.Unlock()

	if session == nil {
		return
	}
	actor := util.MaskIdentifier(session.User)
	a.record(ctx, storage.EventLogout, actor, "session "+shortID(session.ID), true)
	a.logger.Info("admin logout", "user", actor, "session", shortID(session.ID))
}

// Session returns a copy of the current session, or nil.
func (a *Authenticator) Session() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	s := *a.session
	return &s
}

// =============================================================================
// ADMINISTRATION
// =============================================================================

// UnlockAll releases every locked identifier and returns how many were released.
func (a *Authenticator) UnlockAll(ctx context.Context) int {
	released := 0
	for _, e := range a.lockout.ListLocked() {
		if !a.lockout.Unlock(e.Identifier) {
			continue
		}
		actor := util.MaskIdentifier(e.Identifier)
		a.record(ctx, storage.EventUnlock, actor, "manual", true)
		a.logger.Info("admin unlock", "user", actor)
		released++
	}
	return released
}

// AttemptsLeft returns how many more failures username may make before it
// is locked out.
func (a *Authenticator) AttemptsLeft(username string) int {
	return a.lockout.Remaining(normalize(username))
}

// Stats returns a snapshot of authentication activity.
func (a *Authenticator) Stats() Stats {
	locked := a.lockout.ListLocked()
	for i := range locked {
		locked[i].Identifier = util.MaskIdentifier(locked[i].Identifier)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	st := Stats{
		Successes:   a.successes,
		Failures:    a.failures,
		Lockouts:    a.lockouts,
		Locked:      locked,
		MFAEnabled:  a.MFAEnabled(),
		MaxAttempts: a.lockout.MaxAttempts(),
	}
	if a.session != nil {
		s := *a.session
		st.Session = &s
	}
	return st
}

// =============================================================================
// HELPERS
// =============================================================================

func (a *Authenticator) record(ctx context.Context, typ storage.EventType, actor, detail string, success bool) {
	if a.recorder == nil {
		return
	}
	err := a.recorder.Record(ctx, storage.Event{
		Time:    a.now(),
		Type:    typ,
		Actor:   actor,
		Detail:  detail,
		Success: success,
	})
	if err != nil {
		a.logger.Error("audit record failed", "event", typ, "error", err)
	}
}

func lockedError(remaining time.Duration) error {
	return fmt.Errorf("%w: try again in %s", ErrLocked, remaining.Round(time.Second))
}

// normalize applies Unicode NFC so visually identical usernames compare equal.
func normalize(s string) string {
	return norm.NFC.String(s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
