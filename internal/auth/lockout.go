// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"sort"
	"sync"
	"time"
)

const (
	// DefaultMaxAttempts is the number of consecutive failures before lockout.
	DefaultMaxAttempts = 3

	// DefaultLockoutDuration is how long an identifier stays locked.
	DefaultLockoutDuration = 15 * time.Minute
)

// =============================================================================
// ATTEMPT RECORD
// =============================================================================

// AttemptRecord tracks failed login attempts for one identifier.
type AttemptRecord struct {
	// Count is the number of consecutive failed attempts.
	Count int

	// LastAttempt is the timestamp of the last attempt.
	LastAttempt time.Time

	// LockedUntil is when the lockout expires. Zero means not locked.
	LockedUntil time.Time

	// LockoutCount tracks the total number of lockouts for this identifier.
	LockoutCount int
}

func (a *AttemptRecord) lockedAt(now time.Time) bool {
	return !a.LockedUntil.IsZero() && now.Before(a.LockedUntil)
}

// =============================================================================
// LOCKOUT MANAGER
// =============================================================================

// LockoutManager counts consecutive failures per identifier and locks an
// identifier once the threshold is reached. It is safe for concurrent use.
type LockoutManager struct {
	mu              sync.Mutex
	attempts        map[string]*AttemptRecord
	maxAttempts     int
	lockoutDuration time.Duration
	now             func() time.Time
}

// LockoutOption is a functional option for configuring LockoutManager.
type LockoutOption func(*LockoutManager)

// WithMaxAttempts sets the number of failed attempts before lockout.
func WithMaxAttempts(max int) LockoutOption {
	return func(l *LockoutManager) {
		if max > 0 {
			l.maxAttempts = max
		}
	}
}

// WithLockoutDuration sets the lockout duration.
func WithLockoutDuration(d time.Duration) LockoutOption {
	return func(l *LockoutManager) {
		if d > 0 {
			l.lockoutDuration = d
		}
	}
}

// WithLockoutClock overrides the time source.
func WithLockoutClock(now func() time.Time) LockoutOption {
	return func(l *LockoutManager) {
		l.now = now
	}
}

// NewLockoutManager creates a new LockoutManager with the given options.
func NewLockoutManager(opts ...LockoutOption) *LockoutManager {
	l := &LockoutManager{
		attempts:        make(map[string]*AttemptRecord),
		maxAttempts:     DefaultMaxAttempts,
		lockoutDuration: DefaultLockoutDuration,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check reports whether identifier is locked and for how much longer.
func (l *LockoutManager) Check(identifier string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.attempts[identifier]
	if !ok {
		return 0, false
	}
	now := l.now()
	if !record.lockedAt(now) {
		return 0, false
	}
	return record.LockedUntil.Sub(now), true
}

// RecordFailure counts a failed attempt. It returns true when this failure
// locked the identifier.
func (l *LockoutManager) RecordFailure(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	record, ok := l.attempts[identifier]
	if !ok {
		record = &AttemptRecord{}
		l.attempts[identifier] = record
	}

	// An expired lockout starts a fresh series.
	if !record.LockedUntil.IsZero() && !record.lockedAt(now) {
		record.LockedUntil = time.Time{}
		record.Count = 0
	}

	record.LastAttempt = now
	record.Count++
	if record.Count >= l.maxAttempts {
		record.LockedUntil = now.Add(l.lockoutDuration)
		record.LockoutCount++
		record.Count = 0
		return true
	}
	return false
}

// RecordSuccess resets the failure counter for identifier.
func (l *LockoutManager) RecordSuccess(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if record, ok := l.attempts[identifier]; ok {
		record.Count = 0
		record.LockedUntil = time.Time{}
		record.LastAttempt = l.now()
	}
}

// Unlock clears an active lockout. It returns false if identifier was not locked.
func (l *LockoutManager) Unlock(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.attempts[identifier]
	if !ok || !record.lockedAt(l.now()) {
		return false
	}
	record.LockedUntil = time.Time{}
	record.Count = 0
	return true
}

// LockoutEntry represents a locked identifier for listing.
type LockoutEntry struct {
	Identifier    string
	LockedUntil   time.Time
	TimeRemaining time.Duration
	LockoutCount  int
}

// ListLocked returns all currently locked identifiers, sorted by identifier.
func (l *LockoutManager) ListLocked() []LockoutEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	var locked []LockoutEntry
	for id, record := range l.attempts {
		if record.lockedAt(now) {
			locked = append(locked, LockoutEntry{
				Identifier:    id,
				LockedUntil:   record.LockedUntil,
				TimeRemaining: record.LockedUntil.Sub(now),
				LockoutCount:  record.LockoutCount,
			})
		}
	}
	sort.Slice(locked, func(i, j int) bool { return locked[i].Identifier < locked[j].Identifier })
	return locked
}

// MaxAttempts returns the configured failure threshold.
func (l *LockoutManager) MaxAttempts() int {
	return l.maxAttempts
}

// Remaining returns how many failures identifier may still make before lockout.
func (l *LockoutManager) Remaining(identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.attempts[identifier]
	if !ok {
		return l.maxAttempts
	}
	return l.maxAttempts - record.Count
}
