// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *AuditStore {
	t.Helper()
	s, err := NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Record(ctx, Event{Time: base, Type: EventLoginFailure, Actor: "ad***"}))
	require.NoError(t, s.Record(ctx, Event{Time: base.Add(time.Minute), Type: EventLoginSuccess, Actor: "ad***", Success: true}))
	require.NoError(t, s.Record(ctx, Event{Time: base.Add(2 * time.Minute), Type: EventLogout, Actor: "ad***", Detail: "manual"}))

	events, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, EventLogout, events[0].Type)
	assert.Equal(t, "manual", events[0].Detail)
	assert.True(t, events[0].Time.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, EventLoginSuccess, events[1].Type)
	assert.True(t, events[1].Success)
}

func TestRecord_FillsZeroTime(t *testing.T) {
	s := newTestStore(t)
	before := time.Now()

	require.NoError(t, s.Record(context.Background(), Event{Type: EventUnlock}))

	events, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].Time.Before(before.Add(-time.Second)))
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, typ := range []EventType{EventLoginFailure, EventLoginFailure, EventLockout} {
		require.NoError(t, s.Record(ctx, Event{Type: typ}))
	}

	c, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Total)
	assert.Equal(t, 2, c.ByType[EventLoginFailure])
	assert.Equal(t, 1, c.ByType[EventLockout])
	assert.Zero(t, c.ByType[EventLogout])
}

func TestOpen_FilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Event{Type: EventLoginSuccess, Success: true}))
	require.NoError(t, s.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	events, err := reopened.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventLoginSuccess, events[0].Type)
}

func TestClosedStore(t *testing.T) {
	s, err := NewMemory()
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Record(context.Background(), Event{Type: EventLogout}), ErrClosed)
	_, err = s.Recent(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Counts(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
