// journal/journal_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package journal

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mmp/autoflight/autopilot"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	id, err := s.Begin(ctx, "liftoff", "A380", "liftoff.yaml")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	trs := []autopilot.Transition{
		{Time: 6, Machine: "vertical", Name: "OFF_TO_VS", From: "NONE", To: "VS"},
		{Time: 5, Machine: "lateral", Name: "OFF_TO_HDG", From: "NONE", To: "HDG"},
		{Time: 11, Machine: "vertical", Name: "ALT_CPT", From: "VS", To: "ALT_CPT"},
	}
	for _, tr := range trs {
		require.NoError(t, s.RecordTransition(ctx, id, tr))
	}

	got, err := s.Transitions(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []autopilot.Transition{trs[1], trs[0], trs[2]}, got)
}

func TestSessionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	a, err := s.Begin(ctx, "a", "A380", "a.yaml")
	require.NoError(t, err)
	b, err := s.Begin(ctx, "b", "A320", "b.yaml")
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	require.NoError(t, s.RecordTransition(ctx, a, autopilot.Transition{Time: 1, Machine: "lateral", Name: "X"}))

	trs, err := s.Transitions(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, trs)

	ss, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, ss, 2)
	assert.Equal(t, a, ss[0].ID)
	assert.Equal(t, "A320", ss[1].Profile)
	assert.Equal(t, "b.yaml", ss[1].Source)
	assert.False(t, ss[0].Started.IsZero())
}

func TestUnknownSession(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	_, err := s.Transitions(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUnknownSession)

	_, err = s.FMAEvents(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUnknownSession)

	err = s.RecordTransition(ctx, uuid.New(), autopilot.Transition{Name: "X"})
	assert.Error(t, err, "foreign key should reject a transition for an unknown session")
}

func TestFMAEvents(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	id, err := s.Begin(ctx, "fma", "A380", "")
	require.NoError(t, err)
	require.NoError(t, s.RecordFMAEvent(ctx, id, 12.5, "triple_click"))
	require.NoError(t, s.RecordFMAEvent(ctx, id, 10, "fma_reversion"))

	evs, err := s.FMAEvents(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []FMAEvent{{10, "fma_reversion"}, {12.5, "triple_click"}}, evs)
}

func TestConcurrentWritersAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path, nil)
	require.NoError(t, err)

	id, err := s.Begin(ctx, "parallel", "A380", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.RecordTransition(ctx, id, autopilot.Transition{Time: float64(i), Machine: "lateral"}))
		}()
	}
	wg.Wait()
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	trs, err := s.Transitions(ctx, id)
	require.NoError(t, err)
	assert.Len(t, trs, 8)
	for i, tr := range trs {
		assert.Equal(t, float64(i), tr.Time)
	}
}
