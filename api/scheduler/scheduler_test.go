package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (f *fakeSweeper) DeleteRevokedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.deleted, f.err
}

func TestSweepUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC)
	sweeper := &fakeSweeper{deleted: 4}
	s := NewScheduler(sweeper, 48*time.Hour)
	s.now = func() time.Time { return now }

	deleted, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	require.Len(t, sweeper.cutoffs, 1)
	assert.Equal(t, now.Add(-48*time.Hour), sweeper.cutoffs[0])
}

func TestSweepWithoutRetentionIsNoop(t *testing.T) {
	sweeper := &fakeSweeper{}
	s := NewScheduler(sweeper, 0)

	deleted, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Empty(t, sweeper.cutoffs)
}

func TestSweepReturnsStoreError(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("connection reset")}
	s := NewScheduler(sweeper, time.Hour)

	_, err := s.Sweep(context.Background())
	assert.EqualError(t, err, "connection reset")

	// the cron job swallows it after logging
	assert.NotPanics(t, s.sweepRevokedTokens)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&fakeSweeper{}, time.Hour)
	s.Schedule = "not a schedule"
	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(&fakeSweeper{}, time.Hour)
	require.NoError(t, s.Start())
	s.Stop()
}
