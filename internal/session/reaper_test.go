package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sql_dashboard/internal/apperrors"
	"sql_dashboard/internal/models"
)

func TestSweepDeletesIdleSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale, err := f.registry.Create(ctx, writeDB(t, f.dir, "stale.db"), "stale.db", "")
	require.NoError(t, err)
	revived, err := f.registry.Create(ctx, writeDB(t, f.dir, "revived.db"), "revived.db", "")
	require.NoError(t, err)

	reaper := NewReaper(f.registry, 24*time.Hour, time.Hour, zap.NewNop())
	reaper.now = f.clock.Now

	f.clock.Advance(23 * time.Hour)
	fresh, err := f.registry.Create(ctx, writeDB(t, f.dir, "fresh.db"), "fresh.db", "")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	// Both stale and revived are now past the TTL; touching revived saves it.
	_, err = f.registry.Get(revived)
	require.NoError(t, err)

	assert.Equal(t, 1, reaper.Sweep(ctx))

	_, err = f.registry.Get(stale)
	assert.True(t, apperrors.IsNotFound(err))
	for _, id := range []string{revived, fresh, models.SharedSessionID} {
		_, err := f.registry.Get(id)
		assert.NoError(t, err, id)
	}
}

func TestSweepSkipsSharedSession(t *testing.T) {
	f := newFixture(t)
	reaper := NewReaper(f.registry, time.Minute, time.Hour, zap.NewNop())
	reaper.now = f.clock.Now

	f.clock.Advance(24 * time.Hour)
	assert.Zero(t, reaper.Sweep(context.Background()))

	_, err := f.registry.Get(models.SharedSessionID)
	assert.NoError(t, err)
}

type flakySessions struct {
	mu       sync.Mutex
	sessions []models.Session
	fail     map[string]bool
	deleted  []string
}

func (s *flakySessions) List() []models.Session { return s.sessions }

func (s *flakySessions) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[id] {
		return errors.New("disk on fire")
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func TestSweepIsolatesFailures(t *testing.T) {
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions := &flakySessions{
		sessions: []models.Session{
			{ID: "a", LastAccessedAt: old},
			{ID: "b", LastAccessedAt: old},
			{ID: "c", LastAccessedAt: old},
		},
		fail: map[string]bool{"b": true},
	}
	core, logs := observer.New(zapcore.InfoLevel)
	reaper := NewReaper(sessions, time.Hour, time.Hour, zap.New(core))

	assert.Equal(t, 2, reaper.Sweep(context.Background()))
	assert.Equal(t, []string{"a", "c"}, sessions.deleted)
	assert.Equal(t, 1, logs.FilterMessage("failed to delete expired session").Len())
	assert.Equal(t, 1, logs.FilterMessage("session sweep finished").Len())
}

func TestReaperRunsAndStops(t *testing.T) {
	sessions := &flakySessions{
		sessions: []models.Session{{ID: "idle", LastAccessedAt: time.Now().Add(-time.Hour)}},
	}
	reaper := NewReaper(sessions, time.Minute, 10*time.Millisecond, zap.NewNop())

	reaper.Start(context.Background())
	reaper.Start(context.Background())

	require.Eventually(t, func() bool {
		sessions.mu.Lock()
		defer sessions.mu.Unlock()
		return len(sessions.deleted) > 0
	}, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		reaper.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}

	reaper.Stop()
}

func TestReaperStopsMidInterval(t *testing.T) {
	reaper := NewReaper(&flakySessions{}, time.Minute, time.Hour, zap.NewNop())
	reaper.Start(context.Background())

	start := time.Now()
	reaper.Stop()
	assert.Less(t, time.Since(start), time.Second)
}

func TestReaperStopsWithParentContext(t *testing.T) {
	reaper := NewReaper(&flakySessions{}, time.Minute, time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	reaper.Start(ctx)
	done := reaper.done

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on context cancellation")
	}
	reaper.Stop()
}
