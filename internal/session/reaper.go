package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"sql_dashboard/internal/models"
)

// Sessions is what the reaper needs from a Registry.
type Sessions interface {
	List() []models.Session
	Delete(id string) error
}

// Reaper periodically deletes sessions that have been idle longer than a TTL.
type Reaper struct {
	sessions Sessions
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewReaper(sessions Sessions, ttl, interval time.Duration, logger *zap.Logger) *Reaper {
	return &Reaper{
		sessions: sessions,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the sweep loop in the background until ctx is cancelled or Stop
// is called. Calling Start on a running reaper is a no-op.
func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.run(ctx, r.done)

	r.logger.Info("session reaper started",
		zap.Duration("ttl", r.ttl),
		zap.Duration("interval", r.interval),
	)
}

// Stop cancels the loop and waits for it to exit.
func (r *Reaper) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.logger.Info("session reaper stopped")
}

func (r *Reaper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep deletes every session idle since before now-TTL and returns how many
// were removed. A failed delete is logged and the sweep moves on.
func (r *Reaper) Sweep(ctx context.Context) int {
	cutoff := r.now().Add(-r.ttl)
	deleted := 0

	for _, s := range r.sessions.List() {
		if ctx.Err() != nil {
			break
		}
		if models.IsSharedSession(s.ID) || !s.LastAccessedAt.Before(cutoff) {
			continue
		}
		if err := r.sessions.Delete(s.ID); err != nil {
			r.logger.Error("failed to delete expired session", zap.String("session_id", s.ID), zap.Error(err))
			continue
		}
		deleted++
		r.logger.Info("deleted expired session",
			zap.String("session_id", s.ID),
			zap.Time("last_accessed_at", s.LastAccessedAt),
		)
	}

	if deleted > 0 {
		r.logger.Info("session sweep finished", zap.Int("deleted", deleted))
	} else {
		r.logger.Debug("session sweep finished", zap.Int("deleted", deleted))
	}
	return deleted
}
