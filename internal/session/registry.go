package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sql_dashboard/internal/apperrors"
	"sql_dashboard/internal/database"
	"sql_dashboard/internal/models"
)

// Opener opens database handles for sessions. database.Opener implements it.
type Opener interface {
	OpenFile(ctx context.Context, path string) (*database.Handle, error)
	OpenURL(ctx context.Context, databaseURL string) (*database.Handle, error)
}

// Files is the part of the upload store the registry needs.
// storage.FileStore implements it.
type Files interface {
	Size(path string) (int64, error)
	Remove(path string) error
}

// Config selects the backing database of the shared session.
type Config struct {
	PlaygroundPath string
	// DatabaseURL, when set, is tried before PlaygroundPath.
	DatabaseURL string
}

// Registry maps session ids to open database handles. The shared session
// lives outside the map and can be neither deleted nor reaped.
type Registry struct {
	opener Opener
	files  Files
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*models.Session
	onDelete []func(id string)

	sharedMu sync.Mutex
	shared   *models.Session
}

func NewRegistry(opener Opener, files Files, logger *zap.Logger) *Registry {
	return &Registry{
		opener:   opener,
		files:    files,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*models.Session),
	}
}

// Initialize opens the shared session. A configured DatabaseURL that cannot
// be reached falls back to the playground file; a missing playground file is
// an error.
func (r *Registry) Initialize(ctx context.Context, cfg Config) error {
	var handle *database.Handle

	if cfg.DatabaseURL != "" {
		h, err := r.opener.OpenURL(ctx, cfg.DatabaseURL)
		if err != nil {
			r.logger.Warn("shared database unreachable, falling back to playground file",
				zap.Error(err),
				zap.String("playground_path", cfg.PlaygroundPath),
			)
		} else {
			handle = h
		}
	}

	var (
		size     int64
		filePath string
	)
	if handle == nil {
		h, err := r.opener.OpenFile(ctx, cfg.PlaygroundPath)
		if err != nil {
			return fmt.Errorf("open playground database: %w", err)
		}
		handle = h
		filePath = cfg.PlaygroundPath
		if s, err := r.files.Size(cfg.PlaygroundPath); err == nil {
			size = s
		}
	}

	now := r.now()
	r.sharedMu.Lock()
	old := r.shared
	r.shared = &models.Session{
		ID:               models.SharedSessionID,
		FilePath:         filePath,
		Handle:           handle,
		Driver:           handle.Driver,
		CreatedAt:        now,
		LastAccessedAt:   now,
		SizeBytes:        size,
		OriginalFilename: "playground",
	}
	r.sharedMu.Unlock()

	if old != nil {
		_ = old.Handle.Close()
	}

	r.logger.Info("shared session ready",
		zap.String("driver", handle.Driver),
		zap.String("source", handle.Source),
	)
	return nil
}

// OnDelete registers fn to run after a session is removed, whether by Delete
// or by the reaper.
func (r *Registry) OnDelete(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onDelete = append(r.onDelete, fn)
}

// Create opens the SQLite file at filePath as a new session and returns its
// id. A requestedID that is already in use is rejected.
func (r *Registry) Create(ctx context.Context, filePath, originalFilename, requestedID string) (string, error) {
	if models.IsSharedSession(requestedID) {
		return "", apperrors.InvalidOperation("session id %q is reserved", requestedID)
	}

	id := requestedID
	if id == "" {
		id = uuid.NewString()
	} else if r.exists(id) {
		return "", apperrors.Conflict("session %s already exists", id)
	}

	handle, err := r.opener.OpenFile(ctx, filePath)
	if err != nil {
		return "", fmt.Errorf("open session database: %w", err)
	}

	size, err := r.files.Size(filePath)
	if err != nil {
		_ = handle.Close()
		return "", fmt.Errorf("stat session database: %w", err)
	}

	now := r.now()
	s := &models.Session{
		ID:               id,
		FilePath:         filePath,
		Handle:           handle,
		Driver:           handle.Driver,
		CreatedAt:        now,
		LastAccessedAt:   now,
		SizeBytes:        size,
		OriginalFilename: originalFilename,
	}

	r.mu.Lock()
	_, taken := r.sessions[id]
	if !taken {
		r.sessions[id] = s
	}
	r.mu.Unlock()

	if taken {
		_ = handle.Close()
		return "", apperrors.Conflict("session %s already exists", id)
	}

	r.logger.Info("session created",
		zap.String("session_id", id),
		zap.String("filename", originalFilename),
		zap.Int64("size_bytes", size),
	)
	return id, nil
}

func (r *Registry) exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	return ok
}

// Get returns the handle of a session and marks it as accessed.
func (r *Registry) Get(id string) (*database.Handle, error) {
	s, err := r.touch(id)
	if err != nil {
		return nil, err
	}
	return s.Handle, nil
}

// GetMeta returns a copy of the session record and marks it as accessed.
func (r *Registry) GetMeta(id string) (models.Session, error) {
	return r.touch(id)
}

func (r *Registry) touch(id string) (models.Session, error) {
	if models.IsSharedSession(id) {
		r.sharedMu.Lock()
		defer r.sharedMu.Unlock()
		if r.shared == nil {
			return models.Session{}, apperrors.NotFound("session not found: %s", id)
		}
		r.shared.LastAccessedAt = r.now()
		return *r.shared, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return models.Session{}, apperrors.NotFound("session not found: %s", id)
	}
	s.LastAccessedAt = r.now()
	return *s, nil
}

// Delete closes and forgets a session and removes its backing file. File
// removal failures are logged only.
func (r *Registry) Delete(id string) error {
	if models.IsSharedSession(id) {
		return apperrors.InvalidOperation("the shared session cannot be deleted")
	}

	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	hooks := append([]func(string){}, r.onDelete...)
	r.mu.Unlock()

	if !ok {
		return apperrors.NotFound("session not found: %s", id)
	}

	if err := s.Handle.Close(); err != nil {
		r.logger.Warn("failed to close session database", zap.String("session_id", id), zap.Error(err))
	}
	if err := r.files.Remove(s.FilePath); err != nil {
		r.logger.Warn("failed to remove session file",
			zap.String("session_id", id),
			zap.String("path", s.FilePath),
			zap.Error(err),
		)
	}
	for _, fn := range hooks {
		fn(id)
	}

	r.logger.Info("session deleted", zap.String("session_id", id), zap.String("filename", s.OriginalFilename))
	return nil
}

// List returns a snapshot of every non-shared session, oldest first.
func (r *Registry) List() []models.Session {
	r.mu.Lock()
	out := make([]models.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Shutdown closes every handle, the shared one included. Backing files are
// left in place.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*models.Session)
	r.mu.Unlock()

	r.sharedMu.Lock()
	shared := r.shared
	r.shared = nil
	r.sharedMu.Unlock()

	var errs []error
	closeOne := func(s *models.Session) {
		if err := s.Handle.Close(); err != nil {
			r.logger.Error("failed to close session database", zap.String("session_id", s.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("close session %s: %w", s.ID, err))
		}
	}

	if shared != nil {
		closeOne(shared)
	}
	for _, s := range sessions {
		closeOne(s)
	}

	r.logger.Info("session registry shut down", zap.Int("sessions_closed", len(sessions)))
	return errors.Join(errs...)
}
