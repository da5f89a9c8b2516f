package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"sql_dashboard/internal/apperrors"
	"sql_dashboard/internal/models"
	"sql_dashboard/internal/session"
	"sql_dashboard/internal/storage"
	"sql_dashboard/internal/utils"
)

// sqliteMagic opens every SQLite 3 database file.
var sqliteMagic = []byte("SQLite format 3\x00")

var allowedExtensions = []string{".db", ".sqlite", ".sqlite3"}

type SessionService struct {
	registry       *session.Registry
	store          *storage.FileStore
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewSessionService(registry *session.Registry, store *storage.FileStore, maxUploadBytes int64, logger *zap.Logger) *SessionService {
	return &SessionService{
		registry:       registry,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Upload validates an uploaded SQLite file, stores it and opens it as a new
// session. declaredSize is the size reported by the client, or -1.
func (s *SessionService) Upload(ctx context.Context, r io.Reader, filename string, declaredSize int64, requestedID string) (models.Session, error) {
	if filename == "" {
		return models.Session{}, apperrors.Validation("no filename provided")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !utils.Contains(allowedExtensions, ext) {
		return models.Session{}, apperrors.Validation("invalid file extension %q, only .db, .sqlite, .sqlite3 are allowed", ext)
	}
	if declaredSize > s.maxUploadBytes {
		return models.Session{}, s.tooLarge()
	}

	header := make([]byte, len(sqliteMagic))
	if _, err := io.ReadFull(r, header); err != nil || !bytes.Equal(header, sqliteMagic) {
		return models.Session{}, apperrors.Validation("invalid SQLite file format (magic bytes mismatch)")
	}

	// One byte past the limit tells an oversized body apart from one that
	// is exactly at it.
	body := io.LimitReader(io.MultiReader(bytes.NewReader(header), r), s.maxUploadBytes+1)
	path, written, err := s.store.Save(body, filename)
	if err != nil {
		return models.Session{}, err
	}
	if written > s.maxUploadBytes {
		s.removeStored(path)
		return models.Session{}, s.tooLarge()
	}

	id, err := s.registry.Create(ctx, path, filename, requestedID)
	if err != nil {
		s.removeStored(path)
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			return models.Session{}, err
		}
		return models.Session{}, &apperrors.Error{
			Kind:    apperrors.KindValidation,
			Message: "database validation failed",
			Err:     err,
		}
	}
	return s.registry.GetMeta(id)
}

func (s *SessionService) tooLarge() error {
	return apperrors.Validation("file exceeds the maximum upload size of %d MB", s.maxUploadBytes/(1024*1024))
}

func (s *SessionService) removeStored(path string) {
	if err := s.store.Remove(path); err != nil {
		s.logger.Warn("failed to remove rejected upload", zap.String("path", path), zap.Error(err))
	}
}

func (s *SessionService) List() []models.Session {
	return s.registry.List()
}

func (s *SessionService) Get(sessionID string) (models.Session, error) {
	return s.registry.GetMeta(sessionID)
}

func (s *SessionService) Delete(sessionID string) error {
	return s.registry.Delete(sessionID)
}
