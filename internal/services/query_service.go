package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sql_dashboard/internal/apperrors"
	"sql_dashboard/internal/models"
	"sql_dashboard/internal/querybuilder"
	"sql_dashboard/internal/repositories"
)

// QueryLimits bounds pagination and execution time of query requests.
type QueryLimits struct {
	DefaultLimit int
	MaxLimit     int
	Timeout      time.Duration
}

type QueryService struct {
	schemas     *SchemaService
	queryRepo   *repositories.QueryRepository
	historyRepo *repositories.QueryHistoryRepository
	limits      QueryLimits
	logger      *zap.Logger
}

func NewQueryService(
	schemas *SchemaService,
	queryRepo *repositories.QueryRepository,
	historyRepo *repositories.QueryHistoryRepository,
	limits QueryLimits,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		schemas:     schemas,
		queryRepo:   queryRepo,
		historyRepo: historyRepo,
		limits:      limits,
		logger:      logger,
	}
}

// Execute compiles req against the session's schema and runs the count and
// page queries concurrently.
func (s *QueryService) Execute(ctx context.Context, sessionID string, req models.QueryRequest) (*models.QueryResult, error) {
	if req.Limit == 0 {
		req.Limit = s.limits.DefaultLimit
	}

	handle, loaded, err := s.schemas.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	dialect, err := querybuilder.DialectFor(handle.Driver)
	if err != nil {
		return nil, err
	}
	compiler := querybuilder.NewCompiler(loaded.Schema, dialect, s.limits.MaxLimit, s.logger)
	countQuery, dataQuery, err := compiler.Compile(req, loaded.Graph)
	if err != nil {
		return nil, err
	}

	if s.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.limits.Timeout)
		defer cancel()
	}

	start := time.Now()
	result := &models.QueryResult{Offset: req.Offset, Limit: req.Limit}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.queryRepo.Count(gctx, handle.DB, countQuery)
		if err != nil {
			return fmt.Errorf("count query failed: %w", err)
		}
		result.Total = total
		return nil
	})
	g.Go(func() error {
		columns, rows, err := s.queryRepo.Rows(gctx, handle.DB, dataQuery)
		if err != nil {
			return fmt.Errorf("data query failed: %w", err)
		}
		result.Columns = columns
		result.Data = rows
		return nil
	})
	err = g.Wait()
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("query timed out after %s: %w", s.limits.Timeout, err)
	}

	entry := models.QueryHistory{
		SessionID:       cacheKey(sessionID),
		Table:           req.Table,
		QueryText:       dataQuery.SQL,
		ExecutedAt:      start,
		Success:         err == nil,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.historyRepo.Create(entry)

	if err != nil {
		s.logger.Warn("query failed",
			zap.String("session_id", sessionID),
			zap.String("table", req.Table),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}

// GetQueryHistory returns the most recent queries of a session, newest first.
func (s *QueryService) GetQueryHistory(sessionID string, limit int) ([]models.QueryHistory, error) {
	if limit < 0 {
		return nil, apperrors.Validation("limit must be >= 0, got %d", limit)
	}
	if _, err := s.schemas.registry.GetMeta(sessionID); err != nil {
		return nil, err
	}
	return s.historyRepo.GetBySessionID(cacheKey(sessionID), limit), nil
}

// ForgetSession drops the recorded history of a session.
func (s *QueryService) ForgetSession(sessionID string) {
	s.historyRepo.DeleteBySessionID(cacheKey(sessionID))
}
