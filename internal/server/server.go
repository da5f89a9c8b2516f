package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sql_dashboard/internal/config"
	"sql_dashboard/internal/database"
	"sql_dashboard/internal/handlers"
	"sql_dashboard/internal/middlewares"
	"sql_dashboard/internal/repositories"
	"sql_dashboard/internal/routes"
	"sql_dashboard/internal/services"
	"sql_dashboard/internal/session"
	"sql_dashboard/internal/storage"
	"sql_dashboard/internal/utils"
)

type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *session.Registry
	reaper   *session.Reaper
	http     *http.Server
}

// New wires every component and opens the shared session. It fails when
// the shared database cannot be opened.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	store, err := storage.NewOsFileStore(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	registry := session.NewRegistry(database.Opener{}, store, logger.Named("sessions"))
	if err := registry.Initialize(ctx, session.Config{
		PlaygroundPath: cfg.PlaygroundDBPath,
		DatabaseURL:    cfg.DatabaseURL,
	}); err != nil {
		return nil, err
	}

	// Dependency injection
	schemaRepo := repositories.NewSchemaRepository()
	queryRepo := repositories.NewQueryRepository()
	historyRepo := repositories.NewQueryHistoryRepository(100)

	schemaService, err := services.NewSchemaService(registry, schemaRepo, cfg.GraphCacheSize, logger.Named("schema"))
	if err != nil {
		_ = registry.Shutdown()
		return nil, err
	}
	queryService := services.NewQueryService(schemaService, queryRepo, historyRepo, services.QueryLimits{
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
		Timeout:      cfg.QueryTimeout,
	}, logger.Named("query"))
	sessionService := services.NewSessionService(registry, store, cfg.MaxUploadBytes(), logger.Named("upload"))

	registry.OnDelete(schemaService.Evict)
	registry.OnDelete(queryService.ForgetSession)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestLogger(logger.Named("http")))
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	router.MaxMultipartMemory = 8 << 20

	routes.RegisterRoutes(router, routes.Handlers{
		Session: handlers.NewSessionHandler(sessionService),
		Schema:  handlers.NewSchemaHandler(schemaService),
		Query:   handlers.NewQueryHandler(queryService),
		Health:  handlers.NewHealthHandler(registry),
	}, registry)

	return &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		reaper:   session.NewReaper(registry, cfg.SessionExpiry, cfg.CleanupInterval, logger.Named("reaper")),
		http: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  time.Minute,
			WriteTimeout: cfg.QueryTimeout + 10*time.Second,
		},
	}, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if utils.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves HTTP and sweeps expired sessions until ctx is cancelled, then
// shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	s.reaper.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down server gracefully")
	case serveErr = <-errCh:
		s.logger.Error("http server error", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close(shutdownCtx)

	return serveErr
}

// Close stops accepting requests, waits for the reaper and closes every
// session handle.
func (s *Server) Close(ctx context.Context) {
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
	s.reaper.Stop()
	if err := s.registry.Shutdown(); err != nil {
		s.logger.Warn("session shutdown", zap.Error(err))
	}
	s.logger.Info("server exiting")
}
