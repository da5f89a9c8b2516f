package services

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sql_dashboard/internal/database"
	"sql_dashboard/internal/repositories"
	"sql_dashboard/internal/session"
	"sql_dashboard/internal/storage"
)

type testEnv struct {
	dir      string
	registry *session.Registry
	store    *storage.FileStore
	schemas  *SchemaService
	queries  *QueryService
	sessions *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()
	dir := t.TempDir()

	playground := filepath.Join(dir, "playground.db")
	require.NoError(t, database.CreatePlayground(ctx, playground, database.PlaygroundOptions{Seed: 1, Orders: 25}, logger))

	store, err := storage.NewOsFileStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	registry := session.NewRegistry(database.Opener{}, store, logger)
	require.NoError(t, registry.Initialize(ctx, session.Config{PlaygroundPath: playground}))
	t.Cleanup(func() { _ = registry.Shutdown() })

	schemas, err := NewSchemaService(registry, repositories.NewSchemaRepository(), 16, logger)
	require.NoError(t, err)
	queries := NewQueryService(schemas, repositories.NewQueryRepository(), repositories.NewQueryHistoryRepository(50),
		QueryLimits{DefaultLimit: 5, MaxLimit: 100, Timeout: 5 * time.Second}, logger)
	sessions := NewSessionService(registry, store, 1024*1024, logger)

	registry.OnDelete(schemas.Evict)
	registry.OnDelete(queries.ForgetSession)

	return &testEnv{
		dir:      dir,
		registry: registry,
		store:    store,
		schemas:  schemas,
		queries:  queries,
		sessions: sessions,
	}
}

// sqliteFile builds a SQLite database from stmts and returns its bytes.
func sqliteFile(t *testing.T, stmts ...string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, db.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
