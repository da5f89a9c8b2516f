package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Handle is an open connection pool to one session database.
type Handle struct {
	DB     *sql.DB
	Driver string
	// Source is the file path for SQLite handles and a redacted URL for
	// Postgres handles.
	Source string
}

func (h *Handle) Close() error {
	if h == nil || h.DB == nil {
		return nil
	}
	return h.DB.Close()
}

func (h *Handle) Ping(ctx context.Context) error {
	return h.DB.PingContext(ctx)
}

// Opener opens session handles. The zero value is ready to use.
type Opener struct {
	// PingTimeout bounds the connectivity check done after opening.
	PingTimeout time.Duration
}

func (o Opener) pingTimeout() time.Duration {
	if o.PingTimeout <= 0 {
		return 5 * time.Second
	}
	return o.PingTimeout
}

// OpenFile opens an existing SQLite database file.
func (o Opener) OpenFile(ctx context.Context, path string) (*Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat sqlite %s: %w", path, err)
	}

	// Session databases are only ever read.
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout())
	defer cancel()
	// Ping alone does not read the file header; touching sqlite_master does.
	var one int
	err = db.QueryRowContext(pingCtx, "SELECT 1 FROM sqlite_master LIMIT 1").Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	return &Handle{DB: db, Driver: DriverSQLite, Source: path}, nil
}

// OpenURL opens a Postgres database through pgx's database/sql adapter.
func (o Opener) OpenURL(ctx context.Context, databaseURL string) (*Handle, error) {
	config, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	db := stdlib.OpenDB(*config)
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, o.pingTimeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	source := fmt.Sprintf("postgres://%s:***@%s:%d/%s", config.User, config.Host, config.Port, config.Database)
	return &Handle{DB: db, Driver: DriverPostgres, Source: source}, nil
}
