package querybuilder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"sql_dashboard/internal/database"
)

// Dialect captures the syntax differences between the engines a session can
// be backed by.
type Dialect interface {
	Name() string
	// Placeholder returns the bind marker for the n-th argument, 1-based.
	Placeholder(n int) string
	QuoteIdent(name string) string
	// CaseInsensitiveLike matches column against a LIKE pattern bound at
	// placeholder, with backslash as the escape character.
	CaseInsensitiveLike(column, placeholder string) string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return database.DriverSQLite }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) CaseInsensitiveLike(column, placeholder string) string {
	return fmt.Sprintf(`lower(%s) LIKE lower(%s) ESCAPE '\'`, column, placeholder)
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return database.DriverPostgres }

func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) QuoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (postgresDialect) CaseInsensitiveLike(column, placeholder string) string {
	return fmt.Sprintf(`CAST(%s AS TEXT) ILIKE %s ESCAPE '\'`, column, placeholder)
}

var (
	SQLite   Dialect = sqliteDialect{}
	Postgres Dialect = postgresDialect{}
)

// DialectFor returns the dialect for a database.Handle driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case database.DriverSQLite:
		return SQLite, nil
	case database.DriverPostgres:
		return Postgres, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}
