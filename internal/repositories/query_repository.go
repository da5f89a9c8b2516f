package repositories

import (
	"context"
	"database/sql"
	"time"

	"sql_dashboard/internal/querybuilder"
)

// QueryRepository executes compiled queries against a session database.
type QueryRepository struct{}

func NewQueryRepository() *QueryRepository {
	return &QueryRepository{}
}

// Count runs a single-value COUNT query.
func (r *QueryRepository) Count(ctx context.Context, db *sql.DB, q querybuilder.Query) (int64, error) {
	var total int64
	if err := db.QueryRowContext(ctx, q.SQL, q.Args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Rows runs q and returns its column names and rows. Byte slices are
// returned as strings and times as RFC 3339.
func (r *QueryRepository) Rows(ctx context.Context, db *sql.DB, q querybuilder.Query) ([]string, []map[string]any, error) {
	rows, err := db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	resultRows := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				rowMap[col] = string(v)
			case time.Time:
				rowMap[col] = v.Format(time.RFC3339)
			default:
				rowMap[col] = v
			}
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, resultRows, nil
}
