package models

import "time"

// Operator is a filter comparison. The accepted set is closed; see
// querybuilder for the translation of each one.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpGt         Operator = "gt"
	OpLt         Operator = "lt"
	OpGte        Operator = "gte"
	OpLte        Operator = "lte"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startswith"
	OpEndsWith   Operator = "endswith"
	OpIsNull     Operator = "is_null"
	OpIsNotNull  Operator = "is_not_null"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Filter restricts rows by a single column comparison. When Table differs
// from the queried table the filter is resolved through foreign keys.
type Filter struct {
	Table    string   `json:"table" binding:"required"`
	Column   string   `json:"column" binding:"required"`
	Operator Operator `json:"operator" binding:"required"`
	Value    any      `json:"value"`
}

type Sort struct {
	Column    string        `json:"column" binding:"required"`
	Direction SortDirection `json:"direction"`
}

type QueryRequest struct {
	Table   string   `json:"table" binding:"required"`
	Filters []Filter `json:"filters" binding:"dive"`
	Sort    *Sort    `json:"sort,omitempty"`
	Offset  int      `json:"offset"`
	Limit   int      `json:"limit"`
}

// QueryResult holds one page of rows. Total ignores pagination.
type QueryResult struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
	Total   int64            `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}

// QueryHistory is one executed query request for a session.
type QueryHistory struct {
	SessionID       string    `json:"session_id"`
	Table           string    `json:"table"`
	QueryText       string    `json:"query_text"`
	ExecutedAt      time.Time `json:"executed_at"`
	Success         bool      `json:"success"`
	Error           string    `json:"error,omitempty"`
	ExecutionTimeMs int64     `json:"execution_time_ms"`
}
