package querybuilder

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sql_dashboard/internal/apperrors"
	"sql_dashboard/internal/graph"
	"sql_dashboard/internal/models"
)

// Query is a compiled statement and its bind arguments.
type Query struct {
	SQL  string
	Args []any
}

// Compiler turns QueryRequests into parameterized SQL for one schema.
// Identifiers are only ever taken from the schema after validation; values
// are always bound.
type Compiler struct {
	schema   *models.SchemaModel
	dialect  Dialect
	maxLimit int
	logger   *zap.Logger
}

func NewCompiler(schema *models.SchemaModel, dialect Dialect, maxLimit int, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{
		schema:   schema,
		dialect:  dialect,
		maxLimit: maxLimit,
		logger:   logger,
	}
}

const baseAlias = "t0"

// Compile builds the count and data queries for req. Cross-table filters are
// resolved through g, which may be nil when the request has none.
func (c *Compiler) Compile(req models.QueryRequest, g *graph.RelationshipGraph) (count, data Query, err error) {
	target, ok := c.schema.Table(req.Table)
	if !ok {
		return Query{}, Query{}, apperrors.Validation("unknown table: %s", req.Table)
	}
	if req.Offset < 0 {
		return Query{}, Query{}, apperrors.Validation("offset must be >= 0, got %d", req.Offset)
	}
	if req.Limit < 1 || (c.maxLimit > 0 && req.Limit > c.maxLimit) {
		return Query{}, Query{}, apperrors.Validation("limit must be between 1 and %d, got %d", c.maxLimit, req.Limit)
	}

	b := &builder{dialect: c.dialect}

	var predicates []string
	for _, f := range req.Filters {
		var p string
		if f.Table == "" || f.Table == target.Name {
			p, err = c.directPredicate(b, target, baseAlias, f)
		} else {
			p, err = c.existsPredicate(b, target, f, g)
		}
		if err != nil {
			return Query{}, Query{}, err
		}
		predicates = append(predicates, p)
	}

	orderBy, err := c.orderBy(target, req.Sort)
	if err != nil {
		return Query{}, Query{}, err
	}

	from := fmt.Sprintf(" FROM %s AS %s", c.dialect.QuoteIdent(target.Name), c.dialect.QuoteIdent(baseAlias))
	where := ""
	if len(predicates) > 0 {
		where = " WHERE " + strings.Join(predicates, " AND ")
	}

	count = Query{
		SQL:  "SELECT COUNT(*)" + from + where,
		Args: append([]any(nil), b.args...),
	}

	limitPH := b.bind(req.Limit)
	offsetPH := b.bind(req.Offset)
	data = Query{
		SQL: fmt.Sprintf("SELECT %s.*%s%s%s LIMIT %s OFFSET %s",
			c.dialect.QuoteIdent(baseAlias), from, where, orderBy, limitPH, offsetPH),
		Args: b.args,
	}
	return count, data, nil
}

func (c *Compiler) orderBy(target models.Table, sort *models.Sort) (string, error) {
	if sort == nil || sort.Column == "" {
		return "", nil
	}
	if !target.HasColumn(sort.Column) {
		return "", apperrors.Validation("unknown sort column: %s.%s", target.Name, sort.Column)
	}

	direction := "ASC"
	switch models.SortDirection(strings.ToLower(string(sort.Direction))) {
	case "", models.SortAsc:
	case models.SortDesc:
		direction = "DESC"
	default:
		return "", apperrors.Validation("invalid sort direction: %s", sort.Direction)
	}
	return fmt.Sprintf(" ORDER BY %s %s", c.column(baseAlias, sort.Column), direction), nil
}

// existsPredicate filters the target table on a column of another table by
// correlating a subquery along the shortest foreign key path.
func (c *Compiler) existsPredicate(b *builder, target models.Table, f models.Filter, g *graph.RelationshipGraph) (string, error) {
	filterTable, ok := c.schema.Table(f.Table)
	if !ok {
		return "", apperrors.Validation("unknown table: %s", f.Table)
	}
	if g == nil {
		return "", apperrors.Validation("no relationship information available to filter %s by %s", target.Name, f.Table)
	}
	path, ok := g.FindPath(target.Name, filterTable.Name)
	if !ok {
		return "", apperrors.Validation("no relationship path from %s to %s", target.Name, f.Table)
	}
	for _, name := range path.Tables {
		if _, ok := c.schema.Table(name); !ok {
			return "", apperrors.Validation("unknown table on relationship path: %s", name)
		}
	}

	c.logger.Debug("resolved cross-table filter",
		zap.String("from", target.Name),
		zap.String("to", f.Table),
		zap.Strings("tables", path.Tables),
	)

	// aliases[0] is the outer table; the rest are introduced by the subquery.
	aliases := make([]string, len(path.Tables))
	aliases[0] = baseAlias
	sources := make([]string, 0, len(path.Tables)-1)
	for i := 1; i < len(path.Tables); i++ {
		aliases[i] = b.nextAlias()
		sources = append(sources, fmt.Sprintf("%s AS %s",
			c.dialect.QuoteIdent(path.Tables[i]), c.dialect.QuoteIdent(aliases[i])))
	}

	last := len(aliases) - 1
	filterPredicate, err := c.directPredicate(b, filterTable, aliases[last], f)
	if err != nil {
		return "", err
	}
	conditions := []string{filterPredicate}

	// Walk back from the filter table so the final hop correlates to t0.
	for cur := last; cur > 0; cur-- {
		edge := path.Edges[cur-1]
		var curCols, prevCols []string
		if edge.ToTable == path.Tables[cur] {
			curCols, prevCols = edge.ToColumns, edge.FromColumns
		} else {
			curCols, prevCols = edge.FromColumns, edge.ToColumns
		}
		for i := range curCols {
			conditions = append(conditions, fmt.Sprintf("%s = %s",
				c.column(aliases[cur], curCols[i]), c.column(aliases[cur-1], prevCols[i])))
		}
	}

	return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE %s)",
		strings.Join(sources, ", "), strings.Join(conditions, " AND ")), nil
}

func (c *Compiler) directPredicate(b *builder, table models.Table, alias string, f models.Filter) (string, error) {
	if !table.HasColumn(f.Column) {
		return "", apperrors.Validation("unknown column: %s.%s", table.Name, f.Column)
	}
	col := c.column(alias, f.Column)

	switch f.Operator {
	case models.OpIsNull:
		return col + " IS NULL", nil
	case models.OpIsNotNull:
		return col + " IS NOT NULL", nil
	}

	value, err := scalar(f)
	if err != nil {
		return "", err
	}

	switch f.Operator {
	case models.OpEq:
		return col + " = " + b.bind(value), nil
	case models.OpNe:
		return col + " <> " + b.bind(value), nil
	case models.OpGt:
		return col + " > " + b.bind(value), nil
	case models.OpLt:
		return col + " < " + b.bind(value), nil
	case models.OpGte:
		return col + " >= " + b.bind(value), nil
	case models.OpLte:
		return col + " <= " + b.bind(value), nil
	case models.OpContains:
		return c.dialect.CaseInsensitiveLike(col, b.bind("%"+EscapeLike(fmt.Sprint(value))+"%")), nil
	case models.OpStartsWith:
		return c.dialect.CaseInsensitiveLike(col, b.bind(EscapeLike(fmt.Sprint(value))+"%")), nil
	case models.OpEndsWith:
		return c.dialect.CaseInsensitiveLike(col, b.bind("%"+EscapeLike(fmt.Sprint(value)))), nil
	default:
		return "", apperrors.Validation("unsupported operator %q on %s.%s", f.Operator, table.Name, f.Column)
	}
}

// scalar checks the filter value is something a single placeholder can carry.
func scalar(f models.Filter) (any, error) {
	if !isKnownOperator(f.Operator) {
		return nil, apperrors.Validation("unsupported operator %q on %s.%s", f.Operator, f.Table, f.Column)
	}
	switch v := f.Value.(type) {
	case nil:
		return nil, apperrors.Validation("operator %s on %s requires a value", f.Operator, f.Column)
	case string, bool, float64, float32, int, int32, int64:
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		if fl, err := v.Float64(); err == nil {
			return fl, nil
		}
		return v.String(), nil
	default:
		return nil, apperrors.Validation("value for %s must be a string, number or boolean", f.Column)
	}
}

func isKnownOperator(op models.Operator) bool {
	switch op {
	case models.OpEq, models.OpNe, models.OpGt, models.OpLt, models.OpGte, models.OpLte,
		models.OpContains, models.OpStartsWith, models.OpEndsWith,
		models.OpIsNull, models.OpIsNotNull:
		return true
	}
	return false
}

func (c *Compiler) column(alias, name string) string {
	return c.dialect.QuoteIdent(alias) + "." + c.dialect.QuoteIdent(name)
}

// builder accumulates bind arguments and subquery aliases for one Compile.
type builder struct {
	dialect Dialect
	args    []any
	aliases int
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.dialect.Placeholder(len(b.args))
}

func (b *builder) nextAlias() string {
	b.aliases++
	return fmt.Sprintf("t%d", b.aliases)
}
