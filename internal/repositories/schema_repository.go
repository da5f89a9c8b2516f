package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"sql_dashboard/internal/database"
	"sql_dashboard/internal/models"
)

// SchemaRepository introspects tables, columns and foreign keys of a
// session database.
type SchemaRepository struct {
	// PostgresSchema is the namespace introspected on Postgres handles.
	PostgresSchema string
}

func NewSchemaRepository() *SchemaRepository {
	return &SchemaRepository{PostgresSchema: "public"}
}

// Introspect reads a complete schema snapshot from h.
func (r *SchemaRepository) Introspect(ctx context.Context, h *database.Handle) (*models.SchemaModel, error) {
	switch h.Driver {
	case database.DriverSQLite:
		return r.introspectSQLite(ctx, h.DB)
	case database.DriverPostgres:
		return r.introspectPostgres(ctx, h.DB)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", h.Driver)
	}
}

func (r *SchemaRepository) introspectSQLite(ctx context.Context, db *sql.DB) (*models.SchemaModel, error) {
	names, err := queryStrings(ctx, db, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	schema := &models.SchemaModel{Tables: make([]models.Table, 0, len(names))}
	for _, name := range names {
		cols, err := sqliteColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, models.Table{Name: name, Columns: cols})
	}

	for _, t := range schema.Tables {
		rels, err := sqliteForeignKeys(ctx, db, t.Name, schema)
		if err != nil {
			return nil, err
		}
		schema.Relationships = append(schema.Relationships, rels...)
	}
	return schema, nil
}

func sqliteColumns(ctx context.Context, db *sql.DB, table string) ([]models.Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, type, "notnull", dflt_value, pk
		FROM pragma_table_info(?)
		ORDER BY cid
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var (
			col     models.Column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		col.PrimaryKey = pk > 0
		// SQLite allows NULL in non-integer primary keys unless declared otherwise.
		col.Nullable = notNull == 0 && !col.PrimaryKey
		if dflt.Valid {
			d := dflt.String
			col.Default = &d
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func sqliteForeignKeys(ctx context.Context, db *sql.DB, table string, schema *models.SchemaModel) ([]models.Relationship, error) {
	// foreign_key_list numbers constraints in reverse declaration order.
	rows, err := db.QueryContext(ctx, `
		SELECT id, "table", "from", "to"
		FROM pragma_foreign_key_list(?)
		ORDER BY id DESC, seq
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var (
		rels   []models.Relationship
		lastID = -1
	)
	for rows.Next() {
		var (
			id       int
			refTable string
			from     string
			to       sql.NullString
		)
		if err := rows.Scan(&id, &refTable, &from, &to); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key of %s: %w", table, err)
		}
		if id != lastID {
			rels = append(rels, models.Relationship{FromTable: table, ToTable: refTable})
			lastID = id
		}
		rel := &rels[len(rels)-1]
		rel.FromColumns = append(rel.FromColumns, from)
		if to.Valid && to.String != "" {
			rel.ToColumns = append(rel.ToColumns, to.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// REFERENCES t without a column list points at t's primary key.
	valid := rels[:0]
	for _, rel := range rels {
		if len(rel.ToColumns) == 0 {
			if ref, ok := schema.Table(rel.ToTable); ok {
				rel.ToColumns = ref.PrimaryKeys()
			}
		}
		if len(rel.ToColumns) != len(rel.FromColumns) {
			continue
		}
		valid = append(valid, rel)
	}
	return valid, nil
}

func (r *SchemaRepository) introspectPostgres(ctx context.Context, db *sql.DB) (*models.SchemaModel, error) {
	names, err := queryStrings(ctx, db, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, r.PostgresSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	pks, err := r.postgresPrimaryKeys(ctx, db)
	if err != nil {
		return nil, err
	}

	schema := &models.SchemaModel{Tables: make([]models.Table, 0, len(names))}
	for _, name := range names {
		cols, err := r.postgresColumns(ctx, db, name, pks)
		if err != nil {
			return nil, err
		}
		schema.Tables = append(schema.Tables, models.Table{Name: name, Columns: cols})
	}

	rels, err := r.postgresForeignKeys(ctx, db)
	if err != nil {
		return nil, err
	}
	schema.Relationships = rels
	return schema, nil
}

func (r *SchemaRepository) postgresColumns(ctx context.Context, db *sql.DB, table string, pks map[string]bool) ([]models.Column, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, r.PostgresSchema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var (
			col      models.Column
			nullable string
			dflt     sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &dflt); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		col.Nullable = nullable == "YES"
		col.PrimaryKey = pks[table+"."+col.Name]
		if dflt.Valid {
			d := dflt.String
			col.Default = &d
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// postgresPrimaryKeys returns the set of "table.column" primary key columns.
func (r *SchemaRepository) postgresPrimaryKeys(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1
	`, r.PostgresSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary keys: %w", err)
	}
	defer rows.Close()

	pks := make(map[string]bool)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("failed to scan primary key: %w", err)
		}
		pks[table+"."+column] = true
	}
	return pks, rows.Err()
}

// postgresForeignKeys reads every foreign key of the schema, keeping the
// column pairing of composite keys.
func (r *SchemaRepository) postgresForeignKeys(ctx context.Context, db *sql.DB) ([]models.Relationship, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			con.oid::bigint,
			src.relname,
			srccol.attname,
			dst.relname,
			dstcol.attname
		FROM pg_constraint con
		JOIN pg_class src ON src.oid = con.conrelid
		JOIN pg_class dst ON dst.oid = con.confrelid
		JOIN pg_namespace ns ON ns.oid = src.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(srcnum, dstnum, pos)
		JOIN pg_attribute srccol ON srccol.attrelid = con.conrelid AND srccol.attnum = k.srcnum
		JOIN pg_attribute dstcol ON dstcol.attrelid = con.confrelid AND dstcol.attnum = k.dstnum
		WHERE con.contype = 'f' AND ns.nspname = $1
		ORDER BY src.relname, con.oid, k.pos
	`, r.PostgresSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	defer rows.Close()

	var (
		rels   []models.Relationship
		lastID int64 = -1
	)
	for rows.Next() {
		var (
			oid             int64
			fromTable, from string
			toTable, toCol  string
		)
		if err := rows.Scan(&oid, &fromTable, &from, &toTable, &toCol); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if oid != lastID {
			rels = append(rels, models.Relationship{FromTable: fromTable, ToTable: toTable})
			lastID = oid
		}
		rel := &rels[len(rels)-1]
		rel.FromColumns = append(rel.FromColumns, from)
		rel.ToColumns = append(rel.ToColumns, toCol)
	}
	return rels, rows.Err()
}

func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
