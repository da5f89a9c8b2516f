package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql_dashboard/internal/apperrors"
	"sql_dashboard/internal/models"
)

func TestSchemaIsCachedPerSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.schemas.GetSchema(ctx, models.SharedSessionID)
	require.NoError(t, err)
	second, err := env.schemas.GetSchema(ctx, models.SharedSessionAlias)
	require.NoError(t, err)
	assert.Same(t, first, second)

	env.schemas.Evict(models.SharedSessionAlias)
	third, err := env.schemas.GetSchema(ctx, models.SharedSessionID)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first, third)
}

func TestSchemaUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.schemas.GetSchema(context.Background(), "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFindPathAndRelated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	path, err := env.schemas.FindPath(ctx, models.SharedSessionID, "products", "customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"products", "order_items", "orders", "customers"}, path.Tables)

	related, err := env.schemas.Related(ctx, models.SharedSessionID, "order_items")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"orders", "products"}, related)

	_, err = env.schemas.FindPath(ctx, models.SharedSessionID, "products", "nope")
	assert.True(t, apperrors.IsValidation(err))
	_, err = env.schemas.Related(ctx, models.SharedSessionID, "nope")
	assert.True(t, apperrors.IsValidation(err))
}

func TestVisualizeSchema(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	diagram, err := env.schemas.VisualizeSchema(ctx, models.SharedSessionID)
	require.NoError(t, err)
	assert.Contains(t, diagram, "erDiagram\n")
	assert.Contains(t, diagram, `    CUSTOMERS ||--o{ ORDERS : ""`)
	assert.Contains(t, diagram, "    ORDER_ITEMS {\n")
	assert.Contains(t, diagram, "        int order_id FK\n")
	assert.Contains(t, diagram, "        int id PK\n")
	assert.Contains(t, diagram, "        decimal price\n")

	data := sqliteFile(t,
		`CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT)`,
		`CREATE TABLE tags (id INTEGER PRIMARY KEY, label TEXT)`,
		`CREATE TABLE post_tags (
			post_id INTEGER REFERENCES posts (id),
			tag_id INTEGER REFERENCES tags (id),
			PRIMARY KEY (post_id, tag_id)
		)`,
	)
	s, err := env.sessions.Upload(ctx, bytes.NewReader(data), "blog.db", int64(len(data)), "")
	require.NoError(t, err)

	diagram, err = env.schemas.VisualizeSchema(ctx, s.ID)
	require.NoError(t, err)
	assert.Contains(t, diagram, `    POSTS }o--o{ TAGS : ""`)
	assert.NotContains(t, diagram, "||--o{ POST_TAGS")
}

func TestSimplifyDataType(t *testing.T) {
	tests := map[string]string{
		"INTEGER":                     "int",
		"character varying":           "varchar",
		"VARCHAR(255)":                "varchar",
		"timestamp without time zone": "timestamp",
		"timestamp with time zone":    "timestamptz",
		"DECIMAL(10, 2)":              "decimal",
		"":                            "any",
		"weird type":                  "weird_type",
	}
	for in, want := range tests {
		assert.Equal(t, want, simplifyDataType(in), in)
	}
}
