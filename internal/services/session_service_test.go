package services

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql_dashboard/internal/apperrors"
	"sql_dashboard/internal/models"
)

func uploadedFiles(t *testing.T, env *testEnv) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(env.store.Dir())
	require.NoError(t, err)
	return entries
}

func TestUploadQueryDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := sqliteFile(t,
		`CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`,
		`INSERT INTO notes (body) VALUES ('first'), ('second'), ('third')`,
	)

	s, err := env.sessions.Upload(ctx, bytes.NewReader(data), "My Notes.sqlite", -1, "")
	require.NoError(t, err)
	assert.Equal(t, "My Notes.sqlite", s.OriginalFilename)
	assert.Equal(t, int64(len(data)), s.SizeBytes)
	require.Len(t, uploadedFiles(t, env), 1)
	assert.True(t, strings.HasSuffix(uploadedFiles(t, env)[0].Name(), "_my-notes.db"))

	result, err := env.queries.Execute(ctx, s.ID, models.QueryRequest{
		Table:   "notes",
		Filters: []models.Filter{{Table: "notes", Column: "body", Operator: models.OpEndsWith, Value: "D"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)

	assert.Len(t, env.sessions.List(), 1)
	require.NoError(t, env.sessions.Delete(s.ID))
	assert.Empty(t, env.sessions.List())
	assert.Empty(t, uploadedFiles(t, env))

	_, err = env.sessions.Get(s.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = env.queries.GetQueryHistory(s.ID, 0)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUploadValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	valid := sqliteFile(t, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)

	tests := []struct {
		name     string
		data     []byte
		filename string
		size     int64
		message  string
	}{
		{"no filename", valid, "", -1, "filename"},
		{"bad extension", valid, "data.csv", -1, "extension"},
		{"declared too large", valid, "big.db", 2 * 1024 * 1024, "maximum upload size"},
		{"actually too large", append(append([]byte{}, valid...), make([]byte, 1024*1024)...), "big.db", -1, "maximum upload size"},
		{"not sqlite", []byte("PK\x03\x04 definitely a zip file"), "zip.db", -1, "magic bytes"},
		{"too short", []byte("SQLite"), "short.db", -1, "magic bytes"},
		{"corrupt body", append([]byte("SQLite format 3\x00"), bytes.Repeat([]byte{0xff}, 200)...), "corrupt.db", -1, "database validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.sessions.Upload(ctx, bytes.NewReader(tt.data), tt.filename, tt.size, "")
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.message)
			assert.Empty(t, uploadedFiles(t, env), "rejected uploads must not be kept")
		})
	}
}

func TestUploadRequestedIDConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	data := sqliteFile(t, `CREATE TABLE t (id INTEGER PRIMARY KEY)`)

	s, err := env.sessions.Upload(ctx, bytes.NewReader(data), "a.db", -1, "team-a")
	require.NoError(t, err)
	assert.Equal(t, "team-a", s.ID)

	_, err = env.sessions.Upload(ctx, bytes.NewReader(data), "b.db", -1, "team-a")
	assert.True(t, apperrors.IsConflict(err))
	assert.Len(t, uploadedFiles(t, env), 1)

	_, err = env.sessions.Upload(ctx, bytes.NewReader(data), "c.db", -1, models.SharedSessionID)
	assert.True(t, apperrors.IsInvalidOperation(err))
	assert.Len(t, uploadedFiles(t, env), 1)
}
