package models

import (
	"time"

	"sql_dashboard/internal/database"
)

const (
	// SharedSessionID identifies the pre-provisioned playground database.
	SharedSessionID = "playground"
	// SharedSessionAlias is accepted anywhere SharedSessionID is.
	SharedSessionAlias = "shared"
)

// IsSharedSession reports whether id addresses the shared session.
func IsSharedSession(id string) bool {
	return id == SharedSessionID || id == SharedSessionAlias
}

// Session is an uploaded database and its open handle.
type Session struct {
	ID               string           `json:"session_id"`
	FilePath         string           `json:"-"`
	Handle           *database.Handle `json:"-"`
	Driver           string           `json:"driver"`
	CreatedAt        time.Time        `json:"created_at"`
	LastAccessedAt   time.Time        `json:"last_accessed_at"`
	SizeBytes        int64            `json:"file_size_bytes"`
	OriginalFilename string           `json:"original_filename"`
}
