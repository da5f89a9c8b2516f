package repositories

import (
	"sync"

	"sql_dashboard/internal/models"
)

// QueryHistoryRepository keeps the most recent query executions of each
// session in memory.
type QueryHistoryRepository struct {
	mu         sync.Mutex
	perSession int
	entries    map[string][]models.QueryHistory
}

func NewQueryHistoryRepository(perSession int) *QueryHistoryRepository {
	if perSession <= 0 {
		perSession = 100
	}
	return &QueryHistoryRepository{
		perSession: perSession,
		entries:    make(map[string][]models.QueryHistory),
	}
}

func (r *QueryHistoryRepository) Create(entry models.QueryHistory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := append(r.entries[entry.SessionID], entry)
	if len(list) > r.perSession {
		list = append([]models.QueryHistory(nil), list[len(list)-r.perSession:]...)
	}
	r.entries[entry.SessionID] = list
}

// GetBySessionID returns up to limit entries, newest first.
func (r *QueryHistoryRepository) GetBySessionID(sessionID string, limit int) []models.QueryHistory {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.entries[sessionID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}

	out := make([]models.QueryHistory, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out
}

func (r *QueryHistoryRepository) DeleteBySessionID(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}
