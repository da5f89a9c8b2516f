package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/models"
	"sql_dashboard/internal/responses"
	"sql_dashboard/internal/session"
)

type HealthHandler struct {
	registry *session.Registry
}

func NewHealthHandler(registry *session.Registry) *HealthHandler {
	return &HealthHandler{registry: registry}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// DBStatus handles GET /api/db-status
func (h *HealthHandler) DBStatus(c *gin.Context) {
	meta, err := h.registry.GetMeta(models.SharedSessionID)
	if err != nil {
		responses.Fail(c, http.StatusServiceUnavailable, err, "Shared database is not available")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := meta.Handle.Ping(ctx); err != nil {
		responses.Fail(c, http.StatusServiceUnavailable, err, "Shared database is not reachable")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"status":        "connected",
		"driver":        meta.Driver,
		"session_count": len(h.registry.List()),
	}, "")
}
