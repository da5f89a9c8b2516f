package routes

import (
	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/handlers"
	"sql_dashboard/internal/session"
)

// Handlers groups every HTTP handler the router serves.
type Handlers struct {
	Session *handlers.SessionHandler
	Schema  *handlers.SchemaHandler
	Query   *handlers.QueryHandler
	Health  *handlers.HealthHandler
}

func RegisterRoutes(router *gin.Engine, h Handlers, registry *session.Registry) {
	NewHealthRoutes(h.Health).RegisterRoutes(router.Group("/api"))

	api := router.Group("/api/v1")

	NewSessionRoutes(h.Session).RegisterRoutes(api)
	NewSchemaRoutes(h.Schema, registry).RegisterRoutes(api)
	NewQueryRoutes(h.Query, registry).RegisterRoutes(api)
}
