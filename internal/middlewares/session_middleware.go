package middlewares

import (
	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/models"
	"sql_dashboard/internal/responses"
	"sql_dashboard/internal/session"
)

// SessionIDKey is the context key RequireSession stores the session id under.
const SessionIDKey = "sessionId"

// RequireSession rejects requests whose :id does not name a live session.
func RequireSession(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		meta, err := registry.GetMeta(id)
		if err != nil {
			responses.Error(c, err, "Session not found")
			c.Abort()
			return
		}

		if models.IsSharedSession(id) {
			id = meta.ID
		}
		c.Set(SessionIDKey, id)
		c.Next()
	}
}
