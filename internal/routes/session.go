package routes

import (
	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/handlers"
)

type SessionRoutes struct {
	handler *handlers.SessionHandler
}

func NewSessionRoutes(handler *handlers.SessionHandler) *SessionRoutes {
	return &SessionRoutes{handler: handler}
}

func (r *SessionRoutes) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.POST("", r.handler.UploadDatabase)
		sessions.GET("", r.handler.ListSessions)
		sessions.GET("/:id", r.handler.GetSession)
		sessions.DELETE("/:id", r.handler.DeleteSession)
	}
}
