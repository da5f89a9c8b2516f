package routes

import (
	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/handlers"
	"sql_dashboard/internal/middlewares"
	"sql_dashboard/internal/session"
)

type QueryRoutes struct {
	handler  *handlers.QueryHandler
	registry *session.Registry
}

func NewQueryRoutes(handler *handlers.QueryHandler, registry *session.Registry) *QueryRoutes {
	return &QueryRoutes{handler: handler, registry: registry}
}

func (r *QueryRoutes) RegisterRoutes(router *gin.RouterGroup) {
	query := router.Group("/sessions/:id/query")
	query.Use(middlewares.RequireSession(r.registry))
	{
		query.POST("", r.handler.ExecuteQuery)
		query.GET("/history", r.handler.GetQueryHistory)
	}
}
