package routes

import (
	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/handlers"
	"sql_dashboard/internal/middlewares"
	"sql_dashboard/internal/session"
)

type SchemaRoutes struct {
	handler  *handlers.SchemaHandler
	registry *session.Registry
}

func NewSchemaRoutes(handler *handlers.SchemaHandler, registry *session.Registry) *SchemaRoutes {
	return &SchemaRoutes{handler: handler, registry: registry}
}

func (r *SchemaRoutes) RegisterRoutes(router *gin.RouterGroup) {
	schema := router.Group("/sessions/:id/schema")
	schema.Use(middlewares.RequireSession(r.registry))
	{
		schema.GET("", r.handler.GetSchema)
		schema.GET("/visualize", r.handler.VisualizeSchema)
		schema.GET("/path", r.handler.FindPath)
		schema.GET("/tables/:table/related", r.handler.GetRelated)
	}
}
