package routes

import (
	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/handlers"
)

type HealthRoutes struct {
	handler *handlers.HealthHandler
}

func NewHealthRoutes(handler *handlers.HealthHandler) *HealthRoutes {
	return &HealthRoutes{handler: handler}
}

func (r *HealthRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", r.handler.Health)
	router.GET("/db-status", r.handler.DBStatus)
}
