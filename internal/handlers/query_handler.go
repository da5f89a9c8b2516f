package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/middlewares"
	"sql_dashboard/internal/models"
	"sql_dashboard/internal/responses"
	"sql_dashboard/internal/services"
)

type QueryHandler struct {
	queryService *services.QueryService
}

func NewQueryHandler(queryService *services.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

// ExecuteQuery handles POST /api/v1/sessions/:id/query
func (h *QueryHandler) ExecuteQuery(c *gin.Context) {
	var req models.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	result, err := h.queryService.Execute(c.Request.Context(), c.GetString(middlewares.SessionIDKey), req)
	if err != nil {
		responses.Error(c, err, "Failed to execute query")
		return
	}
	responses.Success(c, http.StatusOK, result, "")
}

// GetQueryHistory handles GET /api/v1/sessions/:id/query/history
func (h *QueryHandler) GetQueryHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid limit")
		return
	}

	history, err := h.queryService.GetQueryHistory(c.GetString(middlewares.SessionIDKey), limit)
	if err != nil {
		responses.Error(c, err, "Failed to get query history")
		return
	}
	responses.Success(c, http.StatusOK, history, "")
}
