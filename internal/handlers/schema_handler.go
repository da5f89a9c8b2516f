package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/middlewares"
	"sql_dashboard/internal/responses"
	"sql_dashboard/internal/services"
)

type SchemaHandler struct {
	schemaService *services.SchemaService
}

func NewSchemaHandler(schemaService *services.SchemaService) *SchemaHandler {
	return &SchemaHandler{
		schemaService: schemaService,
	}
}

// GetSchema handles GET /api/v1/sessions/:id/schema
func (h *SchemaHandler) GetSchema(c *gin.Context) {
	schema, err := h.schemaService.GetSchema(c.Request.Context(), c.GetString(middlewares.SessionIDKey))
	if err != nil {
		responses.Error(c, err, "Failed to load schema")
		return
	}
	responses.Success(c, http.StatusOK, schema, "")
}

// VisualizeSchema handles GET /api/v1/sessions/:id/schema/visualize
func (h *SchemaHandler) VisualizeSchema(c *gin.Context) {
	mermaidDiagram, err := h.schemaService.VisualizeSchema(c.Request.Context(), c.GetString(middlewares.SessionIDKey))
	if err != nil {
		responses.Error(c, err, "Failed to visualize schema")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"mermaid": mermaidDiagram,
	}, "Schema visualization generated successfully")
}

// FindPath handles GET /api/v1/sessions/:id/schema/path?from=&to=
func (h *SchemaHandler) FindPath(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		responses.Fail(c, http.StatusBadRequest, nil, "Both 'from' and 'to' are required")
		return
	}

	path, err := h.schemaService.FindPath(c.Request.Context(), c.GetString(middlewares.SessionIDKey), from, to)
	if err != nil {
		responses.Error(c, err, "Failed to find relationship path")
		return
	}
	responses.Success(c, http.StatusOK, path, "")
}

// GetRelated handles GET /api/v1/sessions/:id/schema/tables/:table/related
func (h *SchemaHandler) GetRelated(c *gin.Context) {
	table := c.Param("table")
	related, err := h.schemaService.Related(c.Request.Context(), c.GetString(middlewares.SessionIDKey), table)
	if err != nil {
		responses.Error(c, err, "Failed to list related tables")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{
		"table":   table,
		"related": related,
	}, "")
}
