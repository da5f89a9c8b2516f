package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/responses"
	"sql_dashboard/internal/services"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// UploadDatabase handles POST /api/v1/sessions
func (h *SessionHandler) UploadDatabase(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "A database file is required in the 'file' field")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	s, err := h.sessionService.Upload(c.Request.Context(), file, fileHeader.Filename, fileHeader.Size, c.PostForm("session_id"))
	if err != nil {
		responses.Error(c, err, "Failed to upload database")
		return
	}

	responses.Success(c, http.StatusCreated, s, "Database uploaded successfully")
}

// ListSessions handles GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions := h.sessionService.List()
	responses.Success(c, http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	}, "")
}

// GetSession handles GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	s, err := h.sessionService.Get(c.Param("id"))
	if err != nil {
		responses.Error(c, err, "Session not found")
		return
	}
	responses.Success(c, http.StatusOK, s, "")
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessionService.Delete(id); err != nil {
		responses.Error(c, err, "Failed to delete session")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"session_id": id}, "Session deleted successfully")
}
