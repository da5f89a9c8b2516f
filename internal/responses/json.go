package responses

import (
	"github.com/gin-gonic/gin"

	"sql_dashboard/internal/apperrors"
)

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	// Kind classifies errors, e.g. "validation" or "not_found".
	Kind string `json:"kind,omitempty"`
}

func Success(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func Fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
		if kind := apperrors.KindOf(err); kind != apperrors.KindUnknown {
			resp.Kind = kind.String()
		}
	}
	c.JSON(statusCode, resp)
}

// Error writes err with the status its kind maps to. Unclassified errors
// are 500s; their text is still returned.
func Error(c *gin.Context, err error, message string) {
	_ = c.Error(err)
	Fail(c, apperrors.HTTPStatus(err), err, message)
}
