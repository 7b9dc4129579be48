package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gezy-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object. RequestID lets users quote
// a failing request to support.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error aborts the request with a standardized error response. Client errors
// are logged at warn level, server errors at error level.
func Error(c *gin.Context, status int, code, message string, details any) {
	requestID := c.GetString("requestId")
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.FullPath(),
		"method":     c.Request.Method,
		"request_id": requestID,
	}
	if fields["path"] == "" {
		fields["path"] = c.Request.URL.Path
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	if c.GetBool("isGuest") {
		fields["is_guest"] = true
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}
