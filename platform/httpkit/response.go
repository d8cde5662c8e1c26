// Package httpkit holds the gin helpers shared by every handler: JSON
// envelopes, apperr mapping, and the middleware chain.
package httpkit

import (
	"net/http"

	"outreach_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes payload with 200.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Error writes an ErrorResponse tagged with the request ID.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, errorBody(c, message, details))
}

func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorBody(c, message, nil))
}

func errorBody(c *gin.Context, message string, details any) ErrorResponse {
	return ErrorResponse{
		Error:     message,
		Details:   details,
		RequestID: c.Writer.Header().Get(HeaderRequestID),
	}
}

// HandleError writes the response for err and reports whether it did.
// An *apperr.Error anywhere in the chain picks the status. Internal and
// upstream failures are attached to the gin context so RequestLogger records
// the cause, and internal messages are never shown to the client.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	domainErr, ok := apperr.As(err)
	if !ok {
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "internal server error", nil)
		return true
	}

	status := domainErr.HTTPStatus()
	message := domainErr.Message
	switch status {
	case http.StatusInternalServerError:
		_ = c.Error(err)
		message = "internal server error"
	case http.StatusBadGateway:
		_ = c.Error(err)
	}
	Error(c, status, message, domainErr.Details)
	return true
}
