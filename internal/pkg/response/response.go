package response

import (
	"errors"
	"log"
	"net/http"

	"cleandigo/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError writes the error envelope for err. Validation messages are
// returned as-is; everything else gets a fixed human-readable message.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", "The requested record was not found")
	case errors.Is(err, apperr.ErrUnauthorized):
		Error(c, http.StatusForbidden, "FORBIDDEN", "You do not have permission to modify this booking")
	case errors.Is(err, apperr.ErrInvalidTransition):
		Error(c, http.StatusConflict, "INVALID_TRANSITION", "This booking cannot move to the requested status")
	case errors.Is(err, apperr.ErrConflict):
		Error(c, http.StatusConflict, "CONFLICT", "This record already exists")
	case errors.Is(err, apperr.ErrConfiguration):
		log.Printf("request_error type=configuration path=%s error=%q", c.Request.URL.Path, err.Error())
		Error(c, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "This feature is not configured")
	case errors.Is(err, apperr.ErrTransientDelivery):
		log.Printf("request_error type=delivery path=%s error=%q", c.Request.URL.Path, err.Error())
		Error(c, http.StatusBadGateway, "DELIVERY_FAILED", "Notification could not be delivered, it will be retried")
	default:
		_ = c.Error(err)
		log.Printf("request_error type=internal path=%s error=%q", c.Request.URL.Path, err.Error())
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong, please try again later")
	}
}

// UUIDParam parses a path parameter, writing 400 INVALID_ID on failure.
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// BadBody writes the standard response for an unparseable request body.
func BadBody(c *gin.Context) {
	Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
}
