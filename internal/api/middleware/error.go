package middleware

import (
	"net/http"

	"payment-router/pkg/errors"
	"payment-router/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorMiddleware provides centralized error handling
type ErrorMiddleware struct {
	logger *logger.Logger
}

// NewErrorMiddleware creates a new error handling middleware
func NewErrorMiddleware(logger *logger.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		logger: logger,
	}
}

// Handler returns the error handling middleware
func (em *ErrorMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			em.handleError(c, c.Errors.Last().Err)
		}
	}
}

// handleError maps error kinds onto HTTP responses
func (em *ErrorMiddleware) handleError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)

	switch appErr.Type {
	case errors.ErrorTypeValidation, errors.ErrorTypeNotFound, errors.ErrorTypeDuplicate:
		em.logger.Warn("Client error",
			"error_type", appErr.Type,
			"message", appErr.Message,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
	case errors.ErrorTypeConnector:
		em.logger.Info("Connector error",
			"error_type", appErr.Type,
			"message", appErr.Message,
			"path", c.Request.URL.Path,
		)
	default:
		em.logger.Error("Server error",
			"error_type", appErr.Type,
			"message", appErr.Message,
			"cause", appErr.Cause,
			"path", c.Request.URL.Path,
		)
	}

	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.AbortWithStatusJSON(status, gin.H{"error": appErr})
}
