package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/healthvault/backend/internal/service"
)

// ErrorResponse is the JSON error envelope all endpoints share
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// userIDKey is the gin context key the auth middleware populates
const userIDKey = "userID"

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// currentUserID reads the authenticated user from the request context.
// Returns false and writes the error response when the middleware did
// not populate it.
func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "Missing user identity",
		})
		return "", false
	}

	return userID, true
}

// writeServiceError maps service-layer sentinel errors to HTTP codes
func writeServiceError(c *gin.Context, err error, fallbackMessage string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Record not found",
		})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Code:    "FORBIDDEN",
			Message: "Not authorized to access this record",
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: fallbackMessage,
			Details: stringPtr(err.Error()),
		})
	}
}
