package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carcare-marketplace-server/models"
	"carcare-marketplace-server/services"
)

// respondServiceError maps service layer sentinel errors to HTTP responses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not found",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "Forbidden",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Already decided",
			"code":    "already_decided",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrDuplicateQuote):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Duplicate quote",
			"code":    "duplicate_quote",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Invalid state",
			"code":    "invalid_state",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":       "Upstream unavailable",
			"message":     err.Error(),
			"retry_after": 30,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Something went wrong",
		})
	}
}

// currentUser returns the authenticated user set by the auth middleware
func currentUser(c *gin.Context) (models.User, bool) {
	value, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Authentication required",
			"message": "Please sign in first",
		})
		return models.User{}, false
	}
	user, ok := value.(models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": "Invalid user context",
		})
		return models.User{}, false
	}
	return user, true
}
