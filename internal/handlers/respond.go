package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baobao/ride-backend/internal/models"
)

// respondServiceError maps domain sentinel errors onto HTTP statuses. The
// conflict family (409) covers races the client should re-fetch after, 422
// covers state machine rejections, anything unmapped is a 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrRequestUnavailable):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "request_unavailable",
			"message": "this ride request has already been resolved",
		})
	case errors.Is(err, models.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "duplicate_request",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "email_taken",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "invalid_transition",
			"message": "the ride is not in a state that allows this transition",
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "the requested resource does not exist",
		})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_credentials",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrPartialCommit):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "partial_commit",
			"message": "the request was accepted but provisioning did not finish; it will be repaired automatically",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
	}
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation_error",
		"message": err.Error(),
	})
}
