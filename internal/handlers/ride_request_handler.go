package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/baobao/ride-backend/internal/middleware"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/services"
)

// RideRequestHandler handles the dispatch ledger: creating, listing and
// resolving ride requests
type RideRequestHandler struct {
	dispatchService *services.DispatchService
}

func NewRideRequestHandler(dispatchService *services.DispatchService) *RideRequestHandler {
	return &RideRequestHandler{dispatchService: dispatchService}
}

// Create submits a new ride request to one driver
// POST /api/v1/ride-requests
func (h *RideRequestHandler) Create(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	var payload models.CreateRideRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondValidationError(c, err)
		return
	}

	request, err := h.dispatchService.RequestRide(userCtx.UserID, &payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// ListPending returns the calling driver's inbox of pending requests
// GET /api/v1/ride-requests/pending
func (h *RideRequestHandler) ListPending(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	requests, err := h.dispatchService.ListPendingRequests(userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// ListMine returns the calling rider's own requests
// GET /api/v1/ride-requests/mine
func (h *RideRequestHandler) ListMine(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	requests, err := h.dispatchService.ListRequestsByRider(userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// Accept resolves a pending request in the calling driver's favor
// POST /api/v1/ride-requests/:id/accept
func (h *RideRequestHandler) Accept(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "id must be a valid uuid",
		})
		return
	}

	result, err := h.dispatchService.AcceptRequest(userCtx.UserID, requestID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Decline dismisses a pending request without accepting it
// POST /api/v1/ride-requests/:id/decline
func (h *RideRequestHandler) Decline(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "id must be a valid uuid",
		})
		return
	}

	if err := h.dispatchService.DeclineRequest(userCtx.UserID, requestID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "request declined"})
}

// Withdraw cancels the calling rider's own pending request
// POST /api/v1/ride-requests/:id/withdraw
func (h *RideRequestHandler) Withdraw(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "id must be a valid uuid",
		})
		return
	}

	if err := h.dispatchService.WithdrawRequest(userCtx.UserID, requestID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "request withdrawn"})
}
