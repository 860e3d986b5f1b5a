package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/baobao/ride-backend/internal/middleware"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/services"
)

// RideHandler handles ride lifecycle transitions and status polling
type RideHandler struct {
	rideService      *services.RideService
	reconcileService *services.ReconcileService
}

func NewRideHandler(rideService *services.RideService, reconcileService *services.ReconcileService) *RideHandler {
	return &RideHandler{
		rideService:      rideService,
		reconcileService: reconcileService,
	}
}

// Start moves the caller's ride from accepted to started
// POST /api/v1/rides/start
func (h *RideHandler) Start(c *gin.Context) {
	h.transition(c, h.rideService.StartRide)
}

// Complete moves the caller's ride from started to completed
// POST /api/v1/rides/complete
func (h *RideHandler) Complete(c *gin.Context) {
	h.transition(c, h.rideService.CompleteRide)
}

// Cancel aborts the caller's ride
// POST /api/v1/rides/cancel
func (h *RideHandler) Cancel(c *gin.Context) {
	h.transition(c, h.rideService.CancelRide)
}

func (h *RideHandler) transition(c *gin.Context, apply func(chatRoomID, driverID uuid.UUID) error) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	var req models.RideTransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := apply(req.ChatRoomID, userCtx.UserID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ride updated"})
}

// Status returns the lifecycle snapshot for one ride
// GET /api/v1/rides/status?chat_room_id&driver_id&rider_id
func (h *RideHandler) Status(c *gin.Context) {
	chatRoomID, err := uuid.Parse(c.Query("chat_room_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "chat_room_id must be a valid uuid",
		})
		return
	}
	driverID, err := uuid.Parse(c.Query("driver_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "driver_id must be a valid uuid",
		})
		return
	}
	riderID, err := uuid.Parse(c.Query("rider_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "rider_id must be a valid uuid",
		})
		return
	}

	info, err := h.rideService.RideStatus(chatRoomID, driverID, riderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Recent returns the caller's terminal rides, newest first
// GET /api/v1/rides/recent?limit
func (h *RideHandler) Recent(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "limit must be a number",
			})
			return
		}
		limit = parsed
	}

	rides, err := h.rideService.RecentRides(userCtx.UserID, userCtx.Role, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rides": rides,
		"count": len(rides),
	})
}

// ReconcileRides triggers a reconciliation sweep outside the schedule
// POST /api/v1/admin/reconcile-rides
func (h *RideHandler) ReconcileRides(c *gin.Context) {
	repaired, err := h.reconcileService.RunNow()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"repaired": repaired})
}
