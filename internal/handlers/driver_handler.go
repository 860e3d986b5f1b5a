package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/baobao/ride-backend/internal/middleware"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/services"
)

// DriverHandler handles the driver-side profile surface and the rider-side
// nearby-driver discovery
type DriverHandler struct {
	driverService *services.DriverService
	nearbyService *services.NearbyService
}

func NewDriverHandler(driverService *services.DriverService, nearbyService *services.NearbyService) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
		nearbyService: nearbyService,
	}
}

// NearbyDrivers returns available drivers around a point
// GET /api/v1/drivers/nearby?lat&lng&radius_km
func (h *DriverHandler) NearbyDrivers(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "lat must be a number",
		})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "lng must be a number",
		})
		return
	}

	radiusKm := 0.0
	if raw := c.Query("radius_km"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "radius_km must be a number",
			})
			return
		}
	}

	drivers, err := h.nearbyService.NearbyDrivers(lat, lng, radiusKm)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drivers": drivers,
		"count":   len(drivers),
	})
}

// GetDriverProfile returns the caller's driver profile row
// GET /api/v1/driver/profile
func (h *DriverHandler) GetDriverProfile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	profile, err := h.driverService.Profile(userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// SetAvailability toggles the caller's availability flag
// PUT /api/v1/driver/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	var req models.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.driverService.SetAvailability(userCtx.UserID, *req.IsAvailable); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_available": *req.IsAvailable})
}

// UpdateLocation stores the caller's latest position
// PUT /api/v1/driver/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	var req models.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.driverService.UpdateLocation(userCtx.UserID, req.Latitude, req.Longitude); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "location updated"})
}

// UpdateVehicle upserts the caller's vehicle attributes
// PUT /api/v1/driver/vehicle
func (h *DriverHandler) UpdateVehicle(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	var req models.UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	if err := h.driverService.UpdateVehicle(userCtx.UserID, &req); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "vehicle details updated"})
}
