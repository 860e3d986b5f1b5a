package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baobao/ride-backend/internal/middleware"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/services"
)

// AuthHandler handles signup, signin, token refresh and the profile surface
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUp registers a rider or driver
// POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	response, err := h.authService.SignUp(&req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// SignIn verifies credentials and issues a token pair
// POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	response, err := h.authService.SignIn(&req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// RefreshRequest carries the refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh exchanges a refresh token for a new token pair
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	response, err := h.authService.Refresh(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "invalid_refresh_token",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// SignOut deactivates the session for the calling device
// POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	if err := h.authService.SignOut(userCtx.UserID, c.Request.UserAgent()); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// GetProfile returns the caller's own profile
// GET /api/v1/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	profile, err := h.authService.Profile(userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile changes the caller's display attributes
// PUT /api/v1/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	profile, err := h.authService.UpdateProfile(userCtx.UserID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
