package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/baobao/ride-backend/internal/database"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/pkg/jwt"
)

// AuthService handles signup, signin, token refresh and profile management.
type AuthService struct {
	profileRepo *database.ProfileRepository
	driverRepo  *database.DriverProfileRepository
	sessionRepo *database.UserSessionRepository
	jwtService  *jwt.Service
	bcryptCost  int
	logger      *logrus.Logger
}

func NewAuthService(
	profileRepo *database.ProfileRepository,
	driverRepo *database.DriverProfileRepository,
	sessionRepo *database.UserSessionRepository,
	jwtService *jwt.Service,
	bcryptCost int,
	logger *logrus.Logger,
) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		profileRepo: profileRepo,
		driverRepo:  driverRepo,
		sessionRepo: sessionRepo,
		jwtService:  jwtService,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// SignUp registers a new profile and issues a token pair. Drivers also get
// an empty driver_profiles row so vehicle and location updates have a row
// to land on.
func (s *AuthService) SignUp(req *models.SignUpRequest, userAgent, ipAddress string) (*models.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.profileRepo.GetByEmail(email); err == nil {
		return nil, models.ErrEmailTaken
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &models.Profile{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        email,
		Role:         req.Role,
		PasswordHash: string(hash),
	}
	if err := s.profileRepo.Create(profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if profile.Role == models.RoleDriver {
		if err := s.driverRepo.CreateEmpty(profile.ID); err != nil {
			return nil, fmt.Errorf("failed to create driver profile: %w", err)
		}
	}

	s.recordSession(profile.ID, userAgent, ipAddress)

	s.logger.WithFields(logrus.Fields{
		"profile_id": profile.ID,
		"role":       profile.Role,
	}).Info("Profile registered")

	return s.issueTokens(profile)
}

// SignIn verifies credentials and issues a fresh token pair. Unknown email
// and wrong password both return ErrInvalidCredentials.
func (s *AuthService) SignIn(req *models.SignInRequest, userAgent, ipAddress string) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	profile, err := s.profileRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	s.recordSession(profile.ID, userAgent, ipAddress)

	s.logger.WithField("profile_id", profile.ID).Info("Profile signed in")

	return s.issueTokens(profile)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *AuthService) Refresh(refreshToken string) (*models.AuthResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	profile, err := s.profileRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	return s.issueTokens(profile)
}

// Profile returns the caller's own profile.
func (s *AuthService) Profile(userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile changes the caller's display attributes and returns the
// updated row.
func (s *AuthService) UpdateProfile(userID uuid.UUID, req *models.UpdateProfileRequest) (*models.Profile, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("full_name cannot be blank")
	}

	if err := s.profileRepo.UpdateDisplay(userID, fullName, req.PhoneNumber, req.AvatarURL); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.Profile(userID)
}

// SignOut deactivates the session matching the caller's device type.
func (s *AuthService) SignOut(userID uuid.UUID, userAgent string) error {
	deviceType, _ := parseUserAgent(userAgent)
	if err := s.sessionRepo.Deactivate(userID, deviceType); err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	return nil
}

func (s *AuthService) issueTokens(profile *models.Profile) (*models.AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(profile.ID, profile.Email, string(profile.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(profile.ID, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Profile:      profile,
	}, nil
}

// recordSession tracks the device this auth call came from. Session
// bookkeeping never blocks authentication.
func (s *AuthService) recordSession(profileID uuid.UUID, userAgent, ipAddress string) {
	deviceType, deviceOS := parseUserAgent(userAgent)
	if _, err := s.sessionRepo.CreateOrUpdate(profileID, deviceType, deviceOS, ipAddress); err != nil {
		s.logger.WithFields(logrus.Fields{
			"profile_id": profileID,
			"error":      err.Error(),
		}).Warn("Failed to record user session")
	}
}

func parseUserAgent(raw string) (deviceType, deviceOS string) {
	ua := user_agent.New(raw)
	deviceType = "desktop"
	if ua.Mobile() {
		deviceType = "mobile"
	}
	if ua.Bot() {
		deviceType = "bot"
	}
	deviceOS = ua.OS()
	return deviceType, deviceOS
}
