package services

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/baobao/ride-backend/internal/database"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/observability"
)

// NearbyServiceConfig controls the driver discovery query.
type NearbyServiceConfig struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
}

func DefaultNearbyServiceConfig() NearbyServiceConfig {
	return NearbyServiceConfig{
		DefaultRadiusKm: 50,
		MaxRadiusKm:     200,
	}
}

// NearbyService answers "which available drivers are close to this point".
type NearbyService struct {
	driverRepo *database.DriverProfileRepository
	config     NearbyServiceConfig
	logger     *logrus.Logger
}

func NewNearbyService(driverRepo *database.DriverProfileRepository, config NearbyServiceConfig, logger *logrus.Logger) *NearbyService {
	return &NearbyService{
		driverRepo: driverRepo,
		config:     config,
		logger:     logger,
	}
}

// NearbyDrivers returns available drivers inside a bounding box around the
// given point. A zero or negative radius falls back to the configured
// default, and oversized radii are clamped. An empty area is a normal
// result, not an error.
func (s *NearbyService) NearbyDrivers(lat, lng, radiusKm float64) ([]models.NearbyDriver, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("invalid coordinates: lat=%f lng=%f", lat, lng)
	}
	if radiusKm <= 0 {
		radiusKm = s.config.DefaultRadiusKm
	}
	if radiusKm > s.config.MaxRadiusKm {
		radiusKm = s.config.MaxRadiusKm
	}

	timer := prometheus.NewTimer(observability.NearbyQueryDuration)
	drivers, err := s.driverRepo.FindNearby(lat, lng, radiusKm)
	timer.ObserveDuration()
	if err != nil {
		return nil, fmt.Errorf("failed to find nearby drivers: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"lat":       lat,
		"lng":       lng,
		"radius_km": radiusKm,
		"count":     len(drivers),
	}).Debug("Nearby driver query completed")

	return drivers, nil
}
