package services

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/baobao/ride-backend/internal/database"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/pkg/optimistic"
)

// DriverService manages the driver-side profile: vehicle details, the
// availability toggle and the periodic location refresh. Availability is
// flipped optimistically against an in-memory view and reverted when the
// store rejects the write.
type DriverService struct {
	driverRepo *database.DriverProfileRepository
	logger     *logrus.Logger

	// mu guards only the map itself. Each driver's availability has its
	// own lock, held across that driver's store write; one driver's toggle
	// never waits on another's.
	mu           sync.Mutex
	availability map[uuid.UUID]*driverAvailability
}

type driverAvailability struct {
	mu        sync.Mutex
	available bool
}

func NewDriverService(driverRepo *database.DriverProfileRepository, logger *logrus.Logger) *DriverService {
	return &DriverService{
		driverRepo:   driverRepo,
		logger:       logger,
		availability: make(map[uuid.UUID]*driverAvailability),
	}
}

func (s *DriverService) availabilityFor(driverID uuid.UUID) *driverAvailability {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.availability[driverID]
	if !ok {
		st = &driverAvailability{}
		s.availability[driverID] = st
	}
	return st
}

// Profile returns the driver's extended profile row.
func (s *DriverService) Profile(driverID uuid.UUID) (*models.DriverProfile, error) {
	profile, err := s.driverRepo.GetByID(driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver profile: %w", err)
	}

	st := s.availabilityFor(driverID)
	st.mu.Lock()
	st.available = profile.IsAvailable
	st.mu.Unlock()

	return profile, nil
}

// SetAvailability flips the driver's availability. The local view changes
// first and is rolled back when the persistence write fails, so callers
// reading CachedAvailability never see a value the store rejected for
// longer than the failed call itself.
func (s *DriverService) SetAvailability(driverID uuid.UUID, available bool) error {
	st := s.availabilityFor(driverID)
	st.mu.Lock()
	defer st.mu.Unlock()

	err := optimistic.Apply(&st.available, available, func() error {
		return s.driverRepo.SetAvailability(driverID, available)
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"driver_id": driverID,
			"available": available,
			"error":     err.Error(),
		}).Warn("Availability change reverted")
		return fmt.Errorf("failed to set availability: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"driver_id": driverID,
		"available": available,
	}).Info("Driver availability updated")

	return nil
}

// CachedAvailability reports the last known availability for a driver and
// whether the service has seen that driver at all.
func (s *DriverService) CachedAvailability(driverID uuid.UUID) (bool, bool) {
	s.mu.Lock()
	st, ok := s.availability[driverID]
	s.mu.Unlock()
	if !ok {
		return false, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.available, true
}

// UpdateLocation stores the driver's latest position. Last write wins;
// there is no ordering guarantee between concurrent refreshes.
func (s *DriverService) UpdateLocation(driverID uuid.UUID, latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return fmt.Errorf("invalid coordinates: lat=%f lng=%f", latitude, longitude)
	}
	if err := s.driverRepo.UpdateLocation(driverID, latitude, longitude); err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return nil
}

// UpdateVehicle upserts the driver's vehicle attributes.
func (s *DriverService) UpdateVehicle(driverID uuid.UUID, req *models.UpdateVehicleRequest) error {
	if err := s.driverRepo.UpsertVehicle(driverID, req.VehicleType, req.VehicleColor, req.LicenseNumber, req.VehicleYear); err != nil {
		return fmt.Errorf("failed to update vehicle details: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"driver_id":    driverID,
		"vehicle_type": req.VehicleType,
	}).Info("Driver vehicle details updated")

	return nil
}
