package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/baobao/ride-backend/internal/database"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/observability"
)

// System messages posted into the chat room on each lifecycle transition.
const (
	RideStartedMessage   = "Ride has been started"
	RideCompletedMessage = "Ride has been completed"
	RideCancelledMessage = "Ride has been cancelled"
)

// RideService drives the ride lifecycle. Transitions are keyed by
// (chat_room_id, driver_id) with the driver id taken from the session, so a
// driver can only move their own rides.
type RideService struct {
	rideRepo    *database.RideRepository
	roomRepo    *database.ChatRoomRepository
	messageRepo *database.MessageRepository
	logger      *logrus.Logger
}

func NewRideService(
	rideRepo *database.RideRepository,
	roomRepo *database.ChatRoomRepository,
	messageRepo *database.MessageRepository,
	logger *logrus.Logger,
) *RideService {
	return &RideService{
		rideRepo:    rideRepo,
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// StartRide moves accepted -> started.
func (s *RideService) StartRide(chatRoomID, driverID uuid.UUID) error {
	return s.transition(chatRoomID, driverID, models.RideStatusStarted, s.rideRepo.TryStart, RideStartedMessage)
}

// CompleteRide moves started -> completed and closes the chat room.
func (s *RideService) CompleteRide(chatRoomID, driverID uuid.UUID) error {
	return s.transition(chatRoomID, driverID, models.RideStatusCompleted, s.rideRepo.TryComplete, RideCompletedMessage)
}

// CancelRide moves accepted or started -> cancelled and closes the chat room.
func (s *RideService) CancelRide(chatRoomID, driverID uuid.UUID) error {
	return s.transition(chatRoomID, driverID, models.RideStatusCancelled, s.rideRepo.TryCancel, RideCancelledMessage)
}

func (s *RideService) transition(
	chatRoomID, driverID uuid.UUID,
	to models.RideStatus,
	apply func(chatRoomID, driverID uuid.UUID, at time.Time) (bool, error),
	announcement string,
) error {
	// 1. Predicate-scoped update. The WHERE clause enforces the state
	// machine; zero rows means the ride was not in a valid source state.
	moved, err := apply(chatRoomID, driverID, time.Now())
	if err != nil {
		observability.RideTransitionsTotal.WithLabelValues(string(to), "error").Inc()
		return fmt.Errorf("failed to update ride status: %w", err)
	}
	if !moved {
		observability.RideTransitionsTotal.WithLabelValues(string(to), "rejected").Inc()
		return models.ErrInvalidTransition
	}
	observability.RideTransitionsTotal.WithLabelValues(string(to), "applied").Inc()

	// 2. Announce the transition in the chat room. The ride state already
	// changed, so failures here are logged and swallowed.
	if _, err := s.messageRepo.Insert(chatRoomID, nil, models.SenderSystem, announcement); err != nil {
		s.logger.WithFields(logrus.Fields{
			"chat_room_id": chatRoomID,
			"status":       to,
			"error":        err.Error(),
		}).Warn("Failed to post ride transition message")
	} else {
		observability.MessagesSentTotal.WithLabelValues(string(models.SenderSystem)).Inc()
	}

	// 3. Bump the room so it sorts to the top of both users' lists, and
	// close it once the ride is over.
	if to.IsTerminal() {
		if err := s.roomRepo.Close(chatRoomID); err != nil {
			s.logger.WithFields(logrus.Fields{
				"chat_room_id": chatRoomID,
				"error":        err.Error(),
			}).Warn("Failed to close chat room after terminal transition")
		}
	} else if err := s.roomRepo.Touch(chatRoomID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"chat_room_id": chatRoomID,
			"error":        err.Error(),
		}).Warn("Failed to bump chat room after transition")
	}

	s.logger.WithFields(logrus.Fields{
		"chat_room_id": chatRoomID,
		"driver_id":    driverID,
		"status":       to,
	}).Info("Ride transition applied")

	return nil
}

// RideStatus returns the lifecycle snapshot polled by both clients while a
// ride is underway.
func (s *RideService) RideStatus(chatRoomID, driverID, riderID uuid.UUID) (*models.RideStatusInfo, error) {
	info, err := s.rideRepo.GetStatus(chatRoomID, driverID, riderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ride status: %w", err)
	}
	return info, nil
}

// RecentRides returns the user's terminal rides, newest first.
func (s *RideService) RecentRides(userID uuid.UUID, role models.Role, limit int) ([]models.RecentRide, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rides, err := s.rideRepo.ListRecent(userID, role, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent rides: %w", err)
	}
	return rides, nil
}
