package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/baobao/ride-backend/internal/database"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/observability"
)

// RideConfirmedMessage is posted into the chat room when a driver wins a
// ride request.
const RideConfirmedMessage = "Ride confirmed! You can now chat with your driver."

// DispatchService owns the ride request ledger and the acceptance arbiter.
type DispatchService struct {
	requestRepo *database.RideRequestRepository
	rideRepo    *database.RideRepository
	roomRepo    *database.ChatRoomRepository
	messageRepo *database.MessageRepository
	logger      *logrus.Logger
}

func NewDispatchService(
	requestRepo *database.RideRequestRepository,
	rideRepo *database.RideRepository,
	roomRepo *database.ChatRoomRepository,
	messageRepo *database.MessageRepository,
	logger *logrus.Logger,
) *DispatchService {
	return &DispatchService{
		requestRepo: requestRepo,
		rideRepo:    rideRepo,
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// RequestRide creates a Pending ride request from a rider to a driver.
// A rider cannot request themselves, and at most one Pending request per
// (rider, driver) pair is allowed.
func (s *DispatchService) RequestRide(riderID uuid.UUID, payload *models.CreateRideRequestPayload) (*models.RideRequest, error) {
	if riderID == payload.DriverID {
		return nil, fmt.Errorf("rider and driver cannot be the same profile")
	}

	exists, err := s.requestRepo.HasPending(riderID, payload.DriverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for pending request: %w", err)
	}
	if exists {
		return nil, models.ErrDuplicateRequest
	}

	request := &models.RideRequest{
		RiderID:              riderID,
		DriverID:             payload.DriverID,
		PickupLocation:       payload.PickupLocation,
		DestinationLocation:  payload.DestinationLocation,
		PickupLatitude:       payload.PickupLatitude,
		PickupLongitude:      payload.PickupLongitude,
		DestinationLatitude:  payload.DestinationLatitude,
		DestinationLongitude: payload.DestinationLongitude,
	}
	if err := s.requestRepo.Create(request); err != nil {
		return nil, fmt.Errorf("failed to create ride request: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"request_id": request.ID,
		"rider_id":   riderID,
		"driver_id":  payload.DriverID,
	}).Info("Ride request created")

	return request, nil
}

// ListPendingRequests returns the driver's inbox of Pending requests,
// newest first.
func (s *DispatchService) ListPendingRequests(driverID uuid.UUID) ([]models.PendingRequest, error) {
	requests, err := s.requestRepo.ListPendingForDriver(driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	return requests, nil
}

// ListRequestsByRider returns the rider's own requests regardless of status.
func (s *DispatchService) ListRequestsByRider(riderID uuid.UUID) ([]models.RideRequest, error) {
	requests, err := s.requestRepo.ListByRider(riderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rider requests: %w", err)
	}
	return requests, nil
}

// DeclineRequest moves a Pending request to Cancel on behalf of the driver.
// Declining a request that is no longer Pending is a silent no-op.
func (s *DispatchService) DeclineRequest(driverID, requestID uuid.UUID) error {
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return fmt.Errorf("failed to load ride request: %w", err)
	}
	if request.DriverID != driverID {
		return models.ErrNotFound
	}

	cancelled, err := s.requestRepo.TryCancel(requestID)
	if err != nil {
		return fmt.Errorf("failed to decline ride request: %w", err)
	}
	if !cancelled {
		s.logger.WithField("request_id", requestID).Debug("Decline skipped, request no longer pending")
	}
	return nil
}

// WithdrawRequest lets the rider cancel their own Pending request. Like
// DeclineRequest, a lost race with an acceptance is a silent no-op.
func (s *DispatchService) WithdrawRequest(riderID, requestID uuid.UUID) error {
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return fmt.Errorf("failed to load ride request: %w", err)
	}
	if request.RiderID != riderID {
		return models.ErrNotFound
	}

	cancelled, err := s.requestRepo.TryCancel(requestID)
	if err != nil {
		return fmt.Errorf("failed to withdraw ride request: %w", err)
	}
	if !cancelled {
		s.logger.WithField("request_id", requestID).Debug("Withdraw skipped, request no longer pending")
	}
	return nil
}

// AcceptRequest is the single acceptance arbiter. Exactly one caller can
// move a request from Pending to Accepted; everyone else gets
// ErrRequestUnavailable. On a win it provisions the chat room and the ride
// record, then posts the confirmation system message.
func (s *DispatchService) AcceptRequest(driverID, requestID uuid.UUID) (*models.AcceptResult, error) {
	// 1. Load the request and verify it is still up for grabs.
	request, err := s.requestRepo.GetByID(requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ride request: %w", err)
	}
	if request.DriverID != driverID {
		return nil, models.ErrNotFound
	}
	if request.Status != models.RequestStatusPending {
		return nil, models.ErrRequestUnavailable
	}

	// 2. Compare-and-swap on the Pending status. The WHERE clause is the
	// arbiter, not the read above.
	won, err := s.requestRepo.TryAccept(requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to accept ride request: %w", err)
	}
	if !won {
		observability.AcceptsLostTotal.Inc()
		s.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"driver_id":  driverID,
		}).Info("Acceptance race lost")
		return nil, models.ErrRequestUnavailable
	}
	observability.AcceptsWonTotal.Inc()

	// 3. Idempotent chat room on the (driver, rider) pair.
	room, err := s.roomRepo.GetOrCreate(request.DriverID, request.RiderID)
	if err != nil {
		observability.PartialCommits.Inc()
		s.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Request accepted but chat room provisioning failed")
		return nil, fmt.Errorf("%w: chat room creation failed: %v", models.ErrPartialCommit, err)
	}

	// 4. Ride record bound to the chat room, carrying the request's trip
	// details forward.
	ride := &models.Ride{
		RequestID:            request.ID,
		DriverID:             request.DriverID,
		RiderID:              request.RiderID,
		ChatRoomID:           room.ID,
		PickupLocation:       request.PickupLocation,
		DestinationLocation:  request.DestinationLocation,
		PickupLatitude:       request.PickupLatitude,
		PickupLongitude:      request.PickupLongitude,
		DestinationLatitude:  request.DestinationLatitude,
		DestinationLongitude: request.DestinationLongitude,
	}
	created, err := s.rideRepo.Create(ride)
	if err != nil {
		observability.PartialCommits.Inc()
		s.logger.WithFields(logrus.Fields{
			"request_id":   requestID,
			"chat_room_id": room.ID,
			"error":        err.Error(),
		}).Error("Request accepted but ride creation failed")
		return nil, fmt.Errorf("%w: ride creation failed: %v", models.ErrPartialCommit, err)
	}
	if !created {
		// A reconciliation sweep finished the provisioning between the CAS
		// and this insert. The confirmation message was posted by whoever
		// created the ride, so only the existing record is loaded here.
		existing, err := s.rideRepo.GetByRequestID(request.ID)
		if err != nil {
			observability.PartialCommits.Inc()
			s.logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			}).Error("Request accepted but provisioned ride could not be loaded")
			return nil, fmt.Errorf("%w: ride lookup failed: %v", models.ErrPartialCommit, err)
		}
		ride = existing
	} else {
		// 5. Confirmation system message. The ride already exists at this
		// point so a message failure is logged rather than surfaced.
		if _, err := s.messageRepo.Insert(room.ID, nil, models.SenderSystem, RideConfirmedMessage); err != nil {
			s.logger.WithFields(logrus.Fields{
				"chat_room_id": room.ID,
				"error":        err.Error(),
			}).Warn("Failed to post ride confirmation message")
		} else {
			observability.MessagesSentTotal.WithLabelValues(string(models.SenderSystem)).Inc()
		}
	}

	request.Status = models.RequestStatusAccepted

	s.logger.WithFields(logrus.Fields{
		"request_id":   requestID,
		"ride_id":      ride.ID,
		"chat_room_id": room.ID,
		"driver_id":    request.DriverID,
		"rider_id":     request.RiderID,
	}).Info("Ride request accepted")

	return &models.AcceptResult{
		Request:  request,
		Ride:     ride,
		ChatRoom: room,
	}, nil
}
