package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/baobao/ride-backend/internal/database"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/observability"
)

// ReconcileService repairs partially committed acceptances. An acceptance
// CAS can succeed while the follow-up chat room or ride writes fail; such
// requests sit in Accepted with no rides row until this service finishes
// the job. The chat room lookup and the ride insert are both keyed, the
// room by its (driver, rider) pair and the ride by request_id, so a sweep
// overlapping another sweep or the accept path provisions nothing twice.
type ReconcileService struct {
	requestRepo *database.RideRequestRepository
	rideRepo    *database.RideRepository
	roomRepo    *database.ChatRoomRepository
	messageRepo *database.MessageRepository
	logger      *logrus.Logger
	cron        *cron.Cron
}

func NewReconcileService(
	requestRepo *database.RideRequestRepository,
	rideRepo *database.RideRepository,
	roomRepo *database.ChatRoomRepository,
	messageRepo *database.MessageRepository,
	logger *logrus.Logger,
) *ReconcileService {
	return &ReconcileService{
		requestRepo: requestRepo,
		rideRepo:    rideRepo,
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// Start schedules periodic reconciliation at the given interval.
func (s *ReconcileService) Start(interval time.Duration) error {
	if s.cron != nil {
		return fmt.Errorf("reconciler already started")
	}

	c := cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.RunNow(); err != nil {
			s.logger.WithError(err).Error("Scheduled reconciliation failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reconciler: %w", err)
	}

	c.Start()
	s.cron = c
	s.logger.WithField("interval", interval.String()).Info("Ride reconciler started")
	return nil
}

// Stop halts the periodic schedule and waits for an in-flight run.
func (s *ReconcileService) Stop() {
	if s.cron == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
	s.logger.Info("Ride reconciler stopped")
}

// RunNow performs one reconciliation sweep and returns the number of
// requests repaired. It is also exposed through the admin API.
func (s *ReconcileService) RunNow() (int, error) {
	orphans, err := s.requestRepo.ListAcceptedWithoutRide()
	if err != nil {
		return 0, fmt.Errorf("failed to list orphaned acceptances: %w", err)
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	repaired := 0
	for i := range orphans {
		created, err := s.repair(&orphans[i])
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"request_id": orphans[i].ID,
				"error":      err.Error(),
			}).Error("Failed to repair orphaned acceptance")
			continue
		}
		if !created {
			s.logger.WithField("request_id", orphans[i].ID).Debug("Acceptance already provisioned, skipping")
			continue
		}
		repaired++
		observability.ReconcileRepairs.Inc()
	}

	s.logger.WithFields(logrus.Fields{
		"orphans":  len(orphans),
		"repaired": repaired,
	}).Info("Reconciliation sweep finished")

	return repaired, nil
}

// repair finishes the provisioning a failed acceptance left undone and
// reports whether it created the ride. The accepted_at carried onto the
// ride is the request's updated_at, which is when the CAS actually
// happened, not when the repair ran. A false return means a concurrent
// sweep or the accept path provisioned the ride first; the confirmation
// message belongs to whoever did.
func (s *ReconcileService) repair(request *models.RideRequest) (bool, error) {
	room, err := s.roomRepo.GetOrCreate(request.DriverID, request.RiderID)
	if err != nil {
		return false, fmt.Errorf("chat room: %w", err)
	}

	acceptedAt := request.UpdatedAt
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
		AcceptedAt:           &acceptedAt,
	}
	created, err := s.rideRepo.Create(ride)
	if err != nil {
		return false, fmt.Errorf("ride: %w", err)
	}
	if !created {
		return false, nil
	}

	if _, err := s.messageRepo.Insert(room.ID, nil, models.SenderSystem, RideConfirmedMessage); err != nil {
		s.logger.WithFields(logrus.Fields{
			"chat_room_id": room.ID,
			"error":        err.Error(),
		}).Warn("Failed to post confirmation message during repair")
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":   request.ID,
		"ride_id":      ride.ID,
		"chat_room_id": room.ID,
	}).Info("Orphaned acceptance repaired")

	return true, nil
}
