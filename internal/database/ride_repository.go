package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/baobao/ride-backend/internal/models"
	"github.com/google/uuid"
)

// RideRepository handles database operations for the rides table. Lifecycle
// transitions are predicate-scoped conditional updates keyed by
// (chat_room_id, driver_id): a transition attempted from the wrong
// predecessor state affects zero rows and leaves the stored state untouched.
type RideRepository struct {
	db DB
}

// NewRideRepository creates a new RideRepository
func NewRideRepository(db DB) *RideRepository {
	return &RideRepository{db: db}
}

// Create inserts the ride record for an accepted request. The rides table
// carries a unique constraint on request_id, so a ride that already exists
// for the same acceptance leaves the table untouched and returns false.
// When AcceptedAt is nil the database clock stamps it, keeping accepted_at
// comparable with the timestamps the acceptance CAS writes.
func (r *RideRepository) Create(ride *models.Ride) (bool, error) {
	query := `
		INSERT INTO rides (
			id, request_id, driver_id, rider_id, chat_room_id,
			pickup_location, destination_location,
			pickup_latitude, pickup_longitude,
			destination_latitude, destination_longitude,
			status, accepted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, NOW()))
		ON CONFLICT (request_id) DO NOTHING
		RETURNING accepted_at, created_at
	`

	if ride.ID == uuid.Nil {
		ride.ID = uuid.New()
	}
	if ride.Status == "" {
		ride.Status = models.RideStatusAccepted
	}

	var acceptedAt time.Time
	err := r.db.QueryRow(
		query,
		ride.ID, ride.RequestID, ride.DriverID, ride.RiderID, ride.ChatRoomID,
		ride.PickupLocation, ride.DestinationLocation,
		ride.PickupLatitude, ride.PickupLongitude,
		ride.DestinationLatitude, ride.DestinationLongitude,
		ride.Status, ride.AcceptedAt,
	).Scan(&acceptedAt, &ride.CreatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create ride: %w", err)
	}

	ride.AcceptedAt = &acceptedAt
	return true, nil
}

// TryStart moves accepted -> started and stamps started_at. Returns false
// when the ride was not in the accepted state.
func (r *RideRepository) TryStart(chatRoomID, driverID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE rides
		SET status = 'started', started_at = $3
		WHERE chat_room_id = $1 AND driver_id = $2 AND status = 'accepted'
	`

	return r.execTransition(query, chatRoomID, driverID, at)
}

// TryComplete moves started -> completed and stamps completed_at
func (r *RideRepository) TryComplete(chatRoomID, driverID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE rides
		SET status = 'completed', completed_at = $3
		WHERE chat_room_id = $1 AND driver_id = $2 AND status = 'started'
	`

	return r.execTransition(query, chatRoomID, driverID, at)
}

// TryCancel moves accepted-or-started -> cancelled and stamps cancelled_at
func (r *RideRepository) TryCancel(chatRoomID, driverID uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE rides
		SET status = 'cancelled', cancelled_at = $3
		WHERE chat_room_id = $1 AND driver_id = $2 AND status IN ('accepted', 'started')
	`

	return r.execTransition(query, chatRoomID, driverID, at)
}

func (r *RideRepository) execTransition(query string, chatRoomID, driverID uuid.UUID, at time.Time) (bool, error) {
	result, err := r.db.Exec(query, chatRoomID, driverID, at)
	if err != nil {
		return false, fmt.Errorf("failed to update ride status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

// GetStatus returns the status projection polled during a ride
func (r *RideRepository) GetStatus(chatRoomID, driverID, riderID uuid.UUID) (*models.RideStatusInfo, error) {
	query := `
		SELECT status, accepted_at, started_at, completed_at, cancelled_at
		FROM rides
		WHERE chat_room_id = $1 AND driver_id = $2 AND rider_id = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	info := &models.RideStatusInfo{}
	var acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := r.db.QueryRow(query, chatRoomID, driverID, riderID).Scan(
		&info.Status, &acceptedAt, &startedAt, &completedAt, &cancelledAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ride status: %w", err)
	}

	if acceptedAt.Valid {
		info.AcceptedAt = &acceptedAt.Time
	}
	if startedAt.Valid {
		info.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		info.CompletedAt = &completedAt.Time
	}
	if cancelledAt.Valid {
		info.CancelledAt = &cancelledAt.Time
	}

	return info, nil
}

// GetByRequestID retrieves the ride provisioned for an acceptance, whether
// the accept path or the reconciler got there first.
func (r *RideRepository) GetByRequestID(requestID uuid.UUID) (*models.Ride, error) {
	query := `
		SELECT id, request_id, driver_id, rider_id, chat_room_id,
			   pickup_location, destination_location,
			   pickup_latitude, pickup_longitude,
			   destination_latitude, destination_longitude,
			   status, accepted_at, started_at, completed_at, cancelled_at,
			   created_at
		FROM rides
		WHERE request_id = $1
	`

	return r.scanRide(r.db.QueryRow(query, requestID))
}

// GetByChatRoomAndDriver retrieves the ride keyed by its lifecycle pair
func (r *RideRepository) GetByChatRoomAndDriver(chatRoomID, driverID uuid.UUID) (*models.Ride, error) {
	query := `
		SELECT id, request_id, driver_id, rider_id, chat_room_id,
			   pickup_location, destination_location,
			   pickup_latitude, pickup_longitude,
			   destination_latitude, destination_longitude,
			   status, accepted_at, started_at, completed_at, cancelled_at,
			   created_at
		FROM rides
		WHERE chat_room_id = $1 AND driver_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	return r.scanRide(r.db.QueryRow(query, chatRoomID, driverID))
}

// ListRecent returns terminal rides for the rider or driver view, joined
// with the counterparty's display info, newest first.
func (r *RideRepository) ListRecent(userID uuid.UUID, role models.Role, limit int) ([]models.RecentRide, error) {
	var query string
	switch role {
	case models.RoleRider:
		query = `
			SELECT r.id, r.driver_id, r.rider_id, r.chat_room_id,
				   r.pickup_location, r.destination_location,
				   r.pickup_latitude, r.pickup_longitude,
				   r.destination_latitude, r.destination_longitude,
				   r.status, r.accepted_at, r.started_at, r.completed_at, r.cancelled_at,
				   r.created_at,
				   p.full_name, p.avatar_url
			FROM rides r
			JOIN profiles p ON p.id = r.driver_id
			WHERE r.rider_id = $1 AND r.status IN ('completed', 'cancelled')
			ORDER BY r.created_at DESC
			LIMIT $2
		`
	case models.RoleDriver:
		query = `
			SELECT r.id, r.driver_id, r.rider_id, r.chat_room_id,
				   r.pickup_location, r.destination_location,
				   r.pickup_latitude, r.pickup_longitude,
				   r.destination_latitude, r.destination_longitude,
				   r.status, r.accepted_at, r.started_at, r.completed_at, r.cancelled_at,
				   r.created_at,
				   p.full_name, p.avatar_url
			FROM rides r
			JOIN profiles p ON p.id = r.rider_id
			WHERE r.driver_id = $1 AND r.status IN ('completed', 'cancelled')
			ORDER BY r.created_at DESC
			LIMIT $2
		`
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent rides: %w", err)
	}
	defer rows.Close()

	rides := []models.RecentRide{}
	for rows.Next() {
		var rr models.RecentRide
		var acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime
		var avatarURL sql.NullString

		err := rows.Scan(
			&rr.ID, &rr.DriverID, &rr.RiderID, &rr.ChatRoomID,
			&rr.PickupLocation, &rr.DestinationLocation,
			&rr.PickupLatitude, &rr.PickupLongitude,
			&rr.DestinationLatitude, &rr.DestinationLongitude,
			&rr.Status, &acceptedAt, &startedAt, &completedAt, &cancelledAt,
			&rr.CreatedAt,
			&rr.CounterpartyName, &avatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent ride: %w", err)
		}

		if acceptedAt.Valid {
			rr.AcceptedAt = &acceptedAt.Time
		}
		if startedAt.Valid {
			rr.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			rr.CompletedAt = &completedAt.Time
		}
		if cancelledAt.Valid {
			rr.CancelledAt = &cancelledAt.Time
		}
		if avatarURL.Valid {
			rr.CounterpartyAvatarURL = &avatarURL.String
		}

		rides = append(rides, rr)
	}

	return rides, rows.Err()
}

func (r *RideRepository) scanRide(row scanner) (*models.Ride, error) {
	ride := &models.Ride{}
	var acceptedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&ride.ID, &ride.RequestID, &ride.DriverID, &ride.RiderID, &ride.ChatRoomID,
		&ride.PickupLocation, &ride.DestinationLocation,
		&ride.PickupLatitude, &ride.PickupLongitude,
		&ride.DestinationLatitude, &ride.DestinationLongitude,
		&ride.Status, &acceptedAt, &startedAt, &completedAt, &cancelledAt,
		&ride.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ride: %w", err)
	}

	if acceptedAt.Valid {
		ride.AcceptedAt = &acceptedAt.Time
	}
	if startedAt.Valid {
		ride.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		ride.CompletedAt = &completedAt.Time
	}
	if cancelledAt.Valid {
		ride.CancelledAt = &cancelledAt.Time
	}

	return ride, nil
}
