package database

import (
	"database/sql"
	"fmt"

	"github.com/baobao/ride-backend/internal/models"
	"github.com/google/uuid"
)

// RideRequestRepository handles database operations for the request_ride
// table. The Pending -> Accepted transition here is the system's single
// first-accept-wins guarantee: a predicate-scoped update relying on the
// store's row-level atomicity, not a lock.
type RideRequestRepository struct {
	db DB
}

// NewRideRequestRepository creates a new RideRequestRepository
func NewRideRequestRepository(db DB) *RideRequestRepository {
	return &RideRequestRepository{db: db}
}

// Create inserts a new Pending request
func (r *RideRequestRepository) Create(req *models.RideRequest) error {
	query := `
		INSERT INTO request_ride (
			id, rider_id, driver_id, pickup_location, destination_location,
			pickup_latitude, pickup_longitude,
			destination_latitude, destination_longitude,
			status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.Status = models.RequestStatusPending

	err := r.db.QueryRow(
		query,
		req.ID, req.RiderID, req.DriverID,
		req.PickupLocation, req.DestinationLocation,
		req.PickupLatitude, req.PickupLongitude,
		req.DestinationLatitude, req.DestinationLongitude,
		req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ride request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by id
func (r *RideRequestRepository) GetByID(requestID uuid.UUID) (*models.RideRequest, error) {
	query := `
		SELECT id, rider_id, driver_id, pickup_location, destination_location,
			   pickup_latitude, pickup_longitude,
			   destination_latitude, destination_longitude,
			   status, created_at, updated_at
		FROM request_ride
		WHERE id = $1
	`

	return r.scanRequest(r.db.QueryRow(query, requestID))
}

// ListPendingForDriver returns all Pending requests targeting a driver,
// joined with rider display info, oldest first.
func (r *RideRequestRepository) ListPendingForDriver(driverID uuid.UUID) ([]models.PendingRequest, error) {
	query := `
		SELECT rr.id, rr.rider_id, rr.driver_id,
			   rr.pickup_location, rr.destination_location,
			   rr.pickup_latitude, rr.pickup_longitude,
			   rr.destination_latitude, rr.destination_longitude,
			   rr.status, rr.created_at, rr.updated_at,
			   p.full_name, p.avatar_url
		FROM request_ride rr
		JOIN profiles p ON p.id = rr.rider_id
		WHERE rr.driver_id = $1 AND rr.status = 'Pending'
		ORDER BY rr.created_at
	`

	rows, err := r.db.Query(query, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	requests := []models.PendingRequest{}
	for rows.Next() {
		var pr models.PendingRequest
		var avatarURL sql.NullString

		err := rows.Scan(
			&pr.ID, &pr.RiderID, &pr.DriverID,
			&pr.PickupLocation, &pr.DestinationLocation,
			&pr.PickupLatitude, &pr.PickupLongitude,
			&pr.DestinationLatitude, &pr.DestinationLongitude,
			&pr.Status, &pr.CreatedAt, &pr.UpdatedAt,
			&pr.RiderName, &avatarURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending request: %w", err)
		}
		if avatarURL.Valid {
			pr.RiderAvatarURL = &avatarURL.String
		}
		requests = append(requests, pr)
	}

	return requests, rows.Err()
}

// ListByRider returns a rider's own requests, newest first
func (r *RideRequestRepository) ListByRider(riderID uuid.UUID) ([]models.RideRequest, error) {
	query := `
		SELECT id, rider_id, driver_id, pickup_location, destination_location,
			   pickup_latitude, pickup_longitude,
			   destination_latitude, destination_longitude,
			   status, created_at, updated_at
		FROM request_ride
		WHERE rider_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, riderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rider requests: %w", err)
	}
	defer rows.Close()

	requests := []models.RideRequest{}
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}

	return requests, rows.Err()
}

// HasPending reports whether the rider already has a Pending request for
// the driver.
func (r *RideRequestRepository) HasPending(riderID, driverID uuid.UUID) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM request_ride
		WHERE rider_id = $1 AND driver_id = $2 AND status = 'Pending'
	`

	var count int
	if err := r.db.QueryRow(query, riderID, driverID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}
	return count > 0, nil
}

// TryAccept is the compare-and-swap of the acceptance arbiter: the update
// only matches a row that is still Pending. Returns false (no error) when
// zero rows were affected, meaning the race was lost or the request was
// already resolved.
func (r *RideRequestRepository) TryAccept(requestID uuid.UUID) (bool, error) {
	query := `
		UPDATE request_ride
		SET status = 'Accepted', updated_at = NOW()
		WHERE id = $1 AND status = 'Pending'
	`

	result, err := r.db.Exec(query, requestID)
	if err != nil {
		return false, fmt.Errorf("failed to accept ride request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

// TryCancel conditionally moves a still-Pending request to Cancel. Zero
// affected rows is returned as false, not an error: declining a request
// that already left Pending is a benign no-op.
func (r *RideRequestRepository) TryCancel(requestID uuid.UUID) (bool, error) {
	query := `
		UPDATE request_ride
		SET status = 'Cancel', updated_at = NOW()
		WHERE id = $1 AND status = 'Pending'
	`

	result, err := r.db.Exec(query, requestID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel ride request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

// ListAcceptedWithoutRide returns Accepted requests that have no rides row,
// the partial-commit residue the reconciler repairs.
func (r *RideRequestRepository) ListAcceptedWithoutRide() ([]models.RideRequest, error) {
	query := `
		SELECT rr.id, rr.rider_id, rr.driver_id,
			   rr.pickup_location, rr.destination_location,
			   rr.pickup_latitude, rr.pickup_longitude,
			   rr.destination_latitude, rr.destination_longitude,
			   rr.status, rr.created_at, rr.updated_at
		FROM request_ride rr
		LEFT JOIN rides r ON r.request_id = rr.id
		WHERE rr.status = 'Accepted' AND r.id IS NULL
		ORDER BY rr.updated_at
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphaned acceptances: %w", err)
	}
	defer rows.Close()

	requests := []models.RideRequest{}
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}

	return requests, rows.Err()
}

func (r *RideRequestRepository) scanRequest(row scanner) (*models.RideRequest, error) {
	req := &models.RideRequest{}

	err := row.Scan(
		&req.ID, &req.RiderID, &req.DriverID,
		&req.PickupLocation, &req.DestinationLocation,
		&req.PickupLatitude, &req.PickupLongitude,
		&req.DestinationLatitude, &req.DestinationLongitude,
		&req.Status, &req.CreatedAt, &req.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ride request: %w", err)
	}

	return req, nil
}
