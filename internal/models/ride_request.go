package models

import (
	"time"

	"github.com/google/uuid"
)

// RideRequestStatus matches the request_ride status values used by the
// mobile clients. A request leaves Pending exactly once and never returns.
type RideRequestStatus string

const (
	RequestStatusPending  RideRequestStatus = "Pending"
	RequestStatusAccepted RideRequestStatus = "Accepted"
	RequestStatusCancel   RideRequestStatus = "Cancel"
)

// RideRequest is a rider's solicitation of one specific driver.
type RideRequest struct {
	ID                   uuid.UUID         `json:"id" db:"id"`
	RiderID              uuid.UUID         `json:"rider_id" db:"rider_id"`
	DriverID             uuid.UUID         `json:"driver_id" db:"driver_id"`
	PickupLocation       string            `json:"pickup_location" db:"pickup_location"`
	DestinationLocation  string            `json:"destination_location" db:"destination_location"`
	PickupLatitude       float64           `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude      float64           `json:"pickup_longitude" db:"pickup_longitude"`
	DestinationLatitude  float64           `json:"destination_latitude" db:"destination_latitude"`
	DestinationLongitude float64           `json:"destination_longitude" db:"destination_longitude"`
	Status               RideRequestStatus `json:"status" db:"status"`
	CreatedAt            time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at" db:"updated_at"`
}

// PendingRequest is a request_ride row joined with rider display info, as
// shown on the driver's incoming-requests screen.
type PendingRequest struct {
	RideRequest
	RiderName      string  `json:"rider_name" db:"rider_name"`
	RiderAvatarURL *string `json:"rider_avatar_url,omitempty" db:"rider_avatar_url"`
}

// CreateRideRequestPayload is the rider-facing request body
type CreateRideRequestPayload struct {
	DriverID             uuid.UUID `json:"driver_id" binding:"required"`
	PickupLocation       string    `json:"pickup_location" binding:"required"`
	DestinationLocation  string    `json:"destination_location" binding:"required"`
	PickupLatitude       float64   `json:"pickup_latitude" binding:"required"`
	PickupLongitude      float64   `json:"pickup_longitude" binding:"required"`
	DestinationLatitude  float64   `json:"destination_latitude" binding:"required"`
	DestinationLongitude float64   `json:"destination_longitude" binding:"required"`
}

// AcceptResult is everything created by a winning acceptance
type AcceptResult struct {
	Request  *RideRequest `json:"request"`
	Ride     *Ride        `json:"ride"`
	ChatRoom *ChatRoom    `json:"chat_room"`
}
