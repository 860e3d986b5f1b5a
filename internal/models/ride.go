package models

import (
	"time"

	"github.com/google/uuid"
)

// RideStatus is the lifecycle state of an accepted ride. Transitions are
// driver-initiated and monotonic; completed and cancelled are terminal.
type RideStatus string

const (
	RideStatusAccepted  RideStatus = "accepted"
	RideStatusStarted   RideStatus = "started"
	RideStatusCompleted RideStatus = "completed"
	RideStatusCancelled RideStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed
func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

// Ride is the operational record of an accepted request; request_id is
// unique so each acceptance yields at most one ride. One timestamp per
// transition; a nil timestamp means the transition never happened.
type Ride struct {
	ID                   uuid.UUID  `json:"id" db:"id"`
	RequestID            uuid.UUID  `json:"request_id" db:"request_id"`
	DriverID             uuid.UUID  `json:"driver_id" db:"driver_id"`
	RiderID              uuid.UUID  `json:"rider_id" db:"rider_id"`
	ChatRoomID           uuid.UUID  `json:"chat_room_id" db:"chat_room_id"`
	PickupLocation       string     `json:"pickup_location" db:"pickup_location"`
	DestinationLocation  string     `json:"destination_location" db:"destination_location"`
	PickupLatitude       float64    `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude      float64    `json:"pickup_longitude" db:"pickup_longitude"`
	DestinationLatitude  float64    `json:"destination_latitude" db:"destination_latitude"`
	DestinationLongitude float64    `json:"destination_longitude" db:"destination_longitude"`
	Status               RideStatus `json:"status" db:"status"`
	AcceptedAt           *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	StartedAt            *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt          *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt          *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
}

// RideStatusInfo is the narrow status projection polled by both clients
// while a ride is underway.
type RideStatusInfo struct {
	Status      RideStatus `json:"status" db:"status"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty" db:"accepted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
}

// RecentRide is a terminal ride joined with the counterparty's display info
// for the ride-history screen.
type RecentRide struct {
	Ride
	CounterpartyName      string  `json:"counterparty_name" db:"counterparty_name"`
	CounterpartyAvatarURL *string `json:"counterparty_avatar_url,omitempty" db:"counterparty_avatar_url"`
}

// RideTransitionRequest identifies the ride for a lifecycle call. Rides are
// keyed by (chat_room_id, driver_id); the driver id comes from the session.
type RideTransitionRequest struct {
	ChatRoomID uuid.UUID `json:"chat_room_id" binding:"required"`
}
