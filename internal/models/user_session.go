package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSession records a signin from a device. One row per (profile, device),
// refreshed on every signin.
type UserSession struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ProfileID      uuid.UUID `json:"profile_id" db:"profile_id"`
	DeviceType     string    `json:"device_type" db:"device_type"`
	DeviceOS       *string   `json:"device_os,omitempty" db:"device_os"`
	IPAddress      *string   `json:"ip_address,omitempty" db:"ip_address"`
	LastActivityAt time.Time `json:"last_activity_at" db:"last_activity_at"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
