package models

import (
	"time"

	"github.com/google/uuid"
)

// DriverProfile extends a Profile with vehicle attributes and the mutable
// position/availability pair. The row shares its id with the profiles row.
// Rows are never deleted, only deactivated via is_active.
type DriverProfile struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	VehicleType        *string    `json:"vehicle_type,omitempty" db:"vehicle_type"`
	VehicleColor       *string    `json:"vehicle_color,omitempty" db:"vehicle_color"`
	LicenseNumber      *string    `json:"license_number,omitempty" db:"license_number"`
	VehicleYear        *int       `json:"vehicle_year,omitempty" db:"vehicle_year"`
	Latitude           *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude          *float64   `json:"longitude,omitempty" db:"longitude"`
	IsAvailable        bool       `json:"is_available" db:"is_available"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	LastLocationUpdate *time.Time `json:"last_location_update,omitempty" db:"last_location_update"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// NearbyDriver is a driver_profiles row joined with display info from
// profiles, as returned by the geospatial query.
type NearbyDriver struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	FullName           string     `json:"full_name" db:"full_name"`
	AvatarURL          *string    `json:"avatar_url,omitempty" db:"avatar_url"`
	VehicleType        *string    `json:"vehicle_type,omitempty" db:"vehicle_type"`
	VehicleColor       *string    `json:"vehicle_color,omitempty" db:"vehicle_color"`
	VehicleYear        *int       `json:"vehicle_year,omitempty" db:"vehicle_year"`
	LicenseNumber      *string    `json:"license_number,omitempty" db:"license_number"`
	Latitude           float64    `json:"latitude" db:"latitude"`
	Longitude          float64    `json:"longitude" db:"longitude"`
	IsAvailable        bool       `json:"is_available" db:"is_available"`
	LastLocationUpdate *time.Time `json:"last_location_update,omitempty" db:"last_location_update"`
}

// UpdateVehicleRequest carries the driver's vehicle attributes for upsert
type UpdateVehicleRequest struct {
	VehicleType   string `json:"vehicle_type" binding:"required"`
	VehicleColor  string `json:"vehicle_color" binding:"required"`
	LicenseNumber string `json:"license_number" binding:"required"`
	VehicleYear   int    `json:"vehicle_year" binding:"required"`
}

// UpdateLocationRequest is the periodic location refresh payload
type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// SetAvailabilityRequest toggles inclusion in the nearby-driver results
type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}
