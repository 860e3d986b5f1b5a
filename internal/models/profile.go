package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role determines which side of a ride a profile sits on
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

// Profile represents a person (rider or driver) in the profiles table.
// Identity is immutable; display attributes are updated by the owning user.
type Profile struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FullName     string    `json:"full_name" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	PhoneNumber  *string   `json:"phone_number,omitempty" db:"phone_number"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// SignUpRequest is the signup payload
type SignUpRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     Role   `json:"role" binding:"required"`
}

// Validate checks fields gin's binding tags cannot express
func (r *SignUpRequest) Validate() error {
	if r.Role != RoleRider && r.Role != RoleDriver {
		return fmt.Errorf("role must be %q or %q", RoleRider, RoleDriver)
	}
	if strings.TrimSpace(r.FullName) == "" {
		return fmt.Errorf("full_name cannot be blank")
	}
	return nil
}

// SignInRequest is the signin payload
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries the mutable display attributes
type UpdateProfileRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// AuthResponse is returned from signup/signin/refresh
type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	Profile      *Profile `json:"profile,omitempty"`
}
