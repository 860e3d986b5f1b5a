package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/baobao/ride-backend/internal/models"
	"github.com/google/uuid"
)

// ProfileRepository handles database operations for the profiles table
type ProfileRepository struct {
	db DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new profile
func (r *ProfileRepository) Create(profile *models.Profile) error {
	query := `
		INSERT INTO profiles (
			id, full_name, email, phone_number, avatar_url, role,
			password_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.db.Exec(
		query,
		profile.ID, profile.FullName, profile.Email, profile.PhoneNumber,
		profile.AvatarURL, profile.Role, profile.PasswordHash,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByID retrieves a profile by id
func (r *ProfileRepository) GetByID(id uuid.UUID) (*models.Profile, error) {
	query := `
		SELECT id, full_name, email, phone_number, avatar_url, role,
			   password_hash, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	return r.scanProfile(r.db.QueryRow(query, id))
}

// GetByEmail retrieves a profile by email
func (r *ProfileRepository) GetByEmail(email string) (*models.Profile, error) {
	query := `
		SELECT id, full_name, email, phone_number, avatar_url, role,
			   password_hash, created_at, updated_at
		FROM profiles
		WHERE email = $1
	`

	return r.scanProfile(r.db.QueryRow(query, email))
}

// UpdateDisplay updates the mutable display attributes of a profile
func (r *ProfileRepository) UpdateDisplay(id uuid.UUID, fullName string, phoneNumber, avatarURL *string) error {
	query := `
		UPDATE profiles
		SET full_name = $2, phone_number = $3, avatar_url = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, id, fullName, phoneNumber, avatarURL)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *ProfileRepository) scanProfile(row scanner) (*models.Profile, error) {
	profile := &models.Profile{}
	var phoneNumber sql.NullString
	var avatarURL sql.NullString

	err := row.Scan(
		&profile.ID, &profile.FullName, &profile.Email, &phoneNumber,
		&avatarURL, &profile.Role, &profile.PasswordHash,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	if phoneNumber.Valid {
		profile.PhoneNumber = &phoneNumber.String
	}
	if avatarURL.Valid {
		profile.AvatarURL = &avatarURL.String
	}

	return profile, nil
}
