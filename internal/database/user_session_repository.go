package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/baobao/ride-backend/internal/models"
	"github.com/google/uuid"
)

// UserSessionRepository handles user session database operations
type UserSessionRepository struct {
	db DB
}

// NewUserSessionRepository creates a new user session repository
func NewUserSessionRepository(db DB) *UserSessionRepository {
	return &UserSessionRepository{db: db}
}

// CreateOrUpdate records a signin. One row is kept per (profile, device
// type); a repeat signin from the same device type refreshes it instead of
// stacking new rows.
func (r *UserSessionRepository) CreateOrUpdate(profileID uuid.UUID, deviceType, deviceOS, ipAddress string) (*models.UserSession, error) {
	existing, err := r.getByProfileAndDevice(profileID, deviceType)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check existing session: %w", err)
	}

	if existing != nil {
		return r.refresh(existing.ID, deviceOS, ipAddress)
	}

	query := `
		INSERT INTO user_sessions (
			id, profile_id, device_type, device_os, ip_address,
			last_activity_at, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, true, $6)
		RETURNING id, profile_id, device_type, device_os, ip_address,
			last_activity_at, is_active, created_at
	`

	now := time.Now()
	return r.scanSession(r.db.QueryRow(
		query,
		uuid.New(), profileID, deviceType,
		nullString(deviceOS), nullString(ipAddress),
		now,
	))
}

// TouchActivity bumps last_activity_at for a signed-in device
func (r *UserSessionRepository) TouchActivity(profileID uuid.UUID, deviceType string) error {
	query := `
		UPDATE user_sessions
		SET last_activity_at = $1
		WHERE profile_id = $2 AND device_type = $3
	`

	_, err := r.db.Exec(query, time.Now(), profileID, deviceType)
	if err != nil {
		return fmt.Errorf("failed to touch session activity: %w", err)
	}
	return nil
}

// Deactivate marks a device's session inactive on signout
func (r *UserSessionRepository) Deactivate(profileID uuid.UUID, deviceType string) error {
	query := `
		UPDATE user_sessions
		SET is_active = false
		WHERE profile_id = $1 AND device_type = $2
	`

	_, err := r.db.Exec(query, profileID, deviceType)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	return nil
}

// ListActive retrieves a profile's active sessions, most recent first
func (r *UserSessionRepository) ListActive(profileID uuid.UUID) ([]*models.UserSession, error) {
	query := `
		SELECT id, profile_id, device_type, device_os, ip_address,
			last_activity_at, is_active, created_at
		FROM user_sessions
		WHERE profile_id = $1 AND is_active = true
		ORDER BY last_activity_at DESC
	`

	rows, err := r.db.Query(query, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.UserSession{}
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// CleanupInactive removes inactive sessions older than the given duration
func (r *UserSessionRepository) CleanupInactive(olderThan time.Duration) (int64, error) {
	query := `
		DELETE FROM user_sessions
		WHERE is_active = false AND last_activity_at < $1
	`

	result, err := r.db.Exec(query, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup inactive sessions: %w", err)
	}

	return result.RowsAffected()
}

func (r *UserSessionRepository) getByProfileAndDevice(profileID uuid.UUID, deviceType string) (*models.UserSession, error) {
	query := `
		SELECT id, profile_id, device_type, device_os, ip_address,
			last_activity_at, is_active, created_at
		FROM user_sessions
		WHERE profile_id = $1 AND device_type = $2
		LIMIT 1
	`

	session, err := r.scanSession(r.db.QueryRow(query, profileID, deviceType))
	if err == models.ErrNotFound {
		return nil, sql.ErrNoRows
	}
	return session, err
}

func (r *UserSessionRepository) refresh(sessionID uuid.UUID, deviceOS, ipAddress string) (*models.UserSession, error) {
	query := `
		UPDATE user_sessions
		SET device_os = $2,
		    ip_address = $3,
		    last_activity_at = $4,
		    is_active = true
		WHERE id = $1
		RETURNING id, profile_id, device_type, device_os, ip_address,
			last_activity_at, is_active, created_at
	`

	return r.scanSession(r.db.QueryRow(
		query, sessionID, nullString(deviceOS), nullString(ipAddress), time.Now(),
	))
}

func (r *UserSessionRepository) scanSession(row scanner) (*models.UserSession, error) {
	session := &models.UserSession{}
	var deviceOS, ipAddress sql.NullString

	err := row.Scan(
		&session.ID, &session.ProfileID, &session.DeviceType,
		&deviceOS, &ipAddress,
		&session.LastActivityAt, &session.IsActive, &session.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if deviceOS.Valid {
		session.DeviceOS = &deviceOS.String
	}
	if ipAddress.Valid {
		session.IPAddress = &ipAddress.String
	}

	return session, nil
}

// nullString returns sql.NullString for empty strings
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
