package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/baobao/ride-backend/internal/models"
	"github.com/google/uuid"
)

// ChatRoomRepository handles database operations for chat_rooms. Creation
// is idempotent on the (driver_id, rider_id) pair: a duplicate create
// returns the existing room.
type ChatRoomRepository struct {
	db DB
}

// NewChatRoomRepository creates a new ChatRoomRepository
func NewChatRoomRepository(db DB) *ChatRoomRepository {
	return &ChatRoomRepository{db: db}
}

// GetOrCreate returns the room for a (driver, rider) pair, creating it when
// absent. A unique-constraint race on insert falls back to re-selecting the
// row another writer just created.
func (r *ChatRoomRepository) GetOrCreate(driverID, riderID uuid.UUID) (*models.ChatRoom, error) {
	existing, err := r.GetByPair(driverID, riderID)
	if err == nil {
		return existing, nil
	}
	if err != models.ErrNotFound {
		return nil, err
	}

	query := `
		INSERT INTO chat_rooms (id, driver_id, rider_id, status)
		VALUES ($1, $2, $3, 'Active')
		RETURNING id, driver_id, rider_id, status, created_at, updated_at
	`

	room := &models.ChatRoom{}
	err = r.db.QueryRow(query, uuid.New(), driverID, riderID).Scan(
		&room.ID, &room.DriverID, &room.RiderID, &room.Status,
		&room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		// Lost a creation race: the pair is unique, so the row exists now
		if strings.Contains(err.Error(), "duplicate key") {
			return r.GetByPair(driverID, riderID)
		}
		return nil, fmt.Errorf("failed to create chat room: %w", err)
	}

	return room, nil
}

// GetByPair retrieves the room for a (driver, rider) pair
func (r *ChatRoomRepository) GetByPair(driverID, riderID uuid.UUID) (*models.ChatRoom, error) {
	query := `
		SELECT id, driver_id, rider_id, status, created_at, updated_at
		FROM chat_rooms
		WHERE driver_id = $1 AND rider_id = $2
	`

	return r.scanRoom(r.db.QueryRow(query, driverID, riderID))
}

// GetByID retrieves a room by id
func (r *ChatRoomRepository) GetByID(roomID uuid.UUID) (*models.ChatRoom, error) {
	query := `
		SELECT id, driver_id, rider_id, status, created_at, updated_at
		FROM chat_rooms
		WHERE id = $1
	`

	return r.scanRoom(r.db.QueryRow(query, roomID))
}

// Touch bumps updated_at so chat lists sort rooms by latest activity
func (r *ChatRoomRepository) Touch(roomID uuid.UUID) error {
	query := `UPDATE chat_rooms SET updated_at = NOW() WHERE id = $1`

	_, err := r.db.Exec(query, roomID)
	if err != nil {
		return fmt.Errorf("failed to touch chat room: %w", err)
	}
	return nil
}

// Close marks a room Closed once its ride reaches a terminal state
func (r *ChatRoomRepository) Close(roomID uuid.UUID) error {
	query := `UPDATE chat_rooms SET status = 'Closed', updated_at = NOW() WHERE id = $1`

	_, err := r.db.Exec(query, roomID)
	if err != nil {
		return fmt.Errorf("failed to close chat room: %w", err)
	}
	return nil
}

// ListForUser returns a user's rooms with counterparty display info and the
// latest message preview, most recently active first.
func (r *ChatRoomRepository) ListForUser(userID uuid.UUID, role models.Role) ([]models.ChatRoomSummary, error) {
	var ownColumn, otherColumn string
	switch role {
	case models.RoleRider:
		ownColumn, otherColumn = "rider_id", "driver_id"
	case models.RoleDriver:
		ownColumn, otherColumn = "driver_id", "rider_id"
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	query := fmt.Sprintf(`
		SELECT cr.id, cr.driver_id, cr.rider_id, cr.status,
			   cr.created_at, cr.updated_at,
			   p.full_name, p.avatar_url,
			   lm.message, lm.sent_at, lm.sender_type
		FROM chat_rooms cr
		JOIN profiles p ON p.id = cr.%s
		LEFT JOIN LATERAL (
			SELECT message, sent_at, sender_type
			FROM messages
			WHERE chat_room_id = cr.id
			ORDER BY sent_at DESC, seq DESC
			LIMIT 1
		) lm ON true
		WHERE cr.%s = $1
		ORDER BY cr.updated_at DESC
	`, otherColumn, ownColumn)

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	defer rows.Close()

	summaries := []models.ChatRoomSummary{}
	for rows.Next() {
		var s models.ChatRoomSummary
		var avatarURL, latestMessage, latestSenderType sql.NullString
		var latestMessageAt sql.NullTime

		err := rows.Scan(
			&s.ID, &s.DriverID, &s.RiderID, &s.Status,
			&s.CreatedAt, &s.UpdatedAt,
			&s.CounterpartyName, &avatarURL,
			&latestMessage, &latestMessageAt, &latestSenderType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat room summary: %w", err)
		}

		if avatarURL.Valid {
			s.CounterpartyAvatarURL = &avatarURL.String
		}
		if latestMessage.Valid {
			s.LatestMessage = &latestMessage.String
		}
		if latestMessageAt.Valid {
			s.LatestMessageAt = &latestMessageAt.Time
		}
		if latestSenderType.Valid {
			st := models.SenderType(latestSenderType.String)
			s.LatestSenderType = &st
		}

		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

func (r *ChatRoomRepository) scanRoom(row scanner) (*models.ChatRoom, error) {
	room := &models.ChatRoom{}

	err := row.Scan(
		&room.ID, &room.DriverID, &room.RiderID, &room.Status,
		&room.CreatedAt, &room.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan chat room: %w", err)
	}

	return room, nil
}
