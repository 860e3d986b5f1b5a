package database

import (
	"fmt"

	"github.com/baobao/ride-backend/internal/models"
	"github.com/google/uuid"
)

// MessageRepository handles database operations for messages. The table is
// append-only; rows are never edited or deleted.
type MessageRepository struct {
	db DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert appends a message and returns it with the store-assigned sent_at
// and seq. SenderID must be nil when senderType is system.
func (r *MessageRepository) Insert(chatRoomID uuid.UUID, senderID *uuid.UUID, senderType models.SenderType, text string) (*models.Message, error) {
	query := `
		INSERT INTO messages (id, chat_room_id, sender_id, sender_type, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING sent_at, seq
	`

	msg := &models.Message{
		ID:         uuid.New(),
		ChatRoomID: chatRoomID,
		SenderID:   senderID,
		SenderType: senderType,
		Message:    text,
	}

	err := r.db.QueryRow(query, msg.ID, chatRoomID, senderID, senderType, text).Scan(
		&msg.SentAt, &msg.Seq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	return msg, nil
}

// ListByRoom returns a room's messages oldest first. Seq breaks ties
// between rows with an identical sent_at so the order is total.
func (r *MessageRepository) ListByRoom(chatRoomID uuid.UUID) ([]models.Message, error) {
	query := `
		SELECT id, chat_room_id, sender_id, sender_type, message, sent_at, seq
		FROM messages
		WHERE chat_room_id = $1
		ORDER BY sent_at ASC, seq ASC
	`

	rows, err := r.db.Query(query, chatRoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		err := rows.Scan(
			&m.ID, &m.ChatRoomID, &m.SenderID, &m.SenderType,
			&m.Message, &m.SentAt, &m.Seq,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
