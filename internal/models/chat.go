package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoomStatus is the lifecycle of a chat room
type ChatRoomStatus string

const (
	ChatRoomActive ChatRoomStatus = "Active"
	ChatRoomClosed ChatRoomStatus = "Closed"
)

// SenderType identifies who authored a message
type SenderType string

const (
	SenderDriver SenderType = "driver"
	SenderRider  SenderType = "rider"
	SenderSystem SenderType = "system"
)

// ChatRoom pairs exactly one driver and one rider. Creation is idempotent:
// the (driver_id, rider_id) pair is unique and a duplicate create returns
// the existing room.
type ChatRoom struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	DriverID  uuid.UUID      `json:"driver_id" db:"driver_id"`
	RiderID   uuid.UUID      `json:"rider_id" db:"rider_id"`
	Status    ChatRoomStatus `json:"status" db:"status"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// Message belongs to exactly one chat room. Append-only; never edited or
// deleted by the normal flow. SenderID is nil for system-authored rows.
// Seq is a store-assigned monotonic sequence that breaks ties between
// messages sharing an identical sent_at.
type Message struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ChatRoomID uuid.UUID  `json:"chat_room_id" db:"chat_room_id"`
	SenderID   *uuid.UUID `json:"sender_id,omitempty" db:"sender_id"`
	SenderType SenderType `json:"sender_type" db:"sender_type"`
	Message    string     `json:"message" db:"message"`
	SentAt     time.Time  `json:"sent_at" db:"sent_at"`
	Seq        int64      `json:"seq" db:"seq"`
}

// ChatRoomSummary is a chat room joined with the counterparty's display
// info and a preview of the latest message, for the chat-list screens.
type ChatRoomSummary struct {
	ChatRoom
	CounterpartyName      string      `json:"counterparty_name" db:"counterparty_name"`
	CounterpartyAvatarURL *string     `json:"counterparty_avatar_url,omitempty" db:"counterparty_avatar_url"`
	LatestMessage         *string     `json:"latest_message,omitempty" db:"latest_message"`
	LatestMessageAt       *time.Time  `json:"latest_message_at,omitempty" db:"latest_message_at"`
	LatestSenderType      *SenderType `json:"latest_sender_type,omitempty" db:"latest_sender_type"`
}

// SendMessagePayload is the request body for posting a message
type SendMessagePayload struct {
	Message string `json:"message" binding:"required"`
}
