package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/baobao/ride-backend/internal/database"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/observability"
)

// ChatService handles the messaging surface between a rider and a driver.
type ChatService struct {
	roomRepo    *database.ChatRoomRepository
	messageRepo *database.MessageRepository
	logger      *logrus.Logger
}

func NewChatService(
	roomRepo *database.ChatRoomRepository,
	messageRepo *database.MessageRepository,
	logger *logrus.Logger,
) *ChatService {
	return &ChatService{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		logger:      logger,
	}
}

// GetOrCreateRoom returns the room for a (driver, rider) pair, creating it
// when absent. Repeat calls always converge on the same room.
func (s *ChatService) GetOrCreateRoom(driverID, riderID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.roomRepo.GetOrCreate(driverID, riderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create chat room: %w", err)
	}
	return room, nil
}

// RoomsForUser lists the user's chat rooms with counterparty display info
// and a latest-message preview, most recently active first.
func (s *ChatService) RoomsForUser(userID uuid.UUID, role models.Role) ([]models.ChatRoomSummary, error) {
	rooms, err := s.roomRepo.ListForUser(userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	return rooms, nil
}

// Room returns one chat room. Non-members get ErrNotFound rather than a
// permission error so room ids cannot be probed.
func (s *ChatService) Room(roomID, userID uuid.UUID) (*models.ChatRoom, error) {
	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat room: %w", err)
	}
	if room.DriverID != userID && room.RiderID != userID {
		return nil, models.ErrNotFound
	}
	return room, nil
}

// Messages returns the full history of a room in chronological order. Only
// the room's driver and rider may read it.
func (s *ChatService) Messages(roomID, userID uuid.UUID) ([]models.Message, error) {
	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat room: %w", err)
	}
	if room.DriverID != userID && room.RiderID != userID {
		return nil, models.ErrNotFound
	}

	messages, err := s.messageRepo.ListByRoom(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// SendMessage appends a message to a room on behalf of a user. Whitespace
// is trimmed and empty messages are rejected. The room's updated_at bump is
// best effort; the message is already durable when it fails.
func (s *ChatService) SendMessage(roomID, userID uuid.UUID, role models.Role, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	room, err := s.roomRepo.GetByID(roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat room: %w", err)
	}
	if room.DriverID != userID && room.RiderID != userID {
		return nil, models.ErrNotFound
	}

	senderType := models.SenderRider
	if role == models.RoleDriver {
		senderType = models.SenderDriver
	}

	message, err := s.messageRepo.Insert(roomID, &userID, senderType, text)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	observability.MessagesSentTotal.WithLabelValues(string(senderType)).Inc()

	if err := s.roomRepo.Touch(roomID); err != nil {
		s.logger.WithFields(logrus.Fields{
			"chat_room_id": roomID,
			"error":        err.Error(),
		}).Warn("Failed to bump chat room after message")
	}

	return message, nil
}
