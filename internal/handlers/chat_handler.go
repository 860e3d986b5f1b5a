package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/baobao/ride-backend/internal/middleware"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/services"
)

// ChatHandler handles chat rooms and messages
type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListRooms returns the caller's chat rooms with previews
// GET /api/v1/chat-rooms
func (h *ChatHandler) ListRooms(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	rooms, err := h.chatService.RoomsForUser(userCtx.UserID, userCtx.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chat_rooms": rooms,
		"count":      len(rooms),
	})
}

// GetRoom returns one room if the caller is a member of it
// GET /api/v1/chat-rooms/:id
func (h *ChatHandler) GetRoom(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "id must be a valid uuid",
		})
		return
	}

	room, err := h.chatService.Room(roomID, userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, room)
}

// ListMessages returns the room's history oldest first
// GET /api/v1/chat-rooms/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "id must be a valid uuid",
		})
		return
	}

	messages, err := h.chatService.Messages(roomID, userCtx.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessage appends a message to the room
// POST /api/v1/chat-rooms/:id/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_user_context"})
		return
	}

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "id must be a valid uuid",
		})
		return
	}

	var payload models.SendMessagePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondValidationError(c, err)
		return
	}

	message, err := h.chatService.SendMessage(roomID, userCtx.UserID, userCtx.Role, payload.Message)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}
