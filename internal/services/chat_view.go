package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/pkg/optimistic"
)

// ChatMessageItem is one row of a reconciled chat view. Pending and failed
// items carry the optimistic temp id; confirmed items carry the canonical
// message id.
type ChatMessageItem struct {
	TempID  string            `json:"temp_id,omitempty"`
	Status  optimistic.Status `json:"status"`
	Message models.Message    `json:"message"`
}

// ChatView merges the confirmed history of one chat room with locally
// staged messages that have not been acknowledged by the store yet. The
// merged ordering is sent_at then seq; a pending message that shares a
// sent_at with a confirmed one sorts after it, so confirmed history never
// jumps around as acks arrive.
type ChatView struct {
	mu        sync.Mutex
	roomID    uuid.UUID
	confirmed []models.Message
	staged    *optimistic.Tracker[models.Message]
}

func NewChatView(roomID uuid.UUID) *ChatView {
	return &ChatView{
		roomID: roomID,
		staged: optimistic.NewTracker[models.Message](),
	}
}

// Load replaces the confirmed history, typically from a fresh fetch.
// Unresolved staged messages survive a reload; confirmed ones are dropped
// because their canonical rows now arrive with the history.
func (v *ChatView) Load(messages []models.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.confirmed = make([]models.Message, len(messages))
	copy(v.confirmed, messages)
	for _, e := range v.staged.All() {
		if e.Status == optimistic.StatusConfirmed {
			v.staged.Discard(e.TempID)
		}
	}
}

// Stage adds a not-yet-acknowledged outgoing message and returns its temp
// id. The message appears in the view immediately.
func (v *ChatView) Stage(senderID uuid.UUID, senderType models.SenderType, text string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	sid := senderID
	return v.staged.Stage(models.Message{
		ChatRoomID: v.roomID,
		SenderID:   &sid,
		SenderType: senderType,
		Message:    text,
		SentAt:     time.Now(),
	})
}

// Confirm resolves a staged message with its canonical store row. The entry
// keeps its temp id until the next Load replaces it with fetched history.
func (v *ChatView) Confirm(tempID string, canonical models.Message) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.staged.Confirm(tempID, canonical)
}

// Fail marks a staged message as failed. It stays visible so the user can
// retry or discard it.
func (v *ChatView) Fail(tempID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.staged.Fail(tempID)
}

// Retry moves a failed message back to pending and returns its text for
// resending.
func (v *ChatView) Retry(tempID string) (models.Message, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.staged.Retry(tempID)
}

// Discard drops a staged message entirely.
func (v *ChatView) Discard(tempID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.staged.Discard(tempID)
}

// Items returns the reconciled view: confirmed history merged with staged
// messages in deterministic order.
func (v *ChatView) Items() []ChatMessageItem {
	v.mu.Lock()
	defer v.mu.Unlock()

	items := make([]ChatMessageItem, 0, len(v.confirmed)+8)
	for _, m := range v.confirmed {
		items = append(items, ChatMessageItem{Status: optimistic.StatusConfirmed, Message: m})
	}
	for _, e := range v.staged.All() {
		items = append(items, ChatMessageItem{TempID: e.TempID, Status: e.Status, Message: e.Value})
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Message.SentAt.Equal(b.Message.SentAt) {
			return a.Message.SentAt.Before(b.Message.SentAt)
		}
		aConfirmed := a.Status == optimistic.StatusConfirmed
		bConfirmed := b.Status == optimistic.StatusConfirmed
		if aConfirmed && bConfirmed {
			return a.Message.Seq < b.Message.Seq
		}
		// Confirmed rows win sent_at ties against staged ones.
		return aConfirmed && !bConfirmed
	})

	return items
}
