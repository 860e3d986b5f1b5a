// Package optimistic implements the apply-then-commit discipline used for
// UI-facing state: a tentative value becomes visible immediately, and is
// either kept when the authoritative write succeeds or rolled back when it
// fails.
package optimistic

import (
	"sync"

	"github.com/google/uuid"
)

// Apply flips *local to tentative, runs commit, and restores the previous
// value when commit fails. The commit error is returned unchanged so the
// caller can surface it.
func Apply[T any](local *T, tentative T, commit func() error) error {
	prev := *local
	*local = tentative

	if err := commit(); err != nil {
		*local = prev
		return err
	}

	return nil
}

// Status is the delivery state of a staged entry
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// TempIDPrefix marks ids of entries that have not been confirmed yet
const TempIDPrefix = "optimistic-"

// Entry is a value staged ahead of its authoritative write
type Entry[T any] struct {
	TempID string
	Value  T
	Status Status
}

// Tracker holds staged entries keyed by temp id. A staged entry stays
// Pending until Confirm replaces it with the canonical value or Fail marks
// it for retry. Safe for concurrent use.
type Tracker[T any] struct {
	mu      sync.Mutex
	entries map[string]*Entry[T]
	order   []string
}

// NewTracker creates an empty Tracker
func NewTracker[T any]() *Tracker[T] {
	return &Tracker[T]{entries: make(map[string]*Entry[T])}
}

// Stage records a tentative value and returns its temp id
func (t *Tracker[T]) Stage(value T) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	tempID := TempIDPrefix + uuid.NewString()
	t.entries[tempID] = &Entry[T]{TempID: tempID, Value: value, Status: StatusPending}
	t.order = append(t.order, tempID)
	return tempID
}

// Confirm replaces the staged value with its canonical form, in place.
// Returns false when the temp id is unknown.
func (t *Tracker[T]) Confirm(tempID string, canonical T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[tempID]
	if !ok {
		return false
	}
	entry.Value = canonical
	entry.Status = StatusConfirmed
	return true
}

// Fail marks a staged entry Failed. The entry is kept so the caller can
// offer retry or discard.
func (t *Tracker[T]) Fail(tempID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[tempID]
	if !ok {
		return false
	}
	entry.Status = StatusFailed
	return true
}

// Retry moves a Failed entry back to Pending and returns its value for
// re-submission.
func (t *Tracker[T]) Retry(tempID string) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	entry, ok := t.entries[tempID]
	if !ok || entry.Status != StatusFailed {
		return zero, false
	}
	entry.Status = StatusPending
	return entry.Value, true
}

// Discard removes an entry entirely
func (t *Tracker[T]) Discard(tempID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[tempID]; !ok {
		return false
	}
	delete(t.entries, tempID)
	for i, id := range t.order {
		if id == tempID {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a snapshot of one entry
func (t *Tracker[T]) Get(tempID string) (Entry[T], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[tempID]
	if !ok {
		return Entry[T]{}, false
	}
	return *entry, true
}

// All returns snapshots of every entry in staging order
func (t *Tracker[T]) All() []Entry[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry[T], 0, len(t.order))
	for _, id := range t.order {
		if entry, ok := t.entries[id]; ok {
			out = append(out, *entry)
		}
	}
	return out
}
