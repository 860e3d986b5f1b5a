package optimistic

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	t.Run("Commit Success Keeps Tentative Value", func(t *testing.T) {
		available := false

		err := Apply(&available, true, func() error { return nil })
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("Commit Failure Reverts", func(t *testing.T) {
		available := false

		err := Apply(&available, true, func() error {
			return fmt.Errorf("write failed")
		})
		assert.Error(t, err)
		assert.False(t, available)
	})

	t.Run("Commit Sees Tentative Value", func(t *testing.T) {
		available := false
		var seen bool

		err := Apply(&available, true, func() error {
			seen = available
			return nil
		})
		require.NoError(t, err)
		assert.True(t, seen)
	})
}

func TestTrackerStageConfirm(t *testing.T) {
	tracker := NewTracker[string]()

	tempID := tracker.Stage("hello")
	assert.True(t, strings.HasPrefix(tempID, TempIDPrefix))

	entry, ok := tracker.Get(tempID)
	require.True(t, ok)
	assert.Equal(t, StatusPending, entry.Status)
	assert.Equal(t, "hello", entry.Value)

	// Confirm replaces the value in place; there is never a duplicate
	ok = tracker.Confirm(tempID, "hello (canonical)")
	require.True(t, ok)

	all := tracker.All()
	require.Len(t, all, 1)
	assert.Equal(t, StatusConfirmed, all[0].Status)
	assert.Equal(t, "hello (canonical)", all[0].Value)
}

func TestTrackerFailRetryDiscard(t *testing.T) {
	tracker := NewTracker[string]()
	tempID := tracker.Stage("undelivered")

	require.True(t, tracker.Fail(tempID))
	entry, ok := tracker.Get(tempID)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, entry.Status)

	// Retry only applies to failed entries
	value, ok := tracker.Retry(tempID)
	require.True(t, ok)
	assert.Equal(t, "undelivered", value)

	entry, _ = tracker.Get(tempID)
	assert.Equal(t, StatusPending, entry.Status)

	_, ok = tracker.Retry(tempID)
	assert.False(t, ok, "retry of a pending entry is a no-op")

	require.True(t, tracker.Fail(tempID))
	require.True(t, tracker.Discard(tempID))

	_, ok = tracker.Get(tempID)
	assert.False(t, ok)
	assert.Empty(t, tracker.All())
}

func TestTrackerUnknownTempID(t *testing.T) {
	tracker := NewTracker[int]()

	assert.False(t, tracker.Confirm("optimistic-missing", 1))
	assert.False(t, tracker.Fail("optimistic-missing"))
	assert.False(t, tracker.Discard("optimistic-missing"))
	_, ok := tracker.Retry("optimistic-missing")
	assert.False(t, ok)
}

func TestTrackerPreservesStagingOrder(t *testing.T) {
	tracker := NewTracker[int]()

	first := tracker.Stage(1)
	second := tracker.Stage(2)
	third := tracker.Stage(3)

	tracker.Confirm(second, 20)
	tracker.Fail(third)

	all := tracker.All()
	require.Len(t, all, 3)
	assert.Equal(t, first, all[0].TempID)
	assert.Equal(t, 20, all[1].Value)
	assert.Equal(t, StatusFailed, all[2].Status)
}
