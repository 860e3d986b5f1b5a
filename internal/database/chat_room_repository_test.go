package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateChatRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewChatRoomRepository(mockDB)

	roomColumns := []string{"id", "driver_id", "rider_id", "status", "created_at", "updated_at"}

	t.Run("Returns Existing Room", func(t *testing.T) {
		driverID, riderID := uuid.New(), uuid.New()
		roomID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM chat_rooms`).
			WithArgs(driverID, riderID).
			WillReturnRows(sqlmock.NewRows(roomColumns).
				AddRow(roomID.String(), driverID.String(), riderID.String(), "Active", now, now))

		room, err := repo.GetOrCreate(driverID, riderID)
		require.NoError(t, err)
		assert.Equal(t, roomID, room.ID)
		assert.Equal(t, models.ChatRoomActive, room.Status)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("Creates When Absent", func(t *testing.T) {
		driverID, riderID := uuid.New(), uuid.New()
		roomID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM chat_rooms`).
			WithArgs(driverID, riderID).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectQuery(`INSERT INTO chat_rooms`).
			WithArgs(sqlmock.AnyArg(), driverID, riderID).
			WillReturnRows(sqlmock.NewRows(roomColumns).
				AddRow(roomID.String(), driverID.String(), riderID.String(), "Active", now, now))

		room, err := repo.GetOrCreate(driverID, riderID)
		require.NoError(t, err)
		assert.Equal(t, roomID, room.ID)
		assert.Equal(t, driverID, room.DriverID)
		assert.Equal(t, riderID, room.RiderID)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("Lost Creation Race Falls Back To Select", func(t *testing.T) {
		driverID, riderID := uuid.New(), uuid.New()
		roomID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM chat_rooms`).
			WithArgs(driverID, riderID).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectQuery(`INSERT INTO chat_rooms`).
			WithArgs(sqlmock.AnyArg(), driverID, riderID).
			WillReturnError(fmt.Errorf("duplicate key value violates unique constraint"))

		mock.ExpectQuery(`SELECT (.+) FROM chat_rooms`).
			WithArgs(driverID, riderID).
			WillReturnRows(sqlmock.NewRows(roomColumns).
				AddRow(roomID.String(), driverID.String(), riderID.String(), "Active", now, now))

		room, err := repo.GetOrCreate(driverID, riderID)
		require.NoError(t, err)
		assert.Equal(t, roomID, room.ID)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

func TestTouchChatRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewChatRoomRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		roomID := uuid.New()

		mock.ExpectExec(`UPDATE chat_rooms`).
			WithArgs(roomID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Touch(roomID)
		require.NoError(t, err)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("Database Error", func(t *testing.T) {
		roomID := uuid.New()

		mock.ExpectExec(`UPDATE chat_rooms`).
			WithArgs(roomID).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.Touch(roomID)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to touch chat room")

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})
}

func TestListChatRoomsForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewChatRoomRepository(mockDB)

	columns := []string{
		"id", "driver_id", "rider_id", "status", "created_at", "updated_at",
		"full_name", "avatar_url", "message", "sent_at", "sender_type",
	}

	t.Run("Rider View With Preview", func(t *testing.T) {
		riderID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM chat_rooms cr`).
			WithArgs(riderID).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(uuid.NewString(), uuid.NewString(), riderID.String(), "Active", now, now,
					"Nadeesha Silva", nil, "On my way", now, "driver").
				AddRow(uuid.NewString(), uuid.NewString(), riderID.String(), "Active", now.Add(-time.Hour), now.Add(-time.Hour),
					"Ruwan Jayasinghe", nil, nil, nil, nil))

		summaries, err := repo.ListForUser(riderID, models.RoleRider)
		require.NoError(t, err)
		require.Len(t, summaries, 2)

		assert.Equal(t, "Nadeesha Silva", summaries[0].CounterpartyName)
		require.NotNil(t, summaries[0].LatestMessage)
		assert.Equal(t, "On my way", *summaries[0].LatestMessage)
		require.NotNil(t, summaries[0].LatestSenderType)
		assert.Equal(t, models.SenderDriver, *summaries[0].LatestSenderType)

		// Room with no messages yet has no preview
		assert.Nil(t, summaries[1].LatestMessage)
		assert.Nil(t, summaries[1].LatestMessageAt)

		err = mock.ExpectationsWereMet()
		assert.NoError(t, err)
	})

	t.Run("Unknown Role", func(t *testing.T) {
		summaries, err := repo.ListForUser(uuid.New(), models.Role("admin"))
		assert.Error(t, err)
		assert.Nil(t, summaries)
	})
}
