package services

import (
	"database/sql"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baobao/ride-backend/internal/database"
	"github.com/baobao/ride-backend/internal/models"
)

// mockDatabase adapts a sqlmock connection to the database.DB interface.
// Get and Select are not used by the repositories under test.
type mockDatabase struct {
	db *sql.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in mock")
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in mock")
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) Ping() error  { return m.db.Ping() }
func (m *mockDatabase) Close() error { return m.db.Close() }

func newMockDatabase(t *testing.T) (*mockDatabase, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &mockDatabase{db: db}, mock
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newDispatchService(db database.DB) *DispatchService {
	return NewDispatchService(
		database.NewRideRequestRepository(db),
		database.NewRideRepository(db),
		database.NewChatRoomRepository(db),
		database.NewMessageRepository(db),
		testLogger(),
	)
}

func requestColumns() []string {
	return []string{
		"id", "rider_id", "driver_id", "pickup_location", "destination_location",
		"pickup_latitude", "pickup_longitude", "destination_latitude", "destination_longitude",
		"status", "created_at", "updated_at",
	}
}

func requestRow(requestID, riderID, driverID uuid.UUID, status models.RideRequestStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(requestColumns()).AddRow(
		requestID.String(), riderID.String(), driverID.String(),
		"12 Main St", "34 Harbor Rd", 6.9271, 79.8612, 6.9344, 79.8500,
		string(status), now, now,
	)
}

func roomColumns() []string {
	return []string{"id", "driver_id", "rider_id", "status", "created_at", "updated_at"}
}

func roomRow(roomID, driverID, riderID uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(roomColumns()).AddRow(
		roomID.String(), driverID.String(), riderID.String(), "Active", now, now,
	)
}

func rideColumns() []string {
	return []string{
		"id", "request_id", "driver_id", "rider_id", "chat_room_id",
		"pickup_location", "destination_location",
		"pickup_latitude", "pickup_longitude",
		"destination_latitude", "destination_longitude",
		"status", "accepted_at", "started_at", "completed_at", "cancelled_at",
		"created_at",
	}
}

func rideRow(requestID, riderID, driverID, roomID uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(rideColumns()).AddRow(
		uuid.NewString(), requestID.String(), driverID.String(), riderID.String(), roomID.String(),
		"12 Main St", "34 Harbor Rd", 6.9271, 79.8612, 6.9344, 79.8500,
		"accepted", now, nil, nil, nil, now,
	)
}

func TestRequestRide(t *testing.T) {
	riderID := uuid.New()
	driverID := uuid.New()

	payload := &models.CreateRideRequestPayload{
		DriverID:             driverID,
		PickupLocation:       "12 Main St",
		DestinationLocation:  "34 Harbor Rd",
		PickupLatitude:       6.9271,
		PickupLongitude:      79.8612,
		DestinationLatitude:  6.9344,
		DestinationLongitude: 79.8500,
	}

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`SELECT COUNT\(\*\)`).
			WithArgs(riderID, driverID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO request_ride`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(time.Now(), time.Now()))

		request, err := service.RequestRide(riderID, payload)

		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusPending, request.Status)
		assert.Equal(t, riderID, request.RiderID)
		assert.Equal(t, driverID, request.DriverID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Self Request Rejected", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		_, err := service.RequestRide(driverID, payload)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Pending Rejected", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`SELECT COUNT\(\*\)`).
			WithArgs(riderID, driverID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		_, err := service.RequestRide(riderID, payload)

		assert.ErrorIs(t, err, models.ErrDuplicateRequest)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAcceptRequest(t *testing.T) {
	requestID := uuid.New()
	riderID := uuid.New()
	driverID := uuid.New()
	roomID := uuid.New()

	t.Run("Win Provisions Room Ride And Message", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, riderID, driverID, models.RequestStatusPending))
		mock.ExpectExec(`UPDATE request_ride\s+SET status = 'Accepted'`).
			WithArgs(requestID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM chat_rooms\s+WHERE driver_id`).
			WithArgs(driverID, riderID).
			WillReturnRows(roomRow(roomID, driverID, riderID))
		mock.ExpectQuery(`INSERT INTO rides`).
			WillReturnRows(sqlmock.NewRows([]string{"accepted_at", "created_at"}).
				AddRow(time.Now(), time.Now()))
		mock.ExpectQuery(`INSERT INTO messages`).
			WillReturnRows(sqlmock.NewRows([]string{"sent_at", "seq"}).AddRow(time.Now(), int64(1)))

		result, err := service.AcceptRequest(driverID, requestID)

		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusAccepted, result.Request.Status)
		assert.Equal(t, models.RideStatusAccepted, result.Ride.Status)
		assert.Equal(t, requestID, result.Ride.RequestID)
		assert.Equal(t, roomID, result.Ride.ChatRoomID)
		assert.Equal(t, roomID, result.ChatRoom.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ride Already Provisioned By The Reconciler", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, riderID, driverID, models.RequestStatusPending))
		mock.ExpectExec(`UPDATE request_ride\s+SET status = 'Accepted'`).
			WithArgs(requestID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM chat_rooms\s+WHERE driver_id`).
			WithArgs(driverID, riderID).
			WillReturnRows(roomRow(roomID, driverID, riderID))
		// The insert finds an existing ride for the request and does nothing;
		// the accept path then loads that ride instead of posting a second
		// confirmation message.
		mock.ExpectQuery(`INSERT INTO rides`).
			WillReturnRows(sqlmock.NewRows([]string{"accepted_at", "created_at"}))
		mock.ExpectQuery(`FROM rides\s+WHERE request_id`).
			WithArgs(requestID).
			WillReturnRows(rideRow(requestID, riderID, driverID, roomID))

		result, err := service.AcceptRequest(driverID, requestID)

		require.NoError(t, err)
		assert.Equal(t, requestID, result.Ride.RequestID)
		assert.Equal(t, roomID, result.Ride.ChatRoomID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Resolved Request", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, riderID, driverID, models.RequestStatusAccepted))

		_, err := service.AcceptRequest(driverID, requestID)

		assert.ErrorIs(t, err, models.ErrRequestUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Lost The Race", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, riderID, driverID, models.RequestStatusPending))
		mock.ExpectExec(`UPDATE request_ride\s+SET status = 'Accepted'`).
			WithArgs(requestID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := service.AcceptRequest(driverID, requestID)

		assert.ErrorIs(t, err, models.ErrRequestUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Ride Creation Failure Is A Partial Commit", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, riderID, driverID, models.RequestStatusPending))
		mock.ExpectExec(`UPDATE request_ride\s+SET status = 'Accepted'`).
			WithArgs(requestID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM chat_rooms\s+WHERE driver_id`).
			WithArgs(driverID, riderID).
			WillReturnRows(roomRow(roomID, driverID, riderID))
		mock.ExpectQuery(`INSERT INTO rides`).
			WillReturnError(fmt.Errorf("connection reset"))

		_, err := service.AcceptRequest(driverID, requestID)

		assert.ErrorIs(t, err, models.ErrPartialCommit)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Wrong Driver", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		otherDriver := uuid.New()
		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, riderID, otherDriver, models.RequestStatusPending))

		_, err := service.AcceptRequest(driverID, requestID)

		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeclineRequest(t *testing.T) {
	requestID := uuid.New()
	riderID := uuid.New()
	driverID := uuid.New()

	t.Run("Pending Request Declined", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, riderID, driverID, models.RequestStatusPending))
		mock.ExpectExec(`UPDATE request_ride\s+SET status = 'Cancel'`).
			WithArgs(requestID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := service.DeclineRequest(driverID, requestID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Resolved Is A Silent NoOp", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, riderID, driverID, models.RequestStatusAccepted))
		mock.ExpectExec(`UPDATE request_ride\s+SET status = 'Cancel'`).
			WithArgs(requestID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := service.DeclineRequest(driverID, requestID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Someone Elses Request", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, riderID, uuid.New(), models.RequestStatusPending))

		err := service.DeclineRequest(driverID, requestID)

		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWithdrawRequest(t *testing.T) {
	requestID := uuid.New()
	riderID := uuid.New()
	driverID := uuid.New()

	t.Run("Rider Withdraws Own Request", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, riderID, driverID, models.RequestStatusPending))
		mock.ExpectExec(`UPDATE request_ride\s+SET status = 'Cancel'`).
			WithArgs(requestID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := service.WithdrawRequest(riderID, requestID)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not The Requesting Rider", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newDispatchService(db)

		mock.ExpectQuery(`FROM request_ride\s+WHERE id`).
			WithArgs(requestID).
			WillReturnRows(requestRow(requestID, uuid.New(), driverID, models.RequestStatusPending))

		err := service.WithdrawRequest(riderID, requestID)

		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
