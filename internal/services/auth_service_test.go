package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/baobao/ride-backend/internal/database"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/pkg/jwt"
)

const (
	testUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"
	testIPAddress = "203.0.113.7"
)

func newAuthService(db database.DB) *AuthService {
	jwtService := jwt.NewService(
		"test-access-secret-at-least-32-chars",
		"test-refresh-secret-at-least-32-chars",
		time.Hour,
		24*time.Hour,
	)
	return NewAuthService(
		database.NewProfileRepository(db),
		database.NewDriverProfileRepository(db),
		database.NewUserSessionRepository(db),
		jwtService,
		bcrypt.MinCost,
		testLogger(),
	)
}

func profileColumns() []string {
	return []string{
		"id", "full_name", "email", "phone_number", "avatar_url", "role",
		"password_hash", "created_at", "updated_at",
	}
}

func sessionColumns() []string {
	return []string{
		"id", "profile_id", "device_type", "device_os", "ip_address",
		"last_activity_at", "is_active", "created_at",
	}
}

func expectSessionRecorded(mock sqlmock.Sqlmock, profileID uuid.UUID) {
	mock.ExpectQuery(`FROM user_sessions\s+WHERE profile_id`).
		WillReturnRows(sqlmock.NewRows(sessionColumns()))
	mock.ExpectQuery(`INSERT INTO user_sessions`).
		WillReturnRows(sqlmock.NewRows(sessionColumns()).AddRow(
			uuid.NewString(), profileID.String(), "mobile", "iPhone OS", testIPAddress,
			time.Now(), true, time.Now(),
		))
}

func hashedPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestSignUp(t *testing.T) {
	t.Run("Rider Signup", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		mock.ExpectQuery(`FROM profiles\s+WHERE email`).
			WithArgs("nimal@example.com").
			WillReturnRows(sqlmock.NewRows(profileColumns()))
		mock.ExpectExec(`INSERT INTO profiles`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectSessionRecorded(mock, uuid.New())

		response, err := service.SignUp(&models.SignUpRequest{
			FullName: "Nimal Silva",
			Email:    "Nimal@Example.com",
			Password: "correct-horse",
			Role:     models.RoleRider,
		}, testUserAgent, testIPAddress)

		require.NoError(t, err)
		assert.NotEmpty(t, response.AccessToken)
		assert.NotEmpty(t, response.RefreshToken)
		assert.Equal(t, "nimal@example.com", response.Profile.Email)
		assert.Equal(t, models.RoleRider, response.Profile.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Driver Signup Creates Driver Profile Row", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		mock.ExpectQuery(`FROM profiles\s+WHERE email`).
			WithArgs("kasun@example.com").
			WillReturnRows(sqlmock.NewRows(profileColumns()))
		mock.ExpectExec(`INSERT INTO profiles`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO driver_profiles`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		expectSessionRecorded(mock, uuid.New())

		response, err := service.SignUp(&models.SignUpRequest{
			FullName: "Kasun Perera",
			Email:    "kasun@example.com",
			Password: "correct-horse",
			Role:     models.RoleDriver,
		}, testUserAgent, testIPAddress)

		require.NoError(t, err)
		assert.Equal(t, models.RoleDriver, response.Profile.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Email", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		existingID := uuid.New()
		mock.ExpectQuery(`FROM profiles\s+WHERE email`).
			WithArgs("nimal@example.com").
			WillReturnRows(sqlmock.NewRows(profileColumns()).AddRow(
				existingID.String(), "Nimal Silva", "nimal@example.com", nil, nil,
				"rider", "x", time.Now(), time.Now(),
			))

		_, err := service.SignUp(&models.SignUpRequest{
			FullName: "Nimal Silva",
			Email:    "nimal@example.com",
			Password: "correct-horse",
			Role:     models.RoleRider,
		}, testUserAgent, testIPAddress)

		assert.ErrorIs(t, err, models.ErrEmailTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Role", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		_, err := service.SignUp(&models.SignUpRequest{
			FullName: "Nimal Silva",
			Email:    "nimal@example.com",
			Password: "correct-horse",
			Role:     "admin",
		}, testUserAgent, testIPAddress)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSignIn(t *testing.T) {
	profileID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		mock.ExpectQuery(`FROM profiles\s+WHERE email`).
			WithArgs("nimal@example.com").
			WillReturnRows(sqlmock.NewRows(profileColumns()).AddRow(
				profileID.String(), "Nimal Silva", "nimal@example.com", nil, nil,
				"rider", hashedPassword(t, "correct-horse"), time.Now(), time.Now(),
			))
		expectSessionRecorded(mock, profileID)

		response, err := service.SignIn(&models.SignInRequest{
			Email:    "nimal@example.com",
			Password: "correct-horse",
		}, testUserAgent, testIPAddress)

		require.NoError(t, err)
		assert.NotEmpty(t, response.AccessToken)
		assert.Equal(t, profileID, response.Profile.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Wrong Password", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		mock.ExpectQuery(`FROM profiles\s+WHERE email`).
			WithArgs("nimal@example.com").
			WillReturnRows(sqlmock.NewRows(profileColumns()).AddRow(
				profileID.String(), "Nimal Silva", "nimal@example.com", nil, nil,
				"rider", hashedPassword(t, "correct-horse"), time.Now(), time.Now(),
			))

		_, err := service.SignIn(&models.SignInRequest{
			Email:    "nimal@example.com",
			Password: "wrong-horse",
		}, testUserAgent, testIPAddress)

		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Email", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		mock.ExpectQuery(`FROM profiles\s+WHERE email`).
			WithArgs("ghost@example.com").
			WillReturnRows(sqlmock.NewRows(profileColumns()))

		_, err := service.SignIn(&models.SignInRequest{
			Email:    "ghost@example.com",
			Password: "whatever",
		}, testUserAgent, testIPAddress)

		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRefresh(t *testing.T) {
	profileID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		refreshToken, err := service.jwtService.GenerateRefreshToken(profileID, "nimal@example.com")
		require.NoError(t, err)

		mock.ExpectQuery(`FROM profiles\s+WHERE id`).
			WithArgs(profileID).
			WillReturnRows(sqlmock.NewRows(profileColumns()).AddRow(
				profileID.String(), "Nimal Silva", "nimal@example.com", nil, nil,
				"rider", "x", time.Now(), time.Now(),
			))

		response, err := service.Refresh(refreshToken)

		require.NoError(t, err)
		assert.NotEmpty(t, response.AccessToken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Access Token Rejected", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		accessToken, err := service.jwtService.GenerateAccessToken(profileID, "nimal@example.com", "rider")
		require.NoError(t, err)

		_, err = service.Refresh(accessToken)

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateProfile(t *testing.T) {
	profileID := uuid.New()
	phone := "+94771234567"

	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		mock.ExpectExec(`UPDATE profiles\s+SET full_name`).
			WithArgs(profileID, "Nimal R. Silva", &phone, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`FROM profiles\s+WHERE id`).
			WithArgs(profileID).
			WillReturnRows(sqlmock.NewRows(profileColumns()).AddRow(
				profileID.String(), "Nimal R. Silva", "nimal@example.com", phone, nil,
				"rider", "x", time.Now(), time.Now(),
			))

		profile, err := service.UpdateProfile(profileID, &models.UpdateProfileRequest{
			FullName:    "Nimal R. Silva",
			PhoneNumber: &phone,
		})

		require.NoError(t, err)
		assert.Equal(t, "Nimal R. Silva", profile.FullName)
		require.NotNil(t, profile.PhoneNumber)
		assert.Equal(t, phone, *profile.PhoneNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Blank Name Rejected", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		service := newAuthService(db)

		_, err := service.UpdateProfile(profileID, &models.UpdateProfileRequest{FullName: "   "})

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
