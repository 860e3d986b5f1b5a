package database

import (
	"database/sql"
	"fmt"

	"github.com/baobao/ride-backend/internal/models"
	"github.com/google/uuid"
)

// DriverProfileRepository handles database operations for driver_profiles
type DriverProfileRepository struct {
	db DB
}

// NewDriverProfileRepository creates a new DriverProfileRepository
func NewDriverProfileRepository(db DB) *DriverProfileRepository {
	return &DriverProfileRepository{db: db}
}

// CreateEmpty inserts a bare driver_profiles row for a new driver signup.
// Vehicle attributes and position are filled in later.
func (r *DriverProfileRepository) CreateEmpty(driverID uuid.UUID) error {
	query := `
		INSERT INTO driver_profiles (id, is_available, is_active, updated_at)
		VALUES ($1, false, true, NOW())
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.Exec(query, driverID)
	if err != nil {
		return fmt.Errorf("failed to create driver profile: %w", err)
	}
	return nil
}

// GetByID retrieves a driver profile by id
func (r *DriverProfileRepository) GetByID(driverID uuid.UUID) (*models.DriverProfile, error) {
	query := `
		SELECT id, vehicle_type, vehicle_color, license_number, vehicle_year,
			   latitude, longitude, is_available, is_active,
			   last_location_update, updated_at
		FROM driver_profiles
		WHERE id = $1
	`

	dp := &models.DriverProfile{}
	var vehicleType, vehicleColor, licenseNumber sql.NullString
	var vehicleYear sql.NullInt64
	var latitude, longitude sql.NullFloat64
	var lastLocationUpdate sql.NullTime

	err := r.db.QueryRow(query, driverID).Scan(
		&dp.ID, &vehicleType, &vehicleColor, &licenseNumber, &vehicleYear,
		&latitude, &longitude, &dp.IsAvailable, &dp.IsActive,
		&lastLocationUpdate, &dp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch driver profile: %w", err)
	}

	if vehicleType.Valid {
		dp.VehicleType = &vehicleType.String
	}
	if vehicleColor.Valid {
		dp.VehicleColor = &vehicleColor.String
	}
	if licenseNumber.Valid {
		dp.LicenseNumber = &licenseNumber.String
	}
	if vehicleYear.Valid {
		year := int(vehicleYear.Int64)
		dp.VehicleYear = &year
	}
	if latitude.Valid {
		dp.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		dp.Longitude = &longitude.Float64
	}
	if lastLocationUpdate.Valid {
		dp.LastLocationUpdate = &lastLocationUpdate.Time
	}

	return dp, nil
}

// UpsertVehicle writes the vehicle attributes, creating the row if absent
func (r *DriverProfileRepository) UpsertVehicle(driverID uuid.UUID, vehicleType, vehicleColor, licenseNumber string, vehicleYear int) error {
	query := `
		INSERT INTO driver_profiles (
			id, vehicle_type, vehicle_color, license_number, vehicle_year,
			is_available, is_active, updated_at
		) VALUES ($1, $2, $3, $4, $5, false, true, NOW())
		ON CONFLICT (id) DO UPDATE
		SET vehicle_type = EXCLUDED.vehicle_type,
			vehicle_color = EXCLUDED.vehicle_color,
			license_number = EXCLUDED.license_number,
			vehicle_year = EXCLUDED.vehicle_year,
			updated_at = NOW()
	`

	_, err := r.db.Exec(query, driverID, vehicleType, vehicleColor, licenseNumber, vehicleYear)
	if err != nil {
		return fmt.Errorf("failed to upsert vehicle details: %w", err)
	}
	return nil
}

// SetAvailability flips the is_available flag. Overwrite semantics: there is
// no winner to arbitrate, last write observed by the store is acceptable.
func (r *DriverProfileRepository) SetAvailability(driverID uuid.UUID, available bool) error {
	query := `
		UPDATE driver_profiles
		SET is_available = $2, updated_at = NOW()
		WHERE id = $1 AND is_active = true
	`

	result, err := r.db.Exec(query, driverID, available)
	if err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	return nil
}

// UpdateLocation overwrites the driver's position and stamps
// last_location_update. No contention control by design (last write wins).
func (r *DriverProfileRepository) UpdateLocation(driverID uuid.UUID, latitude, longitude float64) error {
	query := `
		UPDATE driver_profiles
		SET latitude = $2, longitude = $3, last_location_update = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, driverID, latitude, longitude)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}

	return nil
}

// FindNearby returns available drivers inside a latitude/longitude bounding
// box, most recently updated position first. The box is a flat-earth
// approximation (degree delta = radius_km / 50) carried over from the
// mobile client; it overshoots a true radius, which is acceptable at city
// scale.
func (r *DriverProfileRepository) FindNearby(latitude, longitude, radiusKm float64) ([]models.NearbyDriver, error) {
	degreeRange := radiusKm / 50

	query := `
		SELECT dp.id, p.full_name, p.avatar_url,
			   dp.vehicle_type, dp.vehicle_color, dp.vehicle_year, dp.license_number,
			   dp.latitude, dp.longitude, dp.is_available, dp.last_location_update
		FROM driver_profiles dp
		JOIN profiles p ON p.id = dp.id
		WHERE dp.is_available = true
		  AND dp.is_active = true
		  AND dp.latitude IS NOT NULL
		  AND dp.longitude IS NOT NULL
		  AND dp.latitude BETWEEN $1 AND $2
		  AND dp.longitude BETWEEN $3 AND $4
		ORDER BY dp.last_location_update DESC NULLS LAST
	`

	rows, err := r.db.Query(
		query,
		latitude-degreeRange, latitude+degreeRange,
		longitude-degreeRange, longitude+degreeRange,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby drivers: %w", err)
	}
	defer rows.Close()

	drivers := []models.NearbyDriver{}
	for rows.Next() {
		var d models.NearbyDriver
		var avatarURL, vehicleType, vehicleColor, licenseNumber sql.NullString
		var vehicleYear sql.NullInt64
		var lastLocationUpdate sql.NullTime

		err := rows.Scan(
			&d.ID, &d.FullName, &avatarURL,
			&vehicleType, &vehicleColor, &vehicleYear, &licenseNumber,
			&d.Latitude, &d.Longitude, &d.IsAvailable, &lastLocationUpdate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nearby driver: %w", err)
		}

		if avatarURL.Valid {
			d.AvatarURL = &avatarURL.String
		}
		if vehicleType.Valid {
			d.VehicleType = &vehicleType.String
		}
		if vehicleColor.Valid {
			d.VehicleColor = &vehicleColor.String
		}
		if licenseNumber.Valid {
			d.LicenseNumber = &licenseNumber.String
		}
		if vehicleYear.Valid {
			year := int(vehicleYear.Int64)
			d.VehicleYear = &year
		}
		if lastLocationUpdate.Valid {
			d.LastLocationUpdate = &lastLocationUpdate.Time
		}

		drivers = append(drivers, d)
	}

	return drivers, rows.Err()
}
