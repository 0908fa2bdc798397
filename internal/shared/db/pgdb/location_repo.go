package pgdb

import (
	"context"
	"errors"
	"fmt"

	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LocationRepo struct {
	pool *pgxpool.Pool
}

func NewLocationRepo(pool *pgxpool.Pool) *LocationRepo {
	return &LocationRepo{pool: pool}
}

// InsertIfTracking writes the sample only while the owning driver is
// tracking. The flag check and the insert run as one statement, and the
// driver row is share-locked so a concurrent stop waits for it.
func (lr *LocationRepo) InsertIfTracking(ctx context.Context, s models.LocationSample) error {
	q := `
		INSERT INTO locations (id, driver_id, latitude, longitude, geohash, recorded_at)
		SELECT $1::uuid, d.id, $3::double precision, $4::double precision, $5::text, $6::timestamptz
		FROM drivers d
		WHERE d.id = $2 AND d.is_tracking
		FOR SHARE OF d`

	tag, err := lr.pool.Exec(ctx, q, s.ID, s.DriverID, s.Latitude, s.Longitude, s.Geohash, s.Timestamp)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("driver %q: %w", s.DriverID, myerrors.ErrInvalidState)
	}
	return nil
}

func (lr *LocationRepo) Latest(ctx context.Context, driverID string) (models.LocationSample, error) {
	if !models.ValidID(driverID) {
		return models.LocationSample{}, fmt.Errorf("locations of %q: %w", driverID, myerrors.ErrNotFound)
	}
	q := `
		SELECT id::text, driver_id::text, latitude, longitude, geohash, recorded_at
		FROM locations
		WHERE driver_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`

	var s models.LocationSample
	err := lr.pool.QueryRow(ctx, q, driverID).Scan(
		&s.ID,
		&s.DriverID,
		&s.Latitude,
		&s.Longitude,
		&s.Geohash,
		&s.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.LocationSample{}, fmt.Errorf("locations of %q: %w", driverID, myerrors.ErrNotFound)
		}
		return models.LocationSample{}, fmt.Errorf("query latest location: %w", err)
	}
	s.Timestamp = s.Timestamp.UTC()
	return s, nil
}

func (lr *LocationRepo) CountForDriver(ctx context.Context, driverID string) (int, error) {
	var n int
	if err := lr.pool.QueryRow(ctx, `SELECT count(*) FROM locations WHERE driver_id = $1`, driverID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	return n, nil
}
