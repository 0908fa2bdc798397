package sqlitedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"
)

const driverColumns = `id, username, password_hash, bus_number, is_tracking, COALESCE(route_id, ''), created_at`

type DriverRepo struct {
	db *sql.DB
}

func NewDriverRepo(db *sql.DB) *DriverRepo {
	return &DriverRepo{db: db}
}

func (dr *DriverRepo) Resolve(ctx context.Context, id string) (models.Driver, error) {
	return dr.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = ?`, id)
}

func (dr *DriverRepo) ResolveByUsername(ctx context.Context, username string) (models.Driver, error) {
	return dr.getOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE username = ?`, username)
}

func (dr *DriverRepo) ResolveByBusNumber(ctx context.Context, busNumber string) (models.Driver, error) {
	q := `SELECT ` + driverColumns + ` FROM drivers WHERE bus_number = ? ORDER BY created_at, id LIMIT 1`
	return dr.getOne(ctx, q, busNumber)
}

func (dr *DriverRepo) SetTracking(ctx context.Context, id string, active bool) error {
	res, err := dr.db.ExecContext(ctx, `UPDATE drivers SET is_tracking = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("update tracking flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tracking flag: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("driver %q: %w", id, myerrors.ErrNotFound)
	}
	return nil
}

func (dr *DriverRepo) Upsert(ctx context.Context, d models.Driver) (models.Driver, error) {
	if d.ID == "" {
		d.ID = models.NewID()
	}
	q := `
		INSERT INTO drivers (id, username, password_hash, bus_number, route_id, created_at)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), ?)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = excluded.password_hash,
			bus_number = excluded.bus_number,
			route_id = excluded.route_id
		RETURNING ` + driverColumns

	row := dr.db.QueryRowContext(ctx, q, d.ID, d.Username, d.PasswordHash, d.BusNumber, d.RouteID, toNanos(time.Now()))
	out, err := scanDriver(row)
	if err != nil {
		return models.Driver{}, fmt.Errorf("upsert driver: %w", err)
	}
	return out, nil
}

func (dr *DriverRepo) getOne(ctx context.Context, q string, arg any) (models.Driver, error) {
	d, err := scanDriver(dr.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Driver{}, fmt.Errorf("driver %v: %w", arg, myerrors.ErrNotFound)
		}
		return models.Driver{}, fmt.Errorf("query driver: %w", err)
	}
	return d, nil
}

func scanDriver(row *sql.Row) (models.Driver, error) {
	var (
		d       models.Driver
		created int64
	)
	err := row.Scan(&d.ID, &d.Username, &d.PasswordHash, &d.BusNumber, &d.IsTracking, &d.RouteID, &created)
	d.CreatedAt = fromNanos(created)
	return d, err
}

type RouteRepo struct {
	db *sql.DB
}

func NewRouteRepo(db *sql.DB) *RouteRepo {
	return &RouteRepo{db: db}
}

func (rr *RouteRepo) Resolve(ctx context.Context, id string) (models.Route, error) {
	return rr.getOne(ctx, `SELECT id, bus_number, route_name, stops FROM routes WHERE id = ?`, id)
}

func (rr *RouteRepo) ResolveByBusNumber(ctx context.Context, busNumber string) (models.Route, error) {
	return rr.getOne(ctx, `SELECT id, bus_number, route_name, stops FROM routes WHERE bus_number = ?`, busNumber)
}

func (rr *RouteRepo) Upsert(ctx context.Context, r models.Route) (models.Route, error) {
	if r.ID == "" {
		r.ID = models.NewID()
	}
	if r.Stops == nil {
		r.Stops = []models.Stop{}
	}
	stops, err := json.Marshal(r.Stops)
	if err != nil {
		return models.Route{}, fmt.Errorf("marshal stops: %w", err)
	}
	q := `
		INSERT INTO routes (id, bus_number, route_name, stops)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (bus_number) DO UPDATE SET
			route_name = excluded.route_name,
			stops = excluded.stops
		RETURNING id, bus_number, route_name, stops`

	out, err := scanRoute(rr.db.QueryRowContext(ctx, q, r.ID, r.BusNumber, r.RouteName, string(stops)))
	if err != nil {
		return models.Route{}, fmt.Errorf("upsert route: %w", err)
	}
	return out, nil
}

func (rr *RouteRepo) getOne(ctx context.Context, q string, arg any) (models.Route, error) {
	r, err := scanRoute(rr.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Route{}, fmt.Errorf("route %v: %w", arg, myerrors.ErrNotFound)
		}
		return models.Route{}, fmt.Errorf("query route: %w", err)
	}
	return r, nil
}

func scanRoute(row *sql.Row) (models.Route, error) {
	var (
		r     models.Route
		stops string
	)
	if err := row.Scan(&r.ID, &r.BusNumber, &r.RouteName, &stops); err != nil {
		return models.Route{}, err
	}
	if err := json.Unmarshal([]byte(stops), &r.Stops); err != nil {
		return models.Route{}, fmt.Errorf("decode stops: %w", err)
	}
	if r.Stops == nil {
		r.Stops = []models.Stop{}
	}
	return r, nil
}

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

// InsertIfTracking writes the sample only while the owning driver is
// tracking; the check and the insert are a single statement.
func (lr *LocationRepo) InsertIfTracking(ctx context.Context, s models.LocationSample) error {
	q := `
		INSERT INTO locations (id, driver_id, latitude, longitude, geohash, recorded_at)
		SELECT ?, d.id, ?, ?, ?, ?
		FROM drivers d
		WHERE d.id = ? AND d.is_tracking = 1`

	res, err := lr.db.ExecContext(ctx, q, s.ID, s.Latitude, s.Longitude, s.Geohash, toNanos(s.Timestamp), s.DriverID)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("driver %q: %w", s.DriverID, myerrors.ErrInvalidState)
	}
	return nil
}

func (lr *LocationRepo) Latest(ctx context.Context, driverID string) (models.LocationSample, error) {
	q := `
		SELECT id, driver_id, latitude, longitude, geohash, recorded_at
		FROM locations
		WHERE driver_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`

	var (
		s        models.LocationSample
		recorded int64
	)
	err := lr.db.QueryRowContext(ctx, q, driverID).Scan(&s.ID, &s.DriverID, &s.Latitude, &s.Longitude, &s.Geohash, &recorded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.LocationSample{}, fmt.Errorf("locations of %q: %w", driverID, myerrors.ErrNotFound)
		}
		return models.LocationSample{}, fmt.Errorf("query latest location: %w", err)
	}
	s.Timestamp = fromNanos(recorded)
	return s, nil
}

func (lr *LocationRepo) CountForDriver(ctx context.Context, driverID string) (int, error) {
	var n int
	if err := lr.db.QueryRowContext(ctx, `SELECT count(*) FROM locations WHERE driver_id = ?`, driverID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count locations: %w", err)
	}
	return n, nil
}
