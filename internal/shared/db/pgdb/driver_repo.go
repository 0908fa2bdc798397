package pgdb

import (
	"context"
	"errors"
	"fmt"

	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const driverColumns = `
	id::text,
	username,
	password_hash,
	bus_number,
	is_tracking,
	COALESCE(route_id::text, ''),
	created_at`

type DriverRepo struct {
	pool *pgxpool.Pool
}

func NewDriverRepo(pool *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{pool: pool}
}

func (dr *DriverRepo) Resolve(ctx context.Context, id string) (models.Driver, error) {
	if !models.ValidID(id) {
		return models.Driver{}, fmt.Errorf("driver %q: %w", id, myerrors.ErrNotFound)
	}
	q := `SELECT` + driverColumns + ` FROM drivers WHERE id = $1`
	return dr.getOne(ctx, q, id)
}

func (dr *DriverRepo) ResolveByUsername(ctx context.Context, username string) (models.Driver, error) {
	q := `SELECT` + driverColumns + ` FROM drivers WHERE username = $1`
	return dr.getOne(ctx, q, username)
}

func (dr *DriverRepo) ResolveByBusNumber(ctx context.Context, busNumber string) (models.Driver, error) {
	q := `SELECT` + driverColumns + ` FROM drivers WHERE bus_number = $1 ORDER BY created_at, id LIMIT 1`
	return dr.getOne(ctx, q, busNumber)
}

func (dr *DriverRepo) SetTracking(ctx context.Context, id string, active bool) error {
	if !models.ValidID(id) {
		return fmt.Errorf("driver %q: %w", id, myerrors.ErrNotFound)
	}
	tag, err := dr.pool.Exec(ctx, `UPDATE drivers SET is_tracking = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update tracking flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("driver %q: %w", id, myerrors.ErrNotFound)
	}
	return nil
}

// Upsert inserts or updates a driver keyed by username.
func (dr *DriverRepo) Upsert(ctx context.Context, d models.Driver) (models.Driver, error) {
	if d.ID == "" {
		d.ID = models.NewID()
	}
	q := `
		INSERT INTO drivers (id, username, password_hash, bus_number, route_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid)
		ON CONFLICT (username) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			bus_number = EXCLUDED.bus_number,
			route_id = EXCLUDED.route_id
		RETURNING` + driverColumns

	out, err := scanDriver(dr.pool.QueryRow(ctx, q, d.ID, d.Username, d.PasswordHash, d.BusNumber, d.RouteID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Driver{}, fmt.Errorf("route %q: %w", d.RouteID, myerrors.ErrNotFound)
		}
		return models.Driver{}, fmt.Errorf("upsert driver: %w", err)
	}
	return out, nil
}

func (dr *DriverRepo) getOne(ctx context.Context, q string, arg any) (models.Driver, error) {
	d, err := scanDriver(dr.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Driver{}, fmt.Errorf("driver %v: %w", arg, myerrors.ErrNotFound)
		}
		return models.Driver{}, fmt.Errorf("query driver: %w", err)
	}
	return d, nil
}

func scanDriver(row pgx.Row) (models.Driver, error) {
	var d models.Driver
	err := row.Scan(
		&d.ID,
		&d.Username,
		&d.PasswordHash,
		&d.BusNumber,
		&d.IsTracking,
		&d.RouteID,
		&d.CreatedAt,
	)
	return d, err
}
