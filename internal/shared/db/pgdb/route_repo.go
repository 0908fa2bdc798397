package pgdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RouteRepo struct {
	pool *pgxpool.Pool
}

func NewRouteRepo(pool *pgxpool.Pool) *RouteRepo {
	return &RouteRepo{pool: pool}
}

func (rr *RouteRepo) Resolve(ctx context.Context, id string) (models.Route, error) {
	if !models.ValidID(id) {
		return models.Route{}, fmt.Errorf("route %q: %w", id, myerrors.ErrNotFound)
	}
	q := `SELECT id::text, bus_number, route_name, stops FROM routes WHERE id = $1`
	return rr.getOne(ctx, q, id)
}

func (rr *RouteRepo) ResolveByBusNumber(ctx context.Context, busNumber string) (models.Route, error) {
	q := `SELECT id::text, bus_number, route_name, stops FROM routes WHERE bus_number = $1`
	return rr.getOne(ctx, q, busNumber)
}

// Upsert inserts or replaces a route keyed by bus number.
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
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bus_number) DO UPDATE SET
			route_name = EXCLUDED.route_name,
			stops = EXCLUDED.stops
		RETURNING id::text, bus_number, route_name, stops`

	out, err := scanRoute(rr.pool.QueryRow(ctx, q, r.ID, r.BusNumber, r.RouteName, stops))
	if err != nil {
		return models.Route{}, fmt.Errorf("upsert route: %w", err)
	}
	return out, nil
}

func (rr *RouteRepo) getOne(ctx context.Context, q string, arg any) (models.Route, error) {
	r, err := scanRoute(rr.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Route{}, fmt.Errorf("route %v: %w", arg, myerrors.ErrNotFound)
		}
		return models.Route{}, fmt.Errorf("query route: %w", err)
	}
	return r, nil
}

func scanRoute(row pgx.Row) (models.Route, error) {
	var (
		r     models.Route
		stops []byte
	)
	if err := row.Scan(&r.ID, &r.BusNumber, &r.RouteName, &stops); err != nil {
		return models.Route{}, err
	}
	if err := json.Unmarshal(stops, &r.Stops); err != nil {
		return models.Route{}, fmt.Errorf("decode stops: %w", err)
	}
	if r.Stops == nil {
		r.Stops = []models.Stop{}
	}
	return r, nil
}
