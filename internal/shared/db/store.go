// Package db opens the configured store and exposes one repository per
// record type.
package db

import (
	"context"
	"fmt"

	"bustrack/internal/config"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/db/pgdb"
	"bustrack/internal/shared/db/sqlitedb"
	"bustrack/internal/shared/models"
)

type DriverRepository interface {
	Resolve(ctx context.Context, id string) (models.Driver, error)
	ResolveByUsername(ctx context.Context, username string) (models.Driver, error)
	ResolveByBusNumber(ctx context.Context, busNumber string) (models.Driver, error)
	SetTracking(ctx context.Context, id string, active bool) error
	Upsert(ctx context.Context, d models.Driver) (models.Driver, error)
}

type RouteRepository interface {
	Resolve(ctx context.Context, id string) (models.Route, error)
	ResolveByBusNumber(ctx context.Context, busNumber string) (models.Route, error)
	Upsert(ctx context.Context, r models.Route) (models.Route, error)
}

type LocationRepository interface {
	InsertIfTracking(ctx context.Context, s models.LocationSample) error
	Latest(ctx context.Context, driverID string) (models.LocationSample, error)
	CountForDriver(ctx context.Context, driverID string) (int, error)
}

type conn interface {
	IsAlive(ctx context.Context) error
	Close() error
}

type Store struct {
	Drivers   DriverRepository
	Routes    RouteRepository
	Locations LocationRepository
	conn      conn
}

// Open connects to the configured backend and makes sure the schema is in
// place. Callers must not serve traffic until it returns without error.
func Open(ctx context.Context, cfg *config.Config, mylog mylogger.Logger) (*Store, error) {
	switch cfg.Store.Driver {
	case config.StoreSQLite:
		lite, err := sqlitedb.Connect(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := lite.EnsureSchema(ctx); err != nil {
			lite.Close()
			return nil, err
		}
		mylog.Action("store_opened").Info("SQLite store ready", "path", cfg.Store.SQLitePath)
		return &Store{
			Drivers:   sqlitedb.NewDriverRepo(lite.Conn()),
			Routes:    sqlitedb.NewRouteRepo(lite.Conn()),
			Locations: sqlitedb.NewLocationRepo(lite.Conn()),
			conn:      lite,
		}, nil

	case config.StorePostgres:
		pg, err := pgdb.ConnectDB(ctx, cfg.DB, mylog)
		if err != nil {
			return nil, err
		}
		if err := pgdb.RunMigrations(cfg.DB.DSN(), mylog); err != nil {
			pg.Close()
			return nil, err
		}
		return &Store{
			Drivers:   pgdb.NewDriverRepo(pg.Pool()),
			Routes:    pgdb.NewRouteRepo(pg.Pool()),
			Locations: pgdb.NewLocationRepo(pg.Pool()),
			conn:      pg,
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Migrate prepares the schema without keeping a connection open.
func Migrate(ctx context.Context, cfg *config.Config, mylog mylogger.Logger) error {
	if cfg.Store.Driver == config.StorePostgres {
		return pgdb.RunMigrations(cfg.DB.DSN(), mylog)
	}
	s, err := Open(ctx, cfg, mylog)
	if err != nil {
		return err
	}
	return s.Close()
}

func (s *Store) IsAlive(ctx context.Context) error {
	return s.conn.IsAlive(ctx)
}

func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
