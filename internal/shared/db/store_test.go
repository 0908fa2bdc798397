package db

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"bustrack/internal/config"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"
)

func TestOpen_SQLite(t *testing.T) {
	cfg := &config.Config{
		Store: &config.Storeconfig{
			Driver:     config.StoreSQLite,
			SQLitePath: filepath.Join(t.TempDir(), "bus.db"),
		},
	}
	ctx := context.Background()

	s, err := Open(ctx, cfg, mylogger.NewWithWriter(mylogger.LevelError, io.Discard))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if err := s.IsAlive(ctx); err != nil {
		t.Fatalf("expected live store: %v", err)
	}

	r, err := s.Routes.Upsert(ctx, models.Route{BusNumber: "B7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := s.Drivers.Upsert(ctx, models.Driver{Username: "asha", PasswordHash: "h", BusNumber: "B7", RouteID: r.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Locations.Latest(ctx, d.ID); !errors.Is(err, myerrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Store: &config.Storeconfig{Driver: "mongo"}}
	if _, err := Open(context.Background(), cfg, mylogger.NewWithWriter(mylogger.LevelError, io.Discard)); err == nil {
		t.Fatal("expected error")
	}
}
