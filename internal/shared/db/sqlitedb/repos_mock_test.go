package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDriverRepo_ResolveDBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM drivers WHERE id = ?").
		WithArgs("d1").
		WillReturnError(sql.ErrConnDone)

	_, err = NewDriverRepo(db).Resolve(context.Background(), "d1")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, myerrors.ErrNotFound) {
		t.Error("connection failure must not look like not found")
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRouteRepo_CorruptStops(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "bus_number", "route_name", "stops"}).
		AddRow("r1", "B12", "Loop", "{not json")
	mock.ExpectQuery("SELECT (.+) FROM routes WHERE id = ?").WithArgs("r1").WillReturnRows(rows)

	if _, err := NewRouteRepo(db).Resolve(context.Background(), "r1"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLocationRepo_InsertNoRowsIsInvalidState(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO locations").
		WithArgs("s1", 1.5, 2.5, "gh", ts.UnixNano(), "d1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewLocationRepo(db).InsertIfTracking(context.Background(), models.LocationSample{
		ID: "s1", DriverID: "d1", Latitude: 1.5, Longitude: 2.5, Geohash: "gh", Timestamp: ts,
	})
	if !errors.Is(err, myerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLocationRepo_InsertExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO locations").WillReturnError(sqlmock.ErrCancelled)

	err = NewLocationRepo(db).InsertIfTracking(context.Background(), models.LocationSample{ID: "s1", DriverID: "d1"})
	if err == nil || errors.Is(err, myerrors.ErrInvalidState) {
		t.Fatalf("expected plain failure, got %v", err)
	}
}
