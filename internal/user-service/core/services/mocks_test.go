package services

import (
	"context"
	"io"
	"time"

	"bustrack/internal/mylogger"
	"bustrack/internal/shared/models"
	"bustrack/internal/user-service/core/domain/dto"
)

func testLogger() mylogger.Logger {
	return mylogger.NewWithWriter(mylogger.LevelError, io.Discard)
}

type mockDriverRepo struct {
	calls                int
	resolveByBusNumberFn func(ctx context.Context, busNumber string) (models.Driver, error)
}

func (m *mockDriverRepo) ResolveByBusNumber(ctx context.Context, busNumber string) (models.Driver, error) {
	m.calls++
	return m.resolveByBusNumberFn(ctx, busNumber)
}

type mockRouteRepo struct {
	resolveFn func(ctx context.Context, id string) (models.Route, error)
}

func (m *mockRouteRepo) Resolve(ctx context.Context, id string) (models.Route, error) {
	return m.resolveFn(ctx, id)
}

type mockCache struct {
	entries map[string]models.DriverWithRoute
	getErr  error
	setErr  error
	ttl     time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string]models.DriverWithRoute{}}
}

func (m *mockCache) Get(_ context.Context, busNumber string) (models.DriverWithRoute, bool, error) {
	if m.getErr != nil {
		return models.DriverWithRoute{}, false, m.getErr
	}
	rec, ok := m.entries[busNumber]
	return rec, ok, nil
}

func (m *mockCache) Set(_ context.Context, busNumber string, rec models.DriverWithRoute, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[busNumber] = rec
	m.ttl = ttl
	return nil
}

type mockDriverAPI struct {
	latestLocationFn func(ctx context.Context, driverID string) (dto.LiveLocation, error)
}

func (m *mockDriverAPI) LatestLocation(ctx context.Context, driverID string) (dto.LiveLocation, error) {
	return m.latestLocationFn(ctx, driverID)
}
