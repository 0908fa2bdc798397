package services

import (
	"context"
	"io"
	"sync"

	"bustrack/internal/mylogger"
	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"
)

func testLogger() mylogger.Logger {
	return mylogger.NewWithWriter(mylogger.LevelError, io.Discard)
}

type mockDriverRepo struct {
	resolveFn           func(ctx context.Context, id string) (models.Driver, error)
	resolveByUsernameFn func(ctx context.Context, username string) (models.Driver, error)
	setTrackingFn       func(ctx context.Context, id string, active bool) error
}

func (m *mockDriverRepo) Resolve(ctx context.Context, id string) (models.Driver, error) {
	return m.resolveFn(ctx, id)
}

func (m *mockDriverRepo) ResolveByUsername(ctx context.Context, username string) (models.Driver, error) {
	return m.resolveByUsernameFn(ctx, username)
}

func (m *mockDriverRepo) SetTracking(ctx context.Context, id string, active bool) error {
	return m.setTrackingFn(ctx, id, active)
}

type mockRouteRepo struct {
	resolveFn func(ctx context.Context, id string) (models.Route, error)
}

func (m *mockRouteRepo) Resolve(ctx context.Context, id string) (models.Route, error) {
	return m.resolveFn(ctx, id)
}

type mockBroker struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (m *mockBroker) PublishJSON(_ context.Context, _, routingKey string, _ any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, routingKey)
	return m.err
}

func (m *mockBroker) IsAlive() bool { return true }
func (m *mockBroker) Close() error  { return nil }

// memStore is an in-memory driver and location store that honours the
// tracking gate the same way the SQL stores do.
type memStore struct {
	mu      sync.Mutex
	drivers map[string]models.Driver
	samples []models.LocationSample
}

func newMemStore(drivers ...models.Driver) *memStore {
	s := &memStore{drivers: map[string]models.Driver{}}
	for _, d := range drivers {
		s.drivers[d.ID] = d
	}
	return s
}

func (s *memStore) Resolve(_ context.Context, id string) (models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return models.Driver{}, myerrors.ErrNotFound
	}
	return d, nil
}

func (s *memStore) ResolveByUsername(_ context.Context, username string) (models.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.drivers {
		if d.Username == username {
			return d, nil
		}
	}
	return models.Driver{}, myerrors.ErrNotFound
}

func (s *memStore) SetTracking(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return myerrors.ErrNotFound
	}
	d.IsTracking = active
	s.drivers[id] = d
	return nil
}

func (s *memStore) InsertIfTracking(_ context.Context, sample models.LocationSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drivers[sample.DriverID].IsTracking {
		return myerrors.ErrInvalidState
	}
	s.samples = append(s.samples, sample)
	return nil
}

func (s *memStore) Latest(_ context.Context, driverID string) (models.LocationSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		best  models.LocationSample
		found bool
	)
	for _, sample := range s.samples {
		if sample.DriverID != driverID {
			continue
		}
		if !found || sample.Timestamp.After(best.Timestamp) {
			best, found = sample, true
		}
	}
	if !found {
		return models.LocationSample{}, myerrors.ErrNotFound
	}
	return best, nil
}

func (s *memStore) count(driverID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sample := range s.samples {
		if sample.DriverID == driverID {
			n++
		}
	}
	return n
}
