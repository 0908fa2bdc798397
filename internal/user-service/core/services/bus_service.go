package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bustrack/internal/mylogger"
	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"
	ports "bustrack/internal/user-service/core/ports/driven"
)

const cacheTimeout = 500 * time.Millisecond

// BusService resolves a bus number to its driver and route. Results are
// served from cache when one is configured, so isTracking can lag by up to
// the cache TTL.
type BusService struct {
	drivers  ports.IDriverRepo
	routes   ports.IRouteRepo
	cache    ports.IBusCache
	cacheTTL time.Duration
	mylog    mylogger.Logger
}

func NewBusService(drivers ports.IDriverRepo, routes ports.IRouteRepo, cache ports.IBusCache, cacheTTL time.Duration, mylog mylogger.Logger) *BusService {
	return &BusService{
		drivers:  drivers,
		routes:   routes,
		cache:    cache,
		cacheTTL: cacheTTL,
		mylog:    mylog,
	}
}

func (bs *BusService) GetDriverByBusNumber(ctx context.Context, busNumber string) (models.DriverWithRoute, error) {
	mylog := bs.mylog.Action("get_driver_by_bus").With("bus_number", busNumber)

	if rec, ok := bs.fromCache(ctx, mylog, busNumber); ok {
		return rec, nil
	}

	driver, err := bs.drivers.ResolveByBusNumber(ctx, busNumber)
	if err != nil {
		if errors.Is(err, myerrors.ErrNotFound) {
			return models.DriverWithRoute{}, myerrors.New(myerrors.ErrNotFound, fmt.Sprintf("Driver with bus number %s not found.", busNumber))
		}
		mylog.Error("failed to resolve driver", err)
		return models.DriverWithRoute{}, myerrors.Wrap(myerrors.ErrInternal, "Failed to fetch driver and route data.", err)
	}

	rec := models.DriverWithRoute{Driver: driver}
	if driver.HasRoute() {
		route, err := bs.routes.Resolve(ctx, driver.RouteID)
		switch {
		case err == nil:
			rec.Route = &route
		case errors.Is(err, myerrors.ErrNotFound):
			// dangling reference, reported as no route
			mylog.Warn("driver references a missing route", "route_id", driver.RouteID)
		default:
			mylog.Error("failed to resolve route", err)
			return models.DriverWithRoute{}, myerrors.Wrap(myerrors.ErrInternal, "Failed to fetch driver and route data.", err)
		}
	}

	bs.toCache(ctx, mylog, busNumber, rec)
	return rec, nil
}

func (bs *BusService) fromCache(ctx context.Context, mylog mylogger.Logger, busNumber string) (models.DriverWithRoute, bool) {
	if bs.cache == nil {
		return models.DriverWithRoute{}, false
	}
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	rec, ok, err := bs.cache.Get(cctx, busNumber)
	if err != nil {
		mylog.Warn("cache read failed", "error", err.Error())
		return models.DriverWithRoute{}, false
	}
	if ok {
		mylog.Debug("cache hit")
	}
	return rec, ok
}

func (bs *BusService) toCache(ctx context.Context, mylog mylogger.Logger, busNumber string, rec models.DriverWithRoute) {
	if bs.cache == nil || bs.cacheTTL <= 0 {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	defer cancel()

	if err := bs.cache.Set(cctx, busNumber, rec, bs.cacheTTL); err != nil {
		mylog.Warn("cache write failed", "error", err.Error())
	}
}
