package services

import (
	"context"
	"errors"

	ports "bustrack/internal/driver-service/core/ports/driven"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"
)

type RouteService struct {
	drivers ports.IDriverRepo
	routes  ports.IRouteRepo
	mylog   mylogger.Logger
}

func NewRouteService(drivers ports.IDriverRepo, routes ports.IRouteRepo, mylog mylogger.Logger) *RouteService {
	return &RouteService{
		drivers: drivers,
		routes:  routes,
		mylog:   mylog,
	}
}

// GetOwnRoute reloads the driver and then its route, so edits made after
// the request was authenticated are visible.
func (rs *RouteService) GetOwnRoute(ctx context.Context, driverID string) (models.Route, error) {
	mylog := rs.mylog.Action("get_route").With("driver_id", driverID)
	const failMsg = "Failed to get driver's route"

	driver, err := rs.drivers.Resolve(ctx, driverID)
	if err != nil {
		if errors.Is(err, myerrors.ErrNotFound) {
			return models.Route{}, myerrors.Wrap(myerrors.ErrNotFound, "Driver not found", err)
		}
		mylog.Error("failed to resolve driver", err)
		return models.Route{}, myerrors.Wrap(myerrors.ErrInternal, failMsg, err)
	}
	if !driver.HasRoute() {
		return models.Route{}, myerrors.New(myerrors.ErrNotFound, "Driver is not assigned to a route")
	}

	route, err := rs.routes.Resolve(ctx, driver.RouteID)
	if err != nil {
		if errors.Is(err, myerrors.ErrNotFound) {
			return models.Route{}, myerrors.Wrap(myerrors.ErrNotFound, "Route not found", err)
		}
		mylog.Error("failed to resolve route", err)
		return models.Route{}, myerrors.Wrap(myerrors.ErrInternal, failMsg, err)
	}
	return route, nil
}
