package services

import (
	"context"
	"errors"
	"time"

	mbdto "bustrack/internal/driver-service/core/domain/message_broker_dto"
	ports "bustrack/internal/driver-service/core/ports/driven"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"

	"github.com/mmcloughlin/geohash"
)

const GeohashPrecision = 9

const (
	msgTrackingNotActive = "Driver tracking is not active"
	msgInvalidLocation   = "Invalid location payload"
	msgLocationNotFound  = "Location not found for this driver"
)

type LocationService struct {
	drivers   ports.IDriverRepo
	routes    ports.IRouteRepo
	locations ports.ILocationRepo
	broker    ports.IDriverBroker
	mylog     mylogger.Logger
	now       func() time.Time
}

func NewLocationService(
	drivers ports.IDriverRepo,
	routes ports.IRouteRepo,
	locations ports.ILocationRepo,
	broker ports.IDriverBroker,
	mylog mylogger.Logger,
) *LocationService {
	return &LocationService{
		drivers:   drivers,
		routes:    routes,
		locations: locations,
		broker:    broker,
		mylog:     mylog,
		now:       time.Now,
	}
}

// Push stores a sample for driverID stamped with the server clock. The write
// only happens if the driver is tracking when it reaches the store.
func (ls *LocationService) Push(ctx context.Context, driverID string, latitude, longitude float64) (models.LocationSample, error) {
	mylog := ls.mylog.Action("location_push").With("driver_id", driverID)

	if !models.ValidCoordinates(latitude, longitude) {
		return models.LocationSample{}, myerrors.New(myerrors.ErrBadRequest, msgInvalidLocation)
	}

	sample := models.LocationSample{
		ID:        models.NewID(),
		DriverID:  driverID,
		Latitude:  latitude,
		Longitude: longitude,
		Geohash:   geohash.EncodeWithPrecision(latitude, longitude, GeohashPrecision),
		// postgres keeps microseconds
		Timestamp: ls.now().UTC().Truncate(time.Microsecond),
	}

	if err := ls.locations.InsertIfTracking(ctx, sample); err != nil {
		if errors.Is(err, myerrors.ErrInvalidState) {
			return models.LocationSample{}, myerrors.New(myerrors.ErrInvalidState, msgTrackingNotActive)
		}
		mylog.Error("failed to store location", err)
		return models.LocationSample{}, myerrors.Wrap(myerrors.ErrInternal, "Failed to update location", err)
	}
	mylog.Debug("location stored", "sample_id", sample.ID, "geohash", sample.Geohash)

	publish(ctx, ls.broker, mylog, mbdto.KeyLocationUpdated, mbdto.LocationEvent{
		SampleID:  sample.ID,
		DriverID:  sample.DriverID,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Geohash:   sample.Geohash,
		Timestamp: sample.Timestamp,
	})
	return sample, nil
}

// Latest returns the newest sample of driverID with the driver's bus number
// and route resolved inline.
func (ls *LocationService) Latest(ctx context.Context, driverID string) (models.LatestLocation, error) {
	mylog := ls.mylog.Action("latest_location").With("driver_id", driverID)
	const failMsg = "Failed to fetch latest location"

	sample, err := ls.locations.Latest(ctx, driverID)
	if err != nil {
		if errors.Is(err, myerrors.ErrNotFound) {
			return models.LatestLocation{}, myerrors.New(myerrors.ErrNotFound, msgLocationNotFound)
		}
		mylog.Error("failed to load latest location", err)
		return models.LatestLocation{}, myerrors.Wrap(myerrors.ErrInternal, failMsg, err)
	}

	out := models.LatestLocation{
		ID:        sample.ID,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Timestamp: sample.Timestamp,
	}

	driver, err := ls.drivers.Resolve(ctx, sample.DriverID)
	switch {
	case errors.Is(err, myerrors.ErrNotFound):
		return out, nil
	case err != nil:
		mylog.Error("failed to resolve driver", err)
		return models.LatestLocation{}, myerrors.Wrap(myerrors.ErrInternal, failMsg, err)
	}

	out.Driver = &models.DriverSummary{ID: driver.ID, BusNumber: driver.BusNumber}
	if !driver.HasRoute() {
		return out, nil
	}

	route, err := ls.routes.Resolve(ctx, driver.RouteID)
	switch {
	case errors.Is(err, myerrors.ErrNotFound):
		mylog.Warn("driver references a missing route", "route_id", driver.RouteID)
	case err != nil:
		mylog.Error("failed to resolve route", err)
		return models.LatestLocation{}, myerrors.Wrap(myerrors.ErrInternal, failMsg, err)
	default:
		out.Driver.Route = &route
	}
	return out, nil
}
