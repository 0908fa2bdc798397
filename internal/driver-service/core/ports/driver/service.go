package driver

import (
	"context"

	"bustrack/internal/driver-service/core/domain/dto"
	"bustrack/internal/shared/models"
)

type IAuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
	// Authenticate verifies a bearer token and loads the driver it names.
	Authenticate(ctx context.Context, token string) (models.Driver, error)
}

type ITrackingService interface {
	Start(ctx context.Context, driverID string) error
	Stop(ctx context.Context, driverID string) error
}

type ILocationService interface {
	Push(ctx context.Context, driverID string, latitude, longitude float64) (models.LocationSample, error)
	Latest(ctx context.Context, driverID string) (models.LatestLocation, error)
}

type IRouteService interface {
	GetOwnRoute(ctx context.Context, driverID string) (models.Route, error)
}
