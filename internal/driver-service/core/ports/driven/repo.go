package driven

import (
	"context"

	"bustrack/internal/shared/models"
)

type IDriverRepo interface {
	Resolve(ctx context.Context, id string) (models.Driver, error)
	ResolveByUsername(ctx context.Context, username string) (models.Driver, error)
	SetTracking(ctx context.Context, id string, active bool) error
}

type IRouteRepo interface {
	Resolve(ctx context.Context, id string) (models.Route, error)
}

type ILocationRepo interface {
	// InsertIfTracking fails with myerrors.ErrInvalidState when the driver
	// is not tracking at the time of the write.
	InsertIfTracking(ctx context.Context, s models.LocationSample) error
	Latest(ctx context.Context, driverID string) (models.LocationSample, error)
}

type IDB interface {
	IsAlive(ctx context.Context) error
}
