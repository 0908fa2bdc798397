package driven

import (
	"context"
	"time"

	"bustrack/internal/shared/models"
)

type IDriverRepo interface {
	ResolveByBusNumber(ctx context.Context, busNumber string) (models.Driver, error)
}

type IRouteRepo interface {
	Resolve(ctx context.Context, id string) (models.Route, error)
}

// IBusCache holds by-bus lookups for a short time. A miss is reported with
// ok=false and a nil error.
type IBusCache interface {
	Get(ctx context.Context, busNumber string) (rec models.DriverWithRoute, ok bool, err error)
	Set(ctx context.Context, busNumber string, rec models.DriverWithRoute, ttl time.Duration) error
}

type IDB interface {
	IsAlive(ctx context.Context) error
}
