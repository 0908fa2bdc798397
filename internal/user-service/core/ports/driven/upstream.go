package driven

import (
	"context"

	"bustrack/internal/user-service/core/domain/dto"
)

// IDriverAPI calls the Driver Service. A non-2xx answer is returned as
// *myerrors.UpstreamError; a call that never completed wraps
// myerrors.ErrTransport.
type IDriverAPI interface {
	LatestLocation(ctx context.Context, driverID string) (dto.LiveLocation, error)
}
