package services

import (
	"context"
	"errors"
	"maps"
	"time"

	"bustrack/internal/mylogger"
	"bustrack/internal/shared/myerrors"
	"bustrack/internal/user-service/core/domain/dto"
	ports "bustrack/internal/user-service/core/ports/driven"
)

// IST is the fixed UTC+5:30 zone used for display times.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// LiveLocationService holds no location data; it asks the Driver Service
// and decorates the answer.
type LiveLocationService struct {
	api   ports.IDriverAPI
	mylog mylogger.Logger
}

func NewLiveLocationService(api ports.IDriverAPI, mylog mylogger.Logger) *LiveLocationService {
	return &LiveLocationService{
		api:   api,
		mylog: mylog,
	}
}

func (ls *LiveLocationService) GetLiveLocation(ctx context.Context, driverID string) (dto.LiveLocation, error) {
	mylog := ls.mylog.Action("get_live_location").With("driver_id", driverID)

	loc, err := ls.api.LatestLocation(ctx, driverID)
	if err != nil {
		var upstream *myerrors.UpstreamError
		if errors.As(err, &upstream) {
			mylog.Debug("driver service answered with an error", "status", upstream.Status)
		} else {
			mylog.Error("failed to reach driver service", err)
		}
		return nil, err
	}
	return WithIST(loc), nil
}

// WithIST returns a copy of loc with formattedTimeIST set when loc carries a
// parseable timestamp. loc itself is not modified.
func WithIST(loc dto.LiveLocation) dto.LiveLocation {
	out := maps.Clone(loc)
	if out == nil {
		out = dto.LiveLocation{}
	}

	raw, ok := out[dto.FieldTimestamp].(string)
	if !ok || raw == "" {
		return out
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return out
	}
	out[dto.FieldFormattedTimeIST] = FormatIST(ts)
	return out
}

// FormatIST renders t as 24-hour HH:MM:SS in IST.
func FormatIST(t time.Time) string {
	return t.In(IST).Format("15:04:05")
}
