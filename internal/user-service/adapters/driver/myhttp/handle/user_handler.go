package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bustrack/internal/mylogger"
	"bustrack/internal/shared/myerrors"
	ports "bustrack/internal/user-service/core/ports/driver"
)

const upstreamMessage = "Failed to fetch driver location from driver server"

type UserHandler struct {
	busService      ports.IBusService
	locationService ports.ILiveLocationService
	mylog           mylogger.Logger
}

func NewUserHandler(busService ports.IBusService, locationService ports.ILiveLocationService, mylog mylogger.Logger) *UserHandler {
	return &UserHandler{
		busService:      busService,
		locationService: locationService,
		mylog:           mylog,
	}
}

func (uh *UserHandler) DriverByBus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		busNumber := r.PathValue("busNumber")

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		rec, err := uh.busService.GetDriverByBusNumber(ctx, busNumber)
		if err != nil {
			jsonError(w, err, "Failed to fetch driver and route data.")
			return
		}
		jsonResponse(w, http.StatusOK, rec)
	}
}

// LiveLocation proxies to the Driver Service. An upstream error answer is
// passed through with its status; the upstream body goes in "error".
func (uh *UserHandler) LiveLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID := r.PathValue("driverId")

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		loc, err := uh.locationService.GetLiveLocation(ctx, driverID)
		if err != nil {
			var upstream *myerrors.UpstreamError
			if errors.As(err, &upstream) {
				jsonResponse(w, upstream.Status, map[string]any{
					"message": upstreamMessage,
					"error":   upstream.Body,
				})
				return
			}
			jsonError(w, err, "Failed to communicate with driver server")
			return
		}
		jsonResponse(w, http.StatusOK, loc)
	}
}
