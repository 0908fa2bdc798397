package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"bustrack/internal/driver-service/adapters/driver/myhttp/middleware"
	"bustrack/internal/driver-service/core/domain/dto"
	ports "bustrack/internal/driver-service/core/ports/driver"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/myerrors"
)

type DriverHandler struct {
	authService     ports.IAuthService
	trackingService ports.ITrackingService
	locationService ports.ILocationService
	routeService    ports.IRouteService
	mylog           mylogger.Logger
}

func NewDriverHandler(
	authService ports.IAuthService,
	trackingService ports.ITrackingService,
	locationService ports.ILocationService,
	routeService ports.IRouteService,
	mylog mylogger.Logger,
) *DriverHandler {
	return &DriverHandler{
		authService:     authService,
		trackingService: trackingService,
		locationService: locationService,
		routeService:    routeService,
		mylog:           mylog,
	}
}

func (dh *DriverHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, myerrors.New(myerrors.ErrBadRequest, "Invalid request body"), "")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		res, err := dh.authService.Login(ctx, req)
		if err != nil {
			jsonError(w, err, "Failed to login driver")
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (dh *DriverHandler) StartTracking() http.HandlerFunc {
	return dh.tracking(true)
}

func (dh *DriverHandler) StopTracking() http.HandlerFunc {
	return dh.tracking(false)
}

func (dh *DriverHandler) tracking(active bool) http.HandlerFunc {
	call, okMsg, failMsg := dh.trackingService.Start, "Tracking started", "Failed to start tracking"
	if !active {
		call, okMsg, failMsg = dh.trackingService.Stop, "Tracking stopped", "Failed to stop tracking"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		driver, ok := middleware.DriverFrom(r.Context())
		if !ok {
			jsonError(w, myerrors.New(myerrors.ErrUnauthorized, "Driver authentication required"), "")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		if err := call(ctx, driver.ID); err != nil {
			jsonError(w, err, failMsg)
			return
		}
		jsonResponse(w, http.StatusOK, dto.MessageResponse{Message: okMsg})
	}
}

func (dh *DriverHandler) UpdateLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driver, ok := middleware.DriverFrom(r.Context())
		if !ok {
			jsonError(w, myerrors.New(myerrors.ErrUnauthorized, "Driver authentication required"), "")
			return
		}

		var req dto.LocationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, myerrors.New(myerrors.ErrBadRequest, "Invalid request body"), "")
			return
		}
		if req.Latitude == nil || req.Longitude == nil {
			jsonError(w, myerrors.New(myerrors.ErrBadRequest, "Invalid location payload"), "")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		sample, err := dh.locationService.Push(ctx, driver.ID, *req.Latitude, *req.Longitude)
		if err != nil {
			jsonError(w, err, "Failed to update location")
			return
		}
		jsonResponse(w, http.StatusOK, dto.LocationResponse{Message: "Location updated", Location: sample})
	}
}

func (dh *DriverHandler) GetRoute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driver, ok := middleware.DriverFrom(r.Context())
		if !ok {
			jsonError(w, myerrors.New(myerrors.ErrUnauthorized, "Driver authentication required"), "")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		route, err := dh.routeService.GetOwnRoute(ctx, driver.ID)
		if err != nil {
			jsonError(w, err, "Failed to get driver's route")
			return
		}
		jsonResponse(w, http.StatusOK, route)
	}
}

// LatestLocation is public: riders read it without a driver token.
func (dh *DriverHandler) LatestLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		driverID := r.PathValue("driverId")

		ctx, cancel := context.WithTimeout(r.Context(), WaitTime*time.Second)
		defer cancel()

		latest, err := dh.locationService.Latest(ctx, driverID)
		if err != nil {
			jsonError(w, err, "Failed to fetch latest location")
			return
		}
		jsonResponse(w, http.StatusOK, latest)
	}
}
