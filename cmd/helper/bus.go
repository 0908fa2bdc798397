package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"bustrack/internal/driver-service/core/domain/dto"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/models"
)

// pusher delivers one position to the driver service.
type pusher interface {
	Push(ctx context.Context, lat, lng float64) error
}

// Bus drives a logged-in driver along their route, pushing a position every
// tick.
type Bus struct {
	cfg        Config
	httpClient *HTTPClient
	wsClient   *WebSocketClient
	mylog      mylogger.Logger

	token     string
	driverID  string
	busNumber string
	lat, lng  float64
}

func NewBus(cfg Config, mylog mylogger.Logger) *Bus {
	return &Bus{
		cfg:        cfg,
		httpClient: NewHTTPClient(cfg.BaseURL),
		mylog:      mylog,
	}
}

func (b *Bus) Login(ctx context.Context) error {
	var res dto.LoginResponse
	err := b.httpClient.DoRequest(ctx, http.MethodPost, LoginPath, "",
		dto.LoginRequest{Username: b.cfg.Username, Password: b.cfg.Password}, &res)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	b.token, b.driverID, b.busNumber = res.Token, res.DriverID, res.BusNumber
	b.mylog = b.mylog.With("driver_id", b.driverID, "bus_number", b.busNumber)
	b.mylog.Action("login").Info(res.Message)
	return nil
}

func (b *Bus) SetTracking(ctx context.Context, active bool) error {
	path := TrackingStartPath
	if !active {
		path = TrackingStopPath
	}
	var res dto.MessageResponse
	if err := b.httpClient.DoRequest(ctx, http.MethodPost, path, b.token, nil, &res); err != nil {
		return fmt.Errorf("set tracking %v: %w", active, err)
	}
	b.mylog.Action("tracking").Info(res.Message)
	return nil
}

func (b *Bus) Route(ctx context.Context) (models.Route, error) {
	var route models.Route
	if err := b.httpClient.DoRequest(ctx, http.MethodGet, RoutePath, b.token, nil, &route); err != nil {
		return models.Route{}, fmt.Errorf("fetch route: %w", err)
	}
	if len(route.Stops) == 0 {
		return models.Route{}, fmt.Errorf("route %s has no stops", route.ID)
	}
	return route, nil
}

// Connect opens the location stream when running in ws mode.
func (b *Bus) Connect() error {
	if b.cfg.Mode != ModeWS {
		return nil
	}
	b.wsClient = NewWebSocketClient()
	if err := b.wsClient.Connect(b.cfg.BaseURL, b.token); err != nil {
		return err
	}
	b.mylog.Action("ws_connected").Info("location stream connected")
	return nil
}

func (b *Bus) Close() error {
	if b.wsClient != nil {
		return b.wsClient.Close()
	}
	return nil
}

func (b *Bus) Push(ctx context.Context, lat, lng float64) error {
	if b.wsClient != nil {
		return b.wsClient.Send(lat, lng)
	}
	return b.httpClient.DoRequest(ctx, http.MethodPost, LocationPath, b.token,
		dto.LocationRequest{Latitude: &lat, Longitude: &lng}, nil)
}

// Drive walks the stops in order. It returns when the last stop is reached,
// or keeps looping with cfg.Loop, until ctx is cancelled.
func (b *Bus) Drive(ctx context.Context, route models.Route) error {
	b.lat, b.lng = route.Stops[0].Latitude, route.Stops[0].Longitude
	if err := b.Push(ctx, b.lat, b.lng); err != nil {
		return err
	}

	for {
		for i, stop := range route.Stops[1:] {
			if err := b.moveTo(ctx, b, stop, b.cfg.Speed*b.cfg.Interval.Seconds()); err != nil {
				return err
			}
			b.mylog.Action("arrived").Info("arrived at stop", "stop", stop.LocationName, "index", i+1)
		}
		if !b.cfg.Loop {
			return nil
		}
		// drive back to the first stop
		if err := b.moveTo(ctx, b, route.Stops[0], b.cfg.Speed*b.cfg.Interval.Seconds()); err != nil {
			return err
		}
	}
}

func (b *Bus) moveTo(ctx context.Context, p pusher, target models.Stop, stepDistance float64) error {
	points := path(b.lat, b.lng, target.Latitude, target.Longitude, stepDistance)

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for _, pt := range points {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := p.Push(ctx, pt[0], pt[1]); err != nil {
			return err
		}
		b.lat, b.lng = pt[0], pt[1]
		b.mylog.Debug("location pushed", "latitude", pt[0], "longitude", pt[1])
	}
	return nil
}

// path returns evenly spaced points from (lat1,lng1) to (lat2,lng2), ending
// exactly at the target, with consecutive points about stepDistance meters
// apart.
func path(lat1, lng1, lat2, lng2, stepDistance float64) [][2]float64 {
	total := distance(lat1, lng1, lat2, lng2)
	if total < 1 {
		return nil
	}
	steps := int(math.Ceil(total / stepDistance))
	if steps < 1 {
		steps = 1
	}

	dLat := (lat2 - lat1) / float64(steps)
	dLng := (lng2 - lng1) / float64(steps)

	points := make([][2]float64, 0, steps)
	for i := 1; i < steps; i++ {
		points = append(points, [2]float64{lat1 + dLat*float64(i), lng1 + dLng*float64(i)})
	}
	return append(points, [2]float64{lat2, lng2})
}

// distance is the haversine distance in meters.
func distance(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371000
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(rLat1)*math.Cos(rLat2)
	return 2 * R * math.Asin(math.Sqrt(h))
}
