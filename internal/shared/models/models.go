// Package models holds the records shared by the driver and user services.
package models

import (
	"time"

	"github.com/google/uuid"
)

type Driver struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	BusNumber    string    `json:"busNumber"`
	IsTracking   bool      `json:"isTracking"`
	RouteID      string    `json:"routeId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (d Driver) HasRoute() bool { return d.RouteID != "" }

type Route struct {
	ID        string `json:"id"`
	BusNumber string `json:"busNumber"`
	RouteName string `json:"routeName,omitempty"`
	Stops     []Stop `json:"stops"`
}

// Stop distances and times are deltas from the previous stop.
// EstimatedTimeFromPrevious is in minutes.
type Stop struct {
	LocationName              string  `json:"locationName"`
	Latitude                  float64 `json:"latitude"`
	Longitude                 float64 `json:"longitude"`
	DistanceFromPrevious      float64 `json:"distanceFromPrevious"`
	EstimatedTimeFromPrevious float64 `json:"estimatedTimeFromPrevious"`
}

type LocationSample struct {
	ID        string    `json:"id"`
	DriverID  string    `json:"driverId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Geohash   string    `json:"geohash,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DriverSummary is the driver part embedded in a latest-location answer.
type DriverSummary struct {
	ID        string `json:"id"`
	BusNumber string `json:"busNumber"`
	Route     *Route `json:"route"`
}

type LatestLocation struct {
	ID        string         `json:"id"`
	Driver    *DriverSummary `json:"driver"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Timestamp time.Time      `json:"timestamp"`
}

// DriverWithRoute is a driver with its route resolved inline.
type DriverWithRoute struct {
	Driver
	Route *Route `json:"route"`
}

func NewID() string { return uuid.NewString() }

// ValidID reports whether id can name a stored record.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
