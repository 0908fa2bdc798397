package messagebrokerdto

import "time"

const (
	Exchange = "bus_topic"

	KeyTrackingStarted = "driver.tracking.started"
	KeyTrackingStopped = "driver.tracking.stopped"
	KeyLocationUpdated = "driver.location.updated"
)

type TrackingEvent struct {
	DriverID   string    `json:"driver_id"`
	IsTracking bool      `json:"is_tracking"`
	OccurredAt time.Time `json:"occurred_at"`
}

type LocationEvent struct {
	SampleID  string    `json:"sample_id"`
	DriverID  string    `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Geohash   string    `json:"geohash"`
	Timestamp time.Time `json:"timestamp"`
}
