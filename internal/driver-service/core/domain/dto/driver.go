package dto

import "bustrack/internal/shared/models"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	DriverID  string `json:"driverId"`
	BusNumber string `json:"busNumber"`
	Message   string `json:"message"`
}

// LocationRequest uses pointers so that a missing coordinate is not read as 0.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type LocationResponse struct {
	Message  string                `json:"message"`
	Location models.LocationSample `json:"location"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
