package websocketdto

import "bustrack/internal/shared/models"

// WebSocket message types
const (
	MessageTypeAuth  = "auth"
	MessageTypeAck   = "ack"
	MessageTypeError = "error"
)

// AuthMessage is the first frame a driver sends after connecting.
type AuthMessage struct {
	Token string `json:"token"`
}

type LocationMessage struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Reply answers every inbound frame.
type Reply struct {
	Type     string                 `json:"type"`
	Success  bool                   `json:"success"`
	Message  string                 `json:"message"`
	DriverID string                 `json:"driverId,omitempty"`
	Location *models.LocationSample `json:"location,omitempty"`
}
