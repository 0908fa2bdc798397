package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	wsdto "bustrack/internal/driver-service/core/domain/websocket_dto"
	ports "bustrack/internal/driver-service/core/ports/driver"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/myerrors"

	"github.com/gorilla/websocket"
)

const (
	authTimeout  = 5 * time.Second
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	pushTimeout  = 10 * time.Second
)

// LocationStream lets a driver push positions over one long-lived socket
// instead of one HTTP request per sample. Each frame goes through the same
// tracking gate as POST /api/driver/location.
type LocationStream struct {
	auth      ports.IAuthService
	locations ports.ILocationService
	registry  *Registry
	upgrader  websocket.Upgrader
	mylog     mylogger.Logger
}

func NewLocationStream(auth ports.IAuthService, locations ports.ILocationService, registry *Registry, mylog mylogger.Logger) *LocationStream {
	return &LocationStream{
		auth:      auth,
		locations: locations,
		registry:  registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mylog: mylog,
	}
}

func (s *LocationStream) Handle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		mylog := s.mylog.Action("ws_location_stream")

		driverID, ok := s.authenticate(r.Context(), conn)
		if !ok {
			return
		}
		mylog = mylog.With("driver_id", driverID)

		s.registry.Register(driverID, conn)
		defer s.registry.Unregister(driverID, conn)

		if err := s.reply(conn, wsdto.Reply{
			Type:     wsdto.MessageTypeAuth,
			Success:  true,
			Message:  "Authentication successful",
			DriverID: driverID,
		}); err != nil {
			return
		}
		mylog.Info("driver stream connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		go s.handlePingPong(ctx, conn)

		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					mylog.Warn("driver stream closed unexpectedly", "error", err.Error())
				}
				mylog.Info("driver stream disconnected")
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			if err := s.handleLocation(ctx, conn, driverID, message); err != nil {
				return
			}
		}
	}
}

// authenticate reads the first frame and resolves the driver it names. The
// socket is answered with an error frame when the token is missing or bad.
func (s *LocationStream) authenticate(ctx context.Context, conn *websocket.Conn) (string, bool) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))

	messageType, message, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}

	var authMsg wsdto.AuthMessage
	if messageType != websocket.TextMessage || json.Unmarshal(message, &authMsg) != nil {
		s.reply(conn, wsdto.Reply{Type: wsdto.MessageTypeError, Message: "Driver authentication required"})
		return "", false
	}

	authCtx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	driver, err := s.auth.Authenticate(authCtx, authMsg.Token)
	if err != nil {
		s.reply(conn, wsdto.Reply{Type: wsdto.MessageTypeError, Message: myerrors.Message(err, "Invalid driver token")})
		return "", false
	}
	return driver.ID, true
}

// handleLocation stores one sample. Only a failed write to the socket ends
// the stream; rejected samples are reported back and the stream continues.
func (s *LocationStream) handleLocation(ctx context.Context, conn *websocket.Conn, driverID string, message []byte) error {
	var msg wsdto.LocationMessage
	if err := json.Unmarshal(message, &msg); err != nil || msg.Latitude == nil || msg.Longitude == nil {
		return s.reply(conn, wsdto.Reply{Type: wsdto.MessageTypeError, Message: "Invalid location payload"})
	}

	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	sample, err := s.locations.Push(pushCtx, driverID, *msg.Latitude, *msg.Longitude)
	if err != nil {
		if !errors.Is(err, myerrors.ErrInvalidState) && !errors.Is(err, myerrors.ErrBadRequest) {
			s.mylog.Action("ws_location_push").Error("failed to store location", err, "driver_id", driverID)
		}
		return s.reply(conn, wsdto.Reply{Type: wsdto.MessageTypeError, Message: myerrors.Message(err, "Failed to update location")})
	}

	return s.reply(conn, wsdto.Reply{
		Type:     wsdto.MessageTypeAck,
		Success:  true,
		Message:  "Location updated",
		Location: &sample,
	})
}

func (s *LocationStream) reply(conn *websocket.Conn, msg wsdto.Reply) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (s *LocationStream) handlePingPong(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
