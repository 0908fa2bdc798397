package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"bustrack/internal/config"
	ports "bustrack/internal/driver-service/core/ports/driver"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/myerrors"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	topicPattern   = "bustrack/driver/+/location"
	connectTimeout = 10 * time.Second
	handleTimeout  = 10 * time.Second
)

type locationMessage struct {
	Token     string   `json:"token"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// LocationSubscriber ingests positions published by on-board devices. The
// token identifies the driver and must match the id in the topic.
type LocationSubscriber struct {
	client      pahomqtt.Client
	authSvc     ports.IAuthService
	locationSvc ports.ILocationService
	mylog       mylogger.Logger
}

func NewClient(cfg config.MQTTconfig) (pahomqtt.Client, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)

	client := pahomqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return client, nil
}

func NewLocationSubscriber(client pahomqtt.Client, authSvc ports.IAuthService, locationSvc ports.ILocationService, mylog mylogger.Logger) *LocationSubscriber {
	return &LocationSubscriber{
		client:      client,
		authSvc:     authSvc,
		locationSvc: locationSvc,
		mylog:       mylog,
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(topicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) Stop() {
	if token := s.client.Unsubscribe(topicPattern); token.WaitTimeout(connectTimeout) && token.Error() != nil {
		s.mylog.Action("mqtt_stop").Warn("failed to unsubscribe", "error", token.Error().Error())
	}
	s.client.Disconnect(250)
}

func (s *LocationSubscriber) handleMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	mylog := s.mylog.Action("mqtt_location").With("topic", msg.Topic())

	topicDriverID, err := driverIDFromTopic(msg.Topic())
	if err != nil {
		mylog.Warn("unexpected topic", "error", err.Error())
		return
	}

	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		mylog.Warn("invalid location message", "error", err.Error())
		return
	}
	if raw.Latitude == nil || raw.Longitude == nil {
		mylog.Warn("invalid location message", "error", "latitude and longitude are required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	driver, err := s.authSvc.Authenticate(ctx, raw.Token)
	if err != nil {
		mylog.Warn("rejected location message", "error", myerrors.Message(err, err.Error()))
		return
	}
	if driver.ID != topicDriverID {
		mylog.Warn("rejected location message", "error", "token does not match topic", "driver_id", driver.ID)
		return
	}

	if _, err := s.locationSvc.Push(ctx, driver.ID, *raw.Latitude, *raw.Longitude); err != nil {
		if errors.Is(err, myerrors.ErrInvalidState) || errors.Is(err, myerrors.ErrBadRequest) {
			mylog.Debug("location dropped", "driver_id", driver.ID, "reason", myerrors.Message(err, err.Error()))
			return
		}
		mylog.Error("failed to store location", err, "driver_id", driver.ID)
	}
}

// driverIDFromTopic extracts the wildcard segment of bustrack/driver/+/location.
func driverIDFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "bustrack" || parts[1] != "driver" || parts[3] != "location" || parts[2] == "" {
		return "", fmt.Errorf("topic %q does not match %s", topic, topicPattern)
	}
	return parts[2], nil
}
