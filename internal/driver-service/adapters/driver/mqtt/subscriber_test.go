package mqtt

import (
	"context"
	"errors"
	"io"
	"testing"

	"bustrack/internal/driver-service/core/domain/dto"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"
)

type mockAuthSvc struct {
	authenticateFn func(ctx context.Context, token string) (models.Driver, error)
}

func (m *mockAuthSvc) Login(context.Context, dto.LoginRequest) (dto.LoginResponse, error) {
	return dto.LoginResponse{}, nil
}

func (m *mockAuthSvc) Authenticate(ctx context.Context, token string) (models.Driver, error) {
	return m.authenticateFn(ctx, token)
}

type mockLocationSvc struct {
	pushFn func(ctx context.Context, driverID string, lat, lng float64) (models.LocationSample, error)
}

func (m *mockLocationSvc) Push(ctx context.Context, driverID string, lat, lng float64) (models.LocationSample, error) {
	return m.pushFn(ctx, driverID, lat, lng)
}

func (m *mockLocationSvc) Latest(context.Context, string) (models.LatestLocation, error) {
	return models.LatestLocation{}, nil
}

type fakeMQTTMessage struct {
	topic   string
	payload []byte
}

func (f *fakeMQTTMessage) Duplicate() bool   { return false }
func (f *fakeMQTTMessage) Qos() byte         { return 1 }
func (f *fakeMQTTMessage) Retained() bool    { return false }
func (f *fakeMQTTMessage) Topic() string     { return f.topic }
func (f *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (f *fakeMQTTMessage) Payload() []byte   { return f.payload }
func (f *fakeMQTTMessage) Ack()              {}

func newSubscriber(pushed *[]string) *LocationSubscriber {
	auth := &mockAuthSvc{
		authenticateFn: func(_ context.Context, token string) (models.Driver, error) {
			if token != "tok-d1" {
				return models.Driver{}, myerrors.New(myerrors.ErrUnauthorized, "Invalid driver token")
			}
			return models.Driver{ID: "d1"}, nil
		},
	}
	loc := &mockLocationSvc{
		pushFn: func(_ context.Context, driverID string, lat, lng float64) (models.LocationSample, error) {
			*pushed = append(*pushed, driverID)
			return models.LocationSample{DriverID: driverID, Latitude: lat, Longitude: lng}, nil
		},
	}
	return NewLocationSubscriber(nil, auth, loc, mylogger.NewWithWriter(mylogger.LevelError, io.Discard))
}

func TestHandleMessage(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		payload  string
		wantPush bool
	}{
		{"stored", "bustrack/driver/d1/location", `{"token":"tok-d1","latitude":12.9,"longitude":77.6}`, true},
		{"zero coordinates", "bustrack/driver/d1/location", `{"token":"tok-d1","latitude":0,"longitude":0}`, true},
		{"topic mismatch", "bustrack/driver/d2/location", `{"token":"tok-d1","latitude":12.9,"longitude":77.6}`, false},
		{"bad token", "bustrack/driver/d1/location", `{"token":"forged","latitude":12.9,"longitude":77.6}`, false},
		{"missing coordinate", "bustrack/driver/d1/location", `{"token":"tok-d1","latitude":12.9}`, false},
		{"bad json", "bustrack/driver/d1/location", `{`, false},
		{"bad topic", "other/d1/location", `{"token":"tok-d1","latitude":12.9,"longitude":77.6}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pushed []string
			sub := newSubscriber(&pushed)
			sub.handleMessage(nil, &fakeMQTTMessage{topic: tt.topic, payload: []byte(tt.payload)})

			if tt.wantPush && (len(pushed) != 1 || pushed[0] != "d1") {
				t.Fatalf("expected one push for d1, got %v", pushed)
			}
			if !tt.wantPush && len(pushed) != 0 {
				t.Fatalf("expected no push, got %v", pushed)
			}
		})
	}
}

func TestHandleMessage_PushErrorIsSwallowed(t *testing.T) {
	sub := newSubscriber(new([]string))
	sub.locationSvc = &mockLocationSvc{
		pushFn: func(context.Context, string, float64, float64) (models.LocationSample, error) {
			return models.LocationSample{}, errors.New("db down")
		},
	}
	sub.handleMessage(nil, &fakeMQTTMessage{
		topic:   "bustrack/driver/d1/location",
		payload: []byte(`{"token":"tok-d1","latitude":1,"longitude":2}`),
	})
}

func TestDriverIDFromTopic(t *testing.T) {
	id, err := driverIDFromTopic("bustrack/driver/abc/location")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "abc" {
		t.Errorf("expected abc, got %s", id)
	}
	for _, topic := range []string{"bustrack/driver//location", "bustrack/driver/abc", "/bustrack/driver/abc/location"} {
		if _, err := driverIDFromTopic(topic); err == nil {
			t.Errorf("expected error for %q", topic)
		}
	}
}
