package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"bustrack/internal/shared/myerrors"
	"bustrack/internal/user-service/core/domain/dto"
)

func TestFormatIST(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "05:30:00"},
		{time.Date(2024, 1, 1, 18, 45, 59, 0, time.UTC), "00:15:59"},
		{time.Date(2024, 6, 30, 12, 0, 0, 0, time.FixedZone("X", -5*3600)), "22:30:00"},
	}
	for _, tt := range tests {
		if got := FormatIST(tt.in); got != tt.want {
			t.Errorf("FormatIST(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithIST(t *testing.T) {
	in := dto.LiveLocation{"timestamp": "2024-01-01T00:00:00Z", "latitude": 12.9}
	out := WithIST(in)

	if out["formattedTimeIST"] != "05:30:00" {
		t.Errorf("expected 05:30:00, got %v", out["formattedTimeIST"])
	}
	if out["timestamp"] != "2024-01-01T00:00:00Z" || out["latitude"] != 12.9 {
		t.Errorf("original fields must be kept: %v", out)
	}
	if _, ok := in["formattedTimeIST"]; ok {
		t.Error("input must not be modified")
	}

	for _, loc := range []dto.LiveLocation{nil, {}, {"timestamp": "yesterday"}, {"timestamp": 17}} {
		if _, ok := WithIST(loc)["formattedTimeIST"]; ok {
			t.Errorf("expected no formatted time for %v", loc)
		}
	}
}

func TestGetLiveLocation(t *testing.T) {
	api := &mockDriverAPI{
		latestLocationFn: func(_ context.Context, id string) (dto.LiveLocation, error) {
			switch id {
			case "d-1":
				return dto.LiveLocation{"id": "s-1", "timestamp": "2024-01-01T00:00:00.000Z"}, nil
			case "missing":
				return nil, &myerrors.UpstreamError{Status: http.StatusNotFound, Body: map[string]any{"message": "Location not found for this driver"}}
			}
			return nil, myerrors.Wrap(myerrors.ErrTransport, "Failed to communicate with driver server", errors.New("dial tcp: refused"))
		},
	}
	svc := NewLiveLocationService(api, testLogger())
	ctx := context.Background()

	loc, err := svc.GetLiveLocation(ctx, "d-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc["formattedTimeIST"] != "05:30:00" {
		t.Errorf("unexpected location %v", loc)
	}

	_, err = svc.GetLiveLocation(ctx, "missing")
	var upstream *myerrors.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusNotFound {
		t.Fatalf("expected upstream 404, got %v", err)
	}

	_, err = svc.GetLiveLocation(ctx, "down")
	if !errors.Is(err, myerrors.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if errors.Is(err, myerrors.ErrUpstream) {
		t.Error("transport failure must be distinguishable from an upstream answer")
	}
}
