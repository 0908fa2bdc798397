package handle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bustrack/internal/config"
	"bustrack/internal/mylogger"
	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"
	"bustrack/internal/user-service/adapters/driven/upstream"
	"bustrack/internal/user-service/core/services"
)

type mockBusService struct {
	getFn func(ctx context.Context, busNumber string) (models.DriverWithRoute, error)
}

func (m *mockBusService) GetDriverByBusNumber(ctx context.Context, busNumber string) (models.DriverWithRoute, error) {
	return m.getFn(ctx, busNumber)
}

func testLogger() mylogger.Logger {
	return mylogger.NewWithWriter(mylogger.LevelError, io.Discard)
}

// newProxyMux serves the user routes with the real proxy stack pointed at
// driverAPI.
func newProxyMux(driverAPI string, bus *mockBusService) *http.ServeMux {
	client := upstream.NewDriverClient(config.Upstreamconfig{
		DriverAPIBaseURL: driverAPI,
		Timeout:          time.Second,
		Retries:          1,
	}, testLogger())
	h := NewUserHandler(bus, services.NewLiveLocationService(client, testLogger()), testLogger())

	mux := http.NewServeMux()
	mux.Handle("GET /api/user/driver/by-bus/{busNumber}", h.DriverByBus())
	mux.Handle("GET /api/user/driver/{driverId}/live-location", h.LiveLocation())
	return mux
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	out := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON object: %q", rec.Body.String())
	}
	return rec, out
}

func fakeDriverService() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/user/driver/d-1/latest-location":
			io.WriteString(w, `{"id":"s-1","latitude":12.9,"longitude":77.6,"timestamp":"2024-01-01T00:00:00Z","driver":{"busNumber":"B12"}}`)
		case "/api/user/driver/broken/latest-location":
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"message":"Failed to fetch latest location","error":"db down"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"Location not found for this driver"}`)
		}
	}))
}

func TestLiveLocation(t *testing.T) {
	driverSrv := fakeDriverService()
	defer driverSrv.Close()
	mux := newProxyMux(driverSrv.URL+"/api", &mockBusService{})

	t.Run("success adds IST time", func(t *testing.T) {
		rec, out := get(t, mux, "/api/user/driver/d-1/live-location")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if out["formattedTimeIST"] != "05:30:00" {
			t.Errorf("expected 05:30:00, got %v", out["formattedTimeIST"])
		}
		if out["timestamp"] != "2024-01-01T00:00:00Z" || out["id"] != "s-1" {
			t.Errorf("original fields must pass through: %v", out)
		}
		if d, _ := out["driver"].(map[string]any); d["busNumber"] != "B12" {
			t.Errorf("nested driver lost: %v", out["driver"])
		}
	})

	t.Run("upstream 404 passthrough", func(t *testing.T) {
		rec, out := get(t, mux, "/api/user/driver/nobody/live-location")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if out["message"] != "Failed to fetch driver location from driver server" {
			t.Errorf("unexpected message %v", out["message"])
		}
		upstreamBody, _ := out["error"].(map[string]any)
		if upstreamBody["message"] != "Location not found for this driver" {
			t.Errorf("expected upstream body attached, got %v", out["error"])
		}
	})

	t.Run("upstream 500 passthrough", func(t *testing.T) {
		rec, out := get(t, mux, "/api/user/driver/broken/live-location")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if out["message"] != "Failed to fetch driver location from driver server" {
			t.Errorf("unexpected message %v", out["message"])
		}
	})
}

func TestLiveLocation_Unreachable(t *testing.T) {
	driverSrv := fakeDriverService()
	base := driverSrv.URL + "/api"
	driverSrv.Close()

	rec, out := get(t, newProxyMux(base, &mockBusService{}), "/api/user/driver/d-1/live-location")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if out["message"] != "Failed to communicate with driver server" {
		t.Errorf("unexpected message %v", out["message"])
	}
	if s, _ := out["error"].(string); s == "" {
		t.Error("expected transport error detail")
	}
}

func TestDriverByBus(t *testing.T) {
	bus := &mockBusService{
		getFn: func(_ context.Context, busNumber string) (models.DriverWithRoute, error) {
			switch busNumber {
			case "B7":
				return models.DriverWithRoute{
					Driver: models.Driver{ID: "d-7", Username: "asha", BusNumber: "B7", PasswordHash: "$2a$10$hash"},
					Route:  &models.Route{ID: "r-7", BusNumber: "B7"},
				}, nil
			case "ERR":
				return models.DriverWithRoute{}, myerrors.Wrap(myerrors.ErrInternal, "Failed to fetch driver and route data.", errors.New("db down"))
			}
			return models.DriverWithRoute{}, myerrors.New(myerrors.ErrNotFound, "Driver with bus number "+busNumber+" not found.")
		},
	}
	mux := newProxyMux("http://127.0.0.1:1", bus)

	rec, out := get(t, mux, "/api/user/driver/by-bus/B7")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if out["busNumber"] != "B7" {
		t.Errorf("unexpected body %v", out)
	}
	if r, _ := out["route"].(map[string]any); r["id"] != "r-7" {
		t.Errorf("expected route inline, got %v", out["route"])
	}
	if strings.Contains(rec.Body.String(), "$2a$") {
		t.Error("password hash leaked")
	}

	rec, out = get(t, mux, "/api/user/driver/by-bus/B12")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if msg, _ := out["message"].(string); !strings.Contains(msg, "B12") {
		t.Errorf("expected bus number in message, got %q", msg)
	}

	rec, out = get(t, mux, "/api/user/driver/by-bus/ERR")
	if rec.Code != http.StatusInternalServerError || out["error"] != "db down" {
		t.Errorf("unexpected response %d %v", rec.Code, out)
	}
}
