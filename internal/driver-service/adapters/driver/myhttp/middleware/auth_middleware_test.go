package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bustrack/internal/driver-service/core/domain/dto"
	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"
)

type mockAuth struct {
	authenticateFn func(ctx context.Context, token string) (models.Driver, error)
}

func (m *mockAuth) Login(context.Context, dto.LoginRequest) (dto.LoginResponse, error) {
	return dto.LoginResponse{}, nil
}

func (m *mockAuth) Authenticate(ctx context.Context, token string) (models.Driver, error) {
	return m.authenticateFn(ctx, token)
}

func TestWrap(t *testing.T) {
	auth := &mockAuth{
		authenticateFn: func(_ context.Context, token string) (models.Driver, error) {
			switch token {
			case "Bearer ok":
				return models.Driver{ID: "d-1"}, nil
			case "Bearer broken":
				return models.Driver{}, myerrors.Wrap(myerrors.ErrInternal, "Failed to authenticate driver", errors.New("db down"))
			case "":
				return models.Driver{}, myerrors.New(myerrors.ErrUnauthorized, "Driver authentication required")
			default:
				return models.Driver{}, myerrors.New(myerrors.ErrUnauthorized, "Invalid driver token")
			}
		},
	}

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, ok := DriverFrom(r.Context())
		if !ok {
			t.Fatal("expected driver in context")
		}
		seen = d.ID
		w.WriteHeader(http.StatusNoContent)
	})
	h := NewAuthMiddleware(auth).Wrap(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
		wantError  bool
	}{
		{"valid", "Bearer ok", http.StatusNoContent, "", false},
		{"missing", "", http.StatusUnauthorized, "Driver authentication required", false},
		{"forged", "Bearer forged", http.StatusUnauthorized, "Invalid driver token", false},
		{"lookup failure", "Bearer broken", http.StatusInternalServerError, "Failed to authenticate driver", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/api/driver/route", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusNoContent {
				if seen != "d-1" {
					t.Errorf("expected d-1, got %q", seen)
				}
				return
			}
			if seen != "" {
				t.Error("next handler must not run")
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if body["message"] != tt.wantMsg {
				t.Errorf("expected %q, got %q", tt.wantMsg, body["message"])
			}
			if _, ok := body["error"]; ok != tt.wantError {
				t.Errorf("error field presence = %v, want %v", ok, tt.wantError)
			}
		})
	}
}

func TestDriverFrom_Empty(t *testing.T) {
	if _, ok := DriverFrom(context.Background()); ok {
		t.Error("expected no driver")
	}
}
