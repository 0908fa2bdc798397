package mylogger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_RenamesMessageAndTime(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(LevelInfo, buf)

	l.Action("boot").Info("hello", "port", 5001)

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	got := lines[0]
	if got["message"] != "hello" {
		t.Errorf("expected message hello, got %v", got["message"])
	}
	if _, ok := got["timestamp"]; !ok {
		t.Error("expected timestamp key")
	}
	if got["action"] != "boot" {
		t.Errorf("expected action boot, got %v", got["action"])
	}
	if got["instance_id"] == "" || got["instance_id"] == nil {
		t.Error("expected instance_id")
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(LevelWarn, buf)

	l.Debug("d")
	l.Info("i")
	l.Warn("w")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["message"] != "w" {
		t.Fatalf("expected only warn line, got %v", lines)
	}
}

func TestLogger_ErrorCarriesStack(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(LevelInfo, buf)

	l.Error("boom", errors.New("disk full"))

	lines := decodeLines(t, buf)
	errGroup, ok := lines[0]["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error group, got %v", lines[0])
	}
	if errGroup["msg"] != "disk full" {
		t.Errorf("expected disk full, got %v", errGroup["msg"])
	}
	if stack, ok := errGroup["stack"].([]any); !ok || len(stack) == 0 {
		t.Errorf("expected stack frames, got %v", errGroup["stack"])
	}
}

func TestRequestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewWithWriter(LevelDebug, buf)

	h := middleware.RequestID(RequestLogger(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["status"] != float64(http.StatusTeapot) {
		t.Errorf("expected status 418, got %v", lines[0]["status"])
	}
	if lines[0]["request_id"] == "" {
		t.Error("expected request id")
	}
	if lines[0]["path"] != "/healthz" {
		t.Errorf("expected /healthz, got %v", lines[0]["path"])
	}
}
