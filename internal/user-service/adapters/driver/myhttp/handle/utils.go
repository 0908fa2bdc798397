package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"bustrack/internal/shared/myerrors"
)

const WaitTime = 10

func jsonResponse(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, err error, defMessage string) {
	code := statusFor(err)
	body := map[string]any{
		"message": myerrors.Message(err, defMessage),
	}
	if code >= http.StatusInternalServerError {
		body["error"] = myerrors.Cause(err)
	}
	jsonResponse(w, code, body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, myerrors.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, myerrors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
