package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	ports "bustrack/internal/driver-service/core/ports/driver"
	"bustrack/internal/shared/models"
	"bustrack/internal/shared/myerrors"
)

type ctxKey struct{}

const authTimeout = 5 * time.Second

type AuthMiddleware struct {
	auth ports.IAuthService
}

func NewAuthMiddleware(auth ports.IAuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// Wrap rejects the request unless it carries a valid driver token. The
// authenticated driver is stored in the request context.
func (am *AuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), authTimeout)
		defer cancel()

		driver, err := am.auth.Authenticate(ctx, r.Header.Get("Authorization"))
		if err != nil {
			code := http.StatusUnauthorized
			body := map[string]string{"message": myerrors.Message(err, "Invalid driver token")}
			if !errors.Is(err, myerrors.ErrUnauthorized) {
				code = http.StatusInternalServerError
				body["error"] = myerrors.Cause(err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			_ = json.NewEncoder(w).Encode(body)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithDriver(r.Context(), driver)))
	})
}

func WithDriver(ctx context.Context, d models.Driver) context.Context {
	return context.WithValue(ctx, ctxKey{}, d)
}

// DriverFrom returns the driver placed in ctx by Wrap.
func DriverFrom(ctx context.Context) (models.Driver, bool) {
	d, ok := ctx.Value(ctxKey{}).(models.Driver)
	return d, ok
}
