package sensor

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"tarameteo/internal/apperr"
	"tarameteo/internal/models"
)

const HeaderAPIKey = "X-API-Key"

type ctxKey struct{}

// Снаружи все отказы выглядят одинаково.
var errInvalidKey = apperr.New(apperr.Unauthenticated, "invalid or missing API key")

// APIKeyAuth аутентифицирует датчик по X-API-Key и кладёт его в контекст.
func APIKeyAuth(m *Manager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.Authenticate(r.Context(), r.Header.Get(HeaderAPIKey))
			if err != nil {
				if apperr.KindOf(err) == apperr.NotFound {
					err = errInvalidKey
				}
				apperr.Write(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSensor(r.Context(), s)))
		})
	}
}

func WithSensor(ctx context.Context, s *models.Sensor) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext: датчик, прошедший APIKeyAuth.
func FromContext(ctx context.Context) (*models.Sensor, bool) {
	s, ok := ctx.Value(ctxKey{}).(*models.Sensor)
	return s, ok
}
