package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tarameteo/internal/apperr"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingBearer = apperr.New(apperr.Unauthenticated, "missing bearer token")
	ErrInvalidBearer = apperr.New(apperr.Forbidden, "invalid token")
)

// CheckBearer проверяет заголовок Authorization: Bearer <secret>.
// Нет заголовка или он не того вида - Unauthenticated; токен не совпал - Forbidden.
// Пустой secret не пропускает никого.
func CheckBearer(header, secret string) error {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ErrMissingBearer
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return ErrMissingBearer
	}
	if secret == "" || !tokenEqual(token, secret) {
		return ErrInvalidBearer
	}
	return nil
}

// Сравниваем дайджесты: hmac.Equal постоянен по времени только при равной длине,
// а так длина секрета тоже не утекает.
func tokenEqual(token, secret string) bool {
	a := sha256.Sum256([]byte(token))
	b := sha256.Sum256([]byte(secret))
	return hmac.Equal(a[:], b[:])
}

// BearerAuth: middleware для маршрутов под общим секретом.
func BearerAuth(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := CheckBearer(r.Header.Get("Authorization"), secret); err != nil {
				if apperr.KindOf(err) == apperr.Unauthenticated {
					w.Header().Set("WWW-Authenticate", "Bearer")
				}
				apperr.Write(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
