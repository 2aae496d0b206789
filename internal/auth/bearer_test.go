package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"tarameteo/internal/apperr"
)

func TestCheckBearer(t *testing.T) {
	const secret = "issuer-secret"
	cases := []struct {
		name   string
		header string
		want   error
	}{
		{"ok", "Bearer issuer-secret", nil},
		{"ok trailing space", "Bearer issuer-secret ", nil},
		{"missing", "", ErrMissingBearer},
		{"wrong scheme", "Basic aXNzdWVyLXNlY3JldA==", ErrMissingBearer},
		{"lowercase scheme", "bearer issuer-secret", ErrMissingBearer},
		{"empty token", "Bearer ", ErrMissingBearer},
		{"wrong token", "Bearer issuer-secreT", ErrInvalidBearer},
		{"prefix of secret", "Bearer issuer", ErrInvalidBearer},
		{"longer than secret", "Bearer issuer-secret-and-more", ErrInvalidBearer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckBearer(tc.header, secret)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckBearerEmptySecretDeniesAll(t *testing.T) {
	err := CheckBearer("Bearer anything", "")
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
}

func TestBearerAuthStatusCodes(t *testing.T) {
	r := mux.NewRouter()
	r.Use(BearerAuth("s3cret"))
	r.HandleFunc("/v1/certs", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/certs", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := do("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	assert.Equal(t, http.StatusForbidden, do("Bearer nope").Code)
	assert.Equal(t, http.StatusNoContent, do("Bearer s3cret").Code)
}
