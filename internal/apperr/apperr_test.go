package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarameteo/internal/models"
)

func TestKindOf(t *testing.T) {
	base := New(NotFound, "sensor not found")
	wrapped := fmt.Errorf("authenticate: %w", base)

	assert.Equal(t, NotFound, KindOf(base))
	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, Internal, KindOf(nil))
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("x: %w", Wrap(Forbidden, errors.New("cause"), "invalid token"))
	assert.ErrorIs(t, err, New(Forbidden, ""))
	assert.ErrorIs(t, err, New(Forbidden, "invalid token"))
	assert.NotErrorIs(t, err, New(Forbidden, "other"))
	assert.NotErrorIs(t, err, New(Unauthenticated, ""))
}

func TestStatus(t *testing.T) {
	cases := map[Kind]int{
		Unauthenticated:   http.StatusUnauthorized,
		Forbidden:         http.StatusForbidden,
		NotFound:          http.StatusNotFound,
		AlreadyExists:     http.StatusConflict,
		InvalidInput:      http.StatusUnprocessableEntity,
		CryptoUnavailable: http.StatusServiceUnavailable,
		Internal:          http.StatusInternalServerError,
	}
	for k, code := range cases {
		assert.Equal(t, code, k.Status(), k.String())
	}
}

func TestWriteHidesOpaqueDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/certs", nil)
	Write(rec, req, Wrap(CryptoUnavailable, errors.New("open /pki/ca.key: permission denied"), "ca material unavailable"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var p models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "crypto_unavailable", p.Kind)
	assert.NotContains(t, p.Detail, "/pki")
	assert.NotContains(t, p.Detail, "ca material")
}

func TestWriteShowsClientDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sensors", nil)
	Write(rec, req, New(AlreadyExists, "sensor already exists: roof"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var p models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "sensor already exists: roof", p.Detail)
	assert.Equal(t, "Conflict", p.Title)
}
