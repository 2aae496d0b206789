package sensor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tarameteo/internal/models"
)

func newTestRouter(t *testing.T) (*mux.Router, *Manager) {
	t.Helper()
	f := newFixture(t, time.Now())
	r := mux.NewRouter()
	RegisterRoutes(r, f.m)

	protected := r.PathPrefix("/api/ping").Subrouter()
	protected.Use(APIKeyAuth(f.m))
	protected.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		s, ok := FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(s.Name))
	})
	return r, f.m
}

func serve(r http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSensorLifecycleHTTP(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := serve(r, http.MethodPost, "/api/sensors", `{"name":"garden"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		APIKey string `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.APIKey)

	rec = serve(r, http.MethodPost, "/api/sensors", `{"name":"garden"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Body.String(), created.APIKey)

	rec = serve(r, http.MethodGet, "/api/sensors/garden", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info models.SensorInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "garden", info.Name)
	assert.NotContains(t, rec.Body.String(), "hash")

	rec = serve(r, http.MethodPatch, "/api/sensors/garden", `{"name":"backyard"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"backyard"`)

	rec = serve(r, http.MethodGet, "/api/ping", "", map[string]string{HeaderAPIKey: created.APIKey})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "backyard", rec.Body.String())

	rec = serve(r, http.MethodDelete, "/api/sensors/backyard", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(r, http.MethodGet, "/api/sensors/backyard", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRejectsBadBody(t *testing.T) {
	r, _ := newTestRouter(t)
	assert.Equal(t, http.StatusUnprocessableEntity, serve(r, http.MethodPost, "/api/sensors", `{"name":`, nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, serve(r, http.MethodPost, "/api/sensors", `{"name":""}`, nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, serve(r, http.MethodPost, "/api/sensors", `{"name":"x","extra":1}`, nil).Code)
}

func TestAPIKeyAuthUniformRejection(t *testing.T) {
	r, m := newTestRouter(t)
	key, _, err := m.Create(context.Background(), "garden")
	require.NoError(t, err)

	bodies := map[string]string{}
	for name, hdr := range map[string]map[string]string{
		"missing": nil,
		"unknown": {HeaderAPIKey: "definitely-not-a-key"},
		"mangled": {HeaderAPIKey: key + "x"},
	} {
		rec := serve(r, http.MethodGet, "/api/ping", "", hdr)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)

		var p models.Problem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
		assert.Equal(t, "invalid or missing API key", p.Detail)
		p.RequestID = ""
		b, _ := json.Marshal(p)
		bodies[name] = string(b)
	}
	assert.Equal(t, bodies["missing"], bodies["unknown"])
	assert.Equal(t, bodies["unknown"], bodies["mangled"])
}
