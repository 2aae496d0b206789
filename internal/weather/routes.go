package weather

import (
	"net/http"

	"github.com/gorilla/mux"

	"tarameteo/internal/sensor"
)

// RegisterRoutes: приём показаний (по API-ключу датчика), выборка и потоки.
func RegisterRoutes(r *mux.Router, m *Manager, sensors *sensor.Manager) {
	h := NewHandler(m)

	ingest := r.PathPrefix("/api/weather").Subrouter()
	ingest.Use(sensor.APIKeyAuth(sensors))
	ingest.HandleFunc("", h.Post).Methods(http.MethodPost)

	r.HandleFunc("/api/sensors/{name}/weather", h.List).Methods(http.MethodGet)
	r.HandleFunc("/ws/weather", h.StreamAll).Methods(http.MethodGet)
	r.HandleFunc("/ws/sensors/{name}/weather", h.StreamSensor).Methods(http.MethodGet)
}
