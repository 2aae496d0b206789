package sensor

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes: управление датчиками под /api/sensors.
// Аутентификации нет: эндпоинты рассчитаны на закрытую сеть.
func RegisterRoutes(r *mux.Router, m *Manager) {
	h := NewHandler(m)
	sub := r.PathPrefix("/api/sensors").Subrouter()
	sub.HandleFunc("", h.Create).Methods(http.MethodPost)
	sub.HandleFunc("/{name}", h.Info).Methods(http.MethodGet)
	sub.HandleFunc("/{name}", h.Rename).Methods(http.MethodPatch)
	sub.HandleFunc("/{name}", h.Delete).Methods(http.MethodDelete)
}
