package issuer

import (
	"net/http"

	"github.com/gorilla/mux"

	"tarameteo/internal/auth"
)

// RegisterRoutes: POST /v1/certs под общим bearer-секретом.
func RegisterRoutes(r *mux.Router, h *Handler, token string) {
	sub := r.PathPrefix("/v1").Subrouter()
	sub.Use(auth.BearerAuth(token))
	sub.HandleFunc("/certs", h.Mint).Methods(http.MethodPost)
}
