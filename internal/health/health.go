package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"tarameteo/internal/models"
)

// RegisterRoutes: базовый liveness.
func RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", liveness).Methods(http.MethodGet)
}

// RegisterRoutesWithDB: liveness + readiness (проверка БД).
func RegisterRoutesWithDB(r *mux.Router, db *gorm.DB) {
	RegisterRoutes(r)
	r.HandleFunc("/readyz", readiness(db)).Methods(http.MethodGet)
}

func readiness(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			writeStatus(w, http.StatusServiceUnavailable, "db not configured")
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "db handle error")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "db unreachable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	}
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	models.WriteJSON(w, code, map[string]string{"status": status})
}
