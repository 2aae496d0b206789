package models

import (
	"encoding/json"
	"net/http"
)

// Problem: тело ошибки в стиле RFC 7807. Detail всегда обобщённый,
// подробности остаются в серверном логе под тем же reqid.
type Problem struct {
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Kind      string `json:"error,omitempty"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"reqid,omitempty"`
}

func WriteProblem(w http.ResponseWriter, p Problem) {
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
