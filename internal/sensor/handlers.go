package sensor

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"tarameteo/internal/apperr"
	"tarameteo/internal/models"
)

type Handler struct {
	m *Manager
}

func NewHandler(m *Manager) *Handler { return &Handler{m: m} }

type createRequest struct {
	Name string `json:"name"`
}

type createResponse struct {
	APIKey string `json:"api_key"`
}

type renameRequest struct {
	Name string `json:"name"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.InvalidInput, err, "malformed JSON body")
	}
	return nil
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	key, _, err := h.m.Create(r.Context(), req.Name)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	models.WriteJSON(w, http.StatusCreated, createResponse{APIKey: key})
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.m.Info(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	s, err := h.m.Rename(r.Context(), mux.Vars(r)["name"], req.Name)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, s.Details())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.m.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
		apperr.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
