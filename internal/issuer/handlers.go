package issuer

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tarameteo/internal/apperr"
	"tarameteo/internal/models"
)

type Handler struct {
	svc        *Service
	defaultTTL int
	timeout    time.Duration
}

func NewHandler(svc *Service, defaultTTL int, timeout time.Duration) *Handler {
	return &Handler{svc: svc, defaultTTL: defaultTTL, timeout: timeout}
}

// ttl_days необязателен; явный 0: ошибка, а не значение по умолчанию.
type mintBody struct {
	DeviceID string `json:"device_id"`
	TTLDays  *int   `json:"ttl_days"`
}

func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	var body mintBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<14))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		apperr.Write(w, r, apperr.Wrap(apperr.InvalidInput, err, "malformed JSON body"))
		return
	}
	req := MintRequest{DeviceID: body.DeviceID, TTLDays: h.defaultTTL}
	if body.TTLDays != nil {
		req.TTLDays = *body.TTLDays
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	resp, err := h.svc.Mint(ctx, req)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	models.WriteJSON(w, http.StatusOK, resp)
}
