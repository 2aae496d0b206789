package apperr

import (
	"net/http"

	"tarameteo/internal/logs"
	"tarameteo/internal/middleware"
	"tarameteo/internal/models"
)

// Write отдаёт ошибку клиенту как problem+json. Непрозрачные виды пишутся
// в лог целиком, клиент видит только reqid.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	kind := KindOf(err)
	reqid := middleware.GetRequestID(r)
	entry := logs.Logger.WithFields(map[string]any{
		"reqid":  reqid,
		"kind":   kind.String(),
		"method": r.Method,
		"uri":    r.RequestURI,
	})
	if kind.Opaque() {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Warn("request rejected")
	}
	models.WriteProblem(w, models.Problem{
		Status:    kind.Status(),
		Kind:      kind.String(),
		Detail:    Message(err),
		RequestID: reqid,
	})
}
