package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"tarameteo/internal/logs"
	"tarameteo/internal/models"
)

// Recoverer перехватывает панику в обработчике, пишет лог со стеком
// и возвращает 500 без внутренних подробностей.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			reqid := GetRequestID(r)
			logs.Logger.WithFields(logrus.Fields{
				"reqid":  reqid,
				"method": r.Method,
				"uri":    r.RequestURI,
				"stack":  string(debug.Stack()),
			}).Errorf("panic: %v", rec)
			models.WriteProblem(w, models.Problem{
				Status:    http.StatusInternalServerError,
				Kind:      "internal",
				Detail:    "unexpected server error (see logs by reqid)",
				RequestID: reqid,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
