package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tarameteo/internal/apperr"
	"tarameteo/internal/logs"
	"tarameteo/internal/models"
	"tarameteo/internal/sensor"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait / 2
)

type Handler struct {
	m        *Manager
	upgrader websocket.Upgrader
}

func NewHandler(m *Manager) *Handler {
	return &Handler{
		m: m,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 5 * time.Second,
			// поток только на чтение, ключей в нём нет
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	s, ok := sensor.FromContext(r.Context())
	if !ok {
		apperr.Write(w, r, apperr.New(apperr.Unauthenticated, "invalid or missing API key"))
		return
	}
	var in Reading
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&in); err != nil {
		apperr.Write(w, r, apperr.Wrap(apperr.InvalidInput, err, "malformed JSON body"))
		return
	}
	out, err := h.m.Record(r.Context(), s, in)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, out)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	start, err := queryTime(r, "start")
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	end, err := queryTime(r, "end")
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	out, err := h.m.List(r.Context(), mux.Vars(r)["name"], start, end)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func queryTime(r *http.Request, key string) (*time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	t, err := ParseTime(v)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, err, "invalid "+key+" parameter")
	}
	return &t, nil
}

// StreamAll: показания всех датчиков по WebSocket.
func (h *Handler) StreamAll(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logs.Logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	h.stream(r.Context(), conn, TopicAll)
}

// StreamSensor: показания одного датчика. Неизвестный датчик закрывает
// соединение с кодом policy violation.
func (h *Handler) StreamSensor(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logs.Logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	if _, err := h.m.sensors.Get(r.Context(), name); err != nil {
		code := websocket.CloseInternalServerErr
		if apperr.KindOf(err) == apperr.NotFound {
			code = websocket.ClosePolicyViolation
		}
		closeWith(conn, code, apperr.Message(err))
		return
	}
	h.stream(r.Context(), conn, name)
}

func (h *Handler) stream(ctx context.Context, conn *websocket.Conn, topic string) {
	sub := h.m.hub.Subscribe(topic)
	defer sub.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// читаем только ради управляющих кадров и обнаружения закрытия
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	entry := logs.Logger.WithField("topic", topic)
	entry.Debug("stream subscriber connected")
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			closeWith(conn, websocket.CloseNormalClosure, "")
			entry.WithField("dropped", sub.Dropped()).Debug("stream subscriber gone")
			return
		case msg := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				entry.WithError(err).Debug("stream write failed")
				_ = conn.Close()
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		logs.Logger.WithFields(logrus.Fields{"code": code}).WithError(err).Debug("websocket close frame not sent")
	}
	_ = conn.Close()
}
