// Package weather отвечает за приём показаний от датчиков, выборка и живой поток.
package weather

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"tarameteo/internal/apperr"
	"tarameteo/internal/logs"
	"tarameteo/internal/models"
	"tarameteo/internal/validate"
)

type Store interface {
	Create(ctx context.Context, w *models.WeatherData) error
	List(ctx context.Context, sensorID uint, start, end *time.Time) ([]models.WeatherData, error)
}

// Sensors: поиск датчика по имени (sensor.Manager).
type Sensors interface {
	Get(ctx context.Context, name string) (*models.Sensor, error)
}

type Manager struct {
	store   Store
	sensors Sensors
	hub     *Hub
}

func NewManager(store Store, sensors Sensors, hub *Hub) *Manager {
	return &Manager{store: store, sensors: sensors, hub: hub}
}

func (m *Manager) Hub() *Hub { return m.hub }

// Record сохраняет показание и после записи публикует его в хаб.
func (m *Manager) Record(ctx context.Context, s *models.Sensor, in Reading) (*Response, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if in.Timestamp.Time().IsZero() {
		return nil, apperr.New(apperr.InvalidInput, "timestamp is required")
	}
	row := &models.WeatherData{
		SensorID:    s.ID,
		Timestamp:   in.Timestamp.Time().UTC(),
		Temperature: *in.Temperature,
		Humidity:    *in.Humidity,
		Pressure:    *in.Pressure,
		Altitude:    in.Altitude,
		RSSI:        in.RSSI,
		RetryCount:  in.RetryCount,
	}
	if err := m.store.Create(ctx, row); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "store reading")
	}
	out := toResponse(s.Name, row)
	if m.hub != nil {
		m.hub.Publish(s.Name, out)
	}
	logs.Logger.WithFields(logrus.Fields{"sensor": s.Name, "ts": row.Timestamp}).Debug("reading stored")
	return &out, nil
}

// List: показания датчика в диапазоне [start, end] по возрастанию времени.
func (m *Manager) List(ctx context.Context, name string, start, end *time.Time) ([]Response, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, apperr.New(apperr.InvalidInput, "end must not be before start")
	}
	s, err := m.sensors.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	rows, err := m.store.List(ctx, s.ID, start, end)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "list readings")
	}
	out := make([]Response, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(s.Name, &rows[i]))
	}
	return out, nil
}

func toResponse(sensor string, w *models.WeatherData) Response {
	return Response{
		Sensor:      sensor,
		Timestamp:   w.Timestamp.UTC(),
		Temperature: w.Temperature,
		Humidity:    w.Humidity,
		Pressure:    w.Pressure,
		Altitude:    w.Altitude,
		RSSI:        w.RSSI,
		RetryCount:  w.RetryCount,
	}
}
