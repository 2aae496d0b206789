package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tarameteo/internal/models"
)

type WeatherStore struct{ db *gorm.DB }

func NewWeatherStore(db *gorm.DB) *WeatherStore { return &WeatherStore{db: db} }

func (s *WeatherStore) Create(ctx context.Context, w *models.WeatherData) error {
	return translate(s.db.WithContext(ctx).Create(w).Error)
}

// List: показания датчика по возрастанию времени. Границы включительные,
// nil: без ограничения.
func (s *WeatherStore) List(ctx context.Context, sensorID uint, start, end *time.Time) ([]models.WeatherData, error) {
	q := s.db.WithContext(ctx).Where("sensor_id = ?", sensorID)
	if start != nil {
		q = q.Where("timestamp >= ?", start.UTC())
	}
	if end != nil {
		q = q.Where("timestamp <= ?", end.UTC())
	}
	var out []models.WeatherData
	if err := q.Order("timestamp ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Aggregates: сырые агрегаты, округление делает вызывающий.
type Aggregates struct {
	Total       int64
	Recent      int64
	First       *time.Time
	Last        *time.Time
	Temperature *float64
	Humidity    *float64
	Pressure    *float64
	RSSI        *float64
}

// Stats считает агрегаты по датчику; Recent: показания начиная с since.
func (s *WeatherStore) Stats(ctx context.Context, sensorID uint, since time.Time) (*Aggregates, error) {
	var agg Aggregates
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base := func() *gorm.DB { return tx.Model(&models.WeatherData{}).Where("sensor_id = ?", sensorID) }

		if err := base().Count(&agg.Total).Error; err != nil {
			return err
		}
		if agg.Total == 0 {
			return nil
		}
		if err := base().Where("timestamp >= ?", since.UTC()).Count(&agg.Recent).Error; err != nil {
			return err
		}

		var first, last models.WeatherData
		if err := base().Order("timestamp ASC").First(&first).Error; err != nil {
			return err
		}
		if err := base().Order("timestamp DESC").First(&last).Error; err != nil {
			return err
		}
		agg.First, agg.Last = &first.Timestamp, &last.Timestamp

		var avg struct {
			Temperature *float64
			Humidity    *float64
			Pressure    *float64
			RSSI        *float64
		}
		err := base().Select(
			"AVG(temperature) AS temperature, AVG(humidity) AS humidity, " +
				"AVG(pressure) AS pressure, AVG(rssi) AS rssi",
		).Scan(&avg).Error
		if err != nil {
			return err
		}
		agg.Temperature, agg.Humidity, agg.Pressure, agg.RSSI = avg.Temperature, avg.Humidity, avg.Pressure, avg.RSSI
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &agg, nil
}
