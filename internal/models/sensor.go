package models

import "time"

// Sensor: учётная запись датчика. Открытый API-ключ не хранится:
// IndexHash ищется по уникальному индексу, KeyHash подтверждает владение ключом.
type Sensor struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	IndexHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	KeyHash   string    `gorm:"size:128;uniqueIndex;not null" json:"-"`
	Name      string    `gorm:"size:255;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"modified"`
}

// SensorDetails: то, что отдаётся наружу после изменения датчика.
type SensorDetails struct {
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

func (s *Sensor) Details() SensorDetails {
	return SensorDetails{Name: s.Name, Created: s.CreatedAt, Modified: s.UpdatedAt}
}

// SensorStatistics: агрегаты по показаниям датчика.
type SensorStatistics struct {
	TotalReadings      int64      `json:"total_readings"`
	FirstReading       *time.Time `json:"first_reading"`
	LastReading        *time.Time `json:"last_reading"`
	Last24hReadings    int64      `json:"last_24h_readings"`
	AverageTemperature *float64   `json:"average_temperature"`
	AverageHumidity    *float64   `json:"average_humidity"`
	AveragePressure    *float64   `json:"average_pressure"`
	AverageRSSI        *int       `json:"average_rssi"`
}

// SensorInfo: детали датчика вместе со статистикой.
type SensorInfo struct {
	SensorDetails
	Statistics SensorStatistics `json:"statistics"`
}
