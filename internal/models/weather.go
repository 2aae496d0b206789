package models

import "time"

type WeatherData struct {
	ID          uint      `gorm:"primaryKey"`
	SensorID    uint      `gorm:"index;not null"`
	Timestamp   time.Time `gorm:"index;not null"`
	Temperature float64
	Humidity    float64
	Pressure    float64
	Altitude    *float64
	RSSI        *int
	RetryCount  *int
	CreatedAt   time.Time
}

func (WeatherData) TableName() string { return "weather_data" }
