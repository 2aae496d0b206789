package server

import (
	"fmt"

	"gorm.io/gorm"

	"tarameteo/config"
	"tarameteo/internal/auth"
	"tarameteo/internal/issuer"
	"tarameteo/internal/limiter"
	"tarameteo/internal/repo"
	"tarameteo/internal/sensor"
	"tarameteo/internal/weather"
)

// Сборка доменных компонентов из конфига. Используется и HTTP-сервером, и CLI.

func NewSensorManager(cfg *config.Config, d *gorm.DB, lim *limiter.Limiter) (*sensor.Manager, error) {
	hasher, err := auth.NewKeyHasher(cfg.Sensor.KeyHash)
	if err != nil {
		return nil, fmt.Errorf("sensor.key_hash: %w", err)
	}
	return sensor.NewManager(sensor.Options{
		Store:     repo.NewSensorStore(d),
		Stats:     repo.NewWeatherStore(d),
		Generator: auth.SecureKeyGenerator{},
		Hasher:    hasher,
		KeyLength: cfg.Sensor.KeyLength,
		Limiter:   lim,
	}), nil
}

func NewWeatherManager(d *gorm.DB, sensors *sensor.Manager) *weather.Manager {
	return weather.NewManager(repo.NewWeatherStore(d), sensors, weather.NewHub(64))
}

func NewIssuerService(cfg *config.Config, lim *limiter.Limiter) (*issuer.Service, error) {
	keys, err := issuer.NewKeyFactory(cfg.Issuer.KeyAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("issuer.key_algorithm: %w", err)
	}
	src := issuer.FileCASource{KeyPath: cfg.Issuer.CAKey, CertPath: cfg.Issuer.CACert}
	return issuer.NewService(src, keys, lim), nil
}
