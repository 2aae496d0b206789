// Package sensor ведёт учётные записи датчиков и их аутентификация по API-ключу.
package sensor

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"tarameteo/internal/apperr"
	"tarameteo/internal/auth"
	"tarameteo/internal/limiter"
	"tarameteo/internal/logs"
	"tarameteo/internal/models"
	"tarameteo/internal/repo"
	"tarameteo/internal/validate"
)

// Store: то, что менеджеру нужно от хранилища датчиков.
type Store interface {
	Create(ctx context.Context, s *models.Sensor) error
	FindByIndexHash(ctx context.Context, indexHash string) (*models.Sensor, error)
	FindByName(ctx context.Context, name string) (*models.Sensor, error)
	Rename(ctx context.Context, name, newName string) (*models.Sensor, error)
	Delete(ctx context.Context, name string) error
}

// StatsSource: агрегаты по показаниям.
type StatsSource interface {
	Stats(ctx context.Context, sensorID uint, since time.Time) (*repo.Aggregates, error)
}

// ErrAuthFailed - единственный ответ на неудачную аутентификацию;
// неизвестный индекс и неверный ключ неразличимы снаружи.
var ErrAuthFailed = apperr.New(apperr.NotFound, "sensor not found")

type Options struct {
	Store     Store
	Stats     StatsSource
	Generator auth.KeyGenerator
	Hasher    auth.KeyHasher
	KeyLength int
	Limiter   *limiter.Limiter
	Now       func() time.Time
}

type Manager struct {
	store   Store
	stats   StatsSource
	gen     auth.KeyGenerator
	hasher  auth.KeyHasher
	keyLen  int
	limiter *limiter.Limiter
	now     func() time.Time
}

func NewManager(o Options) *Manager {
	m := &Manager{
		store:   o.Store,
		stats:   o.Stats,
		gen:     o.Generator,
		hasher:  o.Hasher,
		keyLen:  o.KeyLength,
		limiter: o.Limiter,
		now:     o.Now,
	}
	if m.gen == nil {
		m.gen = auth.SecureKeyGenerator{}
	}
	if m.hasher == nil {
		m.hasher = auth.BcryptKeyHasher{}
	}
	if m.keyLen == 0 {
		m.keyLen = 32
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

type nameInput struct {
	Name string `json:"name" validate:"required,max=255,sensorname"`
}

// Authenticate находит датчик по предъявленному ключу.
// Все виды отказа отдают ErrAuthFailed, причина видна только в логе.
func (m *Manager) Authenticate(ctx context.Context, key string) (*models.Sensor, error) {
	if key == "" {
		return nil, ErrAuthFailed
	}
	s, err := m.store.FindByIndexHash(ctx, m.hasher.HashIndex(key))
	if errors.Is(err, repo.ErrNotFound) {
		logs.Logger.Debug("sensor auth: unknown index")
		return nil, ErrAuthFailed
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "sensor lookup failed")
	}

	var ok bool
	err = m.limiter.Do(ctx, func() error {
		var verr error
		ok, verr = m.hasher.Verify(key, s.KeyHash)
		return verr
	})
	entry := logs.Logger.WithFields(logrus.Fields{"sensor": s.Name})
	switch {
	case errors.Is(err, auth.ErrMalformedHash):
		entry.WithError(err).Error("sensor auth: corrupt stored key hash")
		return nil, ErrAuthFailed
	case err != nil:
		return nil, cryptoErr(err, "sensor auth aborted")
	case !ok:
		entry.Warn("sensor auth: key mismatch")
		return nil, ErrAuthFailed
	}
	return s, nil
}

// cryptoErr: не дождались слота лимитера - 503, остальное - 500.
func cryptoErr(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.CryptoUnavailable, err, "server busy")
	}
	return apperr.Wrap(apperr.Internal, err, msg)
}

// Create заводит датчик и возвращает открытый ключ. Больше его получить нельзя.
func (m *Manager) Create(ctx context.Context, name string) (string, *models.Sensor, error) {
	if err := validate.Struct(nameInput{Name: name}); err != nil {
		return "", nil, err
	}
	key, err := m.gen.Generate(m.keyLen)
	if err != nil {
		return "", nil, apperr.Wrap(apperr.Internal, err, "generate api key")
	}

	s := &models.Sensor{Name: name, IndexHash: m.hasher.HashIndex(key)}
	err = m.limiter.Do(ctx, func() error {
		var herr error
		s.KeyHash, herr = m.hasher.HashKey(key)
		return herr
	})
	if err != nil {
		return "", nil, cryptoErr(err, "hash api key")
	}

	switch err := m.store.Create(ctx, s); {
	case errors.Is(err, repo.ErrConflict):
		return "", nil, apperr.Wrap(apperr.AlreadyExists, err, "sensor already exists: "+name)
	case err != nil:
		return "", nil, apperr.Wrap(apperr.Internal, err, "create sensor")
	}
	logs.Logger.WithField("sensor", name).Info("sensor created")
	return key, s, nil
}

func (m *Manager) Get(ctx context.Context, name string) (*models.Sensor, error) {
	s, err := m.store.FindByName(ctx, name)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperr.Wrap(apperr.NotFound, err, "sensor not found: "+name)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "load sensor")
	}
	return s, nil
}

func (m *Manager) Rename(ctx context.Context, name, newName string) (*models.Sensor, error) {
	if err := validate.Struct(nameInput{Name: newName}); err != nil {
		return nil, err
	}
	s, err := m.store.Rename(ctx, name, newName)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, apperr.Wrap(apperr.NotFound, err, "sensor not found: "+name)
	case errors.Is(err, repo.ErrConflict):
		return nil, apperr.Wrap(apperr.AlreadyExists, err, "sensor already exists: "+newName)
	case err != nil:
		return nil, apperr.Wrap(apperr.Internal, err, "rename sensor")
	}
	logs.Logger.WithFields(logrus.Fields{"sensor": newName, "old": name}).Info("sensor renamed")
	return s, nil
}

// Delete идемпотентен; показания удаляются вместе с датчиком.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := m.store.Delete(ctx, name); err != nil {
		return apperr.Wrap(apperr.Internal, err, "delete sensor")
	}
	logs.Logger.WithField("sensor", name).Info("sensor deleted")
	return nil
}

// Info: детали датчика и статистика показаний.
func (m *Manager) Info(ctx context.Context, name string) (*models.SensorInfo, error) {
	s, err := m.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	info := &models.SensorInfo{SensorDetails: s.Details()}
	if m.stats == nil {
		return info, nil
	}
	agg, err := m.stats.Stats(ctx, s.ID, m.now().Add(-24*time.Hour))
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "sensor statistics")
	}
	info.Statistics = models.SensorStatistics{
		TotalReadings:      agg.Total,
		FirstReading:       agg.First,
		LastReading:        agg.Last,
		Last24hReadings:    agg.Recent,
		AverageTemperature: round1(agg.Temperature),
		AverageHumidity:    round1(agg.Humidity),
		AveragePressure:    round1(agg.Pressure),
	}
	if agg.RSSI != nil {
		r := int(math.Round(*agg.RSSI))
		info.Statistics.AverageRSSI = &r
	}
	return info, nil
}

func round1(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*10) / 10
	return &r
}
