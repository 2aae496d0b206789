package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tarameteo/internal/models"
)

type SensorStore struct{ db *gorm.DB }

func NewSensorStore(db *gorm.DB) *SensorStore { return &SensorStore{db: db} }

// Create вставляет датчик. Совпадение имени или любого из хэшей: ErrConflict.
func (s *SensorStore) Create(ctx context.Context, sn *models.Sensor) error {
	return translate(s.db.WithContext(ctx).Create(sn).Error)
}

// FindByIndexHash: единственный путь поиска при аутентификации.
func (s *SensorStore) FindByIndexHash(ctx context.Context, indexHash string) (*models.Sensor, error) {
	var sn models.Sensor
	err := s.db.WithContext(ctx).Where("index_hash = ?", indexHash).First(&sn).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sn, nil
}

func (s *SensorStore) FindByName(ctx context.Context, name string) (*models.Sensor, error) {
	var sn models.Sensor
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&sn).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sn, nil
}

// Rename меняет имя. Хэши ключа не трогаются.
func (s *SensorStore) Rename(ctx context.Context, name, newName string) (*models.Sensor, error) {
	var out *models.Sensor
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sn models.Sensor
		if err := tx.Where("name = ?", name).First(&sn).Error; err != nil {
			return err
		}
		if sn.Name == newName {
			out = &sn
			return nil
		}
		if err := tx.Model(&sn).Update("name", newName).Error; err != nil {
			return err
		}
		sn.Name = newName
		out = &sn
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// Delete удаляет датчик вместе с показаниями. Отсутствующий датчик: не ошибка.
func (s *SensorStore) Delete(ctx context.Context, name string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sn models.Sensor
		err := tx.Where("name = ?", name).First(&sn).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("sensor_id = ?", sn.ID).Delete(&models.WeatherData{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sn).Error
	})
	return translate(err)
}
