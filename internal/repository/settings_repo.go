package repository

import (
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
)

// SettingsID 设置表唯一行的主键
const SettingsID int64 = 1

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get() (*model.GymSettings, error) {
	var s model.GymSettings
	err := r.db.Where("id = ?", SettingsID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save 写入设置（不存在时插入）
func (r *SettingsRepository) Save(s *model.GymSettings) error {
	s.ID = SettingsID
	return r.db.Save(s).Error
}
