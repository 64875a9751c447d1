package service

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/repository"
)

var (
	ErrInvalidCurrency = errors.New("货币代码应为 3 位字母")
	ErrInvalidTime     = errors.New("时间格式错误，应为 HH:MM")
)

const defaultGymName = "Academia"

type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	cfg          *config.Config
}

func NewSettingsService(settingsRepo *repository.SettingsRepository, cfg *config.Config) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		cfg:          cfg,
	}
}

// Get 读取设置，尚未初始化时返回由配置生成的默认值
func (s *SettingsService) Get() (*model.GymSettings, error) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.defaults(), nil
		}
		return nil, err
	}
	return settings, nil
}

// Currency 当前使用的货币代码
func (s *SettingsService) Currency() string {
	settings, err := s.Get()
	if err != nil || settings.Currency == "" {
		return s.cfg.Billing.Currency
	}
	return settings.Currency
}

func (s *SettingsService) Update(req *dto.UpdateSettingsRequest) (*model.GymSettings, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	if req.GymName != nil {
		settings.GymName = strings.TrimSpace(*req.GymName)
	}
	if req.Currency != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if len(code) != 3 {
			return nil, ErrInvalidCurrency
		}
		settings.Currency = code
	}
	if req.Locale != nil {
		settings.Locale = *req.Locale
	}
	if req.OpenTime != nil {
		if err := checkClock(*req.OpenTime); err != nil {
			return nil, err
		}
		settings.OpenTime = *req.OpenTime
	}
	if req.CloseTime != nil {
		if err := checkClock(*req.CloseTime); err != nil {
			return nil, err
		}
		settings.CloseTime = *req.CloseTime
	}
	if req.ContactEmail != nil {
		settings.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		settings.ContactPhone = *req.ContactPhone
	}
	if req.OverdueGraceDays != nil {
		settings.OverdueGraceDays = *req.OverdueGraceDays
	}

	if err := s.settingsRepo.Save(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *SettingsService) defaults() *model.GymSettings {
	return &model.GymSettings{
		ID:        repository.SettingsID,
		GymName:   defaultGymName,
		Currency:  s.cfg.Billing.Currency,
		Locale:    s.cfg.Billing.Locale,
		OpenTime:  "06:00",
		CloseTime: "22:00",
	}
}

func checkClock(v string) error {
	if _, err := time.Parse("15:04", v); err != nil {
		return ErrInvalidTime
	}
	return nil
}
