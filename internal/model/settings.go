package model

import (
	"time"
)

// GymSettings 全局只有一行（ID = 1）
type GymSettings struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	GymName          string    `gorm:"size:100;not null" json:"gym_name"`
	Currency         string    `gorm:"size:3;not null" json:"currency"`
	Locale           string    `gorm:"size:10" json:"locale"`
	OpenTime         string    `gorm:"size:5" json:"open_time"`  // HH:MM
	CloseTime        string    `gorm:"size:5" json:"close_time"` // HH:MM
	ContactEmail     string    `gorm:"size:100" json:"contact_email"`
	ContactPhone     string    `gorm:"size:30" json:"contact_phone"`
	OverdueGraceDays int       `gorm:"not null" json:"overdue_grace_days"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (GymSettings) TableName() string {
	return "gym_settings"
}
