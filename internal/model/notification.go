package model

import (
	"time"
)

// 通知类型
const (
	NotificationPayment    = "payment"
	NotificationWorkout    = "workout"
	NotificationAttendance = "attendance"
	NotificationSystem     = "system"
)

type Notification struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Type      string    `gorm:"size:20;not null;index" json:"type"`
	RelatedID *int64    `json:"related_id,omitempty"`
	Read      bool      `gorm:"column:is_read;not null" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
