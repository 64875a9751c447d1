package model

import (
	"time"
)

type Attendance struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	StudentID  int64      `gorm:"not null;index" json:"student_id"`
	CheckIn    time.Time  `gorm:"not null;index" json:"check_in"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
	RecordedBy int64      `json:"recorded_by"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (Attendance) TableName() string {
	return "attendances"
}
