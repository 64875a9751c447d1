package model

import (
	"time"
)

type WorkoutPlan struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	StudentID    int64      `gorm:"not null;index" json:"student_id"`
	InstructorID int64      `gorm:"not null;index" json:"instructor_id"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Exercises    string     `gorm:"type:text" json:"exercises"` // JSON 数组
	StartDate    *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate      *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	Active       bool       `gorm:"not null" json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (WorkoutPlan) TableName() string {
	return "workout_plans"
}
