package model

import (
	"time"
)

// 用户类型
const (
	UserTypeAdmin      = "admin"
	UserTypeInstructor = "instructor"
	UserTypeStudent    = "student"
)

type User struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	UserType     string    `gorm:"size:20;not null;index" json:"user_type"` // admin, instructor, student
	AvatarURL    string    `gorm:"size:500" json:"avatar_url"`
	Active       bool      `gorm:"not null" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
