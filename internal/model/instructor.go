package model

import (
	"time"
)

type Instructor struct {
	UserID    int64      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Phone     string     `gorm:"size:30" json:"phone"`
	Specialty string     `gorm:"size:100" json:"specialty"`
	CREF      string     `gorm:"column:cref;size:30" json:"cref"` // 执业证号
	Bio       string     `gorm:"type:text" json:"bio"`
	HiredAt   *time.Time `gorm:"type:date" json:"hired_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Instructor) TableName() string {
	return "instructors"
}
