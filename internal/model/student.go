package model

import (
	"time"
)

// 学员缴费状态（学员表上的汇总字段）
const (
	StudentPaymentPending = "pending"
	StudentPaymentPaid    = "paid"
	StudentPaymentOverdue = "overdue"
)

// Student 学员档案，主键即 users.id
//
// PaymentStatus / LastPaymentDate / NextPaymentDate 是由 payments 表推导出的汇总，
// 只能在写账单的同一事务内更新。
type Student struct {
	UserID          int64      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User            *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PlanType        string     `gorm:"size:20;not null;default:monthly" json:"plan_type"`
	PaymentStatus   string     `gorm:"size:20;not null;default:pending;index" json:"payment_status"`
	LastPaymentDate *time.Time `gorm:"type:date" json:"last_payment_date,omitempty"`
	NextPaymentDate *time.Time `gorm:"type:date;index" json:"next_payment_date,omitempty"`
	StartDate       *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate         *time.Time `gorm:"type:date" json:"end_date,omitempty"`
	Phone           string     `gorm:"size:30" json:"phone"`
	BirthDate       *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	Height          float64    `json:"height,omitempty"`
	Weight          float64    `json:"weight,omitempty"`
	Goal            string     `gorm:"size:255" json:"goal"`
	InstructorID    *int64     `gorm:"index" json:"instructor_id,omitempty"`
	Notes           string     `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}
