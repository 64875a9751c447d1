package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 学员套餐状态
const (
	StudentPlanActive    = "active"
	StudentPlanExpired   = "expired"
	StudentPlanCancelled = "cancelled"
)

// Plan 套餐定义，PlanType 决定计费周期
type Plan struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	PlanType    string          `gorm:"size:20;not null" json:"plan_type"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	Active      bool            `gorm:"not null" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// StudentPlan 学员与套餐的关联，每个学员最多一条 active
type StudentPlan struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	StudentID int64     `gorm:"not null;index" json:"student_id"`
	PlanID    int64     `gorm:"not null;index" json:"plan_id"`
	Plan      *Plan     `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	StartDate time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null;index" json:"end_date"`
	Status    string    `gorm:"size:20;not null;default:active;index" json:"status"` // active, expired, cancelled
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StudentPlan) TableName() string {
	return "student_plans"
}
