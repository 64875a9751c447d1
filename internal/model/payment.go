package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 账单状态
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusOverdue   = "overdue"
	PaymentStatusCancelled = "cancelled"
)

type Payment struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	StudentID     int64           `gorm:"not null;index" json:"student_id"`
	StudentPlanID *int64          `gorm:"index" json:"student_plan_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	DueDate       time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	PaymentDate   *time.Time      `gorm:"type:date" json:"payment_date,omitempty"`
	Status        string          `gorm:"size:20;not null;default:pending;index" json:"status"` // pending, paid, overdue, cancelled
	PlanType      string          `gorm:"size:20" json:"plan_type"`
	PaymentMethod string          `gorm:"size:30" json:"payment_method,omitempty"` // cash, pix, card, transfer
	Notes         string          `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
