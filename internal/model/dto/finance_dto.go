package dto

import "github.com/shopspring/decimal"

// RecordPaymentRequest 登记一笔已收款
type RecordPaymentRequest struct {
	StudentID     *int64           `json:"student_id"`
	Amount        *decimal.Decimal `json:"amount"`
	PaymentMethod string           `json:"payment_method" binding:"omitempty,max=30"`
	PaymentDate   string           `json:"payment_date"` // 缺省为今天
	Notes         string           `json:"notes"`
}

// RequestPaymentRequest 发起一笔待支付账单
type RequestPaymentRequest struct {
	StudentID   *int64           `json:"student_id"`
	Amount      *decimal.Decimal `json:"amount"`
	DueDate     string           `json:"due_date"`
	Description string           `json:"description"`
}

// RequestPaymentResponse 发起账单响应
type RequestPaymentResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	PaymentID int64  `json:"paymentId"`
}

// PayPaymentRequest 将待支付账单标记为已支付
type PayPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"omitempty,max=30"`
	PaymentDate   string `json:"payment_date"` // 缺省为今天
}

// UpdatePaymentRequest 通用账单更新；status 改为 paid 时按收款处理
type UpdatePaymentRequest struct {
	Amount        *decimal.Decimal `json:"amount"`
	DueDate       *string          `json:"due_date"`
	PaymentDate   *string          `json:"payment_date"`
	Status        *string          `json:"status"`
	PaymentMethod *string          `json:"payment_method" binding:"omitempty,max=30"`
	Notes         *string          `json:"notes"`
}

// PaymentListRequest 账单列表查询参数
type PaymentListRequest struct {
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=20"`
	Status    string `form:"status"`
	StudentID int64  `form:"student_id"`
	From      string `form:"from"` // 到期日下限
	To        string `form:"to"`   // 到期日上限
}

// PaymentInfo 账单
type PaymentInfo struct {
	ID              int64           `json:"id"`
	StudentID       int64           `json:"student_id"`
	StudentName     string          `json:"student_name,omitempty"`
	StudentPlanID   *int64          `json:"student_plan_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	AmountFormatted string          `json:"amount_formatted"`
	DueDate         string          `json:"due_date"`
	PaymentDate     string          `json:"payment_date,omitempty"`
	Status          string          `json:"status"`
	EffectiveStatus string          `json:"effective_status"`
	PlanType        string          `json:"plan_type"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

// FinanceSummary 财务汇总
type FinanceSummary struct {
	Currency       string          `json:"currency"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	MonthRevenue   decimal.Decimal `json:"month_revenue"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	PendingCount   int64           `json:"pending_count"`
	OverdueAmount  decimal.Decimal `json:"overdue_amount"`
	OverdueCount   int64           `json:"overdue_count"`
	ActiveStudents int64           `json:"active_students"`
}
