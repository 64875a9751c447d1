package dto

import "github.com/shopspring/decimal"

// CreatePlanRequest 创建套餐
type CreatePlanRequest struct {
	Name        string           `json:"name" binding:"required,max=100"`
	PlanType    string           `json:"plan_type" binding:"required"`
	Price       *decimal.Decimal `json:"price"`
	Description string           `json:"description"`
	Active      *bool            `json:"active"`
}

// UpdatePlanRequest 更新套餐
type UpdatePlanRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=100"`
	PlanType    *string          `json:"plan_type"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Active      *bool            `json:"active"`
}

// PlanInfo 套餐信息
type PlanInfo struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	PlanType       string          `json:"plan_type"`
	BillingCycle   string          `json:"billing_cycle"`
	Price          decimal.Decimal `json:"price"`
	PriceFormatted string          `json:"price_formatted"`
	Description    string          `json:"description"`
	Active         bool            `json:"active"`
}
