package billing

import (
	"time"

	"github.com/qs3c/gym_go_server/internal/model"
)

// Classify 账单的实际状态：pending 且到期日早于 asOf 所在日即视为 overdue。
// paid / cancelled / overdue 原样返回。
func Classify(p *model.Payment, asOf time.Time) string {
	if p.Status != model.PaymentStatusPending {
		return p.Status
	}
	if DateOnly(p.DueDate).Before(DateOnly(asOf)) {
		return model.PaymentStatusOverdue
	}
	return model.PaymentStatusPending
}

// CanTransition 校验账单状态迁移
//
//	pending -> paid | overdue | cancelled
//	overdue -> paid | cancelled
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case model.PaymentStatusPending:
		return to == model.PaymentStatusPaid || to == model.PaymentStatusOverdue || to == model.PaymentStatusCancelled
	case model.PaymentStatusOverdue:
		return to == model.PaymentStatusPaid || to == model.PaymentStatusCancelled
	default:
		return false
	}
}

// Summary 由账单记录推导出的学员缴费汇总
type Summary struct {
	PaymentStatus   string     `json:"payment_status"`
	LastPaymentDate *time.Time `json:"last_payment_date,omitempty"`
	NextPaymentDate *time.Time `json:"next_payment_date,omitempty"`
	PendingCount    int        `json:"pending_count"`
	OverdueCount    int        `json:"overdue_count"`
}

// Project 以 payments 为准计算学员汇总：
// 最近一次已支付账单决定 last/next；存在逾期账单或 next 已过则为 overdue；
// 没有任何已支付账单时为 pending。
func (c *Calendar) Project(planType string, payments []*model.Payment, asOf time.Time) Summary {
	var s Summary
	var last *time.Time

	for _, p := range payments {
		switch Classify(p, asOf) {
		case model.PaymentStatusPaid:
			if p.PaymentDate != nil && (last == nil || p.PaymentDate.After(*last)) {
				d := *p.PaymentDate
				last = &d
			}
		case model.PaymentStatusOverdue:
			s.OverdueCount++
		case model.PaymentStatusPending:
			s.PendingCount++
		}
	}

	if last != nil {
		next := c.NextDueDate(*last, planType)
		s.LastPaymentDate = last
		s.NextPaymentDate = &next
	}

	switch {
	case s.OverdueCount > 0:
		s.PaymentStatus = model.StudentPaymentOverdue
	case last == nil:
		s.PaymentStatus = model.StudentPaymentPending
	case !s.NextPaymentDate.After(asOf):
		s.PaymentStatus = model.StudentPaymentOverdue
	default:
		s.PaymentStatus = model.StudentPaymentPaid
	}

	return s
}

// DateOnly 截断到当天零点（保留时区）
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
