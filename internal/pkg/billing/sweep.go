package billing

import (
	"time"

	"github.com/qs3c/gym_go_server/internal/model"
)

// IsLapsed 学员当前为 paid 且下次缴费日 <= asOf
func IsLapsed(s *model.Student, asOf time.Time) bool {
	return s.PaymentStatus == model.StudentPaymentPaid &&
		s.NextPaymentDate != nil &&
		!s.NextPaymentDate.After(asOf)
}

// PlanOverdue 从候选学员中挑出需要转为 overdue 的学员。
// 已经是 overdue 的学员不会再次命中，重复执行不会重复通知。
func PlanOverdue(asOf time.Time, students []*model.Student) []*model.Student {
	var out []*model.Student
	for _, s := range students {
		if IsLapsed(s, asOf) {
			out = append(out, s)
		}
	}
	return out
}

// IsRenewalDue 套餐周期已结束，需要生成续费账单
func IsRenewalDue(sp *model.StudentPlan, asOf time.Time) bool {
	return sp.Status == model.StudentPlanActive && !sp.EndDate.After(asOf)
}
