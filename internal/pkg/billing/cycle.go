// Package billing 计费周期计算与账单状态判定，不依赖数据库。
package billing

import (
	"strings"
	"time"
)

// PlanType 计费周期
type PlanType string

const (
	Monthly    PlanType = "monthly"
	Quarterly  PlanType = "quarterly"
	Semiannual PlanType = "semiannual"
	Annual     PlanType = "annual"
)

// 周期 -> 月数
var cycleMonths = map[PlanType]int{
	Monthly:    1,
	Quarterly:  3,
	Semiannual: 6,
	Annual:     12,
}

// 葡语别名
var aliases = map[string]PlanType{
	"monthly":    Monthly,
	"mensal":     Monthly,
	"quarterly":  Quarterly,
	"trimestral": Quarterly,
	"semiannual": Semiannual,
	"semestral":  Semiannual,
	"annual":     Annual,
	"anual":      Annual,
}

// DefaultTierCycles 档位词汇（basic/premium/vip）到计费周期的默认映射
var DefaultTierCycles = map[string]string{
	"basic":   string(Monthly),
	"premium": string(Quarterly),
	"vip":     string(Annual),
}

// ParsePlanType 解析计费周期（忽略大小写），不识别时 ok 为 false
func ParsePlanType(s string) (PlanType, bool) {
	p, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

// Months 周期长度（月）
func (p PlanType) Months() int {
	if m, ok := cycleMonths[p]; ok {
		return m
	}
	return 1
}

// Calendar 将套餐类型（周期词汇或档位词汇）解析为计费周期
type Calendar struct {
	tiers map[string]PlanType
}

// NewCalendar 创建日历，tierCycles 为空时使用 DefaultTierCycles
func NewCalendar(tierCycles map[string]string) *Calendar {
	if len(tierCycles) == 0 {
		tierCycles = DefaultTierCycles
	}
	c := &Calendar{tiers: make(map[string]PlanType, len(tierCycles))}
	for tier, cycle := range tierCycles {
		if p, ok := ParsePlanType(cycle); ok {
			c.tiers[strings.ToLower(strings.TrimSpace(tier))] = p
		}
	}
	return c
}

var defaultCalendar = NewCalendar(nil)

// Resolve 返回套餐类型对应的计费周期，无法识别时按月
func (c *Calendar) Resolve(planType string) PlanType {
	if p, ok := ParsePlanType(planType); ok {
		return p
	}
	if p, ok := c.tiers[strings.ToLower(strings.TrimSpace(planType))]; ok {
		return p
	}
	return Monthly
}

// Known 是否为可识别的周期或档位
func (c *Calendar) Known(planType string) bool {
	if _, ok := ParsePlanType(planType); ok {
		return true
	}
	_, ok := c.tiers[strings.ToLower(strings.TrimSpace(planType))]
	return ok
}

// NextDueDate 从 from 起推进一个计费周期
func (c *Calendar) NextDueDate(from time.Time, planType string) time.Time {
	return AddMonths(from, c.Resolve(planType).Months())
}

// NextDueDate 使用默认档位映射计算下次缴费日
func NextDueDate(from time.Time, planType string) time.Time {
	return defaultCalendar.NextDueDate(from, planType)
}

// AddMonths 加 n 个月并保留日；目标月份没有该日时取当月最后一天
// （1 月 31 日 + 1 个月 = 2 月 28/29 日）。
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	firstOfTarget := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := daysIn(firstOfTarget.Year(), firstOfTarget.Month(), t.Location())
	if day > lastDay {
		day = lastDay
	}

	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
