package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsTotal 账单写入次数，按来源区分（record / request / renewal / pay）
	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym",
		Subsystem: "billing",
		Name:      "payments_total",
		Help:      "Payment rows written, by source.",
	}, []string{"source"})

	// OverdueTransitions paid -> overdue 的学员数
	OverdueTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gym",
		Subsystem: "billing",
		Name:      "overdue_transitions_total",
		Help:      "Students moved from paid to overdue by the sweep.",
	})

	// JobDuration 批处理耗时
	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gym",
		Subsystem: "billing",
		Name:      "job_duration_seconds",
		Help:      "Duration of billing batch jobs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})

	// NotificationFailures 通知投递失败次数（不影响主流程）
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym",
		Name:      "notification_failures_total",
		Help:      "Notification deliveries that failed, by stage.",
	}, []string{"stage"})
)

var (
	// HTTPRequestDuration 接口耗时
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gym",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// MailsTotal 邮件任务处理结果
	MailsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gym",
		Subsystem: "mail",
		Name:      "jobs_total",
		Help:      "Mail jobs processed by the worker, by kind and result.",
	}, []string{"kind", "result"})
)
