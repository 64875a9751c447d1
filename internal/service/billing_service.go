package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/billing"
	"github.com/qs3c/gym_go_server/internal/pkg/metrics"
	"github.com/qs3c/gym_go_server/internal/pkg/queue"
	"github.com/qs3c/gym_go_server/internal/repository"
)

var (
	ErrStudentNotFound   = errors.New("学员不存在")
	ErrNoActivePlan      = errors.New("学员没有有效套餐")
	ErrPaymentNotFound   = errors.New("账单不存在")
	ErrInvalidAmount     = errors.New("金额必须大于 0")
	ErrInvalidStatus     = errors.New("无效的账单状态")
	ErrInvalidTransition = errors.New("账单当前状态不允许该操作")
)

// 单个套餐一次最多补生成的续费周期数
const maxRenewalPeriods = 24

// SweepResult 逾期扫描结果
type SweepResult struct {
	AsOf           time.Time `json:"as_of"`
	Processed      int       `json:"processed"`       // 转为 overdue 的学员数
	PaymentsMarked int64     `json:"payments_marked"` // 转为 overdue 的账单数
	Failed         int       `json:"failed"`
}

// RenewalResult 续费检查结果
type RenewalResult struct {
	AsOf      time.Time `json:"as_of"`
	Processed int       `json:"processed"` // 生成的续费账单数
	Failed    int       `json:"failed"`
}

// BillingService 账单写入路径。所有修改账单的操作都在同一事务内更新学员缴费汇总。
type BillingService struct {
	db              *gorm.DB
	studentRepo     *repository.StudentRepository
	studentPlanRepo *repository.StudentPlanRepository
	paymentRepo     *repository.PaymentRepository
	notifier        *NotificationService
	settings        *SettingsService
	calendar        *billing.Calendar
	logger          *slog.Logger
	now             func() time.Time
}

func NewBillingService(
	db *gorm.DB,
	studentRepo *repository.StudentRepository,
	studentPlanRepo *repository.StudentPlanRepository,
	paymentRepo *repository.PaymentRepository,
	notifier *NotificationService,
	settings *SettingsService,
	calendar *billing.Calendar,
	logger *slog.Logger,
) *BillingService {
	return &BillingService{
		db:              db,
		studentRepo:     studentRepo,
		studentPlanRepo: studentPlanRepo,
		paymentRepo:     paymentRepo,
		notifier:        notifier,
		settings:        settings,
		calendar:        calendar,
		logger:          logger,
		now:             utcNow,
	}
}

// RecordPayment 登记一笔已收款：新增 paid 账单并刷新学员汇总。
// 每次调用都会新增一行账单；汇总在重复调用时保持一致。
func (s *BillingService) RecordPayment(ctx context.Context, req *dto.RecordPaymentRequest) (*model.Payment, error) {
	if req.StudentID == nil || req.Amount == nil {
		return nil, ErrIncompleteData
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	paidOn, err := s.dateOrToday(req.PaymentDate)
	if err != nil {
		return nil, err
	}

	student, sp, err := s.loadBillable(*req.StudentID)
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		StudentID:     student.UserID,
		StudentPlanID: &sp.ID,
		Amount:        amount,
		DueDate:       paidOn,
		PaymentDate:   &paidOn,
		Status:        model.PaymentStatusPaid,
		PlanType:      student.PlanType,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return err
		}
		return s.applyPaid(tx, student, paidOn)
	})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	metrics.PaymentsTotal.WithLabelValues("record").Inc()
	s.logger.Info("payment recorded",
		"payment_id", payment.ID,
		"student_id", student.UserID,
		"amount", payment.Amount.StringFixed(2),
	)
	return payment, nil
}

// PayPayment 将已有的 pending / overdue 账单标记为已支付，保留原到期日
func (s *BillingService) PayPayment(ctx context.Context, paymentID int64, method, paymentDate string) (*model.Payment, error) {
	paidOn, err := s.dateOrToday(paymentDate)
	if err != nil {
		return nil, err
	}

	var payment *model.Payment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		p, err := s.paymentRepo.WithTx(tx).GetByID(paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if p.Status == model.PaymentStatusPaid || !billing.CanTransition(p.Status, model.PaymentStatusPaid) {
			return ErrInvalidTransition
		}

		fields := map[string]interface{}{}
		if method != "" {
			fields["payment_method"] = method
		}
		payment, err = s.settle(tx, p, paidOn, fields)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentsTotal.WithLabelValues("pay").Inc()
	s.logger.Info("payment settled", "payment_id", payment.ID, "student_id", payment.StudentID)
	return payment, nil
}

// RequestPayment 发起一笔待支付账单并通知学员，通知失败不影响结果
func (s *BillingService) RequestPayment(ctx context.Context, req *dto.RequestPaymentRequest) (*model.Payment, error) {
	if req.StudentID == nil || req.Amount == nil || strings.TrimSpace(req.DueDate) == "" {
		return nil, ErrIncompleteData
	}
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		return nil, err
	}

	student, sp, err := s.loadBillable(*req.StudentID)
	if err != nil {
		return nil, err
	}

	payment := &model.Payment{
		StudentID:     student.UserID,
		StudentPlanID: &sp.ID,
		Amount:        amount,
		DueDate:       due,
		Status:        model.PaymentStatusPending,
		PlanType:      student.PlanType,
		Notes:         req.Description,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}
	metrics.PaymentsTotal.WithLabelValues("request").Inc()

	amountText := billing.FormatCurrency(payment.Amount, s.settings.Currency())
	dueText := due.Format(dto.DateLayout)
	message := fmt.Sprintf("您有一笔 %s 的待缴账单，到期日 %s。", amountText, dueText)
	if req.Description != "" {
		message += "说明：" + req.Description
	}
	n := &model.Notification{
		UserID:    student.UserID,
		Title:     "新的缴费账单",
		Message:   message,
		Type:      model.NotificationPayment,
		RelatedID: &payment.ID,
	}
	mail := mailJob(student.User, queue.MailPaymentRequest, "", map[string]string{
		"amount":      amountText,
		"due_date":    dueText,
		"description": req.Description,
	})
	if err := s.notifier.Notify(ctx, n, mail); err != nil {
		s.logger.Warn("payment request notification skipped", "payment_id", payment.ID, "error", err)
	}

	return payment, nil
}

// CancelPayment 取消 pending / overdue 账单
func (s *BillingService) CancelPayment(paymentID int64) (*model.Payment, error) {
	var payment *model.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.paymentRepo.WithTx(tx)
		p, err := repo.GetByID(paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		if p.Status == model.PaymentStatusCancelled || !billing.CanTransition(p.Status, model.PaymentStatusCancelled) {
			return ErrInvalidTransition
		}

		affected, err := repo.TransitionStatus(p.ID, []string{p.Status},
			map[string]interface{}{"status": model.PaymentStatusCancelled})
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidTransition
		}
		if err := s.clearOverdue(tx, p.StudentID); err != nil {
			return err
		}
		payment, err = repo.GetByID(p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment cancelled", "payment_id", paymentID, "student_id", payment.StudentID)
	return payment, nil
}

// UpdatePayment 通用更新。状态改为 paid 时按收款处理并刷新学员汇总；
// cancelled 账单不能再迁移到其他状态。
func (s *BillingService) UpdatePayment(ctx context.Context, paymentID int64, req *dto.UpdatePaymentRequest) (*model.Payment, error) {
	var target string
	if req.Status != nil {
		target = strings.ToLower(strings.TrimSpace(*req.Status))
		if !validPaymentStatus(target) {
			return nil, ErrInvalidStatus
		}
	}

	fields := map[string]interface{}{}
	if req.Amount != nil {
		amount := req.Amount.Round(2)
		if !amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		fields["amount"] = amount
	}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		fields["due_date"] = due
	}
	var paidOn *time.Time
	if req.PaymentDate != nil {
		d, err := parseOptionalDate(*req.PaymentDate)
		if err != nil {
			return nil, err
		}
		paidOn = d
		fields["payment_date"] = d
	}
	if req.PaymentMethod != nil {
		fields["payment_method"] = *req.PaymentMethod
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}

	var payment *model.Payment
	settled := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.paymentRepo.WithTx(tx)
		p, err := repo.GetByID(paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		if target != "" && target != p.Status {
			if !billing.CanTransition(p.Status, target) {
				return ErrInvalidTransition
			}
			if target == model.PaymentStatusPaid {
				day := billing.DateOnly(s.now())
				if paidOn != nil {
					day = *paidOn
				}
				settled = true
				payment, err = s.settle(tx, p, day, fields)
				return err
			}
			fields["status"] = target
		}

		if len(fields) == 0 {
			payment = p
			return nil
		}
		affected, err := repo.TransitionStatus(p.ID, []string{p.Status}, fields)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInvalidTransition
		}
		if fields["status"] == model.PaymentStatusOverdue {
			if err := s.studentRepo.WithTx(tx).UpdatePaymentStatus(p.StudentID, model.StudentPaymentOverdue); err != nil {
				return err
			}
		}
		payment, err = repo.GetByID(p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if settled {
		metrics.PaymentsTotal.WithLabelValues("pay").Inc()
	}
	return payment, nil
}

// SweepOverdue 将下次缴费日已到的 paid 学员转为 overdue。
// 每个学员单独一个事务：条件更新学员状态、标记其过期账单、写入通知；
// 提交后再推送通知。返回转为 overdue 的学员数，重复执行时为 0。
// asOf 为零值时取当前时间。
func (s *BillingService) SweepOverdue(ctx context.Context, asOf time.Time) (*SweepResult, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = asOf.UTC()
	result := &SweepResult{AsOf: asOf}

	candidates, err := s.studentRepo.ListLapsed(asOf)
	if err != nil {
		return nil, fmt.Errorf("list lapsed students: %w", err)
	}
	currency := s.settings.Currency()

	for _, student := range billing.PlanOverdue(asOf, candidates) {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		n, mail, marked, err := s.sweepStudent(student, asOf, currency)
		if err != nil {
			result.Failed++
			s.logger.Error("overdue sweep failed", "student_id", student.UserID, "error", err)
			continue
		}
		if n == nil {
			continue
		}

		result.Processed++
		result.PaymentsMarked += marked
		metrics.OverdueTransitions.Inc()
		s.notifier.Deliver(ctx, n, mail)
	}

	// 其余学员名下已过期的 pending 账单，账单与学员状态同一事务更新
	studentIDs, err := s.paymentRepo.StudentsWithPastDue(billing.DateOnly(asOf))
	if err != nil {
		return result, fmt.Errorf("list past due payments: %w", err)
	}
	for _, studentID := range studentIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		marked, err := s.markPastDue(studentID, billing.DateOnly(asOf))
		if err != nil {
			result.Failed++
			s.logger.Error("mark past due payments failed", "student_id", studentID, "error", err)
			continue
		}
		result.PaymentsMarked += marked
	}

	s.logger.Info("overdue sweep finished",
		"as_of", asOf.Format(time.RFC3339),
		"processed", result.Processed,
		"payments_marked", result.PaymentsMarked,
		"failed", result.Failed,
	)
	return result, nil
}

// clearOverdue 学员已无逾期账单且下次缴费日未到时，缴费状态恢复为 paid
func (s *BillingService) clearOverdue(tx *gorm.DB, studentID int64) error {
	studentRepo := s.studentRepo.WithTx(tx)
	student, err := studentRepo.GetByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	now := s.now()
	if student.PaymentStatus != model.StudentPaymentOverdue ||
		student.NextPaymentDate == nil || !student.NextPaymentDate.After(now) {
		return nil
	}

	payments, err := s.paymentRepo.WithTx(tx).ListByStudent(studentID)
	if err != nil {
		return err
	}
	for _, p := range payments {
		if billing.Classify(p, now) == model.PaymentStatusOverdue {
			return nil
		}
	}
	return studentRepo.UpdatePaymentStatus(studentID, model.StudentPaymentPaid)
}

// markPastDue 将学员过期的 pending 账单改为 overdue，并同步学员缴费状态
func (s *BillingService) markPastDue(studentID int64, before time.Time) (int64, error) {
	var marked int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		marked, err = s.paymentRepo.WithTx(tx).MarkOverdueByStudent(studentID, before)
		if err != nil || marked == 0 {
			return err
		}
		return s.studentRepo.WithTx(tx).UpdatePaymentStatus(studentID, model.StudentPaymentOverdue)
	})
	return marked, err
}

// sweepStudent 返回 nil 通知表示该学员已被其他执行方处理
func (s *BillingService) sweepStudent(student *model.Student, asOf time.Time, currency string) (*model.Notification, *queue.MailJob, int64, error) {
	var (
		n      *model.Notification
		mail   *queue.MailJob
		marked int64
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.studentRepo.WithTx(tx).MarkOverdue(student.UserID, asOf)
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}

		marked, err = s.paymentRepo.WithTx(tx).MarkOverdueByStudent(student.UserID, billing.DateOnly(asOf))
		if err != nil {
			return err
		}

		planName, amount, err := s.planLabel(tx, student)
		if err != nil {
			return err
		}
		amountText := billing.FormatCurrency(amount, currency)
		dueText := formatDate(student.NextPaymentDate)

		n = &model.Notification{
			UserID:  student.UserID,
			Title:   "会费逾期提醒",
			Message: fmt.Sprintf("您的套餐「%s」会费 %s 已于 %s 到期，请尽快缴费。", planName, amountText, dueText),
			Type:    model.NotificationPayment,
		}
		if err := s.notifier.CreateInTx(tx, n); err != nil {
			return err
		}
		mail = mailJob(student.User, queue.MailOverdue, "", map[string]string{
			"plan":     planName,
			"amount":   amountText,
			"due_date": dueText,
		})
		return nil
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return n, mail, marked, nil
}

// planLabel 通知中使用的套餐名与金额；没有有效套餐时取最近一次已付金额
func (s *BillingService) planLabel(tx *gorm.DB, student *model.Student) (string, decimal.Decimal, error) {
	sp, err := s.studentPlanRepo.WithTx(tx).GetActiveByStudent(student.UserID)
	if err == nil && sp.Plan != nil {
		return sp.Plan.Name, sp.Plan.Price, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", decimal.Zero, err
	}

	payments, err := s.paymentRepo.WithTx(tx).ListByStudent(student.UserID)
	if err != nil {
		return "", decimal.Zero, err
	}
	return student.PlanType, lastPaidAmount(payments), nil
}

// CheckRenewals 为周期已结束的 active 套餐生成续费账单并推进周期。
// 错过多个周期时逐期补齐，每期一个事务。
func (s *BillingService) CheckRenewals(ctx context.Context, asOf time.Time) (*RenewalResult, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = asOf.UTC()
	result := &RenewalResult{AsOf: asOf}

	due, err := s.studentPlanRepo.ListDueForRenewal(asOf)
	if err != nil {
		return nil, fmt.Errorf("list plans due for renewal: %w", err)
	}
	currency := s.settings.Currency()

	for _, sp := range due {
		if sp.Plan == nil {
			result.Failed++
			s.logger.Warn("renewal skipped: plan missing", "student_plan_id", sp.ID, "plan_id", sp.PlanID)
			continue
		}

		for i := 0; i < maxRenewalPeriods && billing.IsRenewalDue(sp, asOf); i++ {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			n, mail, err := s.renewPeriod(sp, currency)
			if err != nil {
				result.Failed++
				s.logger.Error("renewal failed", "student_plan_id", sp.ID, "student_id", sp.StudentID, "error", err)
				break
			}
			if n == nil {
				break
			}

			result.Processed++
			metrics.PaymentsTotal.WithLabelValues("renewal").Inc()
			s.notifier.Deliver(ctx, n, mail)
		}
	}

	s.logger.Info("renewal check finished",
		"as_of", asOf.Format(time.RFC3339),
		"processed", result.Processed,
		"failed", result.Failed,
	)
	return result, nil
}

// renewPeriod 生成一期续费账单；成功后 sp.EndDate 前移。
// end_date 已被其他执行方推进时返回 nil 通知。
func (s *BillingService) renewPeriod(sp *model.StudentPlan, currency string) (*model.Notification, *queue.MailJob, error) {
	from := sp.EndDate
	to := s.calendar.NextDueDate(from, sp.Plan.PlanType)

	var (
		n    *model.Notification
		mail *queue.MailJob
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		affected, err := s.studentPlanRepo.WithTx(tx).ExtendPeriod(sp.ID, from, to)
		if err != nil {
			return err
		}
		if affected == 0 {
			return nil
		}

		payment := &model.Payment{
			StudentID:     sp.StudentID,
			StudentPlanID: &sp.ID,
			Amount:        sp.Plan.Price,
			DueDate:       from,
			Status:        model.PaymentStatusPending,
			PlanType:      sp.Plan.PlanType,
			Notes:         fmt.Sprintf("续费：%s %s ~ %s", sp.Plan.Name, formatDate(&from), formatDate(&to)),
		}
		if err := s.paymentRepo.WithTx(tx).Create(payment); err != nil {
			return err
		}

		amountText := billing.FormatCurrency(payment.Amount, currency)
		dueText := formatDate(&from)
		n = &model.Notification{
			UserID:    sp.StudentID,
			Title:     "套餐续费账单",
			Message:   fmt.Sprintf("您的套餐「%s」已进入新周期，续费金额 %s，到期日 %s。", sp.Plan.Name, amountText, dueText),
			Type:      model.NotificationPayment,
			RelatedID: &payment.ID,
		}
		if err := s.notifier.CreateInTx(tx, n); err != nil {
			return err
		}

		student, err := s.studentRepo.WithTx(tx).GetByID(sp.StudentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if student != nil {
			mail = mailJob(student.User, queue.MailRenewal, "", map[string]string{
				"plan":     sp.Plan.Name,
				"amount":   amountText,
				"due_date": dueText,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if n != nil {
		sp.EndDate = to
	}
	return n, mail, nil
}

// settle 在事务内把账单改为 paid 并刷新学员汇总，状态变化期间被并发修改时返回 ErrInvalidTransition
func (s *BillingService) settle(tx *gorm.DB, p *model.Payment, paidOn time.Time, fields map[string]interface{}) (*model.Payment, error) {
	fields["status"] = model.PaymentStatusPaid
	fields["payment_date"] = paidOn

	repo := s.paymentRepo.WithTx(tx)
	affected, err := repo.TransitionStatus(p.ID, []string{p.Status}, fields)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}

	student, err := s.studentRepo.WithTx(tx).GetByID(p.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if err := s.applyPaid(tx, student, paidOn); err != nil {
		return nil, err
	}

	return repo.GetByID(p.ID)
}

// applyPaid 写入学员汇总：last = paidOn，next = paidOn 推进一个周期
func (s *BillingService) applyPaid(tx *gorm.DB, student *model.Student, paidOn time.Time) error {
	next := s.calendar.NextDueDate(paidOn, student.PlanType)
	return s.studentRepo.WithTx(tx).UpdatePaymentSummary(student.UserID, model.StudentPaymentPaid, &paidOn, &next)
}

// loadBillable 学员及其 active 套餐
func (s *BillingService) loadBillable(studentID int64) (*model.Student, *model.StudentPlan, error) {
	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrStudentNotFound
		}
		return nil, nil, err
	}

	sp, err := s.studentPlanRepo.GetActiveByStudent(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNoActivePlan
		}
		return nil, nil, err
	}
	return student, sp, nil
}

func (s *BillingService) dateOrToday(v string) (time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return billing.DateOnly(s.now()), nil
	}
	return parseDate(v)
}

func validPaymentStatus(status string) bool {
	switch status {
	case model.PaymentStatusPending, model.PaymentStatusPaid, model.PaymentStatusOverdue, model.PaymentStatusCancelled:
		return true
	}
	return false
}

func lastPaidAmount(payments []*model.Payment) decimal.Decimal {
	var last *model.Payment
	for _, p := range payments {
		if p.Status != model.PaymentStatusPaid || p.PaymentDate == nil {
			continue
		}
		if last == nil || p.PaymentDate.After(*last.PaymentDate) {
			last = p
		}
	}
	if last == nil {
		return decimal.Zero
	}
	return last.Amount
}
