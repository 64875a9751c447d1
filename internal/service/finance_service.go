package service

import (
	"errors"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/billing"
	"github.com/qs3c/gym_go_server/internal/pkg/export"
	"github.com/qs3c/gym_go_server/internal/repository"
)

// FinanceService 账单查询、汇总与导出
type FinanceService struct {
	paymentRepo *repository.PaymentRepository
	studentRepo *repository.StudentRepository
	userRepo    *repository.UserRepository
	settings    *SettingsService
	calendar    *billing.Calendar
	now         func() time.Time
}

func NewFinanceService(
	paymentRepo *repository.PaymentRepository,
	studentRepo *repository.StudentRepository,
	userRepo *repository.UserRepository,
	settings *SettingsService,
	calendar *billing.Calendar,
) *FinanceService {
	return &FinanceService{
		paymentRepo: paymentRepo,
		studentRepo: studentRepo,
		userRepo:    userRepo,
		settings:    settings,
		calendar:    calendar,
		now:         utcNow,
	}
}

// ListPayments 分页查询账单，附带学员姓名与实际状态
func (s *FinanceService) ListPayments(req *dto.PaymentListRequest) ([]*dto.PaymentInfo, int64, error) {
	filter, err := paymentFilter(req)
	if err != nil {
		return nil, 0, err
	}
	page, pageSize := normalizePage(req.Page, req.PageSize)
	req.Page, req.PageSize = page, pageSize

	payments, total, err := s.paymentRepo.List(filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.toPaymentInfos(payments, true)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *FinanceService) GetPayment(id int64) (*dto.PaymentInfo, error) {
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	items, err := s.toPaymentInfos([]*model.Payment{payment}, true)
	if err != nil {
		return nil, err
	}
	return items[0], nil
}

// MyPayments 学员查看自己的账单
func (s *FinanceService) MyPayments(studentID int64, req *dto.PaymentListRequest) ([]*dto.PaymentInfo, int64, error) {
	req.StudentID = studentID
	filter, err := paymentFilter(req)
	if err != nil {
		return nil, 0, err
	}
	page, pageSize := normalizePage(req.Page, req.PageSize)
	req.Page, req.PageSize = page, pageSize

	payments, total, err := s.paymentRepo.List(filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.toPaymentInfos(payments, false)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Summary 财务汇总；本月收入按 UTC 自然月统计
func (s *FinanceService) Summary() (*dto.FinanceSummary, error) {
	summary := &dto.FinanceSummary{Currency: s.settings.Currency()}

	var err error
	if summary.TotalRevenue, _, err = s.paymentRepo.SumByStatus(model.PaymentStatusPaid); err != nil {
		return nil, err
	}

	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if summary.MonthRevenue, err = s.paymentRepo.SumPaidBetween(monthStart, monthStart.AddDate(0, 1, 0)); err != nil {
		return nil, err
	}
	if summary.PendingAmount, summary.PendingCount, err = s.paymentRepo.SumByStatus(model.PaymentStatusPending); err != nil {
		return nil, err
	}
	if summary.OverdueAmount, summary.OverdueCount, err = s.paymentRepo.SumByStatus(model.PaymentStatusOverdue); err != nil {
		return nil, err
	}
	if summary.ActiveStudents, err = s.studentRepo.CountActive(); err != nil {
		return nil, err
	}

	return summary, nil
}

// Export 按过滤条件导出 xlsx，返回导出行数
func (s *FinanceService) Export(w io.Writer, req *dto.PaymentListRequest) (int, error) {
	filter, err := paymentFilter(req)
	if err != nil {
		return 0, err
	}
	payments, err := s.paymentRepo.ListAll(filter)
	if err != nil {
		return 0, err
	}
	items, err := s.toPaymentInfos(payments, true)
	if err != nil {
		return 0, err
	}
	if err := export.WritePayments(w, items, s.settings.Currency()); err != nil {
		return 0, err
	}
	return len(items), nil
}

// StudentSummary 学员表上的缴费汇总与按账单实时推导的汇总
func (s *FinanceService) StudentSummary(studentID int64) (*dto.PaymentSummaryResponse, error) {
	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	payments, err := s.paymentRepo.ListByStudent(studentID)
	if err != nil {
		return nil, err
	}

	projected := s.calendar.Project(student.PlanType, payments, s.now())
	stored := dto.PaymentSummaryInfo{
		PaymentStatus:   student.PaymentStatus,
		LastPaymentDate: formatDate(student.LastPaymentDate),
		NextPaymentDate: formatDate(student.NextPaymentDate),
		PendingCount:    projected.PendingCount,
		OverdueCount:    projected.OverdueCount,
	}
	proj := dto.PaymentSummaryInfo{
		PaymentStatus:   projected.PaymentStatus,
		LastPaymentDate: formatDate(projected.LastPaymentDate),
		NextPaymentDate: formatDate(projected.NextPaymentDate),
		PendingCount:    projected.PendingCount,
		OverdueCount:    projected.OverdueCount,
	}

	return &dto.PaymentSummaryResponse{
		StudentID: studentID,
		Stored:    stored,
		Projected: proj,
		InSync:    stored == proj,
	}, nil
}

func (s *FinanceService) toPaymentInfos(payments []*model.Payment, withNames bool) ([]*dto.PaymentInfo, error) {
	names := map[int64]*model.User{}
	if withNames && len(payments) > 0 {
		ids := make([]int64, 0, len(payments))
		seen := make(map[int64]struct{}, len(payments))
		for _, p := range payments {
			if _, ok := seen[p.StudentID]; !ok {
				seen[p.StudentID] = struct{}{}
				ids = append(ids, p.StudentID)
			}
		}
		users, err := s.userRepo.GetByIDs(ids)
		if err != nil {
			return nil, err
		}
		names = users
	}

	currency := s.settings.Currency()
	now := s.now()
	items := make([]*dto.PaymentInfo, 0, len(payments))
	for _, p := range payments {
		info := &dto.PaymentInfo{
			ID:              p.ID,
			StudentID:       p.StudentID,
			StudentPlanID:   p.StudentPlanID,
			Amount:          p.Amount,
			AmountFormatted: billing.FormatCurrency(p.Amount, currency),
			DueDate:         formatDate(&p.DueDate),
			PaymentDate:     formatDate(p.PaymentDate),
			Status:          p.Status,
			EffectiveStatus: billing.Classify(p, now),
			PlanType:        p.PlanType,
			PaymentMethod:   p.PaymentMethod,
			Notes:           p.Notes,
			CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		}
		if u, ok := names[p.StudentID]; ok {
			info.StudentName = u.Name
		}
		items = append(items, info)
	}
	return items, nil
}

func paymentFilter(req *dto.PaymentListRequest) (repository.PaymentFilter, error) {
	filter := repository.PaymentFilter{
		Status:    req.Status,
		StudentID: req.StudentID,
	}
	if req.Status != "" && !validPaymentStatus(req.Status) {
		return filter, ErrInvalidStatus
	}
	var err error
	if filter.From, err = parseOptionalDate(req.From); err != nil {
		return filter, err
	}
	if filter.To, err = parseOptionalDate(req.To); err != nil {
		return filter, err
	}
	return filter, nil
}
