package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/billing"
	"github.com/qs3c/gym_go_server/internal/repository"
)

var (
	ErrPlanNotFound    = errors.New("套餐不存在")
	ErrPlanInactive    = errors.New("套餐已停用")
	ErrPlanInUse       = errors.New("套餐已被学员使用，无法删除")
	ErrInvalidPlanType = errors.New("无法识别的套餐类型")
	ErrInvalidPrice    = errors.New("价格必须大于 0")
)

type PlanService struct {
	planRepo        *repository.PlanRepository
	studentPlanRepo *repository.StudentPlanRepository
	settings        *SettingsService
	calendar        *billing.Calendar
}

func NewPlanService(
	planRepo *repository.PlanRepository,
	studentPlanRepo *repository.StudentPlanRepository,
	settings *SettingsService,
	calendar *billing.Calendar,
) *PlanService {
	return &PlanService{
		planRepo:        planRepo,
		studentPlanRepo: studentPlanRepo,
		settings:        settings,
		calendar:        calendar,
	}
}

func (s *PlanService) Create(req *dto.CreatePlanRequest) (*dto.PlanInfo, error) {
	planType, err := s.normalizePlanType(req.PlanType)
	if err != nil {
		return nil, err
	}
	if req.Price == nil || !req.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}

	plan := &model.Plan{
		Name:        strings.TrimSpace(req.Name),
		PlanType:    planType,
		Price:       req.Price.Round(2),
		Description: req.Description,
		Active:      true,
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}

	if err := s.planRepo.Create(plan); err != nil {
		return nil, err
	}
	return s.toInfo(plan), nil
}

func (s *PlanService) Get(id int64) (*dto.PlanInfo, error) {
	plan, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return s.toInfo(plan), nil
}

// List 非管理员只能看到启用的套餐
func (s *PlanService) List(activeOnly bool) ([]*dto.PlanInfo, error) {
	plans, err := s.planRepo.List(activeOnly)
	if err != nil {
		return nil, err
	}
	items := make([]*dto.PlanInfo, 0, len(plans))
	for _, p := range plans {
		items = append(items, s.toInfo(p))
	}
	return items, nil
}

func (s *PlanService) Update(id int64, req *dto.UpdatePlanRequest) (*dto.PlanInfo, error) {
	plan, err := s.get(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		plan.Name = strings.TrimSpace(*req.Name)
	}
	if req.PlanType != nil {
		planType, err := s.normalizePlanType(*req.PlanType)
		if err != nil {
			return nil, err
		}
		plan.PlanType = planType
	}
	if req.Price != nil {
		if !req.Price.IsPositive() {
			return nil, ErrInvalidPrice
		}
		plan.Price = req.Price.Round(2)
	}
	if req.Description != nil {
		plan.Description = *req.Description
	}
	if req.Active != nil {
		plan.Active = *req.Active
	}

	if err := s.planRepo.Update(plan); err != nil {
		return nil, err
	}
	return s.toInfo(plan), nil
}

// Delete 已被学员引用的套餐只能停用
func (s *PlanService) Delete(id int64) error {
	if _, err := s.get(id); err != nil {
		return err
	}
	count, err := s.studentPlanRepo.CountByPlan(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrPlanInUse
	}
	return s.planRepo.Delete(id)
}

func (s *PlanService) get(id int64) (*model.Plan, error) {
	plan, err := s.planRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

// normalizePlanType 周期词汇统一为标准写法，档位词汇原样保留
func (s *PlanService) normalizePlanType(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if p, ok := billing.ParsePlanType(v); ok {
		return string(p), nil
	}
	if s.calendar.Known(v) {
		return v, nil
	}
	return "", ErrInvalidPlanType
}

func (s *PlanService) toInfo(plan *model.Plan) *dto.PlanInfo {
	return toPlanInfo(plan, s.calendar, s.settings.Currency())
}

func toPlanInfo(plan *model.Plan, calendar *billing.Calendar, currency string) *dto.PlanInfo {
	if plan == nil {
		return nil
	}
	return &dto.PlanInfo{
		ID:             plan.ID,
		Name:           plan.Name,
		PlanType:       plan.PlanType,
		BillingCycle:   string(calendar.Resolve(plan.PlanType)),
		Price:          plan.Price,
		PriceFormatted: billing.FormatCurrency(plan.Price, currency),
		Description:    plan.Description,
		Active:         plan.Active,
	}
}
