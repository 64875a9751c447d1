package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/billing"
	"github.com/qs3c/gym_go_server/internal/pkg/queue"
	"github.com/qs3c/gym_go_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrInstructorNotFound = errors.New("教练不存在")
)

// passwordCost bcrypt 强度，测试中会调低
var passwordCost = bcrypt.DefaultCost

type StudentService struct {
	db              *gorm.DB
	userRepo        *repository.UserRepository
	studentRepo     *repository.StudentRepository
	instructorRepo  *repository.InstructorRepository
	planRepo        *repository.PlanRepository
	studentPlanRepo *repository.StudentPlanRepository
	notifier        *NotificationService
	settings        *SettingsService
	calendar        *billing.Calendar
	logger          *slog.Logger
	now             func() time.Time
}

func NewStudentService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	studentRepo *repository.StudentRepository,
	instructorRepo *repository.InstructorRepository,
	planRepo *repository.PlanRepository,
	studentPlanRepo *repository.StudentPlanRepository,
	notifier *NotificationService,
	settings *SettingsService,
	calendar *billing.Calendar,
	logger *slog.Logger,
) *StudentService {
	return &StudentService{
		db:              db,
		userRepo:        userRepo,
		studentRepo:     studentRepo,
		instructorRepo:  instructorRepo,
		planRepo:        planRepo,
		studentPlanRepo: studentPlanRepo,
		notifier:        notifier,
		settings:        settings,
		calendar:        calendar,
		logger:          logger,
		now:             utcNow,
	}
}

// Create 创建学员账号与档案（同一事务），随后发送欢迎通知
func (s *StudentService) Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentInfo, error) {
	email := normalizeEmail(req.Email)
	exists, err := s.userRepo.ExistsByEmail(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	planType := string(billing.Monthly)
	if strings.TrimSpace(req.PlanType) != "" {
		if !s.calendar.Known(req.PlanType) {
			return nil, ErrInvalidPlanType
		}
		planType = strings.ToLower(strings.TrimSpace(req.PlanType))
	}
	birthDate, err := parseOptionalDate(req.BirthDate)
	if err != nil {
		return nil, err
	}
	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	if req.InstructorID != nil {
		if err := s.checkInstructor(*req.InstructorID); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		UserType:     model.UserTypeStudent,
		Active:       true,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}
		return s.studentRepo.WithTx(tx).Create(&model.Student{
			UserID:        user.ID,
			PlanType:      planType,
			PaymentStatus: model.StudentPaymentPending,
			StartDate:     startDate,
			Phone:         req.Phone,
			BirthDate:     birthDate,
			Height:        req.Height,
			Weight:        req.Weight,
			Goal:          req.Goal,
			InstructorID:  req.InstructorID,
			Notes:         req.Notes,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("student created", "user_id", user.ID)
	welcome := &model.Notification{
		UserID:  user.ID,
		Title:   "欢迎加入",
		Message: "您的会员账号已创建，现在可以查看训练计划与缴费记录。",
		Type:    model.NotificationSystem,
	}
	if err := s.notifier.Notify(ctx, welcome, mailJob(user, queue.MailWelcome, "", nil)); err != nil {
		s.logger.Warn("welcome notification skipped", "user_id", user.ID, "error", err)
	}

	return s.Get(user.ID)
}

// Get 学员详情（含当前套餐）
func (s *StudentService) Get(id int64) (*dto.StudentInfo, error) {
	student, err := s.getStudent(id)
	if err != nil {
		return nil, err
	}

	info := s.toInfo(student)
	sp, err := s.studentPlanRepo.GetActiveByStudent(id)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if sp != nil {
		info.ActivePlan = s.toPlanInfo(sp)
	}
	return info, nil
}

func (s *StudentService) List(req *dto.StudentListRequest) ([]*dto.StudentInfo, int64, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	req.Page, req.PageSize = page, pageSize

	filter := repository.StudentFilter{
		PaymentStatus: req.PaymentStatus,
		PlanType:      req.PlanType,
		InstructorID:  req.InstructorID,
		Search:        strings.TrimSpace(req.Search),
	}
	students, total, err := s.studentRepo.List(filter, page, pageSize)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.StudentInfo, 0, len(students))
	for _, st := range students {
		items = append(items, s.toInfo(st))
	}
	return items, total, nil
}

// Update 更新账号与档案字段；缴费汇总字段只能通过账单操作修改
func (s *StudentService) Update(id int64, req *dto.UpdateStudentRequest) (*dto.StudentInfo, error) {
	student, err := s.getStudent(id)
	if err != nil {
		return nil, err
	}

	userFields := map[string]interface{}{}
	if req.Name != nil {
		userFields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != student.User.Email {
			exists, err := s.userRepo.ExistsByEmail(email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrEmailExists
			}
			userFields["email"] = email
		}
	}
	if req.Active != nil {
		userFields["active"] = *req.Active
	}

	fields := map[string]interface{}{}
	if req.PlanType != nil {
		if !s.calendar.Known(*req.PlanType) {
			return nil, ErrInvalidPlanType
		}
		fields["plan_type"] = strings.ToLower(strings.TrimSpace(*req.PlanType))
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Height != nil {
		fields["height"] = *req.Height
	}
	if req.Weight != nil {
		fields["weight"] = *req.Weight
	}
	if req.Goal != nil {
		fields["goal"] = *req.Goal
	}
	if req.Notes != nil {
		fields["notes"] = *req.Notes
	}
	if req.InstructorID != nil {
		if *req.InstructorID == 0 {
			fields["instructor_id"] = nil
		} else {
			if err := s.checkInstructor(*req.InstructorID); err != nil {
				return nil, err
			}
			fields["instructor_id"] = *req.InstructorID
		}
	}
	for column, value := range map[string]*string{
		"birth_date": req.BirthDate,
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
	} {
		if value == nil {
			continue
		}
		d, err := parseOptionalDate(*value)
		if err != nil {
			return nil, err
		}
		fields[column] = d
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(userFields) > 0 {
			if err := s.userRepo.WithTx(tx).UpdateFields(id, userFields); err != nil {
				return err
			}
		}
		if len(fields) > 0 {
			if err := s.studentRepo.WithTx(tx).UpdateFields(id, fields); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete 停用账号并取消当前套餐，历史账单保留
func (s *StudentService) Delete(id int64) error {
	if _, err := s.getStudent(id); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.studentPlanRepo.WithTx(tx).CancelByStudent(id); err != nil {
			return err
		}
		return s.userRepo.WithTx(tx).UpdateFields(id, map[string]interface{}{"active": false})
	})
}

// AssignPlan 为学员分配套餐：旧的 active 套餐置为 expired，学员的计费周期随新套餐变化
func (s *StudentService) AssignPlan(ctx context.Context, studentID int64, req *dto.AssignPlanRequest) (*dto.StudentPlanInfo, error) {
	if _, err := s.getStudent(studentID); err != nil {
		return nil, err
	}
	plan, err := s.planRepo.GetByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if !plan.Active {
		return nil, ErrPlanInactive
	}

	start := billing.DateOnly(s.now())
	if strings.TrimSpace(req.StartDate) != "" {
		if start, err = parseDate(req.StartDate); err != nil {
			return nil, err
		}
	}
	end := s.calendar.NextDueDate(start, plan.PlanType)

	sp := &model.StudentPlan{
		StudentID: studentID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   end,
		Status:    model.StudentPlanActive,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.studentPlanRepo.WithTx(tx).ExpireActive(studentID); err != nil {
			return err
		}
		if err := s.studentPlanRepo.WithTx(tx).Create(sp); err != nil {
			return err
		}
		return s.studentRepo.WithTx(tx).UpdateFields(studentID, map[string]interface{}{
			"plan_type":  plan.PlanType,
			"start_date": start,
			"end_date":   end,
		})
	})
	if err != nil {
		return nil, err
	}

	sp.Plan = plan
	s.logger.Info("plan assigned", "student_id", studentID, "plan_id", plan.ID, "end_date", formatDate(&end))
	return s.toPlanInfo(sp), nil
}

func (s *StudentService) getStudent(id int64) (*model.Student, error) {
	student, err := s.studentRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (s *StudentService) checkInstructor(id int64) error {
	if _, err := s.instructorRepo.GetByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInstructorNotFound
		}
		return err
	}
	return nil
}

func (s *StudentService) toInfo(st *model.Student) *dto.StudentInfo {
	info := &dto.StudentInfo{
		UserID:          st.UserID,
		PlanType:        st.PlanType,
		BillingCycle:    string(s.calendar.Resolve(st.PlanType)),
		PaymentStatus:   st.PaymentStatus,
		LastPaymentDate: formatDate(st.LastPaymentDate),
		NextPaymentDate: formatDate(st.NextPaymentDate),
		StartDate:       formatDate(st.StartDate),
		EndDate:         formatDate(st.EndDate),
		Phone:           st.Phone,
		BirthDate:       formatDate(st.BirthDate),
		Height:          st.Height,
		Weight:          st.Weight,
		Goal:            st.Goal,
		InstructorID:    st.InstructorID,
		Notes:           st.Notes,
		CreatedAt:       st.CreatedAt.Format(time.RFC3339),
	}
	if st.User != nil {
		info.Name = st.User.Name
		info.Email = st.User.Email
		info.AvatarURL = st.User.AvatarURL
		info.Active = st.User.Active
	}
	return info
}

func (s *StudentService) toPlanInfo(sp *model.StudentPlan) *dto.StudentPlanInfo {
	return &dto.StudentPlanInfo{
		ID:        sp.ID,
		PlanID:    sp.PlanID,
		Plan:      toPlanInfo(sp.Plan, s.calendar, s.settings.Currency()),
		StartDate: formatDate(&sp.StartDate),
		EndDate:   formatDate(&sp.EndDate),
		Status:    sp.Status,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
