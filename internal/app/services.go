package app

import (
	"log/slog"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/pkg/billing"
	"github.com/qs3c/gym_go_server/internal/pkg/pubsub"
	"github.com/qs3c/gym_go_server/internal/pkg/queue"
	"github.com/qs3c/gym_go_server/internal/repository"
	"github.com/qs3c/gym_go_server/internal/service"
)

// Services 业务服务集合，server 和 gymctl 共用
type Services struct {
	Notifications *service.NotificationService
	Settings      *service.SettingsService
	Billing       *service.BillingService
	Finance       *service.FinanceService
	Plans         *service.PlanService
	Students      *service.StudentService
	Instructors   *service.InstructorService
	Workouts      *service.WorkoutService
	Attendance    *service.AttendanceService
	Auth          *service.AuthService
	Users         *service.UserService
}

// NewServices 组装 repository 和 service。
// rdb 为 nil 时通知只写库，不推送也不发邮件；storage 为 nil 时头像上传不可用。
func NewServices(db *gorm.DB, rdb *redis.Client, storage service.AvatarStorage, cfg *config.Config, logger *slog.Logger) *Services {
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	planRepo := repository.NewPlanRepository(db)
	studentPlanRepo := repository.NewStudentPlanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	workoutRepo := repository.NewWorkoutRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	var (
		publisher service.EventPublisher
		mails     service.MailQueue
	)
	if rdb != nil {
		publisher = pubsub.NewPublisher(rdb)
		mails = queue.NewQueue(rdb, cfg.Queue.MailQueue)
	}

	calendar := billing.NewCalendar(cfg.Billing.TierCycles)

	s := &Services{}
	s.Notifications = service.NewNotificationService(db, notificationRepo, userRepo, publisher, mails, logger)
	s.Settings = service.NewSettingsService(settingsRepo, cfg)
	s.Billing = service.NewBillingService(db, studentRepo, studentPlanRepo, paymentRepo, s.Notifications, s.Settings, calendar, logger)
	s.Finance = service.NewFinanceService(paymentRepo, studentRepo, userRepo, s.Settings, calendar)
	s.Plans = service.NewPlanService(planRepo, studentPlanRepo, s.Settings, calendar)
	s.Students = service.NewStudentService(db, userRepo, studentRepo, instructorRepo, planRepo, studentPlanRepo, s.Notifications, s.Settings, calendar, logger)
	s.Instructors = service.NewInstructorService(db, userRepo, instructorRepo, logger)
	s.Workouts = service.NewWorkoutService(workoutRepo, studentRepo, s.Notifications, logger)
	s.Attendance = service.NewAttendanceService(attendanceRepo, studentRepo)
	s.Auth = service.NewAuthService(userRepo, s.Students, cfg)
	s.Users = service.NewUserService(userRepo, storage, cfg, logger)
	return s
}
