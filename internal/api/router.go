package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/api/handler"
	"github.com/qs3c/gym_go_server/internal/api/middleware"
	"github.com/qs3c/gym_go_server/internal/model"
)

// Handlers 路由用到的全部处理器
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Student      *handler.StudentHandler
	Instructor   *handler.InstructorHandler
	Plan         *handler.PlanHandler
	Finance      *handler.FinanceHandler
	Workout      *handler.WorkoutHandler
	Attendance   *handler.AttendanceHandler
	Notification *handler.NotificationHandler
	Settings     *handler.SettingsHandler
	WebSocket    *handler.WebSocketHandler
}

type Router struct {
	h      Handlers
	cfg    *config.Config
	logger *slog.Logger
}

func NewRouter(h Handlers, cfg *config.Config, logger *slog.Logger) *Router {
	return &Router{
		h:      h,
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(r.logger))
	engine.Use(middleware.Recovery(r.logger))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/health", r.h.Health.Check)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := middleware.RequireRoles(model.UserTypeAdmin)
	staff := middleware.RequireRoles(model.UserTypeAdmin, model.UserTypeInstructor)
	student := middleware.RequireRoles(model.UserTypeStudent)

	api := engine.Group("/api/v1")
	{
		// WebSocket，token 走查询参数
		api.GET("/ws", r.h.WebSocket.Handle)

		auth := api.Group("/auth")
		{
			auth.POST("/register", r.h.Auth.Register)
			auth.POST("/login", r.h.Auth.Login)
		}

		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.h.User.GetProfile)
				user.PUT("/profile", r.h.User.UpdateProfile)
				user.PUT("/password", r.h.User.ChangePassword)
				user.POST("/avatar", r.h.User.UploadAvatar)
			}

			// 学员
			students := authenticated.Group("/students")
			{
				students.GET("/me", student, r.h.Student.Me)
				students.GET("", staff, r.h.Student.List)
				students.GET("/:id", staff, r.h.Student.Get)
				students.GET("/:id/payment-summary", staff, r.h.Student.PaymentSummary)
				students.POST("", admin, r.h.Student.Create)
				students.POST("/check-overdue", admin, r.h.Student.CheckOverdue)
				students.PUT("/:id", admin, r.h.Student.Update)
				students.DELETE("/:id", admin, r.h.Student.Delete)
				students.POST("/:id/plan", admin, r.h.Student.AssignPlan)
			}

			instructors := authenticated.Group("/instructors", admin)
			{
				instructors.GET("", r.h.Instructor.List)
				instructors.GET("/:id", r.h.Instructor.Get)
				instructors.POST("", r.h.Instructor.Create)
				instructors.PUT("/:id", r.h.Instructor.Update)
				instructors.DELETE("/:id", r.h.Instructor.Delete)
			}

			// 套餐：所有人可读，管理员可写
			plans := authenticated.Group("/plans")
			{
				plans.GET("", r.h.Plan.List)
				plans.GET("/:id", r.h.Plan.Get)
				plans.POST("", admin, r.h.Plan.Create)
				plans.PUT("/:id", admin, r.h.Plan.Update)
				plans.DELETE("/:id", admin, r.h.Plan.Delete)
			}

			// 财务
			authenticated.GET("/finance/my-payments", student, r.h.Finance.MyPayments)
			finance := authenticated.Group("/finance", admin)
			{
				finance.GET("/summary", r.h.Finance.Summary)
				finance.GET("/payments", r.h.Finance.ListPayments)
				finance.GET("/payments/export", r.h.Finance.Export)
				finance.GET("/payments/:id", r.h.Finance.GetPayment)
				finance.POST("/payments", r.h.Finance.RecordPayment)
				finance.PUT("/payments/:id", r.h.Finance.UpdatePayment)
				finance.POST("/payments/:id/pay", r.h.Finance.PayPayment)
				finance.POST("/payments/:id/cancel", r.h.Finance.CancelPayment)
				finance.POST("/request-payment", r.h.Finance.RequestPayment)
				finance.POST("/check-renewals", r.h.Finance.CheckRenewals)
			}

			// 训练计划
			workouts := authenticated.Group("/workouts")
			{
				workouts.GET("/mine", student, r.h.Workout.Mine)
				workouts.GET("", staff, r.h.Workout.List)
				workouts.GET("/:id", r.h.Workout.Get)
				workouts.POST("", staff, r.h.Workout.Create)
				workouts.PUT("/:id", staff, r.h.Workout.Update)
				workouts.DELETE("/:id", staff, r.h.Workout.Delete)
			}

			// 签到
			attendance := authenticated.Group("/attendance")
			{
				attendance.POST("/check-in", r.h.Attendance.CheckIn)
				attendance.POST("/:id/check-out", r.h.Attendance.CheckOut)
				attendance.GET("/mine", student, r.h.Attendance.Mine)
				attendance.GET("", staff, r.h.Attendance.List)
			}

			// 通知
			notifications := authenticated.Group("/notifications")
			{
				notifications.GET("", r.h.Notification.List)
				notifications.GET("/unread-count", r.h.Notification.UnreadCount)
				notifications.PUT("/read-all", r.h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", r.h.Notification.MarkRead)
				notifications.DELETE("/:id", r.h.Notification.Delete)
				notifications.POST("", admin, r.h.Notification.Broadcast)
			}

			authenticated.GET("/settings", r.h.Settings.Get)
			authenticated.PUT("/settings", admin, r.h.Settings.Update)
		}
	}

	return engine
}
