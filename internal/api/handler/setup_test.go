package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/config"
	"github.com/qs3c/gym_go_server/internal/api/middleware"
	"github.com/qs3c/gym_go_server/internal/pkg/billing"
	"github.com/qs3c/gym_go_server/internal/pkg/logger"
	"github.com/qs3c/gym_go_server/internal/pkg/pubsub"
	"github.com/qs3c/gym_go_server/internal/pkg/queue"
	"github.com/qs3c/gym_go_server/internal/pkg/response"
	"github.com/qs3c/gym_go_server/internal/repository"
	"github.com/qs3c/gym_go_server/internal/service"
	"github.com/qs3c/gym_go_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*pubsub.NotificationEvent
}

func (p *recordingPublisher) PublishNotification(ctx context.Context, evt *pubsub.NotificationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []*queue.MailJob
}

func (q *recordingQueue) Push(ctx context.Context, job *queue.MailJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

// testContext 处理器测试共用的数据库与服务
type testContext struct {
	DB        *gorm.DB
	Cfg       *config.Config
	Publisher *recordingPublisher
	Mails     *recordingQueue

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

func setupContext(t *testing.T) (*testContext, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret-key", ExpireHours: 24},
		Billing: config.BillingConfig{
			Currency:   "BRL",
			Locale:     "pt-BR",
			TierCycles: map[string]string{"premium": "quarterly"},
		},
		Upload: config.UploadConfig{MaxAvatarSize: 1024, AllowedExtensions: []string{".png"}},
	}
	log := logger.Discard()
	calendar := billing.NewCalendar(cfg.Billing.TierCycles)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	planRepo := repository.NewPlanRepository(db)
	studentPlanRepo := repository.NewStudentPlanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	ctx := &testContext{
		DB:        db,
		Cfg:       cfg,
		Publisher: &recordingPublisher{},
		Mails:     &recordingQueue{},
	}
	ctx.Notifications = service.NewNotificationService(db, repository.NewNotificationRepository(db), userRepo, ctx.Publisher, ctx.Mails, log)
	ctx.Settings = service.NewSettingsService(repository.NewSettingsRepository(db), cfg)
	ctx.Billing = service.NewBillingService(db, studentRepo, studentPlanRepo, paymentRepo, ctx.Notifications, ctx.Settings, calendar, log)
	ctx.Finance = service.NewFinanceService(paymentRepo, studentRepo, userRepo, ctx.Settings, calendar)
	ctx.Plans = service.NewPlanService(planRepo, studentPlanRepo, ctx.Settings, calendar)
	ctx.Students = service.NewStudentService(db, userRepo, studentRepo, instructorRepo, planRepo, studentPlanRepo,
		ctx.Notifications, ctx.Settings, calendar, log)
	ctx.Instructors = service.NewInstructorService(db, userRepo, instructorRepo, log)
	ctx.Workouts = service.NewWorkoutService(repository.NewWorkoutRepository(db), studentRepo, ctx.Notifications, log)
	ctx.Attendance = service.NewAttendanceService(repository.NewAttendanceRepository(db), studentRepo)
	ctx.Auth = service.NewAuthService(userRepo, ctx.Students, cfg)
	ctx.Users = service.NewUserService(userRepo, nil, cfg, log)

	cleanup := func() {
		testutil.CleanupTestDB(t, db)
	}
	return ctx, cleanup
}

func mockAuth(userID int64, userType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.UserTypeKey, userType)
		c.Next()
	}
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// dataMap 取出响应 data 对象
func dataMap(t *testing.T, resp response.Response) map[string]interface{} {
	t.Helper()
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "data is %T", resp.Data)
	return data
}

// pageItems 取出分页响应的 items 与 total
func pageItems(t *testing.T, resp response.Response) ([]interface{}, float64) {
	t.Helper()
	data := dataMap(t, resp)
	items, ok := data["items"].([]interface{})
	require.True(t, ok, "items is %T", data["items"])
	return items, data["total"].(float64)
}
