package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/gym_go_server/internal/model"
)

// DefaultPassword fixture 用户的明文密码
const DefaultPassword = "password123"

var (
	seq          int64
	passwordHash string
)

func init() {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	passwordHash = string(hash)
}

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// Date UTC 零点
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TestUser 创建测试用户（默认学员类型，密码为 DefaultPassword）
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := nextSeq()
	user := &model.User{
		Name:         fmt.Sprintf("Test User %d", n),
		Email:        fmt.Sprintf("test_%d_%d@example.com", n, time.Now().UnixNano()),
		PasswordHash: passwordHash,
		UserType:     model.UserTypeStudent,
		Active:       true,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithName 设置姓名
func WithName(name string) func(*model.User) {
	return func(u *model.User) {
		u.Name = name
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithUserType 设置用户类型
func WithUserType(userType string) func(*model.User) {
	return func(u *model.User) {
		u.UserType = userType
	}
}

// WithInactive 停用账号
func WithInactive() func(*model.User) {
	return func(u *model.User) {
		u.Active = false
	}
}

// TestAdmin 创建管理员
func TestAdmin(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	return TestUser(t, db, WithUserType(model.UserTypeAdmin))
}

// TestStudent 创建学员（连同用户账号）
func TestStudent(t *testing.T, db *gorm.DB, opts ...func(*model.Student)) *model.Student {
	t.Helper()

	user := TestUser(t, db, WithUserType(model.UserTypeStudent))
	student := &model.Student{
		UserID:        user.ID,
		PlanType:      "monthly",
		PaymentStatus: model.StudentPaymentPending,
	}

	for _, opt := range opts {
		opt(student)
	}

	if err := db.Omit("User").Create(student).Error; err != nil {
		t.Fatalf("Failed to create test student: %v", err)
	}
	student.User = user

	return student
}

// WithPlanType 设置学员计费周期
func WithPlanType(planType string) func(*model.Student) {
	return func(s *model.Student) {
		s.PlanType = planType
	}
}

// WithPaid 学员已于 last 缴费，下次缴费日为 next
func WithPaid(last, next time.Time) func(*model.Student) {
	return func(s *model.Student) {
		s.PaymentStatus = model.StudentPaymentPaid
		s.LastPaymentDate = &last
		s.NextPaymentDate = &next
	}
}

// WithPaymentStatus 设置学员缴费状态
func WithPaymentStatus(status string) func(*model.Student) {
	return func(s *model.Student) {
		s.PaymentStatus = status
	}
}

// TestInstructor 创建教练（连同用户账号）
func TestInstructor(t *testing.T, db *gorm.DB) *model.Instructor {
	t.Helper()

	user := TestUser(t, db, WithUserType(model.UserTypeInstructor))
	instructor := &model.Instructor{
		UserID:    user.ID,
		Specialty: "musculação",
		CREF:      fmt.Sprintf("%06d-G/SP", user.ID),
	}

	if err := db.Omit("User").Create(instructor).Error; err != nil {
		t.Fatalf("Failed to create test instructor: %v", err)
	}
	instructor.User = user

	return instructor
}

// TestPlan 创建套餐
func TestPlan(t *testing.T, db *gorm.DB, opts ...func(*model.Plan)) *model.Plan {
	t.Helper()

	plan := &model.Plan{
		Name:     fmt.Sprintf("Plano %d", nextSeq()),
		PlanType: "monthly",
		Price:    decimal.NewFromInt(120),
		Active:   true,
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// WithPlanName 设置套餐名
func WithPlanName(name string) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Name = name
	}
}

// WithCycle 设置套餐计费周期
func WithCycle(planType string) func(*model.Plan) {
	return func(p *model.Plan) {
		p.PlanType = planType
	}
}

// WithPrice 设置套餐价格
func WithPrice(price string) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Price = decimal.RequireFromString(price)
	}
}

// TestStudentPlan 为学员创建 active 套餐，周期 [start, end]
func TestStudentPlan(t *testing.T, db *gorm.DB, studentID int64, plan *model.Plan, start, end time.Time) *model.StudentPlan {
	t.Helper()

	sp := &model.StudentPlan{
		StudentID: studentID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   end,
		Status:    model.StudentPlanActive,
	}

	if err := db.Omit("Plan").Create(sp).Error; err != nil {
		t.Fatalf("Failed to create test student plan: %v", err)
	}
	sp.Plan = plan

	return sp
}

// TestPayment 创建账单（默认 pending，金额 100）
func TestPayment(t *testing.T, db *gorm.DB, studentID int64, opts ...func(*model.Payment)) *model.Payment {
	t.Helper()

	payment := &model.Payment{
		StudentID: studentID,
		Amount:    decimal.NewFromInt(100),
		DueDate:   Date(2024, time.March, 1),
		Status:    model.PaymentStatusPending,
		PlanType:  "monthly",
	}

	for _, opt := range opts {
		opt(payment)
	}

	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("Failed to create test payment: %v", err)
	}

	return payment
}

// WithDueDate 设置到期日
func WithDueDate(due time.Time) func(*model.Payment) {
	return func(p *model.Payment) {
		p.DueDate = due
	}
}

// WithAmount 设置金额
func WithAmount(amount string) func(*model.Payment) {
	return func(p *model.Payment) {
		p.Amount = decimal.RequireFromString(amount)
	}
}

// WithPaidOn 标记为已支付
func WithPaidOn(paidOn time.Time) func(*model.Payment) {
	return func(p *model.Payment) {
		p.Status = model.PaymentStatusPaid
		p.PaymentDate = &paidOn
	}
}

// WithStatus 设置账单状态
func WithStatus(status string) func(*model.Payment) {
	return func(p *model.Payment) {
		p.Status = status
	}
}

// TestNotification 创建通知
func TestNotification(t *testing.T, db *gorm.DB, userID int64, read bool) *model.Notification {
	t.Helper()

	n := &model.Notification{
		UserID:  userID,
		Title:   "Aviso",
		Message: fmt.Sprintf("mensagem %d", nextSeq()),
		Type:    model.NotificationSystem,
		Read:    read,
	}

	if err := db.Create(n).Error; err != nil {
		t.Fatalf("Failed to create test notification: %v", err)
	}

	return n
}
