package dto

// CreateStudentRequest 管理员创建学员（同时创建登录账号）
type CreateStudentRequest struct {
	Name         string  `json:"name" binding:"required,min=2,max=100"`
	Email        string  `json:"email" binding:"required,email"`
	Password     string  `json:"password" binding:"required,min=8,max=32"`
	PlanType     string  `json:"plan_type"`
	Phone        string  `json:"phone" binding:"omitempty,max=30"`
	BirthDate    string  `json:"birth_date"`
	Height       float64 `json:"height" binding:"omitempty,gte=0"`
	Weight       float64 `json:"weight" binding:"omitempty,gte=0"`
	Goal         string  `json:"goal" binding:"omitempty,max=255"`
	InstructorID *int64  `json:"instructor_id"`
	Notes        string  `json:"notes"`
	StartDate    string  `json:"start_date"`
}

// UpdateStudentRequest 更新学员档案，nil 字段不修改
type UpdateStudentRequest struct {
	Name         *string  `json:"name" binding:"omitempty,min=2,max=100"`
	Email        *string  `json:"email" binding:"omitempty,email"`
	Active       *bool    `json:"active"`
	PlanType     *string  `json:"plan_type"`
	Phone        *string  `json:"phone" binding:"omitempty,max=30"`
	BirthDate    *string  `json:"birth_date"`
	Height       *float64 `json:"height" binding:"omitempty,gte=0"`
	Weight       *float64 `json:"weight" binding:"omitempty,gte=0"`
	Goal         *string  `json:"goal" binding:"omitempty,max=255"`
	InstructorID *int64   `json:"instructor_id"`
	Notes        *string  `json:"notes"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
}

// StudentListRequest 学员列表查询参数
type StudentListRequest struct {
	Page          int    `form:"page,default=1"`
	PageSize      int    `form:"page_size,default=20"`
	PaymentStatus string `form:"payment_status"`
	PlanType      string `form:"plan_type"`
	InstructorID  int64  `form:"instructor_id"`
	Search        string `form:"search"` // 姓名或邮箱
}

// StudentInfo 学员详情
type StudentInfo struct {
	UserID          int64            `json:"user_id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	AvatarURL       string           `json:"avatar_url"`
	Active          bool             `json:"active"`
	PlanType        string           `json:"plan_type"`
	BillingCycle    string           `json:"billing_cycle"`
	PaymentStatus   string           `json:"payment_status"`
	LastPaymentDate string           `json:"last_payment_date,omitempty"`
	NextPaymentDate string           `json:"next_payment_date,omitempty"`
	StartDate       string           `json:"start_date,omitempty"`
	EndDate         string           `json:"end_date,omitempty"`
	Phone           string           `json:"phone"`
	BirthDate       string           `json:"birth_date,omitempty"`
	Height          float64          `json:"height"`
	Weight          float64          `json:"weight"`
	Goal            string           `json:"goal"`
	InstructorID    *int64           `json:"instructor_id,omitempty"`
	Notes           string           `json:"notes"`
	ActivePlan      *StudentPlanInfo `json:"active_plan,omitempty"`
	CreatedAt       string           `json:"created_at"`
}

// AssignPlanRequest 为学员分配套餐
type AssignPlanRequest struct {
	PlanID    int64  `json:"plan_id" binding:"required"`
	StartDate string `json:"start_date"`
}

// StudentPlanInfo 学员当前套餐
type StudentPlanInfo struct {
	ID        int64     `json:"id"`
	PlanID    int64     `json:"plan_id"`
	Plan      *PlanInfo `json:"plan,omitempty"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Status    string    `json:"status"`
}

// PaymentSummaryResponse 缴费汇总：学员表上的缓存值与按账单推导的值
type PaymentSummaryResponse struct {
	StudentID int64              `json:"student_id"`
	Stored    PaymentSummaryInfo `json:"stored"`
	Projected PaymentSummaryInfo `json:"projected"`
	InSync    bool               `json:"in_sync"`
}

// PaymentSummaryInfo 缴费汇总字段
type PaymentSummaryInfo struct {
	PaymentStatus   string `json:"payment_status"`
	LastPaymentDate string `json:"last_payment_date,omitempty"`
	NextPaymentDate string `json:"next_payment_date,omitempty"`
	PendingCount    int    `json:"pending_count"`
	OverdueCount    int    `json:"overdue_count"`
}

// ProcessedResponse 批处理结果（逾期检查、续费检查）
type ProcessedResponse struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
}
