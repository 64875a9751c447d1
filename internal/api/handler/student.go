package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/gym_go_server/internal/api/middleware"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/response"
	"github.com/qs3c/gym_go_server/internal/service"
)

type StudentHandler struct {
	studentService *service.StudentService
	billingService *service.BillingService
	financeService *service.FinanceService
}

func NewStudentHandler(
	studentService *service.StudentService,
	billingService *service.BillingService,
	financeService *service.FinanceService,
) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		billingService: billingService,
		financeService: financeService,
	}
}

// List 学员列表
// GET /api/v1/students
func (h *StudentHandler) List(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.studentService.List(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, req.Page, req.PageSize, items)
}

// Get 学员详情
// GET /api/v1/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的学员ID")
	if !ok {
		return
	}

	info, err := h.studentService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, info)
}

// Me 学员查看自己的档案
// GET /api/v1/students/me
func (h *StudentHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.studentService.Get(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, info)
}

// Create 创建学员
// POST /api/v1/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, "学员已创建", info)
}

// Update 更新学员
// PUT /api/v1/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的学员ID")
	if !ok {
		return
	}

	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.studentService.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", info)
}

// Delete 停用学员，历史账单保留
// DELETE /api/v1/students/:id
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的学员ID")
	if !ok {
		return
	}

	if err := h.studentService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "学员已停用", nil)
}

// AssignPlan 分配套餐
// POST /api/v1/students/:id/plan
func (h *StudentHandler) AssignPlan(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的学员ID")
	if !ok {
		return
	}

	var req dto.AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.studentService.AssignPlan(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "套餐已分配", info)
}

// PaymentSummary 缴费汇总（缓存值与账单推导值）
// GET /api/v1/students/:id/payment-summary
func (h *StudentHandler) PaymentSummary(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的学员ID")
	if !ok {
		return
	}

	summary, err := h.financeService.StudentSummary(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, summary)
}

// CheckOverdue 立即执行一次逾期检查
// POST /api/v1/students/check-overdue
func (h *StudentHandler) CheckOverdue(c *gin.Context) {
	result, err := h.billingService.SweepOverdue(c.Request.Context(), time.Time{})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, &dto.ProcessedResponse{
		Message:   "逾期检查完成",
		Processed: result.Processed,
	})
}
