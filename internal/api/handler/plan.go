package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/response"
	"github.com/qs3c/gym_go_server/internal/service"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

// List 套餐列表；非管理员只能看到启用中的套餐
// GET /api/v1/plans
func (h *PlanHandler) List(c *gin.Context) {
	_, userType, ok := currentUser(c)
	if !ok {
		return
	}
	activeOnly := userType != model.UserTypeAdmin || c.Query("active_only") == "true"

	plans, err := h.planService.List(activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, plans)
}

// Get 套餐详情
// GET /api/v1/plans/:id
func (h *PlanHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的套餐ID")
	if !ok {
		return
	}

	plan, err := h.planService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, plan)
}

// Create 创建套餐
// POST /api/v1/plans
func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	plan, err := h.planService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, "套餐已创建", plan)
}

// Update 更新套餐
// PUT /api/v1/plans/:id
func (h *PlanHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的套餐ID")
	if !ok {
		return
	}

	var req dto.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	plan, err := h.planService.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", plan)
}

// Delete 删除未被使用的套餐
// DELETE /api/v1/plans/:id
func (h *PlanHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的套餐ID")
	if !ok {
		return
	}

	if err := h.planService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "套餐已删除", nil)
}
