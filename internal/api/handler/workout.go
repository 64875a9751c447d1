package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/response"
	"github.com/qs3c/gym_go_server/internal/service"
)

type WorkoutHandler struct {
	workoutService *service.WorkoutService
}

func NewWorkoutHandler(workoutService *service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{
		workoutService: workoutService,
	}
}

// List 训练计划列表
// GET /api/v1/workouts
func (h *WorkoutHandler) List(c *gin.Context) {
	var req dto.WorkoutListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.workoutService.List(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, req.Page, req.PageSize, items)
}

// Mine 学员自己的训练计划
// GET /api/v1/workouts/mine
func (h *WorkoutHandler) Mine(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.WorkoutListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	items, total, err := h.workoutService.Mine(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, req.Page, req.PageSize, items)
}

// Get 训练计划详情
// GET /api/v1/workouts/:id
func (h *WorkoutHandler) Get(c *gin.Context) {
	userID, userType, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "无效的训练计划ID")
	if !ok {
		return
	}

	info, err := h.workoutService.Get(userID, userType, id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, info)
}

// Create 创建训练计划并通知学员
// POST /api/v1/workouts
func (h *WorkoutHandler) Create(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.workoutService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, "训练计划已创建", info)
}

// Update 更新训练计划
// PUT /api/v1/workouts/:id
func (h *WorkoutHandler) Update(c *gin.Context) {
	userID, userType, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "无效的训练计划ID")
	if !ok {
		return
	}

	var req dto.UpdateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.workoutService.Update(userID, userType, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", info)
}

// Delete 删除训练计划
// DELETE /api/v1/workouts/:id
func (h *WorkoutHandler) Delete(c *gin.Context) {
	userID, userType, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "无效的训练计划ID")
	if !ok {
		return
	}

	if err := h.workoutService.Delete(userID, userType, id); err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "训练计划已删除", nil)
}
