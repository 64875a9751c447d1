package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/response"
	"github.com/qs3c/gym_go_server/internal/service"
)

type InstructorHandler struct {
	instructorService *service.InstructorService
}

func NewInstructorHandler(instructorService *service.InstructorService) *InstructorHandler {
	return &InstructorHandler{
		instructorService: instructorService,
	}
}

// List 教练列表
// GET /api/v1/instructors
func (h *InstructorHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.instructorService.List(page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get 教练详情
// GET /api/v1/instructors/:id
func (h *InstructorHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的教练ID")
	if !ok {
		return
	}

	info, err := h.instructorService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, info)
}

// Create 创建教练账号
// POST /api/v1/instructors
func (h *InstructorHandler) Create(c *gin.Context) {
	var req dto.CreateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.instructorService.Create(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, "教练已创建", info)
}

// Update 更新教练
// PUT /api/v1/instructors/:id
func (h *InstructorHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的教练ID")
	if !ok {
		return
	}

	var req dto.UpdateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.instructorService.Update(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", info)
}

// Delete 停用教练
// DELETE /api/v1/instructors/:id
func (h *InstructorHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "无效的教练ID")
	if !ok {
		return
	}

	if err := h.instructorService.Delete(id); err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "教练已停用", nil)
}
