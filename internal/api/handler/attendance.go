package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/gym_go_server/internal/model/dto"
	"github.com/qs3c/gym_go_server/internal/pkg/response"
	"github.com/qs3c/gym_go_server/internal/service"
)

type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
	}
}

// CheckIn 签到；学员只能为自己签到
// POST /api/v1/attendance/check-in
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	userID, userType, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ParamError(c, err.Error())
			return
		}
	}

	record, err := h.attendanceService.CheckIn(userID, userType, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, "签到成功", record)
}

// CheckOut 签退
// POST /api/v1/attendance/:id/check-out
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	userID, userType, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id", "无效的签到记录ID")
	if !ok {
		return
	}

	record, err := h.attendanceService.CheckOut(userID, userType, id)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessWithMessage(c, "签退成功", record)
}

// List 签到记录
// GET /api/v1/attendance
func (h *AttendanceHandler) List(c *gin.Context) {
	var req dto.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	records, total, err := h.attendanceService.List(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, req.Page, req.PageSize, records)
}

// Mine 学员自己的签到记录
// GET /api/v1/attendance/mine
func (h *AttendanceHandler) Mine(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.AttendanceListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	records, total, err := h.attendanceService.Mine(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	response.SuccessPage(c, total, req.Page, req.PageSize, records)
}
