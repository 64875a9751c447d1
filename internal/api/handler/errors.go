package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/gym_go_server/internal/api/middleware"
	"github.com/qs3c/gym_go_server/internal/pkg/response"
	"github.com/qs3c/gym_go_server/internal/service"
)

var paramErrors = []error{
	service.ErrIncompleteData,
	service.ErrInvalidDate,
	service.ErrInvalidAmount,
	service.ErrInvalidStatus,
	service.ErrInvalidPlanType,
	service.ErrInvalidPrice,
	service.ErrInvalidExercises,
	service.ErrInvalidCurrency,
	service.ErrInvalidTime,
	service.ErrFileTooLarge,
	service.ErrFileTypeForbidden,
	service.ErrWrongPassword,
	service.ErrNoRecipients,
}

var authErrors = []error{
	service.ErrInvalidCredentials,
	service.ErrAccountDisabled,
}

var permissionErrors = []error{
	service.ErrPermissionDenied,
	service.ErrAccountInactive,
}

var notFoundErrors = []error{
	service.ErrUserNotFound,
	service.ErrStudentNotFound,
	service.ErrInstructorNotFound,
	service.ErrNoActivePlan,
	service.ErrPaymentNotFound,
	service.ErrPlanNotFound,
	service.ErrWorkoutNotFound,
	service.ErrNotificationNotFound,
	service.ErrAttendanceNotFound,
}

var conflictErrors = []error{
	service.ErrEmailExists,
	service.ErrInvalidTransition,
	service.ErrPlanInUse,
	service.ErrPlanInactive,
	service.ErrAlreadyCheckedIn,
	service.ErrAlreadyCheckedOut,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError 按错误类别选择响应，未识别的错误按 500 处理
func respondError(c *gin.Context, err error) {
	switch {
	case isAny(err, paramErrors):
		response.ParamError(c, err.Error())
	case isAny(err, authErrors):
		response.AuthError(c, err.Error())
	case isAny(err, permissionErrors):
		response.PermissionError(c, err.Error())
	case isAny(err, notFoundErrors):
		response.NotFoundError(c, err.Error())
	case isAny(err, conflictErrors):
		response.ConflictError(c, err.Error())
	default:
		_ = c.Error(err)
		response.ServerErrorWithDetail(c, "", err)
	}
}

// currentUser 取出认证中间件写入的用户 ID 与类型，缺失时直接返回 401
func currentUser(c *gin.Context) (int64, string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return 0, "", false
	}
	userType, ok := middleware.GetUserType(c)
	if !ok {
		response.AuthError(c, "")
		return 0, "", false
	}
	return userID, userType, true
}

// pathID 解析路径中的数字 ID
func pathID(c *gin.Context, name, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, message)
		return 0, false
	}
	return id, true
}
