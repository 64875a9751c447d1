package service

import (
	"errors"
	"strings"
	"time"

	"github.com/qs3c/gym_go_server/internal/model"
	"github.com/qs3c/gym_go_server/internal/model/dto"
)

// 通用校验错误
var (
	ErrIncompleteData   = errors.New("数据不完整")
	ErrInvalidDate      = errors.New("日期格式错误，应为 YYYY-MM-DD")
	ErrPermissionDenied = errors.New("无权访问该资源")
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func utcNow() time.Time {
	return time.Now().UTC()
}

// parseDate 解析 YYYY-MM-DD（UTC 零点）
func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dto.DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// parseOptionalDate 空字符串返回 nil
func parseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dto.DateLayout)
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func toUserInfo(user *model.User) *dto.UserInfo {
	if user == nil {
		return nil
	}
	return &dto.UserInfo{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		UserType:  user.UserType,
		AvatarURL: user.AvatarURL,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

// isStaff 管理员或教练
func isStaff(userType string) bool {
	return userType == model.UserTypeAdmin || userType == model.UserTypeInstructor
}
