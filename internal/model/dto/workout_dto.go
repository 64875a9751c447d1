package dto

import "encoding/json"

// CreateWorkoutRequest 创建训练计划
type CreateWorkoutRequest struct {
	StudentID   int64           `json:"student_id" binding:"required"`
	Title       string          `json:"title" binding:"required,max=200"`
	Description string          `json:"description"`
	Exercises   json.RawMessage `json:"exercises"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
}

// UpdateWorkoutRequest 更新训练计划
type UpdateWorkoutRequest struct {
	Title       *string         `json:"title" binding:"omitempty,max=200"`
	Description *string         `json:"description"`
	Exercises   json.RawMessage `json:"exercises"`
	StartDate   *string         `json:"start_date"`
	EndDate     *string         `json:"end_date"`
	Active      *bool           `json:"active"`
}

// WorkoutListRequest 训练计划列表
type WorkoutListRequest struct {
	Page         int   `form:"page,default=1"`
	PageSize     int   `form:"page_size,default=20"`
	StudentID    int64 `form:"student_id"`
	InstructorID int64 `form:"instructor_id"`
	ActiveOnly   bool  `form:"active_only"`
}

// WorkoutInfo 训练计划
type WorkoutInfo struct {
	ID           int64           `json:"id"`
	StudentID    int64           `json:"student_id"`
	InstructorID int64           `json:"instructor_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Exercises    json.RawMessage `json:"exercises"`
	StartDate    string          `json:"start_date,omitempty"`
	EndDate      string          `json:"end_date,omitempty"`
	Active       bool            `json:"active"`
	CreatedAt    string          `json:"created_at"`
}
