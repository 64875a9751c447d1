package dto

// CheckInRequest 签到；学员本人签到时 StudentID 可省略
type CheckInRequest struct {
	StudentID *int64 `json:"student_id"`
}

// AttendanceListRequest 签到记录查询
type AttendanceListRequest struct {
	Page      int    `form:"page,default=1"`
	PageSize  int    `form:"page_size,default=20"`
	StudentID int64  `form:"student_id"`
	From      string `form:"from"`
	To        string `form:"to"`
}
