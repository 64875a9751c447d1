package dto

// NotificationListRequest 通知列表
type NotificationListRequest struct {
	Page       int  `form:"page,default=1"`
	PageSize   int  `form:"page_size,default=20"`
	UnreadOnly bool `form:"unread_only"`
}

// BroadcastRequest 管理员发送通知；UserID 为空时发给所有学员
type BroadcastRequest struct {
	UserID  *int64 `json:"user_id"`
	Title   string `json:"title" binding:"required,max=200"`
	Message string `json:"message" binding:"required"`
	Type    string `json:"type"`
}

// UnreadCountResponse 未读数
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
