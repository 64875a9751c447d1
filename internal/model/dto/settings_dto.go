package dto

// UpdateSettingsRequest 更新健身房设置
type UpdateSettingsRequest struct {
	GymName          *string `json:"gym_name" binding:"omitempty,max=100"`
	Currency         *string `json:"currency" binding:"omitempty,len=3"`
	Locale           *string `json:"locale" binding:"omitempty,max=10"`
	OpenTime         *string `json:"open_time"`
	CloseTime        *string `json:"close_time"`
	ContactEmail     *string `json:"contact_email" binding:"omitempty,email"`
	ContactPhone     *string `json:"contact_phone" binding:"omitempty,max=30"`
	OverdueGraceDays *int    `json:"overdue_grace_days" binding:"omitempty,gte=0"`
}
