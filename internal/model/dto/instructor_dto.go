package dto

// CreateInstructorRequest 创建教练
type CreateInstructorRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=32"`
	Phone     string `json:"phone" binding:"omitempty,max=30"`
	Specialty string `json:"specialty" binding:"omitempty,max=100"`
	CREF      string `json:"cref" binding:"omitempty,max=30"`
	Bio       string `json:"bio"`
	HiredAt   string `json:"hired_at"`
}

// UpdateInstructorRequest 更新教练
type UpdateInstructorRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=2,max=100"`
	Active    *bool   `json:"active"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	Specialty *string `json:"specialty" binding:"omitempty,max=100"`
	CREF      *string `json:"cref" binding:"omitempty,max=30"`
	Bio       *string `json:"bio"`
	HiredAt   *string `json:"hired_at"`
}

// InstructorInfo 教练信息
type InstructorInfo struct {
	UserID    int64  `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
	Active    bool   `json:"active"`
	Phone     string `json:"phone"`
	Specialty string `json:"specialty"`
	CREF      string `json:"cref"`
	Bio       string `json:"bio"`
	HiredAt   string `json:"hired_at,omitempty"`
}
