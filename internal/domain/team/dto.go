// internal/domain/team/dto.go
package team

type CreateStaffRequest struct {
	FullName  string `json:"full_name" binding:"required,max=255"`
	Email     string `json:"email" binding:"omitempty,email,max=255"`
	Phone     string `json:"phone" binding:"omitempty,max=32"`
	RoleTitle string `json:"role_title" binding:"omitempty,max=120"`
}

type UpdateStaffRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,max=255"`
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
	Phone     *string `json:"phone" binding:"omitempty,max=32"`
	RoleTitle *string `json:"role_title" binding:"omitempty,max=120"`
	IsActive  *bool   `json:"is_active"`
}

type CreateShiftRequest struct {
	StaffID   int64  `json:"staff_member_id" binding:"required"`
	Weekday   *int   `json:"weekday" binding:"required,min=0,max=6"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}
