// internal/domain/profile/dto.go
package profile

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
	// Only honoured on first completion of onboarding, while the role is still customer.
	Role *Role `json:"role" binding:"omitempty,oneof=business_owner customer"`
}

type DashboardResponse struct {
	Role     Role   `json:"role"`
	Redirect string `json:"redirect"`
}

type ProfileListFilters struct {
	Role     *Role  `form:"role"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type ProfileListResponse struct {
	Profiles   []Profile `json:"profiles"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
