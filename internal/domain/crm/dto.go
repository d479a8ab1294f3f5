// internal/domain/crm/dto.go
package crm

type CreateClientRequest struct {
	FullName string   `json:"full_name" binding:"required,max=255"`
	Email    string   `json:"email" binding:"required,email,max=255"`
	Phone    string   `json:"phone" binding:"omitempty,max=32"`
	Notes    string   `json:"notes"`
	Tags     []string `json:"tags"`
}

type UpdateClientRequest struct {
	FullName *string  `json:"full_name" binding:"omitempty,max=255"`
	Phone    *string  `json:"phone" binding:"omitempty,max=32"`
	Notes    *string  `json:"notes"`
	Tags     []string `json:"tags"`
}

type MoveStageRequest struct {
	Stage Stage `json:"stage" binding:"required"`
}

type ClientListFilters struct {
	Stage    *Stage `form:"stage"`
	Tag      string `form:"tag"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type ClientListResponse struct {
	Clients    []Client `json:"clients"`
	Total      int64    `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
}
