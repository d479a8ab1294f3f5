// internal/domain/workspace/dto.go
package workspace

type CreateWorkspaceRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Slug        string `json:"slug" binding:"omitempty,max=63"`
	Description string `json:"description"`
	Timezone    string `json:"timezone" binding:"omitempty,max=64"`
	Phone       string `json:"phone" binding:"omitempty,max=32"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
}

type UpdateWorkspaceRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Timezone    *string `json:"timezone" binding:"omitempty,max=64"`
	Phone       *string `json:"phone" binding:"omitempty,max=32"`
	Email       *string `json:"email" binding:"omitempty,email,max=255"`
}
