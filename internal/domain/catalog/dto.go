// internal/domain/catalog/dto.go
package catalog

type CreateServiceRequest struct {
	Name            string `json:"name" binding:"required,max=255"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=5,max=1440"`
	PriceCents      int64  `json:"price_cents" binding:"min=0"`
	Currency        string `json:"currency" binding:"omitempty,len=3"`
}

type UpdateServiceRequest struct {
	Name            *string `json:"name" binding:"omitempty,max=255"`
	Description     *string `json:"description"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=5,max=1440"`
	PriceCents      *int64  `json:"price_cents" binding:"omitempty,min=0"`
	Currency        *string `json:"currency" binding:"omitempty,len=3"`
	IsActive        *bool   `json:"is_active"`
}
