// internal/domain/catalog/entity.go
package catalog

import (
	"database/sql"
	"time"
)

// Service is something a workspace offers for booking.
type Service struct {
	ID              int64          `json:"id" db:"id"`
	WorkspaceID     int64          `json:"workspace_id" db:"workspace_id"`
	Name            string         `json:"name" db:"name"`
	Description     sql.NullString `json:"description,omitempty" db:"description"`
	DurationMinutes int            `json:"duration_minutes" db:"duration_minutes"`
	PriceCents      int64          `json:"price_cents" db:"price_cents"`
	Currency        string         `json:"currency" db:"currency"`
	IsActive        bool           `json:"is_active" db:"is_active"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}
