// internal/domain/workspace/entity.go
package workspace

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Workspace is the tenant boundary owned by a business owner. Its slug
// addresses the public booking page.
type Workspace struct {
	ID          int64          `json:"id" db:"id"`
	OwnerID     uuid.UUID      `json:"owner_id" db:"owner_id"`
	Name        string         `json:"name" db:"name"`
	Slug        string         `json:"slug" db:"slug"`
	Description sql.NullString `json:"description,omitempty" db:"description"`
	Timezone    string         `json:"timezone" db:"timezone"`
	Phone       sql.NullString `json:"phone,omitempty" db:"phone"`
	Email       sql.NullString `json:"email,omitempty" db:"email"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}
