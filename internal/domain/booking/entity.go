// internal/domain/booking/entity.go
package booking

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// CanTransition reports whether a booking may move from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

type Booking struct {
	ID          int64         `json:"id" db:"id"`
	Reference   string        `json:"reference" db:"reference"`
	WorkspaceID int64         `json:"workspace_id" db:"workspace_id"`
	ServiceID   int64         `json:"service_id" db:"service_id"`
	StaffID     sql.NullInt64 `json:"staff_member_id,omitempty" db:"staff_member_id"`
	ClientID    sql.NullInt64 `json:"client_id,omitempty" db:"client_id"`

	// Set when the booker was signed in as a customer.
	CustomerID    *uuid.UUID     `json:"customer_id,omitempty" db:"customer_id"`
	CustomerName  string         `json:"customer_name" db:"customer_name"`
	CustomerEmail string         `json:"customer_email" db:"customer_email"`
	CustomerPhone sql.NullString `json:"customer_phone,omitempty" db:"customer_phone"`

	StartsAt  time.Time      `json:"starts_at" db:"starts_at"`
	EndsAt    time.Time      `json:"ends_at" db:"ends_at"`
	Status    Status         `json:"status" db:"status"`
	Notes     sql.NullString `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}
