// internal/domain/team/entity.go
package team

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type StaffMember struct {
	ID          int64          `json:"id" db:"id"`
	WorkspaceID int64          `json:"workspace_id" db:"workspace_id"`
	UserID      *uuid.UUID     `json:"user_id,omitempty" db:"user_id"`
	FullName    string         `json:"full_name" db:"full_name"`
	Email       sql.NullString `json:"email,omitempty" db:"email"`
	Phone       sql.NullString `json:"phone,omitempty" db:"phone"`
	RoleTitle   sql.NullString `json:"role_title,omitempty" db:"role_title"`
	IsActive    bool           `json:"is_active" db:"is_active"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Shift is a recurring weekly working window for a staff member. Times are
// "HH:MM" in the workspace timezone; Weekday follows time.Weekday (0 = Sunday).
type Shift struct {
	ID          int64     `json:"id" db:"id"`
	WorkspaceID int64     `json:"workspace_id" db:"workspace_id"`
	StaffID     int64     `json:"staff_member_id" db:"staff_member_id"`
	Weekday     int       `json:"weekday" db:"weekday"`
	StartTime   string    `json:"start_time" db:"start_time"`
	EndTime     string    `json:"end_time" db:"end_time"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ParseClock parses an "HH:MM" wall clock into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Overlaps reports whether two shifts on the same weekday intersect.
func (s Shift) Overlaps(o Shift) bool {
	if s.Weekday != o.Weekday {
		return false
	}
	sStart, err1 := ParseClock(s.StartTime)
	sEnd, err2 := ParseClock(s.EndTime)
	oStart, err3 := ParseClock(o.StartTime)
	oEnd, err4 := ParseClock(o.EndTime)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	return sStart < oEnd && oStart < sEnd
}
