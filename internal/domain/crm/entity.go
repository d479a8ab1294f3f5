// internal/domain/crm/entity.go
package crm

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type Stage string

const (
	StageLead      Stage = "lead"
	StageContacted Stage = "contacted"
	StageBooked    Stage = "booked"
	StageActive    Stage = "active"
	StageInactive  Stage = "inactive"
)

// Stages lists pipeline columns in board order.
var Stages = []Stage{StageLead, StageContacted, StageBooked, StageActive, StageInactive}

func (s Stage) Valid() bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}

// Client is a workspace's contact record. Public bookings create or reuse
// one keyed by email.
type Client struct {
	ID            int64          `json:"id" db:"id"`
	WorkspaceID   int64          `json:"workspace_id" db:"workspace_id"`
	FullName      string         `json:"full_name" db:"full_name"`
	Email         string         `json:"email" db:"email"`
	Phone         sql.NullString `json:"phone,omitempty" db:"phone"`
	Notes         sql.NullString `json:"notes,omitempty" db:"notes"`
	Tags          pq.StringArray `json:"tags" db:"tags"`
	PipelineStage Stage          `json:"pipeline_stage" db:"pipeline_stage"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// PipelineColumn is one stage of the board with its clients.
type PipelineColumn struct {
	Stage   Stage    `json:"stage"`
	Clients []Client `json:"clients"`
}
