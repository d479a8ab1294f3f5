// internal/domain/subscription/dto.go
package subscription

import "github.com/google/uuid"

type CheckoutRequest struct {
	Plan Plan `json:"plan"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type ManageAction string

const (
	ActionCancel     ManageAction = "cancel"
	ActionReactivate ManageAction = "reactivate"
)

type ManageRequest struct {
	Action ManageAction `json:"action"`
}

type ManageResponse struct {
	Message           string `json:"message"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
}

type SubscriptionResponse struct {
	Subscription *Subscription `json:"subscription"`
}

// ReminderOutcome records what happened to one row during a reminder sweep.
type ReminderOutcome string

const (
	ReminderSent    ReminderOutcome = "sent"
	ReminderFailed  ReminderOutcome = "failed"
	ReminderSkipped ReminderOutcome = "skipped"
)

type ReminderDetail struct {
	UserID        uuid.UUID       `json:"userId"`
	Email         string          `json:"email,omitempty"`
	DaysRemaining int             `json:"daysRemaining"`
	Outcome       ReminderOutcome `json:"status"`
	Error         string          `json:"error,omitempty"`
}

type ReminderReport struct {
	Message       string           `json:"message"`
	RemindersSent int              `json:"remindersSent"`
	Details       []ReminderDetail `json:"details"`
}

type SubscriptionListFilters struct {
	Status   *Status `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

type SubscriptionListResponse struct {
	Subscriptions []Subscription `json:"subscriptions"`
	Total         int64          `json:"total"`
	Page          int            `json:"page"`
	PageSize      int            `json:"page_size"`
	TotalPages    int            `json:"total_pages"`
}
