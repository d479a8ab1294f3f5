// internal/domain/subscription/entity.go
package subscription

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusInactive  Status = "inactive"
	StatusTrial     Status = "trial"
	StatusTrialing  Status = "trialing"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
)

// IsTrial reports whether the status is one of the two trial spellings.
func (s Status) IsTrial() bool {
	return s == StatusTrial || s == StatusTrialing
}

// Valid reports whether s is a known local status.
func (s Status) Valid() bool {
	switch s {
	case StatusInactive, StatusTrial, StatusTrialing, StatusActive, StatusPastDue, StatusCancelled:
		return true
	}
	return false
}

// Plan is the customer-facing billing interval.
type Plan string

const (
	PlanMonthly  Plan = "monthly"
	PlanAnnually Plan = "annually"
)

// TrialPeriodDays is attached to the provider subscription, not the checkout session.
const TrialPeriodDays = 14

// Subscription is the local mirror of the billing provider's subscription, one row per user.
type Subscription struct {
	ID                   int64      `json:"id" db:"id"`
	UserID               uuid.UUID  `json:"user_id" db:"user_id"`
	StripeCustomerID     *string    `json:"stripe_customer_id" db:"stripe_customer_id"`
	StripeSubscriptionID *string    `json:"stripe_subscription_id" db:"stripe_subscription_id"`
	StripePriceID        *string    `json:"stripe_price_id" db:"stripe_price_id"`
	Status               Status     `json:"status" db:"status"`
	CurrentPeriodStart   *time.Time `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end" db:"current_period_end"`
	CancelAtPeriodEnd    bool       `json:"cancel_at_period_end" db:"cancel_at_period_end"`
	TrialEnd             *time.Time `json:"trial_end" db:"trial_end"`

	// Stamped once the "trial ended, now billing" email went out.
	TrialEndedNotifiedAt *time.Time `json:"-" db:"trial_ended_notified_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasProviderSubscription reports whether a completed checkout is on file.
func (s *Subscription) HasProviderSubscription() bool {
	return s != nil && s.StripeSubscriptionID != nil && *s.StripeSubscriptionID != ""
}

// CustomerID returns the provider customer id or "".
func (s *Subscription) CustomerID() string {
	if s == nil || s.StripeCustomerID == nil {
		return ""
	}
	return *s.StripeCustomerID
}

// Mirror carries every provider-owned field refreshed by a webhook event.
type Mirror struct {
	StripeCustomerID     string
	StripeSubscriptionID string
	StripePriceID        string
	Status               Status
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool
	TrialEnd             *time.Time
}

// PeriodUpdate is the narrower write applied after a paid invoice.
type PeriodUpdate struct {
	Status             Status
	StripePriceID      string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	TrialEnd           *time.Time
}

type SubscriptionStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[Status]int64 `json:"by_status"`
	Cancelling int64            `json:"cancelling"`
}
