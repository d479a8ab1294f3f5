// Package billing wraps the hosted billing provider behind small interfaces
// so the reconciler can be exercised against fakes.
package billing

import (
	"context"
	"strings"
)

// Metadata keys written into checkout sessions and subscriptions so webhook
// events can be attributed without a secondary lookup.
const (
	MetadataUserID = "user_id"
	MetadataPlan   = "plan"
)

// Billing reasons on invoices that represent a recurring charge.
const (
	BillingReasonSubscriptionCycle  = "subscription_cycle"
	BillingReasonSubscriptionCreate = "subscription_create"
)

// Provider is the subset of the billing provider API used by the reconciler.
type Provider interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (*Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, id string, cancel bool) (*Subscription, error)
}

// EventParser verifies a webhook signature and decodes the envelope.
type EventParser interface {
	ParseEvent(payload []byte, signatureHeader string) (Event, error)
}

type CustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

type CheckoutParams struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	TrialDays  int64
	Metadata   map[string]string
}

// CheckoutSession is the provider's checkout session, as delivered in
// checkout.session.completed or returned from creation.
type CheckoutSession struct {
	ID                string            `json:"id"`
	URL               string            `json:"url"`
	Mode              string            `json:"mode"`
	Customer          string            `json:"customer"`
	Subscription      string            `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// Subscription is the provider subscription snapshot carried by events and
// returned from retrieval. Period bounds live on items for newer API versions
// and on the subscription itself for older ones; both are decoded.
type Subscription struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	TrialEnd           int64             `json:"trial_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []SubscriptionItem `json:"data"`
	} `json:"items"`
}

type SubscriptionItem struct {
	ID                 string `json:"id"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	Price              struct {
		ID string `json:"id"`
	} `json:"price"`
}

// PriceID returns the price of the first item that carries one.
func (s *Subscription) PriceID() string {
	for _, item := range s.Items.Data {
		if id := strings.TrimSpace(item.Price.ID); id != "" {
			return id
		}
	}
	return ""
}

// PeriodStart returns the billing cycle start in unix seconds.
func (s *Subscription) PeriodStart() int64 {
	if s.CurrentPeriodStart > 0 {
		return s.CurrentPeriodStart
	}
	for _, item := range s.Items.Data {
		if item.CurrentPeriodStart > 0 {
			return item.CurrentPeriodStart
		}
	}
	return 0
}

// PeriodEnd returns the billing cycle end in unix seconds.
func (s *Subscription) PeriodEnd() int64 {
	if s.CurrentPeriodEnd > 0 {
		return s.CurrentPeriodEnd
	}
	for _, item := range s.Items.Data {
		if item.CurrentPeriodEnd > 0 {
			return item.CurrentPeriodEnd
		}
	}
	return 0
}

// UserID reads the attributing user id from subscription metadata.
func (s *Subscription) UserID() string {
	return strings.TrimSpace(s.Metadata[MetadataUserID])
}

// Invoice is the provider invoice carried by invoice.* events.
type Invoice struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	BillingReason string `json:"billing_reason"`
	Subscription  string `json:"subscription"`
	Parent        struct {
		SubscriptionDetails struct {
			Subscription string            `json:"subscription"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// SubscriptionID returns the referenced subscription, if any.
func (i *Invoice) SubscriptionID() string {
	if id := strings.TrimSpace(i.Subscription); id != "" {
		return id
	}
	return strings.TrimSpace(i.Parent.SubscriptionDetails.Subscription)
}

// IsRecurringCharge reports whether the invoice bills a subscription cycle
// rather than a one-off.
func (i *Invoice) IsRecurringCharge() bool {
	switch i.BillingReason {
	case BillingReasonSubscriptionCycle, BillingReasonSubscriptionCreate:
		return true
	}
	return false
}
