package billing

import (
	"encoding/json"
	"fmt"
)

// Webhook event types handled by the reconciler.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	EventInvoicePaymentFailed     = "invoice.payment_failed"
)

// Event is a verified provider webhook event. The set of implementations is
// closed: every known type has its own payload and anything else decodes to
// UnknownEvent.
type Event interface {
	EventID() string
	EventType() string
	isEvent()
}

type envelope struct {
	ID   string
	Type string
}

func (e envelope) EventID() string   { return e.ID }
func (e envelope) EventType() string { return e.Type }
func (envelope) isEvent()            {}

type CheckoutSessionCompleted struct {
	envelope
	Session CheckoutSession
}

type SubscriptionUpdated struct {
	envelope
	Subscription Subscription
}

type SubscriptionDeleted struct {
	envelope
	Subscription Subscription
}

type InvoicePaymentSucceeded struct {
	envelope
	Invoice Invoice
}

type InvoicePaymentFailed struct {
	envelope
	Invoice Invoice
}

// UnknownEvent is acknowledged and otherwise ignored.
type UnknownEvent struct {
	envelope
}

// DecodeEvent builds the typed event for an already verified envelope.
func DecodeEvent(id, eventType string, raw json.RawMessage) (Event, error) {
	env := envelope{ID: id, Type: eventType}

	switch eventType {
	case EventCheckoutSessionCompleted:
		var session CheckoutSession
		if err := json.Unmarshal(raw, &session); err != nil {
			return nil, fmt.Errorf("decode checkout.session: %w", err)
		}
		return &CheckoutSessionCompleted{envelope: env, Session: session}, nil

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		if eventType == EventSubscriptionDeleted {
			return &SubscriptionDeleted{envelope: env, Subscription: sub}, nil
		}
		return &SubscriptionUpdated{envelope: env, Subscription: sub}, nil

	case EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		var inv Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		if eventType == EventInvoicePaymentFailed {
			return &InvoicePaymentFailed{envelope: env, Invoice: inv}, nil
		}
		return &InvoicePaymentSucceeded{envelope: env, Invoice: inv}, nil

	default:
		return &UnknownEvent{envelope: env}, nil
	}
}
