package billing

import (
	"context"
	"fmt"
	"strings"

	xerrors "inboker-service/internal/pkg/errors"

	"github.com/stripe/stripe-go/v82"
	stripesession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider and EventParser on top of the Stripe API.
type StripeProvider struct {
	webhookSecret string

	newCustomer        func(params *stripe.CustomerParams) (*stripe.Customer, error)
	newCheckoutSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getSubscription    func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	updateSubscription func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

// NewStripeProvider configures the Stripe client with the secret API key and
// keeps the webhook signing secret for event verification.
func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	stripe.Key = strings.TrimSpace(apiKey)
	return &StripeProvider{
		webhookSecret:      strings.TrimSpace(webhookSecret),
		newCustomer:        customer.New,
		newCheckoutSession: stripesession.New,
		getSubscription:    stripesub.Get,
		updateSubscription: stripesub.Update,
	}
}

// CreateCustomer creates a Stripe customer and returns its id.
func (p *StripeProvider) CreateCustomer(ctx context.Context, params CustomerParams) (string, error) {
	cp := &stripe.CustomerParams{
		Email:    stripe.String(params.Email),
		Metadata: params.Metadata,
	}
	if params.Name != "" {
		cp.Name = stripe.String(params.Name)
	}
	cp.Context = ctx

	c, err := p.newCustomer(cp)
	if err != nil {
		return "", fmt.Errorf("billing: create stripe customer: %w", err)
	}
	return c.ID, nil
}

// CreateCheckoutSession creates a hosted subscription checkout. A trial, when
// requested, is attached to the subscription rather than the session.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	sp := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(params.CustomerID),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: params.Metadata,
		},
		Metadata: params.Metadata,
	}
	if params.TrialDays > 0 {
		sp.SubscriptionData.TrialPeriodDays = stripe.Int64(params.TrialDays)
	}
	if userID := params.Metadata[MetadataUserID]; userID != "" {
		sp.ClientReferenceID = stripe.String(userID)
	}
	sp.Context = ctx

	s, err := p.newCheckoutSession(sp)
	if err != nil {
		return nil, fmt.Errorf("billing: create checkout session: %w", err)
	}
	return &CheckoutSession{
		ID:                s.ID,
		URL:               s.URL,
		Mode:              string(s.Mode),
		ClientReferenceID: s.ClientReferenceID,
		Metadata:          s.Metadata,
	}, nil
}

// GetSubscription retrieves the full subscription, expanding price and product.
func (p *StripeProvider) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{}
	params.AddExpand("items.data.price.product")
	params.Context = ctx

	s, err := p.getSubscription(id, params)
	if err != nil {
		return nil, fmt.Errorf("billing: retrieve subscription %s: %w", id, err)
	}
	return fromStripeSubscription(s), nil
}

// SetCancelAtPeriodEnd toggles cancellation at the end of the current period.
func (p *StripeProvider) SetCancelAtPeriodEnd(ctx context.Context, id string, cancel bool) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx

	s, err := p.updateSubscription(id, params)
	if err != nil {
		return nil, fmt.Errorf("billing: update subscription %s: %w", id, err)
	}
	return fromStripeSubscription(s), nil
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
// Verification failures wrap ErrInvalidSignature.
func (p *StripeProvider) ParseEvent(payload []byte, signatureHeader string) (Event, error) {
	if p.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", xerrors.ErrInvalidSignature)
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: missing signature header", xerrors.ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrInvalidSignature, err)
	}
	if event.Data == nil {
		return &UnknownEvent{envelope: envelope{ID: event.ID, Type: string(event.Type)}}, nil
	}
	return DecodeEvent(event.ID, string(event.Type), event.Data.Raw)
}

func fromStripeSubscription(s *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                s.ID,
		Status:            string(s.Status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		TrialEnd:          s.TrialEnd,
		Metadata:          s.Metadata,
	}
	if s.Customer != nil {
		out.Customer = s.Customer.ID
	}
	if s.Items != nil {
		for _, it := range s.Items.Data {
			if it == nil {
				continue
			}
			item := SubscriptionItem{
				ID:                 it.ID,
				CurrentPeriodStart: it.CurrentPeriodStart,
				CurrentPeriodEnd:   it.CurrentPeriodEnd,
			}
			if it.Price != nil {
				item.Price.ID = it.Price.ID
			}
			out.Items.Data = append(out.Items.Data, item)
		}
	}
	return out
}
