// internal/service/subscription/webhook.go
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inboker-service/internal/billing"
	"inboker-service/internal/domain/subscription"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HandleEvent applies one verified provider event to the local mirror.
// Events that cannot be attributed to a user are logged and acknowledged.
// A returned error means the provider should redeliver.
func (s *Service) HandleEvent(ctx context.Context, evt billing.Event) error {
	logger := s.logger.With(zap.String("event_id", evt.EventID()), zap.String("event_type", evt.EventType()))

	switch e := evt.(type) {
	case *billing.CheckoutSessionCompleted:
		return s.onCheckoutCompleted(ctx, logger, e)
	case *billing.SubscriptionUpdated:
		return s.onSubscriptionUpdated(ctx, logger, e)
	case *billing.SubscriptionDeleted:
		return s.onSubscriptionDeleted(ctx, logger, e)
	case *billing.InvoicePaymentSucceeded:
		return s.onInvoicePaid(ctx, logger, e)
	case *billing.InvoicePaymentFailed:
		return s.onInvoiceFailed(ctx, logger, e)
	default:
		logger.Debug("ignoring unhandled webhook event")
		return nil
	}
}

func (s *Service) onCheckoutCompleted(ctx context.Context, logger *zap.Logger, e *billing.CheckoutSessionCompleted) error {
	cs := e.Session
	if cs.Mode != "subscription" || cs.Subscription == "" {
		logger.Info("checkout session is not a subscription checkout, skipping", zap.String("mode", cs.Mode))
		return nil
	}

	sub, err := s.provider.GetSubscription(ctx, cs.Subscription)
	if err != nil {
		return err
	}

	userID, ok := firstUserID(cs.Metadata[billing.MetadataUserID], cs.ClientReferenceID, sub.UserID())
	if !ok {
		logger.Warn("no user id in checkout metadata, skipping", zap.String("subscription_id", sub.ID))
		return nil
	}

	status, trialEnd := s.derive(logger, userID, sub, s.now())

	customerID := cs.Customer
	if customerID == "" {
		customerID = sub.Customer
	}

	row, err := s.store.Upsert(ctx, userID, subscription.Mirror{
		StripeCustomerID:     customerID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        sub.PriceID(),
		Status:               status,
		CurrentPeriodStart:   subscription.UnixTime(sub.PeriodStart()),
		CurrentPeriodEnd:     subscription.UnixTime(sub.PeriodEnd()),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		TrialEnd:             trialEnd,
	})
	if err != nil {
		return err
	}

	logger.Info("subscription stored from checkout",
		zap.String("user_id", userID.String()),
		zap.String("status", string(status)))
	s.notify(userID, row)

	if status == subscription.StatusTrialing && trialEnd != nil {
		if to, name, ok := s.contact(ctx, logger, userID); ok {
			s.sendBestEffort(ctx, userID, s.templates.TrialStarted(to, name, *trialEnd))
		}
	}
	return nil
}

func (s *Service) onSubscriptionUpdated(ctx context.Context, logger *zap.Logger, e *billing.SubscriptionUpdated) error {
	sub := e.Subscription
	userID, ok := firstUserID(sub.UserID())
	if !ok {
		logger.Warn("no user id in subscription metadata, skipping", zap.String("subscription_id", sub.ID))
		return nil
	}

	status, trialEnd := s.derive(logger, userID, &sub, s.now())

	err := s.store.UpdateMirror(ctx, userID, subscription.Mirror{
		StripeCustomerID:     sub.Customer,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        sub.PriceID(),
		Status:               status,
		CurrentPeriodStart:   subscription.UnixTime(sub.PeriodStart()),
		CurrentPeriodEnd:     subscription.UnixTime(sub.PeriodEnd()),
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		TrialEnd:             trialEnd,
	})
	if errors.Is(err, xerrors.ErrNotFound) {
		logger.Warn("no local subscription to update, skipping", zap.String("user_id", userID.String()))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("subscription updated",
		zap.String("user_id", userID.String()),
		zap.String("status", string(status)),
		zap.Bool("cancel_at_period_end", sub.CancelAtPeriodEnd))
	s.notify(userID, nil)
	return nil
}

func (s *Service) onSubscriptionDeleted(ctx context.Context, logger *zap.Logger, e *billing.SubscriptionDeleted) error {
	userID, ok := firstUserID(e.Subscription.UserID())
	if !ok {
		logger.Warn("no user id in subscription metadata, skipping", zap.String("subscription_id", e.Subscription.ID))
		return nil
	}

	err := s.store.MarkCancelled(ctx, userID)
	if errors.Is(err, xerrors.ErrNotFound) {
		logger.Warn("no local subscription to cancel, skipping", zap.String("user_id", userID.String()))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("subscription cancelled", zap.String("user_id", userID.String()))
	s.notify(userID, nil)
	return nil
}

func (s *Service) onInvoicePaid(ctx context.Context, logger *zap.Logger, e *billing.InvoicePaymentSucceeded) error {
	sub, userID, ok, err := s.invoiceSubscription(ctx, logger, &e.Invoice)
	if err != nil || !ok {
		return err
	}

	// Read the row before overwriting so a trial conversion can be detected.
	current, err := s.store.FindByUserID(ctx, userID)
	if errors.Is(err, xerrors.ErrNotFound) {
		logger.Warn("no local subscription for paid invoice, skipping", zap.String("user_id", userID.String()))
		return nil
	}
	if err != nil {
		return err
	}

	now := s.now()
	status, trialEnd := s.derive(logger, userID, sub, now)

	converted := current.Status.IsTrial() &&
		e.Invoice.IsRecurringCharge() &&
		sub.Status == subscription.ProviderActive &&
		trialEnd != nil && !trialEnd.After(now)
	announce := converted && current.TrialEndedNotifiedAt == nil

	// The recipient is resolved before the row leaves the trial so a failed
	// lookup is redelivered with the conversion still detectable.
	var to, name string
	if announce {
		to, name, announce, err = s.lookupContact(ctx, logger, userID)
		if err != nil {
			return fmt.Errorf("load profile for trial-ended email: %w", err)
		}
	}

	err = s.store.UpdatePeriod(ctx, userID, subscription.PeriodUpdate{
		Status:             status,
		StripePriceID:      sub.PriceID(),
		CurrentPeriodStart: subscription.UnixTime(sub.PeriodStart()),
		CurrentPeriodEnd:   subscription.UnixTime(sub.PeriodEnd()),
		TrialEnd:           trialEnd,
	})
	if err != nil {
		return err
	}

	logger.Info("invoice paid",
		zap.String("user_id", userID.String()),
		zap.String("billing_reason", e.Invoice.BillingReason),
		zap.String("status", string(status)))
	s.notify(userID, nil)

	if !announce {
		return nil
	}
	if s.sendBestEffort(ctx, userID, s.templates.TrialEnded(to, name)) {
		if _, err := s.store.MarkTrialEndedNotified(ctx, userID, now); err != nil {
			logger.Warn("failed to record trial-ended notification", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) onInvoiceFailed(ctx context.Context, logger *zap.Logger, e *billing.InvoicePaymentFailed) error {
	_, userID, ok, err := s.invoiceSubscription(ctx, logger, &e.Invoice)
	if err != nil || !ok {
		return err
	}

	err = s.store.SetStatus(ctx, userID, subscription.StatusPastDue)
	if errors.Is(err, xerrors.ErrNotFound) {
		logger.Warn("no local subscription for failed invoice, skipping", zap.String("user_id", userID.String()))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("invoice payment failed, subscription past due", zap.String("user_id", userID.String()))
	s.notify(userID, nil)
	return nil
}

// invoiceSubscription retrieves the subscription an invoice bills and the
// user it belongs to. ok is false when the invoice cannot be attributed.
func (s *Service) invoiceSubscription(ctx context.Context, logger *zap.Logger, inv *billing.Invoice) (*billing.Subscription, uuid.UUID, bool, error) {
	subID := inv.SubscriptionID()
	if subID == "" {
		logger.Info("invoice is not for a subscription, skipping", zap.String("invoice_id", inv.ID))
		return nil, uuid.Nil, false, nil
	}

	sub, err := s.provider.GetSubscription(ctx, subID)
	if err != nil {
		return nil, uuid.Nil, false, fmt.Errorf("retrieve invoice subscription: %w", err)
	}

	if userID, ok := firstUserID(sub.UserID(), inv.Parent.SubscriptionDetails.Metadata[billing.MetadataUserID]); ok {
		return sub, userID, true, nil
	}

	userID, err := s.store.FindUserIDByStripeSubscription(ctx, subID)
	if errors.Is(err, xerrors.ErrNotFound) {
		logger.Warn("no user id for invoice subscription, skipping", zap.String("subscription_id", subID))
		return nil, uuid.Nil, false, nil
	}
	if err != nil {
		return nil, uuid.Nil, false, err
	}
	return sub, userID, true, nil
}

// derive maps the provider status onto the local enum. A trial without a
// trial end is kept as reported but logged: the reminder sweep skips it.
func (s *Service) derive(logger *zap.Logger, userID uuid.UUID, sub *billing.Subscription, now time.Time) (subscription.Status, *time.Time) {
	trialEnd := subscription.UnixTime(sub.TrialEnd)
	status := subscription.DeriveStatus(sub.Status, trialEnd, now)
	if status.IsTrial() && trialEnd == nil {
		logger.Warn("trial subscription has no trial end",
			zap.String("user_id", userID.String()),
			zap.String("subscription_id", sub.ID),
			zap.String("provider_status", sub.Status))
	}
	return status, trialEnd
}

// contact resolves the email and display name for a user. ok is false when
// there is no address to send to; lookup failures are logged.
func (s *Service) contact(ctx context.Context, logger *zap.Logger, userID uuid.UUID) (string, string, bool) {
	to, name, ok, err := s.lookupContact(ctx, logger, userID)
	if err != nil {
		logger.Warn("failed to load profile for email", zap.String("user_id", userID.String()), zap.Error(err))
		return "", "", false
	}
	return to, name, ok
}

// lookupContact is contact with lookup failures returned. A missing profile
// or address is not an error.
func (s *Service) lookupContact(ctx context.Context, logger *zap.Logger, userID uuid.UUID) (string, string, bool, error) {
	p, err := s.profiles.FindByID(ctx, userID)
	if errors.Is(err, xerrors.ErrNotFound) {
		logger.Warn("no profile for user, skipping notification", zap.String("user_id", userID.String()))
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	if strings.TrimSpace(p.Email) == "" {
		logger.Warn("profile has no email, skipping notification", zap.String("user_id", userID.String()))
		return "", "", false, nil
	}
	return p.Email, p.DisplayName(), true, nil
}

// firstUserID returns the first candidate that parses as a user id.
func firstUserID(candidates ...string) (uuid.UUID, bool) {
	for _, c := range candidates {
		if id, err := uuid.Parse(strings.TrimSpace(c)); err == nil && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}
