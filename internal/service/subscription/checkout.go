// internal/service/subscription/checkout.go
package subscription

import (
	"context"
	"errors"
	"strings"
	"time"

	"inboker-service/internal/billing"
	"inboker-service/internal/domain/profile"
	"inboker-service/internal/domain/subscription"
	xerrors "inboker-service/internal/pkg/errors"
	"inboker-service/internal/pkg/session"

	"go.uber.org/zap"
)

// StartTrial opens a hosted checkout for a plan with a trial attached to the
// subscription.
func (s *Service) StartTrial(ctx context.Context, p *session.Principal, plan subscription.Plan, origin string) (*subscription.CheckoutResponse, error) {
	return s.startCheckout(ctx, p, plan, origin, true)
}

// StartCheckout opens a hosted checkout for a paid plan without a trial.
func (s *Service) StartCheckout(ctx context.Context, p *session.Principal, plan subscription.Plan, origin string) (*subscription.CheckoutResponse, error) {
	return s.startCheckout(ctx, p, plan, origin, false)
}

func (s *Service) startCheckout(ctx context.Context, p *session.Principal, plan subscription.Plan, origin string, trial bool) (*subscription.CheckoutResponse, error) {
	if p == nil {
		return nil, xerrors.ErrUnauthorized
	}
	if !p.HasRole(profile.RoleBusinessOwner) {
		return nil, xerrors.ErrForbidden
	}

	existing, err := s.store.FindByUserID(ctx, p.UserID)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}
	if trial && existing != nil {
		switch existing.Status {
		case subscription.StatusActive, subscription.StatusTrial, subscription.StatusTrialing:
			return nil, xerrors.ErrAlreadySubscribed
		}
	}

	priceID, err := s.priceFor(plan)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, p, existing, trial)
	if err != nil {
		return nil, err
	}

	base := s.returnBase(origin)
	params := billing.CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: base + "/dashboard/business/billing?success=true&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/dashboard/business/billing?canceled=true",
		Metadata: map[string]string{
			billing.MetadataUserID: p.UserID.String(),
			billing.MetadataPlan:   string(plan),
		},
	}
	if trial {
		params.TrialDays = subscription.TrialPeriodDays
		params.SuccessURL = base + "/dashboard/business?trial=started&session_id={CHECKOUT_SESSION_ID}"
	}

	checkout, err := s.provider.CreateCheckoutSession(ctx, params)
	if err != nil {
		s.logger.Error("failed to create checkout session",
			zap.String("user_id", p.UserID.String()),
			zap.String("plan", string(plan)),
			zap.Bool("trial", trial),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("checkout session created",
		zap.String("user_id", p.UserID.String()),
		zap.String("plan", string(plan)),
		zap.Bool("trial", trial),
		zap.String("session_id", checkout.ID))

	return &subscription.CheckoutResponse{URL: checkout.URL}, nil
}

func (s *Service) priceFor(plan subscription.Plan) (string, error) {
	var price string
	switch plan {
	case subscription.PlanMonthly:
		price = s.cfg.PriceMonthly
	case subscription.PlanAnnually:
		price = s.cfg.PriceAnnually
	default:
		return "", xerrors.ErrInvalidPlan
	}
	if strings.TrimSpace(price) == "" {
		s.logger.Error("price not configured for plan", zap.String("plan", string(plan)))
		return "", xerrors.ErrPlanNotConfigured
	}
	return price, nil
}

// ensureCustomer reuses the stored provider customer or creates one and
// persists it before any redirect happens.
func (s *Service) ensureCustomer(ctx context.Context, p *session.Principal, existing *subscription.Subscription, trial bool) (string, error) {
	if id := existing.CustomerID(); id != "" {
		return id, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, billing.CustomerParams{
		Email:    p.Email,
		Name:     p.FullName,
		Metadata: map[string]string{billing.MetadataUserID: p.UserID.String()},
	})
	if err != nil {
		s.logger.Error("failed to create billing customer", zap.String("user_id", p.UserID.String()), zap.Error(err))
		return "", err
	}

	seed := subscription.StatusInactive
	var trialEnd *time.Time
	if trial {
		seed = subscription.StatusTrialing
		end := s.now().UTC().AddDate(0, 0, subscription.TrialPeriodDays)
		trialEnd = &end
	}

	stored, err := s.store.EnsureCustomer(ctx, p.UserID, customerID, seed, trialEnd)
	if err != nil {
		return "", err
	}

	if stored.CustomerID() != customerID {
		s.logger.Warn("billing customer already stored, new customer orphaned",
			zap.String("user_id", p.UserID.String()),
			zap.String("orphaned_customer_id", customerID))
		return stored.CustomerID(), nil
	}
	return customerID, nil
}

// returnBase picks the origin for success and cancel URLs. Production always
// uses the canonical base URL.
func (s *Service) returnBase(origin string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if s.cfg.Production || origin == "" {
		return strings.TrimRight(s.cfg.BaseURL, "/")
	}
	return origin
}
