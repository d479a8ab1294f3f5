// internal/service/subscription/service.go
package subscription

import (
	"context"
	"errors"
	"time"

	"inboker-service/internal/billing"
	"inboker-service/internal/domain/profile"
	"inboker-service/internal/domain/subscription"
	xerrors "inboker-service/internal/pkg/errors"
	"inboker-service/internal/pkg/session"
	"inboker-service/internal/service/email"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the persistence the reconciler needs. Every write is keyed by user id.
type Store interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error)
	FindUserIDByStripeSubscription(ctx context.Context, stripeSubscriptionID string) (uuid.UUID, error)
	EnsureCustomer(ctx context.Context, userID uuid.UUID, customerID string, seed subscription.Status, trialEnd *time.Time) (*subscription.Subscription, error)
	Upsert(ctx context.Context, userID uuid.UUID, m subscription.Mirror) (*subscription.Subscription, error)
	UpdateMirror(ctx context.Context, userID uuid.UUID, m subscription.Mirror) error
	UpdatePeriod(ctx context.Context, userID uuid.UUID, p subscription.PeriodUpdate) error
	MarkCancelled(ctx context.Context, userID uuid.UUID) error
	SetStatus(ctx context.Context, userID uuid.UUID, status subscription.Status) error
	SetCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID, cancel bool, status *subscription.Status) (*subscription.Subscription, error)
	ListTrials(ctx context.Context) ([]subscription.Subscription, error)
	MarkTrialEndedNotified(ctx context.Context, userID uuid.UUID, at time.Time) (bool, error)
	List(ctx context.Context, filters *subscription.SubscriptionListFilters) ([]subscription.Subscription, int64, error)
	Stats(ctx context.Context) (*subscription.SubscriptionStats, error)
}

// Profiles resolves the owning user's contact details.
type Profiles interface {
	FindByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

// Notifier pushes subscription changes to the owner's open dashboards.
type Notifier interface {
	SubscriptionChanged(userID uuid.UUID, sub *subscription.Subscription)
}

type Config struct {
	PriceMonthly  string
	PriceAnnually string
	// BaseURL is the canonical app origin used for return URLs in production.
	BaseURL    string
	Production bool
}

type Service struct {
	store     Store
	provider  billing.Provider
	profiles  Profiles
	mailer    email.Sender
	templates *email.Templates
	notifier  Notifier
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	store Store,
	provider billing.Provider,
	profiles Profiles,
	mailer email.Sender,
	templates *email.Templates,
	notifier Notifier,
	cfg Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:     store,
		provider:  provider,
		profiles:  profiles,
		mailer:    mailer,
		templates: templates,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// GetForUser returns the caller's subscription, or nil when none exists.
func (s *Service) GetForUser(ctx context.Context, p *session.Principal) (*subscription.Subscription, error) {
	if p == nil {
		return nil, xerrors.ErrUnauthorized
	}

	sub, err := s.store.FindByUserID(ctx, p.UserID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Manage cancels at period end or reactivates the caller's subscription.
func (s *Service) Manage(ctx context.Context, p *session.Principal, action subscription.ManageAction) (*subscription.ManageResponse, error) {
	if p == nil {
		return nil, xerrors.ErrUnauthorized
	}

	sub, err := s.store.FindByUserID(ctx, p.UserID)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}
	if !sub.HasProviderSubscription() {
		return nil, xerrors.ErrNotFound
	}

	var (
		cancel  bool
		status  *subscription.Status
		message string
	)
	switch action {
	case subscription.ActionCancel:
		cancel = true
		message = "Subscription will be cancelled at the end of the billing period"
	case subscription.ActionReactivate:
		active := subscription.StatusActive
		status = &active
		message = "Subscription reactivated"
	default:
		return nil, xerrors.ErrInvalidAction
	}

	if _, err := s.provider.SetCancelAtPeriodEnd(ctx, *sub.StripeSubscriptionID, cancel); err != nil {
		s.logger.Error("failed to update provider subscription",
			zap.String("user_id", p.UserID.String()),
			zap.String("action", string(action)),
			zap.Error(err))
		return nil, err
	}

	updated, err := s.store.SetCancelAtPeriodEnd(ctx, p.UserID, cancel, status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription managed",
		zap.String("user_id", p.UserID.String()),
		zap.String("action", string(action)),
		zap.String("status", string(updated.Status)))
	s.notify(p.UserID, updated)

	return &subscription.ManageResponse{
		Message:           message,
		CancelAtPeriodEnd: updated.CancelAtPeriodEnd,
	}, nil
}

// ListAll backs the admin console.
func (s *Service) ListAll(ctx context.Context, filters *subscription.SubscriptionListFilters) (*subscription.SubscriptionListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	subs, total, err := s.store.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &subscription.SubscriptionListResponse{
		Subscriptions: subs,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    totalPages,
	}, nil
}

func (s *Service) Stats(ctx context.Context) (*subscription.SubscriptionStats, error) {
	return s.store.Stats(ctx)
}

// notify re-reads the row when the write did not return it.
func (s *Service) notify(userID uuid.UUID, sub *subscription.Subscription) {
	if s.notifier == nil {
		return
	}
	if sub == nil {
		var err error
		sub, err = s.store.FindByUserID(context.Background(), userID)
		if err != nil {
			return
		}
	}
	s.notifier.SubscriptionChanged(userID, sub)
}

// sendBestEffort delivers an email, logging instead of propagating failures.
func (s *Service) sendBestEffort(ctx context.Context, userID uuid.UUID, msg email.Message) bool {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to send email",
			zap.String("user_id", userID.String()),
			zap.String("tag", msg.Tag),
			zap.Error(err))
		return false
	}
	return true
}
