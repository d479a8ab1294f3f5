// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inboker-service/internal/domain/subscription"
	xerrors "inboker-service/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const subscriptionColumns = `
	id, user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id,
	status, current_period_start, current_period_end, cancel_at_period_end,
	trial_end, trial_ended_notified_at, created_at, updated_at`

type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.StripeCustomerID, &sub.StripeSubscriptionID, &sub.StripePriceID,
		&sub.Status, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CancelAtPeriodEnd,
		&sub.TrialEnd, &sub.TrialEndedNotifiedAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByUserID retrieves the subscription row for a user
func (r *SubscriptionRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1`

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return sub, nil
}

// FindUserIDByStripeSubscription resolves the owner of a provider subscription.
func (r *SubscriptionRepository) FindUserIDByStripeSubscription(ctx context.Context, stripeSubscriptionID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT user_id FROM subscriptions WHERE stripe_subscription_id = $1`,
		stripeSubscriptionID,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, xerrors.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to find subscription owner: %w", err)
	}
	return userID, nil
}

// EnsureCustomer records the provider customer for a user, seeding the row
// when none exists. An already stored customer id is kept.
func (r *SubscriptionRepository) EnsureCustomer(ctx context.Context, userID uuid.UUID, customerID string, seed subscription.Status, trialEnd *time.Time) (*subscription.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, stripe_customer_id, status, trial_end)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			stripe_customer_id = COALESCE(subscriptions.stripe_customer_id, EXCLUDED.stripe_customer_id),
			updated_at = NOW()
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, userID, customerID, seed, trialEnd))
	if err != nil {
		return nil, fmt.Errorf("failed to store customer: %w", err)
	}
	return sub, nil
}

// Upsert writes every mirrored field for a user, inserting the row if needed.
// A new provider subscription or a fresh trial clears the trial-ended stamp
// so the next conversion is announced again.
func (r *SubscriptionRepository) Upsert(ctx context.Context, userID uuid.UUID, m subscription.Mirror) (*subscription.Subscription, error) {
	query := `
		INSERT INTO subscriptions (
			user_id, stripe_customer_id, stripe_subscription_id, stripe_price_id,
			status, current_period_start, current_period_end, cancel_at_period_end, trial_end
		) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			stripe_customer_id = COALESCE(subscriptions.stripe_customer_id, EXCLUDED.stripe_customer_id),
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			stripe_price_id = EXCLUDED.stripe_price_id,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			trial_end = EXCLUDED.trial_end,
			trial_ended_notified_at = CASE
				WHEN subscriptions.stripe_subscription_id IS DISTINCT FROM EXCLUDED.stripe_subscription_id
					OR EXCLUDED.status IN ('trial', 'trialing')
				THEN NULL
				ELSE subscriptions.trial_ended_notified_at
			END,
			updated_at = NOW()
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(r.db.QueryRow(ctx, query,
		userID, m.StripeCustomerID, m.StripeSubscriptionID, m.StripePriceID,
		m.Status, m.CurrentPeriodStart, m.CurrentPeriodEnd, m.CancelAtPeriodEnd, m.TrialEnd,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return sub, nil
}

// UpdateMirror refreshes the mirrored fields of an existing row.
func (r *SubscriptionRepository) UpdateMirror(ctx context.Context, userID uuid.UUID, m subscription.Mirror) error {
	query := `
		UPDATE subscriptions SET
			stripe_customer_id = COALESCE(stripe_customer_id, NULLIF($2, '')),
			stripe_subscription_id = COALESCE(NULLIF($3, ''), stripe_subscription_id),
			stripe_price_id = NULLIF($4, ''),
			status = $5,
			current_period_start = $6,
			current_period_end = $7,
			cancel_at_period_end = $8,
			trial_end = $9,
			updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.db.Exec(ctx, query,
		userID, m.StripeCustomerID, m.StripeSubscriptionID, m.StripePriceID,
		m.Status, m.CurrentPeriodStart, m.CurrentPeriodEnd, m.CancelAtPeriodEnd, m.TrialEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// UpdatePeriod applies the fields refreshed by a paid invoice.
func (r *SubscriptionRepository) UpdatePeriod(ctx context.Context, userID uuid.UUID, p subscription.PeriodUpdate) error {
	query := `
		UPDATE subscriptions SET
			status = $2,
			stripe_price_id = COALESCE(NULLIF($3, ''), stripe_price_id),
			current_period_start = $4,
			current_period_end = $5,
			trial_end = $6,
			updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.db.Exec(ctx, query,
		userID, p.Status, p.StripePriceID, p.CurrentPeriodStart, p.CurrentPeriodEnd, p.TrialEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription period: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// MarkCancelled makes cancellation final.
func (r *SubscriptionRepository) MarkCancelled(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `
		UPDATE subscriptions
		SET status = $2, cancel_at_period_end = FALSE, updated_at = NOW()
		WHERE user_id = $1
	`, userID, subscription.StatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *SubscriptionRepository) SetStatus(ctx context.Context, userID uuid.UUID, status subscription.Status) error {
	result, err := r.db.Exec(ctx, `
		UPDATE subscriptions SET status = $2, updated_at = NOW() WHERE user_id = $1
	`, userID, status)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// SetCancelAtPeriodEnd mirrors the cancel flag and, when status is given, forces it.
func (r *SubscriptionRepository) SetCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID, cancel bool, status *subscription.Status) (*subscription.Subscription, error) {
	query := `
		UPDATE subscriptions SET
			cancel_at_period_end = $2,
			status = COALESCE($3, status),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + subscriptionColumns

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}

	sub, err := scanSubscription(r.db.QueryRow(ctx, query, userID, cancel, statusArg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update cancel flag: %w", err)
	}
	return sub, nil
}

// ListTrials returns every row in a trial status with a trial end on file.
func (r *SubscriptionRepository) ListTrials(ctx context.Context) ([]subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status IN ($1, $2) AND trial_end IS NOT NULL
		ORDER BY trial_end ASC`

	rows, err := r.db.Query(ctx, query, subscription.StatusTrialing, subscription.StatusTrial)
	if err != nil {
		return nil, fmt.Errorf("failed to list trials: %w", err)
	}
	defer rows.Close()

	subs := []subscription.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// MarkTrialEndedNotified stamps the trial-ended notification. It reports
// false when the stamp was already present.
func (r *SubscriptionRepository) MarkTrialEndedNotified(ctx context.Context, userID uuid.UUID, at time.Time) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE subscriptions
		SET trial_ended_notified_at = $2, updated_at = NOW()
		WHERE user_id = $1 AND trial_ended_notified_at IS NULL
	`, userID, at)
	if err != nil {
		return false, fmt.Errorf("failed to stamp trial-ended notification: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// List returns subscriptions for the admin console.
func (r *SubscriptionRepository) List(ctx context.Context, filters *subscription.SubscriptionListFilters) ([]subscription.Subscription, int64, error) {
	where := "TRUE"
	args := []interface{}{}
	argPos := 1

	if filters.Status != nil {
		where = fmt.Sprintf("status = $%d", argPos)
		args = append(args, *filters.Status)
		argPos++
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM subscriptions WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`SELECT %s FROM subscriptions WHERE %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d`,
		subscriptionColumns, where, argPos, argPos+1)
	args = append(args, filters.PageSize, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []subscription.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, total, rows.Err()
}

func (r *SubscriptionRepository) Stats(ctx context.Context) (*subscription.SubscriptionStats, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*), COUNT(*) FILTER (WHERE cancel_at_period_end)
		FROM subscriptions
		GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription stats: %w", err)
	}
	defer rows.Close()

	stats := &subscription.SubscriptionStats{ByStatus: map[subscription.Status]int64{}}
	for rows.Next() {
		var status subscription.Status
		var count, cancelling int64
		if err := rows.Scan(&status, &count, &cancelling); err != nil {
			return nil, fmt.Errorf("failed to scan subscription stats: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
		stats.Cancelling += cancelling
	}
	return stats, rows.Err()
}
