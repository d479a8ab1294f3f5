package subscription

import (
	"context"
	"errors"
	"sync"
	"time"

	"inboker-service/internal/billing"
	"inboker-service/internal/domain/profile"
	"inboker-service/internal/domain/subscription"
	xerrors "inboker-service/internal/pkg/errors"
	"inboker-service/internal/service/email"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// memStore is an in-memory Store keyed by user id.
type memStore struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*subscription.Subscription
	calls int
}

func newMemStore() *memStore {
	return &memStore{rows: map[uuid.UUID]*subscription.Subscription{}}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *memStore) get(userID uuid.UUID) *subscription.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[userID]
	if !ok {
		return nil
	}
	cp := *row
	return &cp
}

func (m *memStore) FindByUserID(_ context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	row, ok := m.rows[userID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memStore) FindUserIDByStripeSubscription(_ context.Context, id string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for uid, row := range m.rows {
		if row.StripeSubscriptionID != nil && *row.StripeSubscriptionID == id {
			return uid, nil
		}
	}
	return uuid.Nil, xerrors.ErrNotFound
}

func (m *memStore) EnsureCustomer(_ context.Context, userID uuid.UUID, customerID string, seed subscription.Status, trialEnd *time.Time) (*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	row, ok := m.rows[userID]
	if !ok {
		row = &subscription.Subscription{UserID: userID, Status: seed, TrialEnd: trialEnd}
		m.rows[userID] = row
	}
	if row.StripeCustomerID == nil {
		row.StripeCustomerID = strPtr(customerID)
	}
	cp := *row
	return &cp, nil
}

func (m *memStore) Upsert(_ context.Context, userID uuid.UUID, mr subscription.Mirror) (*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	row, ok := m.rows[userID]
	if !ok {
		row = &subscription.Subscription{UserID: userID}
		m.rows[userID] = row
	}
	if row.StripeCustomerID == nil {
		row.StripeCustomerID = strPtr(mr.StripeCustomerID)
	}
	if mr.Status.IsTrial() || !sameRef(row.StripeSubscriptionID, strPtr(mr.StripeSubscriptionID)) {
		row.TrialEndedNotifiedAt = nil
	}
	row.StripeSubscriptionID = strPtr(mr.StripeSubscriptionID)
	row.StripePriceID = strPtr(mr.StripePriceID)
	row.Status = mr.Status
	row.CurrentPeriodStart = mr.CurrentPeriodStart
	row.CurrentPeriodEnd = mr.CurrentPeriodEnd
	row.CancelAtPeriodEnd = mr.CancelAtPeriodEnd
	row.TrialEnd = mr.TrialEnd
	cp := *row
	return &cp, nil
}

func (m *memStore) UpdateMirror(_ context.Context, userID uuid.UUID, mr subscription.Mirror) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	row, ok := m.rows[userID]
	if !ok {
		return xerrors.ErrNotFound
	}
	if row.StripeCustomerID == nil {
		row.StripeCustomerID = strPtr(mr.StripeCustomerID)
	}
	if mr.StripeSubscriptionID != "" {
		row.StripeSubscriptionID = strPtr(mr.StripeSubscriptionID)
	}
	row.StripePriceID = strPtr(mr.StripePriceID)
	row.Status = mr.Status
	row.CurrentPeriodStart = mr.CurrentPeriodStart
	row.CurrentPeriodEnd = mr.CurrentPeriodEnd
	row.CancelAtPeriodEnd = mr.CancelAtPeriodEnd
	row.TrialEnd = mr.TrialEnd
	return nil
}

func (m *memStore) UpdatePeriod(_ context.Context, userID uuid.UUID, p subscription.PeriodUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	row, ok := m.rows[userID]
	if !ok {
		return xerrors.ErrNotFound
	}
	row.Status = p.Status
	if p.StripePriceID != "" {
		row.StripePriceID = strPtr(p.StripePriceID)
	}
	row.CurrentPeriodStart = p.CurrentPeriodStart
	row.CurrentPeriodEnd = p.CurrentPeriodEnd
	row.TrialEnd = p.TrialEnd
	return nil
}

func (m *memStore) MarkCancelled(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	row, ok := m.rows[userID]
	if !ok {
		return xerrors.ErrNotFound
	}
	row.Status = subscription.StatusCancelled
	row.CancelAtPeriodEnd = false
	return nil
}

func (m *memStore) SetStatus(_ context.Context, userID uuid.UUID, status subscription.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	row, ok := m.rows[userID]
	if !ok {
		return xerrors.ErrNotFound
	}
	row.Status = status
	return nil
}

func (m *memStore) SetCancelAtPeriodEnd(_ context.Context, userID uuid.UUID, cancel bool, status *subscription.Status) (*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	row, ok := m.rows[userID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	row.CancelAtPeriodEnd = cancel
	if status != nil {
		row.Status = *status
	}
	cp := *row
	return &cp, nil
}

func (m *memStore) ListTrials(_ context.Context) ([]subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := []subscription.Subscription{}
	for _, row := range m.rows {
		if row.Status.IsTrial() && row.TrialEnd != nil {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (m *memStore) MarkTrialEndedNotified(_ context.Context, userID uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	row, ok := m.rows[userID]
	if !ok || row.TrialEndedNotifiedAt != nil {
		return false, nil
	}
	row.TrialEndedNotifiedAt = &at
	return true, nil
}

func (m *memStore) List(_ context.Context, _ *subscription.SubscriptionListFilters) ([]subscription.Subscription, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := []subscription.Subscription{}
	for _, row := range m.rows {
		out = append(out, *row)
	}
	return out, int64(len(out)), nil
}

func (m *memStore) Stats(_ context.Context) (*subscription.SubscriptionStats, error) {
	return &subscription.SubscriptionStats{ByStatus: map[subscription.Status]int64{}}, nil
}

// fakeProvider serves subscriptions from a map and records calls.
type fakeProvider struct {
	mu            sync.Mutex
	subs          map[string]*billing.Subscription
	customers     int
	checkouts     []billing.CheckoutParams
	cancelUpdates []bool
	err           error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{subs: map[string]*billing.Subscription{}}
}

func (f *fakeProvider) CreateCustomer(_ context.Context, _ billing.CustomerParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.customers++
	return "cus_" + string(rune('0'+f.customers)), nil
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params billing.CheckoutParams) (*billing.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.checkouts = append(f.checkouts, params)
	return &billing.CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

func (f *fakeProvider) GetSubscription(_ context.Context, id string) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	sub, ok := f.subs[id]
	if !ok {
		return nil, errors.New("no such subscription")
	}
	cp := *sub
	return &cp, nil
}

func (f *fakeProvider) SetCancelAtPeriodEnd(_ context.Context, id string, cancel bool) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.cancelUpdates = append(f.cancelUpdates, cancel)
	sub, ok := f.subs[id]
	if !ok {
		sub = &billing.Subscription{ID: id}
		f.subs[id] = sub
	}
	sub.CancelAtPeriodEnd = cancel
	cp := *sub
	return &cp, nil
}

type fakeProfiles struct {
	profiles map[uuid.UUID]*profile.Profile
	err      error
}

func (f *fakeProfiles) FindByID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return p, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) tagged(tag string) []email.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []email.Message
	for _, m := range f.sent {
		if m.Tag == tag {
			out = append(out, m)
		}
	}
	return out
}

type recordingNotifier struct {
	mu    sync.Mutex
	users []uuid.UUID
}

func (n *recordingNotifier) SubscriptionChanged(userID uuid.UUID, _ *subscription.Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
}

type harness struct {
	svc      *Service
	store    *memStore
	provider *fakeProvider
	mailer   *fakeMailer
	notifier *recordingNotifier
	profiles *fakeProfiles
	userID   uuid.UUID
	now      time.Time
}

func newHarness() *harness {
	h := &harness{
		store:    newMemStore(),
		provider: newFakeProvider(),
		mailer:   &fakeMailer{},
		notifier: &recordingNotifier{},
		userID:   uuid.MustParse("7f1c9a8e-3b2d-4c5e-9f60-1a2b3c4d5e6f"),
		now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	name := "Amina Otieno"
	h.profiles = &fakeProfiles{profiles: map[uuid.UUID]*profile.Profile{
		h.userID: {ID: h.userID, Email: "amina@example.com", FullName: &name, Role: profile.RoleBusinessOwner},
	}}

	h.svc = NewService(h.store, h.provider, h.profiles, h.mailer, email.NewTemplates("https://app.inboker.test"), h.notifier, Config{
		PriceMonthly:  "price_monthly",
		PriceAnnually: "price_annual",
		BaseURL:       "https://app.inboker.test",
	}, zap.NewNop())
	h.svc.now = func() time.Time { return h.now }
	return h
}
