package subscription_test

import (
	"testing"
	"time"

	"inboker-service/internal/domain/subscription"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name     string
		provider string
		trialEnd *time.Time
		want     subscription.Status
	}{
		{"active without trial", "active", nil, subscription.StatusActive},
		{"active with future trial end", "active", &future, subscription.StatusTrialing},
		{"active with elapsed trial end", "active", &past, subscription.StatusActive},
		{"active with trial end exactly now", "active", &now, subscription.StatusActive},
		{"trialing", "trialing", &future, subscription.StatusTrialing},
		{"trialing without trial end", "trialing", nil, subscription.StatusTrialing},
		{"past due", "past_due", nil, subscription.StatusPastDue},
		{"canceled", "canceled", nil, subscription.StatusCancelled},
		{"incomplete", "incomplete", nil, subscription.StatusInactive},
		{"incomplete expired", "incomplete_expired", nil, subscription.StatusInactive},
		{"unpaid", "unpaid", nil, subscription.StatusInactive},
		{"paused falls back", "paused", nil, subscription.StatusInactive},
		{"empty falls back", "", nil, subscription.StatusInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, subscription.DeriveStatus(tt.provider, tt.trialEnd, now))
		})
	}
}

func TestDaysRemaining(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"2.4 days rounds up", now.Add(time.Duration(2.4 * float64(day))), 3},
		{"exactly one day", now.Add(day), 1},
		{"one millisecond", now.Add(time.Millisecond), 1},
		{"five days", now.Add(5 * day), 5},
		{"already over", now.Add(-2 * time.Hour), 0},
		{"now", now, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, subscription.DaysRemaining(tt.end, now))
		})
	}
}

func TestUnixTime(t *testing.T) {
	t.Parallel()

	assert.Nil(t, subscription.UnixTime(0))
	got := subscription.UnixTime(1767225600)
	if assert.NotNil(t, got) {
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *got)
	}
}

func TestStatusIsTrial(t *testing.T) {
	t.Parallel()

	assert.True(t, subscription.StatusTrial.IsTrial())
	assert.True(t, subscription.StatusTrialing.IsTrial())
	assert.False(t, subscription.StatusActive.IsTrial())
	assert.False(t, subscription.Status("bogus").Valid())
}
