package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"inboker-service/internal/domain/subscription"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) seedTrial(userID uuid.UUID, remaining time.Duration) {
	end := h.now.Add(remaining)
	h.store.rows[userID] = &subscription.Subscription{
		UserID:   userID,
		Status:   subscription.StatusTrialing,
		TrialEnd: &end,
	}
}

func TestSendTrialRemindersUsesCeilingDays(t *testing.T) {
	h := newHarness()
	day := 24 * time.Hour
	h.seedTrial(h.userID, time.Duration(2.4*float64(day)))

	report, err := h.svc.SendTrialReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.RemindersSent)
	require.Len(t, report.Details, 1)
	assert.Equal(t, 3, report.Details[0].DaysRemaining)
	assert.Equal(t, subscription.ReminderSent, report.Details[0].Outcome)

	sent := h.mailer.tagged("trial-reminder")
	require.Len(t, sent, 1)
	assert.Equal(t, "Your Inboker trial ends in 3 days", sent[0].Subject)
}

func TestSendTrialRemindersSkipsOutsideWindow(t *testing.T) {
	h := newHarness()
	h.seedTrial(h.userID, 5*24*time.Hour)
	h.seedTrial(uuid.New(), -time.Hour)

	report, err := h.svc.SendTrialReminders(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.RemindersSent)
	assert.Empty(t, report.Details)
	assert.Empty(t, h.mailer.sent)
}

func TestSendTrialRemindersSkipsMissingEmail(t *testing.T) {
	h := newHarness()
	stranger := uuid.New()
	h.seedTrial(stranger, 24*time.Hour)
	h.seedTrial(h.userID, 24*time.Hour)

	report, err := h.svc.SendTrialReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.RemindersSent)
	outcomes := map[uuid.UUID]subscription.ReminderOutcome{}
	for _, d := range report.Details {
		outcomes[d.UserID] = d.Outcome
	}
	assert.Equal(t, subscription.ReminderSkipped, outcomes[stranger])
	assert.Equal(t, subscription.ReminderSent, outcomes[h.userID])
	assert.Equal(t, "Your Inboker trial ends in 1 day", h.mailer.sent[0].Subject)
}

func TestSendTrialRemindersResendsOnSecondRun(t *testing.T) {
	h := newHarness()
	h.seedTrial(h.userID, 2*24*time.Hour)

	for i := 0; i < 2; i++ {
		_, err := h.svc.SendTrialReminders(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, h.mailer.tagged("trial-reminder"), 2)
}

func TestSendTrialRemindersRecordsSendFailure(t *testing.T) {
	h := newHarness()
	h.seedTrial(h.userID, 24*time.Hour)
	h.mailer.err = errors.New("smtp down")

	report, err := h.svc.SendTrialReminders(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.RemindersSent)
	require.Len(t, report.Details, 1)
	assert.Equal(t, subscription.ReminderFailed, report.Details[0].Outcome)
}
