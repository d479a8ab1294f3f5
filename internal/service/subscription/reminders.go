// internal/service/subscription/reminders.go
package subscription

import (
	"context"
	"fmt"

	"inboker-service/internal/domain/subscription"

	"go.uber.org/zap"
)

// Trials with this many days left, inclusive, get a reminder.
const (
	reminderMinDays = 1
	reminderMaxDays = 4
)

// SendTrialReminders emails every trialing owner whose trial ends within the
// reminder window. Runs are not deduplicated: a second sweep on the same day
// sends the same reminders again.
func (s *Service) SendTrialReminders(ctx context.Context) (*subscription.ReminderReport, error) {
	trials, err := s.store.ListTrials(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	report := &subscription.ReminderReport{Details: []subscription.ReminderDetail{}}

	for _, sub := range trials {
		if sub.TrialEnd == nil {
			continue
		}
		days := subscription.DaysRemaining(*sub.TrialEnd, now)
		if days < reminderMinDays || days > reminderMaxDays {
			continue
		}

		detail := subscription.ReminderDetail{UserID: sub.UserID, DaysRemaining: days}

		to, name, ok := s.contact(ctx, s.logger, sub.UserID)
		if !ok {
			detail.Outcome = subscription.ReminderSkipped
			detail.Error = "no email on file"
			report.Details = append(report.Details, detail)
			continue
		}
		detail.Email = to

		if err := s.mailer.Send(ctx, s.templates.TrialReminder(to, name, days)); err != nil {
			s.logger.Warn("failed to send trial reminder",
				zap.String("user_id", sub.UserID.String()),
				zap.Int("days_remaining", days),
				zap.Error(err))
			detail.Outcome = subscription.ReminderFailed
			detail.Error = err.Error()
		} else {
			detail.Outcome = subscription.ReminderSent
			report.RemindersSent++
		}
		report.Details = append(report.Details, detail)
	}

	report.Message = fmt.Sprintf("Processed %d trial subscriptions", len(trials))
	s.logger.Info("trial reminder sweep finished",
		zap.Int("trials", len(trials)),
		zap.Int("reminders_sent", report.RemindersSent))
	return report, nil
}
