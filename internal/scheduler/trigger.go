// Package scheduler fires the reminder sweep endpoint on a schedule.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Trigger POSTs to the sweep endpoint with the shared bearer secret.
type Trigger struct {
	client *http.Client
	url    string
	secret string
	logger *zap.Logger
}

type sweepResult struct {
	Message       string `json:"message"`
	RemindersSent int    `json:"remindersSent"`
}

func NewTrigger(url, secret string, logger *zap.Logger) *Trigger {
	return &Trigger{
		client: &http.Client{Timeout: 2 * time.Minute},
		url:    url,
		secret: secret,
		logger: logger,
	}
}

// Fire runs one sweep. Non-2xx answers are errors.
func (t *Trigger) Fire(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.secret)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", t.url, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sweep returned %d: %s", resp.StatusCode, string(body))
	}

	var result sweepResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.logger.Warn("unexpected sweep response", zap.Error(err))
		return nil
	}
	t.logger.Info("trial reminder sweep finished",
		zap.String("message", result.Message),
		zap.Int("reminders_sent", result.RemindersSent))
	return nil
}

// Schedule registers Fire on c with spec (six fields, seconds first).
func (t *Trigger) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		t.logger.Info("starting trial reminder sweep")
		if err := t.Fire(ctx); err != nil {
			t.logger.Error("trial reminder sweep failed", zap.Error(err))
		}
	})
}
