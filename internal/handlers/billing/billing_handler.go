// internal/handlers/billing/billing_handler.go
package billing

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strings"

	"inboker-service/internal/billing"
	"inboker-service/internal/domain/subscription"
	"inboker-service/internal/middleware"
	xerrors "inboker-service/internal/pkg/errors"
	"inboker-service/internal/pkg/metrics"
	"inboker-service/internal/pkg/response"
	"inboker-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody caps webhook payloads read into memory.
const maxWebhookBody = 1 << 20

// Subscriptions is the reconciler surface the billing endpoints drive.
type Subscriptions interface {
	StartTrial(ctx context.Context, p *session.Principal, plan subscription.Plan, origin string) (*subscription.CheckoutResponse, error)
	StartCheckout(ctx context.Context, p *session.Principal, plan subscription.Plan, origin string) (*subscription.CheckoutResponse, error)
	GetForUser(ctx context.Context, p *session.Principal) (*subscription.Subscription, error)
	Manage(ctx context.Context, p *session.Principal, action subscription.ManageAction) (*subscription.ManageResponse, error)
	HandleEvent(ctx context.Context, evt billing.Event) error
	SendTrialReminders(ctx context.Context) (*subscription.ReminderReport, error)
	ListAll(ctx context.Context, filters *subscription.SubscriptionListFilters) (*subscription.SubscriptionListResponse, error)
	Stats(ctx context.Context) (*subscription.SubscriptionStats, error)
}

type BillingHandler struct {
	subscriptions Subscriptions
	parser        billing.EventParser
	cronSecret    string
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewBillingHandler(subscriptions Subscriptions, parser billing.EventParser, cronSecret string, m *metrics.Metrics, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		subscriptions: subscriptions,
		parser:        parser,
		cronSecret:    strings.TrimSpace(cronSecret),
		metrics:       m,
		logger:        logger,
	}
}

// ========== Business Owner Endpoints ==========

// StartTrial opens a trial checkout and returns its url.
func (h *BillingHandler) StartTrial(c *gin.Context) {
	h.checkout(c, h.subscriptions.StartTrial)
}

// StartCheckout opens a paid checkout and returns its url.
func (h *BillingHandler) StartCheckout(c *gin.Context) {
	h.checkout(c, h.subscriptions.StartCheckout)
}

type checkoutFunc func(ctx context.Context, p *session.Principal, plan subscription.Plan, origin string) (*subscription.CheckoutResponse, error)

func (h *BillingHandler) checkout(c *gin.Context, start checkoutFunc) {
	principal, _ := middleware.GetPrincipal(c)

	var req subscription.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.PlainError(c, xerrors.ErrInvalidPlan)
		return
	}

	result, err := start(c.Request.Context(), principal, req.Plan, requestOrigin(c))
	if err != nil {
		response.PlainError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSubscription returns the caller's subscription or null.
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	sub, err := h.subscriptions.GetForUser(c.Request.Context(), principal)
	if err != nil {
		response.PlainError(c, err)
		return
	}

	c.JSON(http.StatusOK, subscription.SubscriptionResponse{Subscription: sub})
}

// ManageSubscription cancels at period end or reactivates.
func (h *BillingHandler) ManageSubscription(c *gin.Context) {
	principal, _ := middleware.GetPrincipal(c)

	var req subscription.ManageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.PlainError(c, xerrors.ErrInvalidAction)
		return
	}

	result, err := h.subscriptions.Manage(c.Request.Context(), principal, req.Action)
	if err != nil {
		response.PlainError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ========== Provider Webhook ==========

// Webhook verifies the signature on the raw body before anything else. A
// processing failure answers 500 so the provider redelivers.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read webhook body", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	evt, err := h.parser.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if h.metrics != nil {
			h.metrics.WebhookRejected()
		}
		if errors.Is(err, xerrors.ErrInvalidSignature) {
			h.logger.Warn("webhook signature verification failed",
				zap.String("ip", c.ClientIP()),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
		h.logger.Error("failed to decode webhook event", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err = h.subscriptions.HandleEvent(c.Request.Context(), evt)
	if h.metrics != nil {
		h.metrics.WebhookEvent(evt.EventType(), err)
	}
	if err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("event_id", evt.EventID()),
			zap.String("event_type", evt.EventType()),
			zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ========== Scheduler Endpoints ==========

// TrialReminders runs the reminder sweep for the external scheduler.
func (h *BillingHandler) TrialReminders(c *gin.Context) {
	if !h.authorizedCron(c.GetHeader("Authorization")) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	report, err := h.subscriptions.SendTrialReminders(c.Request.Context())
	if err != nil {
		h.logger.Error("trial reminder sweep failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to send trial reminders"})
		return
	}

	if h.metrics != nil {
		var skipped, failed int
		for _, d := range report.Details {
			switch d.Outcome {
			case subscription.ReminderSkipped:
				skipped++
			case subscription.ReminderFailed:
				failed++
			}
		}
		h.metrics.Reminders(report.RemindersSent, skipped, failed)
	}

	c.JSON(http.StatusOK, report)
}

func (h *BillingHandler) authorizedCron(header string) bool {
	if h.cronSecret == "" {
		return false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.cronSecret)) == 1
}

// ========== Admin Endpoints ==========

// ListSubscriptions lists subscriptions across all users.
func (h *BillingHandler) ListSubscriptions(c *gin.Context) {
	var filters subscription.SubscriptionListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}
	if filters.Status != nil && !filters.Status.Valid() {
		response.Error(c, http.StatusBadRequest, "invalid status filter", xerrors.ErrInvalidInput)
		return
	}

	result, err := h.subscriptions.ListAll(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list subscriptions", err)
		return
	}

	response.Success(c, http.StatusOK, "subscriptions retrieved", result)
}

// GetStats returns subscription counts by status.
func (h *BillingHandler) GetStats(c *gin.Context) {
	stats, err := h.subscriptions.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to get subscription stats", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription stats retrieved", stats)
}

// requestOrigin prefers the browser Origin header and falls back to the
// request's own scheme and host.
func requestOrigin(c *gin.Context) string {
	if origin := strings.TrimSpace(c.GetHeader("Origin")); origin != "" {
		return origin
	}
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
