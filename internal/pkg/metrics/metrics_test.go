package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequestLabelsRoute(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/api/v1/bookings/:id", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/bookings/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestWebhookOutcomes(t *testing.T) {
	m := New()

	m.WebhookEvent("invoice.payment_failed", nil)
	m.WebhookEvent("invoice.payment_failed", errors.New("db down"))
	m.WebhookRejected()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues("invoice.payment_failed", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues("invoice.payment_failed", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues("unverified", "rejected")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.Reminders(2, 1, 0)
	m.SetConnectedClients(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `inboker_billing_trial_reminders_total{outcome="sent"} 2`))
	assert.True(t, strings.Contains(body, "inboker_websocket_connected_clients 3"))
}
