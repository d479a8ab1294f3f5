package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	xerrors "inboker-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

const testSecret = "whsec_test_secret"

func signedPayload(t *testing.T, secret, payload string) ([]byte, string) {
	t.Helper()

	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Payload, signed.Header
}

func TestParseEventDecodesKnownTypes(t *testing.T) {
	p := NewStripeProvider("sk_test", testSecret)

	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, evt Event)
	}{
		{
			name:    "checkout completed",
			payload: `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","mode":"subscription","customer":"cus_1","subscription":"sub_1","metadata":{"user_id":"u1","plan":"monthly"}}}}`,
			check: func(t *testing.T, evt Event) {
				e, ok := evt.(*CheckoutSessionCompleted)
				require.True(t, ok)
				assert.Equal(t, "evt_1", e.EventID())
				assert.Equal(t, "sub_1", e.Session.Subscription)
				assert.Equal(t, "u1", e.Session.Metadata[MetadataUserID])
			},
		},
		{
			name:    "subscription updated with item periods",
			payload: `{"id":"evt_2","object":"event","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","customer":"cus_1","status":"active","cancel_at_period_end":true,"trial_end":1700000000,"metadata":{"user_id":"u1"},"items":{"data":[{"id":"si_1","current_period_start":1700000000,"current_period_end":1702592000,"price":{"id":"price_m"}}]}}}}`,
			check: func(t *testing.T, evt Event) {
				e, ok := evt.(*SubscriptionUpdated)
				require.True(t, ok)
				assert.Equal(t, "price_m", e.Subscription.PriceID())
				assert.Equal(t, int64(1700000000), e.Subscription.PeriodStart())
				assert.Equal(t, int64(1702592000), e.Subscription.PeriodEnd())
				assert.True(t, e.Subscription.CancelAtPeriodEnd)
				assert.Equal(t, "u1", e.Subscription.UserID())
			},
		},
		{
			name:    "subscription deleted",
			payload: `{"id":"evt_3","object":"event","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1","status":"canceled","metadata":{"user_id":"u1"}}}}`,
			check: func(t *testing.T, evt Event) {
				_, ok := evt.(*SubscriptionDeleted)
				assert.True(t, ok)
			},
		},
		{
			name:    "invoice succeeded with parent subscription",
			payload: `{"id":"evt_4","object":"event","type":"invoice.payment_succeeded","data":{"object":{"id":"in_1","billing_reason":"subscription_cycle","parent":{"subscription_details":{"subscription":"sub_9"}}}}}`,
			check: func(t *testing.T, evt Event) {
				e, ok := evt.(*InvoicePaymentSucceeded)
				require.True(t, ok)
				assert.Equal(t, "sub_9", e.Invoice.SubscriptionID())
				assert.True(t, e.Invoice.IsRecurringCharge())
			},
		},
		{
			name:    "invoice failed",
			payload: `{"id":"evt_5","object":"event","type":"invoice.payment_failed","data":{"object":{"id":"in_2","subscription":"sub_2","billing_reason":"manual"}}}`,
			check: func(t *testing.T, evt Event) {
				e, ok := evt.(*InvoicePaymentFailed)
				require.True(t, ok)
				assert.Equal(t, "sub_2", e.Invoice.SubscriptionID())
				assert.False(t, e.Invoice.IsRecurringCharge())
			},
		},
		{
			name:    "unknown type",
			payload: `{"id":"evt_6","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`,
			check: func(t *testing.T, evt Event) {
				e, ok := evt.(*UnknownEvent)
				require.True(t, ok)
				assert.Equal(t, "customer.created", e.EventType())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, header := signedPayload(t, testSecret, tt.payload)
			evt, err := p.ParseEvent(body, header)
			require.NoError(t, err)
			tt.check(t, evt)
		})
	}
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	p := NewStripeProvider("sk_test", testSecret)
	payload := `{"id":"evt_1","object":"event","type":"customer.subscription.updated","data":{"object":{"id":"sub_1"}}}`

	body, header := signedPayload(t, "whsec_other", payload)
	_, err := p.ParseEvent(body, header)
	assert.ErrorIs(t, err, xerrors.ErrInvalidSignature)

	_, err = p.ParseEvent([]byte(payload), "")
	assert.ErrorIs(t, err, xerrors.ErrInvalidSignature)

	unconfigured := NewStripeProvider("sk_test", "")
	body, header = signedPayload(t, testSecret, payload)
	_, err = unconfigured.ParseEvent(body, header)
	assert.ErrorIs(t, err, xerrors.ErrInvalidSignature)
}

func TestCreateCheckoutSessionAttachesTrialToSubscription(t *testing.T) {
	p := NewStripeProvider("sk_test", testSecret)

	var captured *stripe.CheckoutSessionParams
	p.newCheckoutSession = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		captured = params
		return &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.example/cs_1"}, nil
	}

	session, err := p.CreateCheckoutSession(context.Background(), CheckoutParams{
		CustomerID: "cus_1",
		PriceID:    "price_m",
		SuccessURL: "https://app.example/ok",
		CancelURL:  "https://app.example/cancel",
		TrialDays:  14,
		Metadata:   map[string]string{MetadataUserID: "u1", MetadataPlan: "monthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/cs_1", session.URL)

	require.NotNil(t, captured)
	require.NotNil(t, captured.SubscriptionData)
	require.NotNil(t, captured.SubscriptionData.TrialPeriodDays)
	assert.Equal(t, int64(14), *captured.SubscriptionData.TrialPeriodDays)
	assert.Equal(t, "u1", captured.SubscriptionData.Metadata[MetadataUserID])
	assert.Equal(t, "monthly", captured.Metadata[MetadataPlan])
	assert.Equal(t, "price_m", *captured.LineItems[0].Price)
	assert.Equal(t, "u1", *captured.ClientReferenceID)
}

func TestCreateCheckoutSessionWithoutTrial(t *testing.T) {
	p := NewStripeProvider("sk_test", testSecret)

	var captured *stripe.CheckoutSessionParams
	p.newCheckoutSession = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		captured = params
		return &stripe.CheckoutSession{ID: "cs_2", URL: "https://checkout.example/cs_2"}, nil
	}

	_, err := p.CreateCheckoutSession(context.Background(), CheckoutParams{CustomerID: "cus_1", PriceID: "price_y"})
	require.NoError(t, err)
	assert.Nil(t, captured.SubscriptionData.TrialPeriodDays)
}

func TestGetSubscriptionMapsStripeObject(t *testing.T) {
	p := NewStripeProvider("sk_test", testSecret)
	p.getSubscription = func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
		return &stripe.Subscription{
			ID:                id,
			Customer:          &stripe.Customer{ID: "cus_1"},
			Status:            stripe.SubscriptionStatusTrialing,
			CancelAtPeriodEnd: false,
			TrialEnd:          1800000000,
			Metadata:          map[string]string{MetadataUserID: "u1"},
			Items: &stripe.SubscriptionItemList{
				Data: []*stripe.SubscriptionItem{
					{
						ID:                 "si_1",
						CurrentPeriodStart: 1790000000,
						CurrentPeriodEnd:   1800000000,
						Price:              &stripe.Price{ID: "price_m"},
					},
				},
			},
		}, nil
	}

	sub, err := p.GetSubscription(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", sub.Customer)
	assert.Equal(t, "trialing", sub.Status)
	assert.Equal(t, "price_m", sub.PriceID())
	assert.Equal(t, int64(1790000000), sub.PeriodStart())
	assert.Equal(t, int64(1800000000), sub.TrialEnd)
}

func TestGetSubscriptionWrapsProviderError(t *testing.T) {
	p := NewStripeProvider("sk_test", testSecret)
	boom := errors.New("boom")
	p.getSubscription = func(string, *stripe.SubscriptionParams) (*stripe.Subscription, error) {
		return nil, boom
	}

	_, err := p.GetSubscription(context.Background(), "sub_1")
	assert.ErrorIs(t, err, boom)
}
