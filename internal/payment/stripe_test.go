package payment_test

import (
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/iliyamo/trip-reservation/internal/payment"
)

const testWebhookSecret = "whsec_test_secret"

// signedHeader produces a Stripe-Signature header the way Stripe's own
// servers would sign the payload.
func signedHeader(t *testing.T, payload []byte, secret string) string {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func intentEventPayload(eventType, holdID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"api_version": %q,
		"type": %q,
		"data": {
			"object": {
				"id": "pi_123",
				"object": "payment_intent",
				"amount": 3300,
				"currency": "usd",
				"metadata": {"hold_id": %q}
			}
		}
	}`, stripe.APIVersion, eventType, holdID))
}

func TestVerifyWebhook_DecodesSucceededIntent(t *testing.T) {
	g := payment.NewStripeGateway("sk_test_key", testWebhookSecret)
	payload := intentEventPayload("payment_intent.succeeded", "h-1")

	ev, err := g.VerifyWebhook(payload, signedHeader(t, payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, payment.EventPaymentSucceeded, ev.Type)
	assert.Equal(t, "pi_123", ev.IntentID)
	assert.Equal(t, "h-1", ev.HoldID)
	assert.Equal(t, int64(3300), ev.AmountCents)
	assert.Equal(t, "usd", ev.Currency)
}

func TestVerifyWebhook_MissingHoldMetadata(t *testing.T) {
	g := payment.NewStripeGateway("sk_test_key", testWebhookSecret)
	payload := intentEventPayload("payment_intent.succeeded", "")

	ev, err := g.VerifyWebhook(payload, signedHeader(t, payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Empty(t, ev.HoldID)
}

func TestVerifyWebhook_RejectsBadSignature(t *testing.T) {
	g := payment.NewStripeGateway("sk_test_key", testWebhookSecret)
	payload := intentEventPayload("payment_intent.succeeded", "h-1")

	_, err := g.VerifyWebhook(payload, signedHeader(t, payload, "whsec_wrong_secret"))
	assert.ErrorIs(t, err, payment.ErrBadSignature)

	_, err = g.VerifyWebhook(payload, "")
	assert.ErrorIs(t, err, payment.ErrBadSignature)
}

func TestVerifyWebhook_RejectsTamperedPayload(t *testing.T) {
	g := payment.NewStripeGateway("sk_test_key", testWebhookSecret)
	payload := intentEventPayload("payment_intent.succeeded", "h-1")
	header := signedHeader(t, payload, testWebhookSecret)

	tampered := intentEventPayload("payment_intent.succeeded", "h-other")
	_, err := g.VerifyWebhook(tampered, header)
	assert.ErrorIs(t, err, payment.ErrBadSignature)
}

func TestVerifyWebhook_NonIntentEventKeepsTypeOnly(t *testing.T) {
	g := payment.NewStripeGateway("sk_test_key", testWebhookSecret)
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_2",
		"object": "event",
		"api_version": %q,
		"type": "charge.refunded",
		"data": {"object": {"id": "ch_1", "object": "charge"}}
	}`, stripe.APIVersion))

	ev, err := g.VerifyWebhook(payload, signedHeader(t, payload, testWebhookSecret))
	require.NoError(t, err)
	assert.Equal(t, "charge.refunded", ev.Type)
	assert.Empty(t, ev.IntentID)
	assert.Empty(t, ev.HoldID)
}
