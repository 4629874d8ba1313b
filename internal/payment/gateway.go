// Package payment defines the contract between the booking core and
// the external payment gateway.  The core never talks to the gateway's
// SDK directly; it goes through the Gateway interface so tests can
// substitute a fake and so the Stripe specifics stay in one file.
package payment

import (
	"context"
	"errors"
)

// Event types the finalizer understands.  The values mirror the
// gateway's own event names so raw webhook payloads can be matched
// without translation tables.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventPaymentCanceled  = "payment_intent.canceled"
)

// MetadataHoldID is the metadata key under which the hold identifier
// travels to the gateway and back.  It is the only correlation key
// available to the webhook.
const MetadataHoldID = "hold_id"

// ErrBadSignature is returned by VerifyWebhook when the signature
// header does not match the payload.  The request must be rejected
// with a client error and no state change.
var ErrBadSignature = errors.New("webhook signature verification failed")

// Intent is the result of creating a payment intent.  The client
// secret goes back to the browser so the passenger can complete the
// payment out-of-band.
type Intent struct {
	ID           string
	ClientSecret string
}

// Event is a verified, decoded webhook event.  HoldID is extracted
// from the intent metadata and may be empty on malformed events.
type Event struct {
	Type        string
	IntentID    string
	HoldID      string
	AmountCents int64
	Currency    string
}

// Gateway creates payment intents and authenticates inbound webhooks.
type Gateway interface {
	// CreateIntent registers a payment of the given amount with the
	// gateway.  The metadata must carry the hold id; it is the only way
	// the webhook can be correlated back to a hold.
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)

	// VerifyWebhook checks the signature over the raw request body and
	// decodes the event.  The payload must be the unparsed bytes as
	// received; parsing before verification would defeat the signature.
	VerifyWebhook(payload []byte, sigHeader string) (*Event, error)
}
