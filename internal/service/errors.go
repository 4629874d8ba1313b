package service

import "errors"

// ErrGatewayUnavailable wraps failures from the payment gateway during
// intent creation.  The hold created for the intent has already been
// compensated (deleted) by the time this error is returned.
var ErrGatewayUnavailable = errors.New("payment gateway request failed")

// ErrMissingHoldRef is returned for a verified, parseable event that
// does not carry a hold reference in its metadata.  Handlers translate
// it into a client error; the gateway will retry regardless, and each
// retry fails the same way without touching state.
var ErrMissingHoldRef = errors.New("event carries no hold reference")

// ErrUnreconciledHold is returned when a payment succeeded for a hold
// that no longer exists and no reservation references it – the hold
// expired in the window between payment confirmation and webhook
// delivery.  The response must signal a retry so the event is not
// silently dropped while an operator reconciles the payment.
var ErrUnreconciledHold = errors.New("hold vanished without a reservation")

// ValidationError rejects a malformed hold request before any write.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(reason string) error { return &ValidationError{Reason: reason} }
