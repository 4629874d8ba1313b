package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/trip-reservation/internal/payment"
	"github.com/iliyamo/trip-reservation/internal/service"
)

// Finalizer is the slice of the service-layer finalizer this handler
// needs; declared here so tests can substitute a fake.
type Finalizer interface {
	HandleEvent(ctx context.Context, ev *payment.Event) error
}

// WebhookHandler receives payment gateway webhooks.  The response code
// is the retry protocol with the gateway: 2xx stops redelivery, 4xx
// marks the request itself as bad, and 5xx asks for another attempt.
type WebhookHandler struct {
	gateway   payment.Gateway
	finalizer Finalizer
	log       zerolog.Logger
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(gateway payment.Gateway, finalizer Finalizer, log zerolog.Logger) *WebhookHandler {
	if gateway == nil || finalizer == nil {
		panic("nil dependency passed to NewWebhookHandler")
	}
	return &WebhookHandler{gateway: gateway, finalizer: finalizer, log: log}
}

// Handle processes POST /v1/payments/webhook.  The body is read raw
// and verified against the signature header before any JSON parsing;
// an unverified payload is never interpreted.
func (h *WebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}
	sig := c.Request().Header.Get("Stripe-Signature")

	ev, err := h.gateway.VerifyWebhook(body, sig)
	if err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			h.log.Warn().Err(err).Msg("webhook rejected: bad signature")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
		}
		h.log.Warn().Err(err).Msg("webhook rejected: undecodable event")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
	}

	if err := h.finalizer.HandleEvent(c.Request().Context(), ev); err != nil {
		if errors.Is(err, service.ErrMissingHoldRef) {
			h.log.Warn().Str("intent_id", ev.IntentID).Msg("webhook event missing hold reference")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "event missing hold reference"})
		}
		h.log.Error().Err(err).Str("event_type", ev.Type).Msg("webhook processing failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "processing failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
