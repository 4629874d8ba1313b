package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/trip-reservation/internal/handler"
	"github.com/iliyamo/trip-reservation/internal/payment"
	"github.com/iliyamo/trip-reservation/internal/service"
)

type stubGateway struct {
	verifyFn func(payload []byte, sigHeader string) (*payment.Event, error)
}

func (g *stubGateway) CreateIntent(context.Context, int64, string, map[string]string) (*payment.Intent, error) {
	return nil, errors.New("not used")
}

func (g *stubGateway) VerifyWebhook(payload []byte, sigHeader string) (*payment.Event, error) {
	return g.verifyFn(payload, sigHeader)
}

type stubFinalizer struct {
	err  error
	last *payment.Event
}

func (f *stubFinalizer) HandleEvent(_ context.Context, ev *payment.Event) error {
	f.last = ev
	return f.err
}

func postWebhook(h *handler.WebhookHandler, body, sig string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", strings.NewReader(body))
	req.Header.Set("Stripe-Signature", sig)
	rec := httptest.NewRecorder()
	_ = h.Handle(e.NewContext(req, rec))
	return rec
}

func TestWebhook_SuccessReturns200(t *testing.T) {
	gw := &stubGateway{verifyFn: func(payload []byte, sig string) (*payment.Event, error) {
		assert.Equal(t, `{"raw":"body"}`, string(payload))
		assert.Equal(t, "t=1,v1=abc", sig)
		return &payment.Event{Type: payment.EventPaymentSucceeded, IntentID: "pi_123", HoldID: "h-1"}, nil
	}}
	fin := &stubFinalizer{}
	h := handler.NewWebhookHandler(gw, fin, zerolog.Nop())

	rec := postWebhook(h, `{"raw":"body"}`, "t=1,v1=abc")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received": true}`, rec.Body.String())
	require.NotNil(t, fin.last)
	assert.Equal(t, "h-1", fin.last.HoldID)
}

func TestWebhook_BadSignatureReturns400(t *testing.T) {
	gw := &stubGateway{verifyFn: func([]byte, string) (*payment.Event, error) {
		return nil, payment.ErrBadSignature
	}}
	fin := &stubFinalizer{}
	h := handler.NewWebhookHandler(gw, fin, zerolog.Nop())

	rec := postWebhook(h, `{}`, "t=1,v1=bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, fin.last)
}

func TestWebhook_UndecodableEventReturns400(t *testing.T) {
	gw := &stubGateway{verifyFn: func([]byte, string) (*payment.Event, error) {
		return nil, errors.New("decode payment intent from event: unexpected end of JSON input")
	}}
	h := handler.NewWebhookHandler(gw, &stubFinalizer{}, zerolog.Nop())

	rec := postWebhook(h, `{`, "t=1,v1=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_MissingHoldRefReturns400(t *testing.T) {
	gw := &stubGateway{verifyFn: func([]byte, string) (*payment.Event, error) {
		return &payment.Event{Type: payment.EventPaymentSucceeded, IntentID: "pi_123"}, nil
	}}
	fin := &stubFinalizer{err: service.ErrMissingHoldRef}
	h := handler.NewWebhookHandler(gw, fin, zerolog.Nop())

	rec := postWebhook(h, `{}`, "t=1,v1=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_ProcessingFailureReturns500(t *testing.T) {
	gw := &stubGateway{verifyFn: func([]byte, string) (*payment.Event, error) {
		return &payment.Event{Type: payment.EventPaymentSucceeded, IntentID: "pi_123", HoldID: "h-1"}, nil
	}}
	fin := &stubFinalizer{err: service.ErrUnreconciledHold}
	h := handler.NewWebhookHandler(gw, fin, zerolog.Nop())

	rec := postWebhook(h, `{}`, "t=1,v1=abc")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
