package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/trip-reservation/internal/model"
	"github.com/iliyamo/trip-reservation/internal/payment"
	"github.com/iliyamo/trip-reservation/internal/queue"
	"github.com/iliyamo/trip-reservation/internal/repository"
)

// Ledger is the durable store of committed reservations.  It owns the
// atomicity and uniqueness guarantees of finalization: CreateFromHold
// is a single transaction and is idempotent on the hold id.
type Ledger interface {
	CreateFromHold(ctx context.Context, holdID, paymentRef, currency string) (*model.Reservation, error)
	FindByHoldID(ctx context.Context, holdID string) (*model.Reservation, error)
	FindByBookingRef(ctx context.Context, bookingRef string) (*model.Reservation, error)
	SeatsByReservation(ctx context.Context, reservationID uint64) ([]string, error)
}

// Notifier delivers confirmation messages.  Failures are logged and
// never propagated; delivery is at-least-once at best.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
}

// notifyTimeout bounds the detached notification dispatch so a dead
// broker cannot pile up goroutines forever.
const notifyTimeout = 10 * time.Second

// Finalizer turns verified gateway events into reservation commits.
// It is the component that must absorb duplicated, reordered and late
// webhook deliveries: whatever arrives, a hold is consumed by at most
// one commit, and redeliveries of a consumed hold are successful
// no-ops.
type Finalizer struct {
	holds    HoldStore
	ledger   Ledger
	notifier Notifier
	currency string
	log      zerolog.Logger
}

// NewFinalizer constructs a Finalizer.  currency is the fallback for
// events that omit one.
func NewFinalizer(holds HoldStore, ledger Ledger, notifier Notifier, currency string, log zerolog.Logger) *Finalizer {
	if holds == nil || ledger == nil || notifier == nil {
		panic("nil dependency passed to NewFinalizer")
	}
	return &Finalizer{holds: holds, ledger: ledger, notifier: notifier, currency: currency, log: log}
}

// HandleEvent processes one verified webhook event.  A nil return
// means the gateway should receive a success response, covering both a
// fresh commit and an idempotent no-op.  ErrMissingHoldRef marks a
// malformed event; any other error is a genuine processing failure the
// gateway should retry.
func (f *Finalizer) HandleEvent(ctx context.Context, ev *payment.Event) error {
	switch ev.Type {
	case payment.EventPaymentSucceeded:
		return f.finalize(ctx, ev)
	case payment.EventPaymentFailed, payment.EventPaymentCanceled:
		// Observed only.  The hold is left to expire via its TTL rather
		// than being freed here; a later out-of-order "succeeded" for the
		// same intent can therefore still finalize a live hold.
		f.log.Info().
			Str("event_type", ev.Type).
			Str("intent_id", ev.IntentID).
			Str("hold_id", ev.HoldID).
			Msg("payment did not complete; hold left to expire")
		return nil
	default:
		f.log.Debug().Str("event_type", ev.Type).Msg("ignoring unhandled event type")
		return nil
	}
}

func (f *Finalizer) finalize(ctx context.Context, ev *payment.Event) error {
	if ev.HoldID == "" {
		return ErrMissingHoldRef
	}

	h, err := f.holds.GetByID(ctx, ev.HoldID)
	if err != nil {
		if errors.Is(err, repository.ErrHoldNotFound) {
			return f.resolveMissingHold(ctx, ev)
		}
		return fmt.Errorf("load hold: %w", err)
	}

	currency := ev.Currency
	if currency == "" {
		currency = f.currency
	}
	res, err := f.ledger.CreateFromHold(ctx, h.ID, ev.IntentID, currency)
	if err != nil {
		if errors.Is(err, repository.ErrHoldNotFound) {
			// The sweeper got there between our read and the commit.
			return f.resolveMissingHold(ctx, ev)
		}
		// Includes ErrSeatConflict: the payment succeeded but the seats
		// are gone.  There is no automatic resolution; fail the delivery
		// so the event stays visible for reconciliation.
		return fmt.Errorf("commit hold %s: %w", h.ID, err)
	}

	f.log.Info().
		Str("hold_id", h.ID).
		Str("booking_ref", res.BookingRef).
		Uint64("reservation_id", res.ID).
		Str("intent_id", ev.IntentID).
		Msg("reservation committed")

	f.dispatchConfirmation(res, h.Seats, currency)
	return nil
}

// resolveMissingHold decides what a vanished hold means.  Reservation
// present: an earlier delivery already committed, respond success.
// Reservation absent: the hold expired while the payment was in
// flight, which needs an operator – surface a retryable error.
func (f *Finalizer) resolveMissingHold(ctx context.Context, ev *payment.Event) error {
	res, err := f.ledger.FindByHoldID(ctx, ev.HoldID)
	if err == nil {
		f.log.Info().
			Str("hold_id", ev.HoldID).
			Uint64("reservation_id", res.ID).
			Msg("duplicate delivery for committed hold; no-op")
		return nil
	}
	if errors.Is(err, repository.ErrReservationNotFound) {
		return fmt.Errorf("%w: hold_id=%s intent_id=%s", ErrUnreconciledHold, ev.HoldID, ev.IntentID)
	}
	return fmt.Errorf("reconcile hold %s: %w", ev.HoldID, err)
}

// dispatchConfirmation hands the confirmation to the notifier on a
// detached goroutine so the webhook response is never delayed by a
// slow downstream.  The request context is not reused: the HTTP
// response will finish long before delivery does.
func (f *Finalizer) dispatchConfirmation(res *model.Reservation, seats []string, currency string) {
	ev := queue.ReservationConfirmedEvent{
		ReservationID:  res.ID,
		BookingRef:     res.BookingRef,
		TripID:         res.TripID,
		PassengerName:  res.PassengerName,
		PassengerEmail: res.PassengerEmail,
		Seats:          seats,
		TotalCents:     res.TotalCents,
		Currency:       currency,
		ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	logger := f.log
	notifier := f.notifier
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := notifier.ReservationConfirmed(ctx, ev); err != nil {
			logger.Error().Err(err).
				Str("booking_ref", ev.BookingRef).
				Msg("confirmation dispatch failed")
		}
	}()
}
