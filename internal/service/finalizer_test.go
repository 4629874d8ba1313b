package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/trip-reservation/internal/model"
	"github.com/iliyamo/trip-reservation/internal/payment"
	"github.com/iliyamo/trip-reservation/internal/repository"
	"github.com/iliyamo/trip-reservation/internal/service"
)

func newFinalizerFixture() (*fakeHoldStore, *fakeLedger, *fakeNotifier, *service.Finalizer) {
	holds := newFakeHoldStore()
	ledger := newFakeLedger()
	notifier := newFakeNotifier()
	f := service.NewFinalizer(holds, ledger, notifier, "usd", zerolog.Nop())
	return holds, ledger, notifier, f
}

func seedHold(holds *fakeHoldStore) *model.Hold {
	h := &model.Hold{
		ID:             "h-1",
		TripID:         testTripID,
		BookingRef:     "QX7K2MNP",
		PassengerName:  "Sara Mohammadi",
		PassengerEmail: "sara@example.com",
		Seats:          []string{"A1", "A2"},
		TotalCents:     3300,
		Status:         model.HoldStatusPending,
		ExpiresAt:      time.Now().UTC().Add(30 * time.Minute),
	}
	holds.holds[h.ID] = h
	return h
}

func succeededEvent(holdID string) *payment.Event {
	return &payment.Event{
		Type:        payment.EventPaymentSucceeded,
		IntentID:    "pi_123",
		HoldID:      holdID,
		AmountCents: 3300,
		Currency:    "usd",
	}
}

func TestHandleEvent_CommitsAndNotifies(t *testing.T) {
	holds, ledger, notifier, f := newFinalizerFixture()
	h := seedHold(holds)

	ledger.createFn = func(holdID, paymentRef, currency string) (*model.Reservation, error) {
		// The real implementation removes the hold inside the same
		// transaction that writes the reservation.
		delete(holds.holds, holdID)
		res := &model.Reservation{
			ID:             42,
			HoldID:         holdID,
			TripID:         h.TripID,
			BookingRef:     h.BookingRef,
			PassengerName:  h.PassengerName,
			PassengerEmail: h.PassengerEmail,
			TotalCents:     h.TotalCents,
			Status:         model.ReservationStatusConfirmed,
		}
		ledger.byHold[holdID] = res
		return res, nil
	}

	err := f.HandleEvent(context.Background(), succeededEvent(h.ID))
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.creates)
	assert.NotContains(t, holds.holds, h.ID)

	select {
	case ev := <-notifier.ch:
		assert.Equal(t, uint64(42), ev.ReservationID)
		assert.Equal(t, "QX7K2MNP", ev.BookingRef)
		assert.Equal(t, []string{"A1", "A2"}, ev.Seats)
		assert.Equal(t, uint32(3300), ev.TotalCents)
		assert.Equal(t, "usd", ev.Currency)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation was never dispatched")
	}
}

func TestHandleEvent_DuplicateDeliveryIsNoOp(t *testing.T) {
	_, ledger, notifier, f := newFinalizerFixture()
	ledger.byHold["h-1"] = &model.Reservation{ID: 42, HoldID: "h-1", BookingRef: "QX7K2MNP"}

	err := f.HandleEvent(context.Background(), succeededEvent("h-1"))
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.creates)

	select {
	case <-notifier.ch:
		t.Fatal("redelivery must not re-send the confirmation")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandleEvent_RaceWithSweeperResolvesViaLedger(t *testing.T) {
	holds, ledger, _, f := newFinalizerFixture()
	h := seedHold(holds)

	// CreateFromHold loses the row to the sweeper mid-flight, but the
	// ledger shows an earlier delivery already committed it.
	ledger.byHold[h.ID] = &model.Reservation{ID: 42, HoldID: h.ID}
	ledger.createFn = func(string, string, string) (*model.Reservation, error) {
		return nil, repository.ErrHoldNotFound
	}

	err := f.HandleEvent(context.Background(), succeededEvent(h.ID))
	assert.NoError(t, err)
}

func TestHandleEvent_MissingHoldRef(t *testing.T) {
	_, _, _, f := newFinalizerFixture()

	err := f.HandleEvent(context.Background(), succeededEvent(""))
	assert.ErrorIs(t, err, service.ErrMissingHoldRef)
}

func TestHandleEvent_ExpiredHoldNeedsReconciliation(t *testing.T) {
	_, ledger, _, f := newFinalizerFixture()

	// No hold, no reservation: the money moved but the seats are gone.
	err := f.HandleEvent(context.Background(), succeededEvent("h-gone"))
	assert.ErrorIs(t, err, service.ErrUnreconciledHold)
	assert.Equal(t, 0, ledger.creates)
}

func TestHandleEvent_SeatConflictFailsDelivery(t *testing.T) {
	holds, ledger, _, f := newFinalizerFixture()
	h := seedHold(holds)
	ledger.createFn = func(string, string, string) (*model.Reservation, error) {
		return nil, repository.ErrSeatConflict
	}

	err := f.HandleEvent(context.Background(), succeededEvent(h.ID))
	assert.ErrorIs(t, err, repository.ErrSeatConflict)
}

func TestHandleEvent_FailedPaymentLeavesHold(t *testing.T) {
	holds, ledger, _, f := newFinalizerFixture()
	h := seedHold(holds)

	for _, typ := range []string{payment.EventPaymentFailed, payment.EventPaymentCanceled} {
		err := f.HandleEvent(context.Background(), &payment.Event{Type: typ, IntentID: "pi_123", HoldID: h.ID})
		require.NoError(t, err)
	}
	assert.Equal(t, 0, ledger.creates)
	assert.Contains(t, holds.holds, h.ID)
}

func TestHandleEvent_UnknownTypeIgnored(t *testing.T) {
	_, ledger, _, f := newFinalizerFixture()

	err := f.HandleEvent(context.Background(), &payment.Event{Type: "charge.refunded"})
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.creates)
}

func TestHandleEvent_NotifierFailureDoesNotAffectOutcome(t *testing.T) {
	holds, ledger, notifier, f := newFinalizerFixture()
	h := seedHold(holds)
	notifier.err = errors.New("broker unreachable")
	ledger.createFn = func(holdID, _, _ string) (*model.Reservation, error) {
		res := &model.Reservation{ID: 42, HoldID: holdID, BookingRef: h.BookingRef}
		ledger.byHold[holdID] = res
		return res, nil
	}

	err := f.HandleEvent(context.Background(), succeededEvent(h.ID))
	assert.NoError(t, err)

	select {
	case <-notifier.ch:
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation was never attempted")
	}
}
