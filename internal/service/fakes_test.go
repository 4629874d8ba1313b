package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/trip-reservation/internal/model"
	"github.com/iliyamo/trip-reservation/internal/payment"
	"github.com/iliyamo/trip-reservation/internal/queue"
	"github.com/iliyamo/trip-reservation/internal/repository"
)

// In-memory doubles for the service-layer interfaces.  Hooks let a
// test inject a failure at a single call site while the rest of the
// fake keeps behaving like the real store.

type fakeHoldStore struct {
	mu        sync.Mutex
	holds     map[string]*model.Hold
	createErr func(h *model.Hold) error
	attachErr error
	deleteErr func(holdID string) error
	deleted   []string
	expired   []model.Hold
	creates   int
}

func newFakeHoldStore() *fakeHoldStore {
	return &fakeHoldStore{holds: map[string]*model.Hold{}}
}

func (s *fakeHoldStore) Create(_ context.Context, h *model.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if s.createErr != nil {
		if err := s.createErr(h); err != nil {
			return err
		}
	}
	s.holds[h.ID] = cloneHold(h)
	return nil
}

func (s *fakeHoldStore) AttachPaymentIntent(_ context.Context, holdID, intentRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attachErr != nil {
		return s.attachErr
	}
	h, ok := s.holds[holdID]
	if !ok {
		return repository.ErrHoldNotFound
	}
	ref := intentRef
	h.PaymentIntentRef = &ref
	return nil
}

func (s *fakeHoldStore) GetByID(_ context.Context, holdID string) (*model.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[holdID]
	if !ok {
		return nil, repository.ErrHoldNotFound
	}
	return cloneHold(h), nil
}

func (s *fakeHoldStore) Delete(_ context.Context, holdID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		if err := s.deleteErr(holdID); err != nil {
			return err
		}
	}
	delete(s.holds, holdID)
	s.deleted = append(s.deleted, holdID)
	return nil
}

func (s *fakeHoldStore) ListExpired(_ context.Context, _ time.Time, _ int) ([]model.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired, nil
}

func cloneHold(h *model.Hold) *model.Hold {
	c := *h
	c.Seats = append([]string(nil), h.Seats...)
	return &c
}

type fakeTripCatalog struct {
	trips map[uint64]*model.Trip
}

func (c *fakeTripCatalog) GetByID(_ context.Context, tripID uint64) (*model.Trip, error) {
	t, ok := c.trips[tripID]
	if !ok {
		return nil, repository.ErrTripNotFound
	}
	return t, nil
}

type fakeLedger struct {
	mu       sync.Mutex
	byHold   map[string]*model.Reservation
	seats    map[uint64][]string
	createFn func(holdID, paymentRef, currency string) (*model.Reservation, error)
	creates  int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{byHold: map[string]*model.Reservation{}, seats: map[uint64][]string{}}
}

func (l *fakeLedger) CreateFromHold(_ context.Context, holdID, paymentRef, currency string) (*model.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.creates++
	if l.createFn == nil {
		return nil, errors.New("fakeLedger: createFn not configured")
	}
	return l.createFn(holdID, paymentRef, currency)
}

func (l *fakeLedger) FindByHoldID(_ context.Context, holdID string) (*model.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.byHold[holdID]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return r, nil
}

func (l *fakeLedger) FindByBookingRef(_ context.Context, bookingRef string) (*model.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.byHold {
		if r.BookingRef == bookingRef {
			return r, nil
		}
	}
	return nil, repository.ErrReservationNotFound
}

func (l *fakeLedger) SeatsByReservation(_ context.Context, reservationID uint64) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seats[reservationID], nil
}

type fakeGateway struct {
	createFn func(amountCents int64, currency string, metadata map[string]string) (*payment.Intent, error)
}

func (g *fakeGateway) CreateIntent(_ context.Context, amountCents int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	return g.createFn(amountCents, currency, metadata)
}

func (g *fakeGateway) VerifyWebhook([]byte, string) (*payment.Event, error) {
	return nil, errors.New("fakeGateway: VerifyWebhook not implemented")
}

type fakeNotifier struct {
	ch  chan queue.ReservationConfirmedEvent
	err error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan queue.ReservationConfirmedEvent, 1)}
}

func (n *fakeNotifier) ReservationConfirmed(_ context.Context, ev queue.ReservationConfirmedEvent) error {
	n.ch <- ev
	return n.err
}
