package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/trip-reservation/internal/model"
	"github.com/iliyamo/trip-reservation/internal/payment"
	"github.com/iliyamo/trip-reservation/internal/repository"
)

// HoldStore is the durable store of in-flight booking attempts.  The
// MySQL implementation lives in the repository package; the interface
// exists so the saga and the sweeper can be tested without a database.
type HoldStore interface {
	Create(ctx context.Context, h *model.Hold) error
	AttachPaymentIntent(ctx context.Context, holdID, intentRef string) error
	GetByID(ctx context.Context, holdID string) (*model.Hold, error)
	Delete(ctx context.Context, holdID string) error
	ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Hold, error)
}

// TripCatalog supplies trip existence checks and fare inputs.  Trip
// management is an external collaborator; this is the only view of it
// the booking core needs.
type TripCatalog interface {
	GetByID(ctx context.Context, tripID uint64) (*model.Trip, error)
}

// CreateHoldInput is the request to start a booking attempt.
type CreateHoldInput struct {
	TripID         uint64
	PickupStopID   uint64
	DropoffStopID  uint64
	PassengerName  string
	PassengerEmail string
	PassengerPhone string
	Seats          []string
	BagCount       uint32
}

// CreateHoldResult is returned to the caller so the browser can
// complete the payment against the gateway.
type CreateHoldResult struct {
	Hold         *model.Hold
	ClientSecret string
}

// BookingService runs the hold-creation saga: persist the hold, ask
// the gateway for a payment intent scoped to it, attach the intent
// reference.  Each step that can fail after the hold exists has the
// same compensation – delete the hold – so a failed attempt leaves no
// state behind.
type BookingService struct {
	holds    HoldStore
	trips    TripCatalog
	ledger   Ledger
	gateway  payment.Gateway
	ttl      time.Duration
	currency string
	log      zerolog.Logger
}

// NewBookingService constructs a BookingService.  ttl bounds the
// lifetime of every hold it creates.
func NewBookingService(holds HoldStore, trips TripCatalog, ledger Ledger, gateway payment.Gateway, ttl time.Duration, currency string, log zerolog.Logger) *BookingService {
	if holds == nil || trips == nil || ledger == nil || gateway == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{
		holds:    holds,
		trips:    trips,
		ledger:   ledger,
		gateway:  gateway,
		ttl:      ttl,
		currency: currency,
		log:      log,
	}
}

// refAlphabet deliberately omits 0/O and 1/I so references survive
// being read over the phone.  Its length divides 256 evenly, keeping
// the byte-to-character mapping unbiased.
const refAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	bookingRefLength = 8
	refMaxAttempts   = 3
)

// newBookingRef samples a short booking code from a cryptographically
// secure source.  Collisions are possible and are resolved by the
// unique index plus retry in CreateHold.
func newBookingRef() (string, error) {
	b := make([]byte, bookingRefLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = refAlphabet[int(b[i])%len(refAlphabet)]
	}
	return string(b), nil
}

// CreateHold validates the request, quotes the fare, persists the hold
// with a TTL, and obtains a payment intent from the gateway.  When the
// gateway call or the intent attachment fails, the hold is deleted
// before the error is returned: the saga never leaves a hold without a
// path to finalization.
func (s *BookingService) CreateHold(ctx context.Context, in CreateHoldInput) (*CreateHoldResult, error) {
	if err := validateHoldInput(in); err != nil {
		return nil, err
	}
	seats := dedupeSeats(in.Seats)
	if len(seats) == 0 {
		return nil, invalid("no valid seat numbers provided")
	}

	trip, err := s.trips.GetByID(ctx, in.TripID)
	if err != nil {
		return nil, err
	}
	// Price policy is opaque to this core: seat fare times seats, plus
	// the per-bag luggage fee, straight from the trip row.
	segment := trip.SeatPriceCents * uint32(len(seats))
	luggage := trip.LuggageFeeCents * in.BagCount
	now := time.Now().UTC()

	h := &model.Hold{
		ID:             uuid.NewString(),
		TripID:         in.TripID,
		PickupStopID:   in.PickupStopID,
		DropoffStopID:  in.DropoffStopID,
		PassengerName:  in.PassengerName,
		PassengerEmail: in.PassengerEmail,
		PassengerPhone: in.PassengerPhone,
		Seats:          seats,
		BagCount:       in.BagCount,
		SegmentCents:   segment,
		LuggageCents:   luggage,
		TotalCents:     segment + luggage,
		Status:         model.HoldStatusPending,
		ExpiresAt:      now.Add(s.ttl),
		CreatedAt:      now,
	}

	// The short code can collide; the unique index detects it and we
	// retry with a fresh one a bounded number of times.
	for attempt := 0; ; attempt++ {
		ref, err := newBookingRef()
		if err != nil {
			return nil, fmt.Errorf("generate booking reference: %w", err)
		}
		h.BookingRef = ref
		err = s.holds.Create(ctx, h)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateReference) && attempt < refMaxAttempts-1 {
			s.log.Warn().Str("booking_ref", ref).Msg("booking reference collision, retrying")
			continue
		}
		return nil, fmt.Errorf("persist hold: %w", err)
	}

	intent, err := s.gateway.CreateIntent(ctx, int64(h.TotalCents), s.currency,
		map[string]string{payment.MetadataHoldID: h.ID})
	if err != nil {
		s.compensate(ctx, h.ID)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if err := s.holds.AttachPaymentIntent(ctx, h.ID, intent.ID); err != nil {
		// The intent is orphaned at the gateway; its webhook, if it ever
		// fires, resolves through the finalizer's reconciliation branch.
		s.compensate(ctx, h.ID)
		return nil, fmt.Errorf("attach payment intent: %w", err)
	}
	ref := intent.ID
	h.PaymentIntentRef = &ref

	s.log.Info().
		Str("hold_id", h.ID).
		Str("booking_ref", h.BookingRef).
		Uint64("trip_id", h.TripID).
		Uint32("total_cents", h.TotalCents).
		Time("expires_at", h.ExpiresAt).
		Msg("hold created")

	return &CreateHoldResult{Hold: h, ClientSecret: intent.ClientSecret}, nil
}

func (s *BookingService) compensate(ctx context.Context, holdID string) {
	if err := s.holds.Delete(ctx, holdID); err != nil {
		// The hold will still expire via TTL; log and move on.
		s.log.Error().Err(err).Str("hold_id", holdID).Msg("hold compensation delete failed")
	}
}

// GetHold returns the hold for status polling.  A hold whose expiry
// has passed is reported as not found even before the sweeper reaps
// it, so callers see the same answer regardless of sweep timing.
// Not-found is deliberately ambiguous between "expired" and "already
// committed"; committed outcomes are visible via the booking reference.
func (s *BookingService) GetHold(ctx context.Context, holdID string) (*model.Hold, error) {
	h, err := s.holds.GetByID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if !h.ExpiresAt.After(time.Now().UTC()) {
		return nil, repository.ErrHoldNotFound
	}
	return h, nil
}

// ReservationDetail pairs a reservation with its booked seats for
// display.
type ReservationDetail struct {
	Reservation *model.Reservation
	Seats       []string
}

// GetReservationByRef looks up a committed reservation by its booking
// reference.  This is how a passenger sees the outcome once the hold
// row is gone.
func (s *BookingService) GetReservationByRef(ctx context.Context, bookingRef string) (*ReservationDetail, error) {
	res, err := s.ledger.FindByBookingRef(ctx, bookingRef)
	if err != nil {
		return nil, err
	}
	seats, err := s.ledger.SeatsByReservation(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	return &ReservationDetail{Reservation: res, Seats: seats}, nil
}

func validateHoldInput(in CreateHoldInput) error {
	switch {
	case in.TripID == 0:
		return invalid("trip_id is required")
	case in.PickupStopID == 0:
		return invalid("pickup_stop_id is required")
	case in.DropoffStopID == 0:
		return invalid("dropoff_stop_id is required")
	case in.PassengerName == "":
		return invalid("passenger_name is required")
	case in.PassengerEmail == "":
		return invalid("passenger_email is required")
	case len(in.Seats) == 0:
		return invalid("seat_numbers is required")
	}
	return nil
}

// dedupeSeats drops empty and repeated seat numbers while preserving
// first-seen order.
func dedupeSeats(seats []string) []string {
	unique := make([]string, 0, len(seats))
	seen := make(map[string]struct{})
	for _, s := range seats {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			unique = append(unique, s)
		}
	}
	return unique
}
