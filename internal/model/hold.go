package model

import "time"

// Hold represents a temporary booking attempt created while a
// passenger is in the process of paying.  A hold keeps the chosen
// seats and passenger details together until the payment gateway
// confirms or the hold expires.  Holds are hard-deleted: after a
// successful finalization or an expiry sweep the row is gone, and
// the reservations table becomes the only record of the outcome.
//
// Fields:
//  ID               – UUID primary key; also the idempotency key
//                     carried in the payment-intent metadata.
//  TripID           – trip for which the seats are held.
//  PickupStopID     – boarding stop reference.
//  DropoffStopID    – alighting stop reference.
//  PassengerName    – contact name supplied by the passenger.
//  PassengerEmail   – contact email supplied by the passenger.
//  PassengerPhone   – contact phone supplied by the passenger.
//  Seats            – requested seat numbers in request order.
//  BagCount         – number of checked bags.
//  SegmentCents     – seat fare component of the total, in cents.
//  LuggageCents     – luggage fee component of the total, in cents.
//  TotalCents       – computed total price in cents.
//  BookingRef       – short human-facing booking code, globally unique.
//  PaymentIntentRef – external payment-intent reference, set after the
//                     gateway call (nil until then).
//  Status           – lifecycle status; only "PENDING" is persisted.
//  ExpiresAt        – absolute expiry timestamp set at creation.
//  CreatedAt        – when the hold was created.
type Hold struct {
	ID               string     // holds.id
	TripID           uint64     // holds.trip_id
	PickupStopID     uint64     // holds.pickup_stop_id
	DropoffStopID    uint64     // holds.dropoff_stop_id
	PassengerName    string     // holds.passenger_name
	PassengerEmail   string     // holds.passenger_email
	PassengerPhone   string     // holds.passenger_phone
	Seats            []string   // hold_seats.seat_number, ordered by position
	BagCount         uint32     // holds.bag_count
	SegmentCents     uint32     // holds.segment_cents
	LuggageCents     uint32     // holds.luggage_cents
	TotalCents       uint32     // holds.total_cents
	BookingRef       string     // holds.booking_ref
	PaymentIntentRef *string    // holds.payment_intent_ref (nullable)
	Status           string     // holds.status
	ExpiresAt        time.Time  // holds.expires_at
	CreatedAt        time.Time  // holds.created_at
}

// HoldStatusPending is the only hold status ever persisted.  Holds
// carry no sub-states; progress is expressed by the row existing or
// not and by the reservations table.
const HoldStatusPending = "PENDING"
