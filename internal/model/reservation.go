package model

import "time"

// Reservation records a finalized booking for a trip.  It is created
// exactly once per hold by the webhook-driven commit and is never
// deleted by this service; cancellation and completion are operator
// workflows that only flip the status.
//
// Fields:
//  ID             – primary key identifier.
//  HoldID         – identifier of the hold this reservation was
//                   committed from; unique, and used to make webhook
//                   redeliveries idempotent.
//  TripID         – trip being travelled.
//  PickupStopID   – boarding stop reference.
//  DropoffStopID  – alighting stop reference.
//  BookingRef     – human-facing booking code copied from the hold.
//  PassengerName  – passenger snapshot taken at commit time.
//  PassengerEmail – passenger snapshot taken at commit time.
//  PassengerPhone – passenger snapshot taken at commit time.
//  BagCount       – number of checked bags.
//  SegmentCents   – seat fare component in cents.
//  LuggageCents   – luggage fee component in cents.
//  TotalCents     – total price in cents (segment + luggage).
//  Status         – PENDING, CONFIRMED, CANCELLED or COMPLETED.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Reservation struct {
	ID             uint64    // reservations.id
	HoldID         string    // reservations.hold_id
	TripID         uint64    // reservations.trip_id
	PickupStopID   uint64    // reservations.pickup_stop_id
	DropoffStopID  uint64    // reservations.dropoff_stop_id
	BookingRef     string    // reservations.booking_ref
	PassengerName  string    // reservations.passenger_name
	PassengerEmail string    // reservations.passenger_email
	PassengerPhone string    // reservations.passenger_phone
	BagCount       uint32    // reservations.bag_count
	SegmentCents   uint32    // reservations.segment_cents
	LuggageCents   uint32    // reservations.luggage_cents
	TotalCents     uint32    // reservations.total_cents
	Status         string    // reservations.status
	CreatedAt      time.Time // reservations.created_at
	UpdatedAt      time.Time // reservations.updated_at
}

// Reservation status values.  New reservations are created CONFIRMED;
// the remaining transitions belong to operator-facing workflows.
const (
	ReservationStatusPending   = "PENDING"
	ReservationStatusConfirmed = "CONFIRMED"
	ReservationStatusCancelled = "CANCELLED"
	ReservationStatusCompleted = "COMPLETED"
)

// BookedSeat links a reservation to a single seat on a trip.  The
// (trip_id, seat_number) pair is unique across all reservations, which
// is what makes the seat-conflict check atomic.
//
// Fields:
//  ReservationID – reservation owning the seat.
//  TripID        – trip on which the seat is booked.
//  SeatNumber    – seat label, e.g. "A1".
type BookedSeat struct {
	ReservationID uint64 // booked_seats.reservation_id
	TripID        uint64 // booked_seats.trip_id
	SeatNumber    string // booked_seats.seat_number
}

// PaymentRecord stores the receipt attached to a reservation.  There
// is exactly one record per committed reservation.
//
// Fields:
//  ReservationID – reservation the payment belongs to.
//  PaymentRef    – external payment-intent reference.
//  AmountCents   – captured amount in minor units.
//  Currency      – ISO currency code, lower case.
//  Status        – always SUCCEEDED; failed payments never commit.
//  CreatedAt     – when the record was written.
type PaymentRecord struct {
	ReservationID uint64    // payment_records.reservation_id
	PaymentRef    string    // payment_records.payment_ref
	AmountCents   uint32    // payment_records.amount_cents
	Currency      string    // payment_records.currency
	Status        string    // payment_records.status
	CreatedAt     time.Time // payment_records.created_at
}

// PaymentStatusSucceeded is the only payment status this core writes.
const PaymentStatusSucceeded = "SUCCEEDED"
