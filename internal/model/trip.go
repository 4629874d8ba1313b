package model

import "time"

// Trip is read-only reference data for this service.  Trip, route and
// vehicle management live in a separate operator-facing application;
// the booking core only needs existence checks and the fare inputs.
type Trip struct {
	ID              uint64    // trips.id
	Origin          string    // trips.origin
	Destination     string    // trips.destination
	DepartsAt       time.Time // trips.departs_at
	SeatPriceCents  uint32    // trips.seat_price_cents
	LuggageFeeCents uint32    // trips.luggage_fee_cents
}
