// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a paid hold has been
// committed into a reservation.  It carries enough information for the
// notification consumer to compose a confirmation without querying the
// primary database.
type ReservationConfirmedEvent struct {
	ReservationID  uint64   `json:"reservation_id"`
	BookingRef     string   `json:"booking_ref"`
	TripID         uint64   `json:"trip_id"`
	PassengerName  string   `json:"passenger_name"`
	PassengerEmail string   `json:"passenger_email"`
	Seats          []string `json:"seats"`
	TotalCents     uint32   `json:"total_cents"`
	Currency       string   `json:"currency"`
	ConfirmedAt    string   `json:"confirmed_at"`
}
