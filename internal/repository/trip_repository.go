package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/trip-reservation/internal/model"
)

// TripRepo reads trip reference data.  Trip, route and vehicle
// management belong to the operator application; the booking core only
// checks existence and reads the fare inputs when quoting a hold.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo returns a new TripRepo bound to the given database.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// GetByID returns the trip or ErrTripNotFound.
func (r *TripRepo) GetByID(ctx context.Context, tripID uint64) (*model.Trip, error) {
	const q = `SELECT id, origin, destination, departs_at, seat_price_cents, luggage_fee_cents
			   FROM trips WHERE id = ?`
	var t model.Trip
	err := r.db.QueryRowContext(ctx, q, tripID).Scan(
		&t.ID, &t.Origin, &t.Destination, &t.DepartsAt, &t.SeatPriceCents, &t.LuggageFeeCents,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &t, nil
}
