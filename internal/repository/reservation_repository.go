package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/trip-reservation/internal/model"
)

// ReservationRepo owns the finalization transaction and all reads of
// committed reservations.  A reservation groups the booked seats and
// the payment record written when a paid hold is committed.  The
// repository opens its own transaction for CreateFromHold because the
// multi-row insert must be one atomic unit; everything else is a
// single-row read.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateFromHold commits the hold with the given id into a durable
// reservation.  Inside one transaction it re-reads the hold row, inserts
// the reservation with the hold id as its unique back-reference, inserts
// one booked_seats row per held seat, inserts the payment record, and
// deletes the hold.  The unique (trip_id, seat_number) index on
// booked_seats performs the seat-uniqueness check atomically with the
// insert; a duplicate there rolls the whole commit back as
// ErrSeatConflict.
//
// The call is idempotent on the hold id.  When a reservation already
// references the hold – whether detected up front because the hold row
// is gone, or through the unique index when two deliveries race – the
// existing reservation is returned with no further writes.  When the
// hold is gone and no reservation references it, ErrHoldNotFound is
// returned and the caller must treat the event as unreconciled.
func (r *ReservationRepo) CreateFromHold(ctx context.Context, holdID, paymentRef, currency string) (*model.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Re-read the hold inside the transaction so the committed values are
	// the current ones.  FOR UPDATE keeps the sweeper from deleting the
	// row between this read and the delete below.
	const holdQ = `SELECT id, trip_id, pickup_stop_id, dropoff_stop_id,
						  passenger_name, passenger_email, passenger_phone,
						  bag_count, segment_cents, luggage_cents, total_cents,
						  booking_ref
				   FROM holds WHERE id = ? FOR UPDATE`
	var h model.Hold
	err = tx.QueryRowContext(ctx, holdQ, holdID).Scan(
		&h.ID, &h.TripID, &h.PickupStopID, &h.DropoffStopID,
		&h.PassengerName, &h.PassengerEmail, &h.PassengerPhone,
		&h.BagCount, &h.SegmentCents, &h.LuggageCents, &h.TotalCents,
		&h.BookingRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// The hold was consumed or reaped.  The reservations table is the
		// ground truth for which of the two happened.
		existing, lookupErr := r.findByHoldIDTx(ctx, tx, holdID)
		if lookupErr != nil {
			if errors.Is(lookupErr, ErrReservationNotFound) {
				return nil, ErrHoldNotFound
			}
			return nil, lookupErr
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		committed = true
		return existing, nil
	}
	if err != nil {
		return nil, err
	}

	seatRows, err := tx.QueryContext(ctx,
		`SELECT seat_number FROM hold_seats WHERE hold_id = ? ORDER BY position`, holdID)
	if err != nil {
		return nil, err
	}
	var seats []string
	for seatRows.Next() {
		var s string
		if scanErr := seatRows.Scan(&s); scanErr != nil {
			seatRows.Close()
			return nil, scanErr
		}
		seats = append(seats, s)
	}
	if err = seatRows.Close(); err != nil {
		return nil, err
	}

	const insQ = `INSERT INTO reservations
		(hold_id, trip_id, pickup_stop_id, dropoff_stop_id, booking_ref,
		 passenger_name, passenger_email, passenger_phone,
		 bag_count, segment_cents, luggage_cents, total_cents, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, insQ,
		h.ID, h.TripID, h.PickupStopID, h.DropoffStopID, h.BookingRef,
		h.PassengerName, h.PassengerEmail, h.PassengerPhone,
		h.BagCount, h.SegmentCents, h.LuggageCents, h.TotalCents,
		model.ReservationStatusConfirmed,
	)
	if err != nil {
		if isDuplicateKey(err) {
			// A concurrent delivery won the commit; the deferred rollback
			// discards this attempt and the winner's row is returned.
			return r.FindByHoldID(ctx, holdID)
		}
		return nil, err
	}
	resID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	if len(seats) > 0 {
		query := `INSERT INTO booked_seats (reservation_id, trip_id, seat_number) VALUES `
		args := make([]interface{}, 0, len(seats)*3)
		for i, seat := range seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, resID, h.TripID, seat)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			if isDuplicateKey(err) {
				return nil, ErrSeatConflict
			}
			return nil, err
		}
	}

	const payQ = `INSERT INTO payment_records
		(reservation_id, payment_ref, amount_cents, currency, status)
		VALUES (?, ?, ?, ?, ?)`
	if _, err = tx.ExecContext(ctx, payQ,
		resID, paymentRef, h.TotalCents, currency, model.PaymentStatusSucceeded); err != nil {
		return nil, err
	}

	// Consuming the hold inside the same transaction closes the window in
	// which a reservation exists while its hold is still visible.
	if _, err = tx.ExecContext(ctx, `DELETE FROM holds WHERE id = ?`, holdID); err != nil {
		return nil, err
	}

	// Query back the full row to populate timestamps and defaults.
	res, err := r.scanReservationTx(ctx, tx, `WHERE id = ?`, resID)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return res, nil
}

// FindByHoldID returns the reservation committed from the given hold,
// or ErrReservationNotFound.  The finalizer uses this to turn webhook
// redeliveries into no-ops, and the sweeper uses it as the ground-truth
// check before reaping.
func (r *ReservationRepo) FindByHoldID(ctx context.Context, holdID string) (*model.Reservation, error) {
	return r.scanReservation(ctx, `WHERE hold_id = ?`, holdID)
}

// FindByBookingRef returns the reservation with the given booking
// reference, or ErrReservationNotFound.  This serves the passenger's
// post-payment status lookup once the hold row is gone.
func (r *ReservationRepo) FindByBookingRef(ctx context.Context, bookingRef string) (*model.Reservation, error) {
	return r.scanReservation(ctx, `WHERE booking_ref = ?`, bookingRef)
}

// SeatsByReservation returns the seat numbers booked under the
// reservation, ordered for deterministic output.
func (r *ReservationRepo) SeatsByReservation(ctx context.Context, reservationID uint64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_number FROM booked_seats WHERE reservation_id = ? ORDER BY seat_number`,
		reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

const reservationColumns = `SELECT id, hold_id, trip_id, pickup_stop_id, dropoff_stop_id,
	   booking_ref, passenger_name, passenger_email, passenger_phone,
	   bag_count, segment_cents, luggage_cents, total_cents, status,
	   created_at, updated_at
FROM reservations `

func (r *ReservationRepo) scanReservation(ctx context.Context, where string, arg interface{}) (*model.Reservation, error) {
	return scanReservationRow(r.db.QueryRowContext(ctx, reservationColumns+where, arg))
}

func (r *ReservationRepo) scanReservationTx(ctx context.Context, tx *sql.Tx, where string, arg interface{}) (*model.Reservation, error) {
	return scanReservationRow(tx.QueryRowContext(ctx, reservationColumns+where, arg))
}

func (r *ReservationRepo) findByHoldIDTx(ctx context.Context, tx *sql.Tx, holdID string) (*model.Reservation, error) {
	return r.scanReservationTx(ctx, tx, `WHERE hold_id = ?`, holdID)
}

func scanReservationRow(row *sql.Row) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(
		&res.ID, &res.HoldID, &res.TripID, &res.PickupStopID, &res.DropoffStopID,
		&res.BookingRef, &res.PassengerName, &res.PassengerEmail, &res.PassengerPhone,
		&res.BagCount, &res.SegmentCents, &res.LuggageCents, &res.TotalCents, &res.Status,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}
