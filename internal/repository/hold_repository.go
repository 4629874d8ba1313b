package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/trip-reservation/internal/model"
)

// HoldRepo provides data access to the holds and hold_seats tables.
// A hold and its seats are always written and read together; the seat
// rows carry a position column so the requested order survives the
// round trip.  All timestamp comparisons are performed in UTC –
// callers must pass UTC times.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a new HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// dbTimeFormat is the DATETIME layout MySQL expects for bound values.
const dbTimeFormat = "2006-01-02 15:04:05"

// Create inserts the hold together with its seat rows in a single
// transaction.  The caller supplies the identifier, booking reference
// and expiry; nothing is generated here.  A collision on the unique
// booking reference is reported as ErrDuplicateReference so the caller
// can retry with a fresh code.
func (r *HoldRepo) Create(ctx context.Context, h *model.Hold) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	const q = `INSERT INTO holds
		(id, trip_id, pickup_stop_id, dropoff_stop_id,
		 passenger_name, passenger_email, passenger_phone,
		 bag_count, segment_cents, luggage_cents, total_cents,
		 booking_ref, status, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, q,
		h.ID, h.TripID, h.PickupStopID, h.DropoffStopID,
		h.PassengerName, h.PassengerEmail, h.PassengerPhone,
		h.BagCount, h.SegmentCents, h.LuggageCents, h.TotalCents,
		h.BookingRef, h.Status, h.ExpiresAt.UTC().Format(dbTimeFormat),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateReference
		}
		return err
	}
	if len(h.Seats) > 0 {
		query := `INSERT INTO hold_seats (hold_id, seat_number, position) VALUES `
		args := make([]interface{}, 0, len(h.Seats)*3)
		for i, seat := range h.Seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, h.ID, seat, i)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AttachPaymentIntent records the external payment-intent reference on
// the hold.  The update is a single-row write: calling it twice with
// the same value is harmless, and with different values the last write
// wins.  ErrHoldNotFound is returned when the hold no longer exists.
func (r *HoldRepo) AttachPaymentIntent(ctx context.Context, holdID, intentRef string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE holds SET payment_intent_ref = ? WHERE id = ?`, intentRef, holdID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "row gone" from "same value written twice":
		// RowsAffected is 0 for both under MySQL's default matched/changed
		// semantics, so re-check existence.
		var one int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM holds WHERE id = ?`, holdID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrHoldNotFound
		}
		return err
	}
	return nil
}

// GetByID loads a hold and its seats.  ErrHoldNotFound is returned for
// a missing row; callers must interpret that as "already finalized or
// expired", never as a hard failure.
func (r *HoldRepo) GetByID(ctx context.Context, holdID string) (*model.Hold, error) {
	const q = `SELECT id, trip_id, pickup_stop_id, dropoff_stop_id,
					  passenger_name, passenger_email, passenger_phone,
					  bag_count, segment_cents, luggage_cents, total_cents,
					  booking_ref, payment_intent_ref, status, expires_at, created_at
			   FROM holds WHERE id = ?`
	var h model.Hold
	var intentRef sql.NullString
	err := r.db.QueryRowContext(ctx, q, holdID).Scan(
		&h.ID, &h.TripID, &h.PickupStopID, &h.DropoffStopID,
		&h.PassengerName, &h.PassengerEmail, &h.PassengerPhone,
		&h.BagCount, &h.SegmentCents, &h.LuggageCents, &h.TotalCents,
		&h.BookingRef, &intentRef, &h.Status, &h.ExpiresAt, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	if intentRef.Valid {
		ref := intentRef.String
		h.PaymentIntentRef = &ref
	}
	seats, err := r.seatsByHold(ctx, holdID)
	if err != nil {
		return nil, err
	}
	h.Seats = seats
	return &h, nil
}

func (r *HoldRepo) seatsByHold(ctx context.Context, holdID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_number FROM hold_seats WHERE hold_id = ? ORDER BY position`, holdID)
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

// Delete removes the hold unconditionally.  Seat rows go with it via
// the foreign key.  Deleting a hold that is already gone is not an
// error; both the sweep and the finalizer rely on deletion being
// idempotent when they race on the same row.
func (r *HoldRepo) Delete(ctx context.Context, holdID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM holds WHERE id = ?`, holdID)
	return err
}

// ListExpired returns up to limit holds whose expiry has passed at the
// given instant.  Only the columns the sweeper needs are loaded; the
// seat rows stay untouched until the delete cascades over them.
func (r *HoldRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.Hold, error) {
	const q = `SELECT id, trip_id, booking_ref, expires_at
			   FROM holds WHERE expires_at <= ? ORDER BY expires_at LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, now.UTC().Format(dbTimeFormat), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var holds []model.Hold
	for rows.Next() {
		var h model.Hold
		if err := rows.Scan(&h.ID, &h.TripID, &h.BookingRef, &h.ExpiresAt); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holds, nil
}
