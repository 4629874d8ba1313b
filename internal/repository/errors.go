// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver-specific errors. For example,
// ErrSeatConflict signals that a commit attempted to book a seat that
// another reservation already owns, while ErrHoldNotFound is the
// ambiguous "expired or already finalized" outcome that callers must
// resolve against the reservations table.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrHoldNotFound is returned when a hold does not exist. Callers must
// never treat this as a failure by itself: a missing hold means either
// the TTL sweep reaped it or a finalization already consumed it.
var ErrHoldNotFound = errors.New("hold not found")

// ErrReservationNotFound is returned when no reservation matches the
// requested hold id or booking reference.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrTripNotFound is returned when the referenced trip does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrTripNotFound = errors.New("trip not found")

// ErrSeatConflict is returned when a commit would book a seat that is
// already present in booked_seats for the same trip. The whole commit
// transaction is rolled back when this occurs.
var ErrSeatConflict = errors.New("seat already booked for this trip")

// ErrDuplicateReference is returned when an insert collides on the
// unique booking reference. The booking service retries with a fresh
// code.
var ErrDuplicateReference = errors.New("booking reference already in use")

// mysqlDuplicateEntry is the MySQL error number raised when a unique
// index rejects an insert (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL duplicate-entry error.
// The unique indexes themselves are what make the corresponding checks
// atomic; this helper only classifies the rejection.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
