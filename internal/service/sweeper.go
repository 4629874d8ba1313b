package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/trip-reservation/internal/repository"
)

// sweepBatchSize caps the holds reaped per tick so one tick can never
// hold the database for long.
const sweepBatchSize = 200

// Sweeper reclaims holds whose TTL elapsed without a finalization.
// It runs independently of the webhook path; the only coordination
// between the two is the hold row itself, and deletion of that row is
// idempotent on both sides.  The reservations table is the ground
// truth when the two race: the sweeper checks it before reaping, and
// the finalizer consults it when a hold it expected is gone.
type Sweeper struct {
	holds    HoldStore
	ledger   Ledger
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper constructs a Sweeper that ticks at the given interval.
func NewSweeper(holds HoldStore, ledger Ledger, interval time.Duration, log zerolog.Logger) *Sweeper {
	if holds == nil || ledger == nil {
		panic("nil dependency passed to NewSweeper")
	}
	return &Sweeper{holds: holds, ledger: ledger, interval: interval, log: log}
}

// Run blocks, sweeping on every tick until the context is cancelled.
// A failed tick is logged and retried at the next interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				s.log.Error().Err(err).Msg("sweep tick failed")
			} else if n > 0 {
				s.log.Info().Int("reaped", n).Msg("expired holds reaped")
			}
		}
	}
}

// Sweep deletes holds whose expiry has passed and returns how many
// were removed.  A hold that already has a reservation is only a
// leftover row, never a failure; it is removed quietly.  Per-hold
// errors skip that hold and continue, so one bad row cannot stall the
// reaper.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	expired, err := s.holds.ListExpired(ctx, time.Now().UTC(), sweepBatchSize)
	if err != nil {
		return 0, err
	}
	reaped := 0
	for _, h := range expired {
		if _, err := s.ledger.FindByHoldID(ctx, h.ID); err == nil {
			// Committed while the row lingered; reap the leftover.
			s.log.Debug().Str("hold_id", h.ID).Msg("removing leftover hold of committed reservation")
		} else if !errors.Is(err, repository.ErrReservationNotFound) {
			s.log.Error().Err(err).Str("hold_id", h.ID).Msg("reservation lookup failed; skipping hold")
			continue
		}
		if err := s.holds.Delete(ctx, h.ID); err != nil {
			s.log.Error().Err(err).Str("hold_id", h.ID).Msg("failed to delete expired hold")
			continue
		}
		reaped++
		s.log.Debug().
			Str("hold_id", h.ID).
			Str("booking_ref", h.BookingRef).
			Time("expired_at", h.ExpiresAt).
			Msg("expired hold deleted")
	}
	return reaped, nil
}
