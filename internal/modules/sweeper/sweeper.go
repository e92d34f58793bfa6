package sweeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"cortate/internal/config"

	"github.com/robfig/cron/v3"
)

// BookingExpirer is the booking side of the sweep.
type BookingExpirer interface {
	ExpireSweep(ctx context.Context) (int, error)
}

// PenaltyVoider voids unresolved penalties past their expiry.
type PenaltyVoider interface {
	VoidExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper runs the periodic cleanup jobs: expiring stale pending
// bookings and voiding old penalties. Every pass is idempotent, so an
// overlapping or replayed run is harmless.
type Sweeper struct {
	policy    *config.Policy
	bookings  BookingExpirer
	penalties PenaltyVoider
	cron      *cron.Cron

	now func() time.Time
}

func New(policy *config.Policy, bookings BookingExpirer, penalties PenaltyVoider) *Sweeper {
	return &Sweeper{
		policy:    policy,
		bookings:  bookings,
		penalties: penalties,
		cron:      cron.New(),
		now:       time.Now,
	}
}

// Start schedules the sweep at the configured interval and runs one
// pass immediately so a restart never leaves stale bookings waiting a
// full interval.
func (s *Sweeper) Start() error {
	spec := fmt.Sprintf("@every %dm", s.policy.SweepIntervalMin)
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}

	s.RunOnce()
	s.cron.Start()
	log.Printf("sweeper started interval=%dm", s.policy.SweepIntervalMin)
	return nil
}

// Stop waits for a running pass to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce executes a single sweep pass.
func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := s.bookings.ExpireSweep(ctx)
	if err != nil {
		log.Printf("sweep_failed job=expire_bookings error=%q", err)
	} else if expired > 0 {
		log.Printf("sweep job=expire_bookings expired=%d", expired)
	}

	if s.penalties == nil {
		return
	}
	voided, err := s.penalties.VoidExpired(ctx, s.now().UTC())
	if err != nil {
		log.Printf("sweep_failed job=void_penalties error=%q", err)
	} else if voided > 0 {
		log.Printf("sweep job=void_penalties voided=%d", voided)
	}
}
