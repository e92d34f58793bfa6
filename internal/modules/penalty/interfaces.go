package penalty

import (
	"context"
	"time"

	"cortate/internal/domain"
)

// PenaltyStore is the write side of the penalty ledger.
type PenaltyStore interface {
	Create(ctx context.Context, p *domain.Penalty) error
	ExistsForBooking(ctx context.Context, bookingID int64, t domain.PenaltyType) (bool, error)
	CountRecent(ctx context.Context, userID int64, t domain.PenaltyType, since time.Time) (int64, error)
}

// BarberSuspender applies the profile impact of severe barber
// penalties.
type BarberSuspender interface {
	Suspend(ctx context.Context, barberID int64, until time.Time, reliabilityDrop float64) error
}
