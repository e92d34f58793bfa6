package stats

import (
	"context"
	"time"

	"cortate/internal/domain"
	"cortate/internal/repository"
)

// Aggregator mirrors committed booking transitions into both parties'
// rolling counters. It never decides transition legality; callers
// invoke it after the booking row is already durable, and treat its
// errors as log-and-continue.
type Aggregator struct {
	barbers BarberCounters
	clients ClientCounters
}

func NewAggregator(barbers BarberCounters, clients ClientCounters) *Aggregator {
	return &Aggregator{barbers: barbers, clients: clients}
}

func (a *Aggregator) OnAccepted(ctx context.Context, b *domain.Booking) error {
	return a.barbers.ApplyStats(ctx, b.BarberID, repository.BarberStatDelta{Accepted: 1})
}

func (a *Aggregator) OnRejected(ctx context.Context, b *domain.Booking) error {
	return a.barbers.ApplyStats(ctx, b.BarberID, repository.BarberStatDelta{Rejected: 1})
}

// OnCompleted credits the barber with the amount net of the platform
// commission and updates the client's spend history.
func (a *Aggregator) OnCompleted(ctx context.Context, b *domain.Booking, completedAt time.Time) error {
	if err := a.barbers.ApplyStats(ctx, b.BarberID, repository.BarberStatDelta{
		Completed: 1,
		Earnings:  b.Payment.Amount - b.Payment.Commission,
	}); err != nil {
		return err
	}

	at := completedAt
	return a.clients.ApplyStats(ctx, b.ClientID, repository.ClientStatDelta{
		Completed:     1,
		Spent:         b.Payment.Amount,
		LastBookingAt: &at,
		LastBarberID:  &b.BarberID,
	})
}

func (a *Aggregator) OnCancelled(ctx context.Context, b *domain.Booking, byRole domain.UserRole) error {
	if byRole == domain.RoleBarber {
		return a.barbers.ApplyStats(ctx, b.BarberID, repository.BarberStatDelta{Cancelled: 1})
	}
	return a.clients.ApplyStats(ctx, b.ClientID, repository.ClientStatDelta{Cancelled: 1})
}

// OnClientNoShow counts the no-show against the client and credits the
// barber the compensation amount.
func (a *Aggregator) OnClientNoShow(ctx context.Context, b *domain.Booking, compensation int64) error {
	if err := a.clients.ApplyStats(ctx, b.ClientID, repository.ClientStatDelta{NoShow: 1}); err != nil {
		return err
	}
	return a.barbers.ApplyStats(ctx, b.BarberID, repository.BarberStatDelta{Earnings: compensation})
}

// OnBarberNoShow counts the no-show against the barber and credits the
// client's bonus voucher.
func (a *Aggregator) OnBarberNoShow(ctx context.Context, b *domain.Booking, bonus int64) error {
	if err := a.barbers.ApplyStats(ctx, b.BarberID, repository.BarberStatDelta{NoShow: 1}); err != nil {
		return err
	}
	return a.clients.ApplyStats(ctx, b.ClientID, repository.ClientStatDelta{Credit: bonus})
}
