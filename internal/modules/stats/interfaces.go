package stats

import (
	"context"

	"cortate/internal/repository"
)

// BarberCounters is the increment-only mutation surface of the barber
// directory.
type BarberCounters interface {
	ApplyStats(ctx context.Context, barberID int64, d repository.BarberStatDelta) error
}

// ClientCounters is the increment-only mutation surface of the client
// directory.
type ClientCounters interface {
	ApplyStats(ctx context.Context, clientID int64, d repository.ClientStatDelta) error
}
