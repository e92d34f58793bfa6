package booking

import (
	"context"
	"time"

	"cortate/internal/domain"
	"cortate/internal/modules/penalty"
	"cortate/internal/modules/pricing"
	"cortate/internal/repository"
)

// BookingStore is the persistence surface of the state machine. The
// one hard requirement is Transition: a conditional update that fails
// with repository.ErrStaleStatus when the booking left the expected
// status set before the write landed.
type BookingStore interface {
	Create(ctx context.Context, b *domain.Booking, entry domain.TimelineEntry) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Transition(ctx context.Context, bookingID int64, from []domain.BookingStatus, ch repository.StatusChange) error
	Timeline(ctx context.Context, bookingID int64) ([]domain.TimelineEntry, error)
	ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Booking, error)
	CountRejectedSince(ctx context.Context, barberID int64, since time.Time) (int64, error)
	ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]domain.Booking, error)
	ListByBarber(ctx context.Context, barberID int64, limit, offset int) ([]domain.Booking, error)
}

type BarberDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.Barber, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Barber, error)
}

type ClientDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Client, error)
}

type AvailabilityChecker interface {
	Check(ctx context.Context, barber *domain.Barber, requestedAt time.Time, bookingType domain.BookingType, service domain.ServiceType, now time.Time) (time.Time, error)
}

type PriceQuoter interface {
	Quote(barber *domain.Barber, service domain.ServiceType, addOns []domain.AddOn, location domain.LocationType) (*pricing.Quote, error)
}

// PenaltyEngine is fire-and-forget from the state machine's point of
// view: failures are logged, never propagated.
type PenaltyEngine interface {
	Apply(ctx context.Context, v penalty.Violation) (*domain.Penalty, error)
}

// StatsSink receives already-committed transitions. Errors are logged
// and never roll the transition back.
type StatsSink interface {
	OnAccepted(ctx context.Context, b *domain.Booking) error
	OnRejected(ctx context.Context, b *domain.Booking) error
	OnCompleted(ctx context.Context, b *domain.Booking, completedAt time.Time) error
	OnCancelled(ctx context.Context, b *domain.Booking, byRole domain.UserRole) error
	OnClientNoShow(ctx context.Context, b *domain.Booking, compensation int64) error
	OnBarberNoShow(ctx context.Context, b *domain.Booking, bonus int64) error
}

type EventSink interface {
	BookingChanged(b *domain.Booking, clientUserID, barberUserID int64, eventType string)
}
