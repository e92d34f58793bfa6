package penalty

import (
	"context"
	"log"
	"time"

	"cortate/internal/config"
	"cortate/internal/domain"
)

// repeatWindow bounds how far back repeat offenses count.
const repeatWindow = 90 * 24 * time.Hour

// baseAmounts in CLP per violation type, before multipliers.
var baseAmounts = map[domain.PenaltyType]int64{
	domain.PenaltyNoShowClient:        5000,
	domain.PenaltyNoShowBarber:        8000,
	domain.PenaltyLateCancelClient:    2000,
	domain.PenaltyLateCancelBarber:    2000,
	domain.PenaltyRejectionAbuse:      1500,
	domain.PenaltyNoResponseImmediate: 1000,
}

// severityMultipliers stay within [0.5, 2.0].
var severityMultipliers = map[domain.PenaltySeverity]float64{
	domain.SeverityMinor:    0.5,
	domain.SeverityModerate: 1.0,
	domain.SeverityMajor:    1.5,
	domain.SeverityCritical: 2.0,
}

// reliabilityDrops per severity, applied to barber profiles.
var reliabilityDrops = map[domain.PenaltySeverity]float64{
	domain.SeverityMinor:    0.1,
	domain.SeverityModerate: 0.2,
	domain.SeverityMajor:    0.3,
	domain.SeverityCritical: 0.5,
}

// Violation is one qualifying incident reported to the engine.
type Violation struct {
	UserID   int64
	UserRole domain.UserRole
	Type     domain.PenaltyType
	Severity domain.PenaltySeverity

	// BookingID links back to the triggering booking and doubles as
	// the idempotency key: one penalty per (booking, type).
	BookingID *int64

	// BookingAmount feeds the impact multiplier; 0 when no money was
	// at stake.
	BookingAmount int64

	OccurredAt time.Time
	Discount   int64
	Details    string
}

type Engine struct {
	policy    *config.Policy
	store     PenaltyStore
	suspender BarberSuspender
}

func NewEngine(policy *config.Policy, store PenaltyStore, suspender BarberSuspender) *Engine {
	return &Engine{policy: policy, store: store, suspender: suspender}
}

// Apply creates the penalty for a violation, escalated by the user's
// recent history. Returns (nil, nil) when the incident was already
// penalized.
func (e *Engine) Apply(ctx context.Context, v Violation) (*domain.Penalty, error) {
	if v.BookingID != nil {
		exists, err := e.store.ExistsForBooking(ctx, *v.BookingID, v.Type)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, nil
		}
	}

	repeats, err := e.store.CountRecent(ctx, v.UserID, v.Type, v.OccurredAt.Add(-repeatWindow))
	if err != nil {
		return nil, err
	}

	base := baseAmounts[v.Type]
	final := FinalAmount(base, v.Severity, repeats, v.BookingAmount, v.OccurredAt, v.Discount)

	p := &domain.Penalty{
		UserID:      v.UserID,
		UserRole:    v.UserRole,
		Type:        v.Type,
		Severity:    v.Severity,
		BaseAmount:  base,
		FinalAmount: final,
		Status:      domain.PenaltyActive,
		BookingID:   v.BookingID,
		Details:     v.Details,
		ExpiresAt:   v.OccurredAt.AddDate(0, e.policy.PenaltyExpireMonths, 0),
		CreatedAt:   v.OccurredAt,
		UpdatedAt:   v.OccurredAt,
	}
	if err := e.store.Create(ctx, p); err != nil {
		return nil, err
	}

	e.applyProfileImpact(ctx, v, repeats)

	return p, nil
}

// FinalAmount is the full penalty formula:
//
//	base x severity x repeat x impact x timeOfDay - discount, clamped to >= 0
func FinalAmount(base int64, severity domain.PenaltySeverity, repeats int64, bookingAmount int64, at time.Time, discount int64) int64 {
	mult := severityMultipliers[severity]
	if mult == 0 {
		mult = 1.0
	}

	mult *= repeatMultiplier(repeats)
	mult *= impactMultiplier(bookingAmount)
	mult *= TimeOfDayMultiplier(at)

	final := int64(float64(base)*mult) - discount
	if final < 0 {
		final = 0
	}
	return final
}

// repeatMultiplier grows half a point per prior offense, capped at 3.
func repeatMultiplier(repeats int64) float64 {
	m := 1.0 + 0.5*float64(repeats)
	if m > 3.0 {
		m = 3.0
	}
	return m
}

// impactMultiplier weighs expensive bookings heavier.
func impactMultiplier(amount int64) float64 {
	if amount >= 20000 {
		return 1.25
	}
	return 1.0
}

// TimeOfDayMultiplier surcharges violations hitting peak demand:
// weekends, and the 18:00-21:00 weekday window.
func TimeOfDayMultiplier(at time.Time) float64 {
	wd := at.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return 1.25
	}
	if h := at.Hour(); h >= 18 && h < 21 {
		return 1.25
	}
	return 1.0
}

// applyProfileImpact suspends barbers on critical violations and on
// escalated repeats. Best effort: a failed suspension never blocks the
// penalty itself.
func (e *Engine) applyProfileImpact(ctx context.Context, v Violation, repeats int64) {
	if e.suspender == nil || v.UserRole != domain.RoleBarber {
		return
	}

	var days int
	switch {
	case v.Severity == domain.SeverityCritical:
		days = 7
	case v.Severity == domain.SeverityMajor && repeats >= 2:
		days = 3
	default:
		return
	}

	until := v.OccurredAt.Add(time.Duration(days) * 24 * time.Hour)
	if err := e.suspender.Suspend(ctx, v.UserID, until, reliabilityDrops[v.Severity]); err != nil {
		log.Printf("penalty_suspend_failed barber_id=%d severity=%s error=%q", v.UserID, v.Severity, err)
	}
}
