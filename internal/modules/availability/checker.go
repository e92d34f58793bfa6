package availability

import (
	"context"
	"strings"
	"time"

	"cortate/internal/config"
	"cortate/internal/domain"
)

type Checker struct {
	policy   *config.Policy
	bookings BookingCounter
}

func NewChecker(policy *config.Policy, bookings BookingCounter) *Checker {
	return &Checker{policy: policy, bookings: bookings}
}

// Check validates that the barber can take a booking of the given type
// and service at the requested time. For immediate bookings the
// requested time is ignored and the effective slot is now plus the
// preparation offset; the returned time is the one the booking must be
// scheduled for.
func (c *Checker) Check(ctx context.Context, barber *domain.Barber, requestedAt time.Time, bookingType domain.BookingType, service domain.ServiceType, now time.Time) (time.Time, error) {
	if !barber.IsActive || !barber.IsVerified {
		return time.Time{}, ErrBarberUnavailable
	}
	if barber.SuspendedAt(now) {
		return time.Time{}, ErrBarberSuspended
	}

	effective := requestedAt

	switch bookingType {
	case domain.BookingScheduled:
		if !requestedAt.After(now) {
			return time.Time{}, ErrInvalidDate
		}

		minAdvance := barber.MinAdvanceMin
		if minAdvance <= 0 {
			minAdvance = c.policy.MinAdvanceMin
		}
		if requestedAt.Before(now.Add(time.Duration(minAdvance) * time.Minute)) {
			return time.Time{}, ErrInsufficientAdvanceTime
		}

		if !c.scheduleOpen(barber, requestedAt, service) {
			return time.Time{}, ErrBarberNotAvailableAtTime
		}

	case domain.BookingImmediate:
		if !barber.AcceptsImmediate || barber.LiveStatus != domain.LiveAvailable {
			return time.Time{}, ErrNoImmediateBookings
		}
		effective = now.Add(time.Duration(c.policy.ImmediatePrepMin) * time.Minute)

	default:
		return time.Time{}, ErrInvalidDate
	}

	duration := domain.ServiceDurationMin(service)
	if bookingType == domain.BookingImmediate && c.policy.ImmediateConflictUsesPrep {
		duration = c.policy.ImmediatePrepMin
	}

	window := time.Duration(duration) * time.Minute
	cnt, err := c.bookings.CountOverlapping(ctx, barber.ID, effective.Add(-window), effective.Add(window))
	if err != nil {
		return time.Time{}, err
	}
	if cnt > 0 {
		return time.Time{}, ErrTimeConflict
	}

	return effective, nil
}

// scheduleOpen checks the barber's weekly schedule. A day maps to
// "HH:MM-HH:MM"; a missing or empty day is closed. The whole service
// must fit inside the open window.
func (c *Checker) scheduleOpen(barber *domain.Barber, at time.Time, service domain.ServiceType) bool {
	raw, ok := barber.WeekSchedule[weekdayKey(at.Weekday())]
	if !ok || strings.TrimSpace(raw) == "" {
		return false
	}

	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return false
	}

	openT, err := time.Parse("15:04", strings.TrimSpace(parts[0]))
	if err != nil {
		return false
	}
	closeT, err := time.Parse("15:04", strings.TrimSpace(parts[1]))
	if err != nil {
		return false
	}

	open := time.Date(at.Year(), at.Month(), at.Day(), openT.Hour(), openT.Minute(), 0, 0, at.Location())
	close := time.Date(at.Year(), at.Month(), at.Day(), closeT.Hour(), closeT.Minute(), 0, 0, at.Location())
	if !close.After(open) {
		return false
	}

	end := at.Add(time.Duration(domain.ServiceDurationMin(service)) * time.Minute)
	return !at.Before(open) && !end.After(close)
}

func weekdayKey(w time.Weekday) string {
	switch w {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}
