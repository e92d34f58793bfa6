package availability

import (
	"context"
	"testing"
	"time"

	"cortate/internal/config"
	"cortate/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingCounter struct {
	mock.Mock
}

func (m *MockBookingCounter) CountOverlapping(ctx context.Context, barberID int64, windowStart, windowEnd time.Time) (int64, error) {
	args := m.Called(ctx, barberID, windowStart, windowEnd)
	return args.Get(0).(int64), args.Error(1)
}

func openBarber() *domain.Barber {
	return &domain.Barber{
		ID:               7,
		IsActive:         true,
		IsVerified:       true,
		AcceptsImmediate: true,
		LiveStatus:       domain.LiveAvailable,
		WeekSchedule: map[string]string{
			"monday":    "09:00-19:00",
			"tuesday":   "09:00-19:00",
			"wednesday": "09:00-19:00",
			"thursday":  "09:00-19:00",
			"friday":    "09:00-19:00",
			"saturday":  "10:00-14:00",
		},
	}
}

// 2026-09-02 is a Wednesday.
var wedMorning = time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)

func TestCheck_ScheduledSuccess(t *testing.T) {
	counter := new(MockBookingCounter)
	counter.On("CountOverlapping", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(int64(0), nil)

	checker := NewChecker(config.DefaultPolicy(), counter)

	requested := wedMorning.Add(2 * time.Hour)
	effective, err := checker.Check(context.Background(), openBarber(), requested, domain.BookingScheduled, domain.ServiceHaircut, wedMorning)

	assert.NoError(t, err)
	assert.Equal(t, requested, effective)
}

func TestCheck_InactiveBarber(t *testing.T) {
	checker := NewChecker(config.DefaultPolicy(), new(MockBookingCounter))

	b := openBarber()
	b.IsActive = false

	_, err := checker.Check(context.Background(), b, wedMorning.Add(2*time.Hour), domain.BookingScheduled, domain.ServiceHaircut, wedMorning)
	assert.ErrorIs(t, err, ErrBarberUnavailable)
}

func TestCheck_SuspendedBarber(t *testing.T) {
	checker := NewChecker(config.DefaultPolicy(), new(MockBookingCounter))

	b := openBarber()
	until := wedMorning.Add(48 * time.Hour)
	b.SuspendedUntil = &until

	_, err := checker.Check(context.Background(), b, wedMorning.Add(2*time.Hour), domain.BookingScheduled, domain.ServiceHaircut, wedMorning)
	assert.ErrorIs(t, err, ErrBarberSuspended)
}

func TestCheck_PastDate(t *testing.T) {
	checker := NewChecker(config.DefaultPolicy(), new(MockBookingCounter))

	_, err := checker.Check(context.Background(), openBarber(), wedMorning.Add(-time.Hour), domain.BookingScheduled, domain.ServiceHaircut, wedMorning)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestCheck_InsufficientAdvance(t *testing.T) {
	checker := NewChecker(config.DefaultPolicy(), new(MockBookingCounter))

	// Default minimum advance is 60 minutes.
	_, err := checker.Check(context.Background(), openBarber(), wedMorning.Add(30*time.Minute), domain.BookingScheduled, domain.ServiceHaircut, wedMorning)
	assert.ErrorIs(t, err, ErrInsufficientAdvanceTime)
}

func TestCheck_BarberMinAdvanceOverridesDefault(t *testing.T) {
	counter := new(MockBookingCounter)
	counter.On("CountOverlapping", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(int64(0), nil)

	checker := NewChecker(config.DefaultPolicy(), counter)

	b := openBarber()
	b.MinAdvanceMin = 15

	_, err := checker.Check(context.Background(), b, wedMorning.Add(30*time.Minute), domain.BookingScheduled, domain.ServiceHaircut, wedMorning)
	assert.NoError(t, err)
}

func TestCheck_ClosedDay(t *testing.T) {
	checker := NewChecker(config.DefaultPolicy(), new(MockBookingCounter))

	// 2026-09-06 is a Sunday, absent from the schedule.
	sunday := time.Date(2026, 9, 6, 11, 0, 0, 0, time.UTC)
	_, err := checker.Check(context.Background(), openBarber(), sunday, domain.BookingScheduled, domain.ServiceHaircut, sunday.Add(-3*time.Hour))
	assert.ErrorIs(t, err, ErrBarberNotAvailableAtTime)
}

func TestCheck_ServiceMustFitBeforeClose(t *testing.T) {
	checker := NewChecker(config.DefaultPolicy(), new(MockBookingCounter))

	// Saturday closes at 14:00; a 45-minute service at 13:30 spills over.
	saturday := time.Date(2026, 9, 5, 13, 30, 0, 0, time.UTC)
	_, err := checker.Check(context.Background(), openBarber(), saturday, domain.BookingScheduled, domain.ServiceHaircutBeard, saturday.Add(-2*time.Hour))
	assert.ErrorIs(t, err, ErrBarberNotAvailableAtTime)
}

func TestCheck_ImmediateComputesEffectiveTime(t *testing.T) {
	counter := new(MockBookingCounter)
	counter.On("CountOverlapping", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(int64(0), nil)

	checker := NewChecker(config.DefaultPolicy(), counter)

	effective, err := checker.Check(context.Background(), openBarber(), time.Time{}, domain.BookingImmediate, domain.ServiceHaircut, wedMorning)

	assert.NoError(t, err)
	assert.Equal(t, wedMorning.Add(15*time.Minute), effective)
}

func TestCheck_ImmediateRejectedWhenDisabled(t *testing.T) {
	checker := NewChecker(config.DefaultPolicy(), new(MockBookingCounter))

	b := openBarber()
	b.AcceptsImmediate = false

	_, err := checker.Check(context.Background(), b, time.Time{}, domain.BookingImmediate, domain.ServiceHaircut, wedMorning)
	assert.ErrorIs(t, err, ErrNoImmediateBookings)
}

func TestCheck_ImmediateRejectedWhenBusy(t *testing.T) {
	checker := NewChecker(config.DefaultPolicy(), new(MockBookingCounter))

	b := openBarber()
	b.LiveStatus = domain.LiveBusy

	_, err := checker.Check(context.Background(), b, time.Time{}, domain.BookingImmediate, domain.ServiceHaircut, wedMorning)
	assert.ErrorIs(t, err, ErrNoImmediateBookings)
}

func TestCheck_TimeConflict(t *testing.T) {
	counter := new(MockBookingCounter)
	counter.On("CountOverlapping", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(int64(1), nil)

	checker := NewChecker(config.DefaultPolicy(), counter)

	_, err := checker.Check(context.Background(), openBarber(), wedMorning.Add(2*time.Hour), domain.BookingScheduled, domain.ServiceHaircut, wedMorning)
	assert.ErrorIs(t, err, ErrTimeConflict)
}

func TestCheck_ConflictWindowUsesServiceDuration(t *testing.T) {
	counter := new(MockBookingCounter)

	requested := wedMorning.Add(2 * time.Hour)
	// haircut_beard is 45 minutes either side.
	counter.On("CountOverlapping", mock.Anything, int64(7),
		requested.Add(-45*time.Minute), requested.Add(45*time.Minute)).Return(int64(0), nil)

	checker := NewChecker(config.DefaultPolicy(), counter)

	_, err := checker.Check(context.Background(), openBarber(), requested, domain.BookingScheduled, domain.ServiceHaircutBeard, wedMorning)

	assert.NoError(t, err)
	counter.AssertExpectations(t)
}

func TestCheck_ImmediateConflictWindowPolicySwitch(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.ImmediateConflictUsesPrep = true

	counter := new(MockBookingCounter)
	effective := wedMorning.Add(15 * time.Minute)
	counter.On("CountOverlapping", mock.Anything, int64(7),
		effective.Add(-15*time.Minute), effective.Add(15*time.Minute)).Return(int64(0), nil)

	checker := NewChecker(policy, counter)

	_, err := checker.Check(context.Background(), openBarber(), time.Time{}, domain.BookingImmediate, domain.ServiceHaircut, wedMorning)

	assert.NoError(t, err)
	counter.AssertExpectations(t)
}
