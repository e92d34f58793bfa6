package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"cortate/internal/config"
	"cortate/internal/domain"
	"cortate/internal/modules/availability"
	"cortate/internal/modules/penalty"
	"cortate/internal/modules/pricing"
	"cortate/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// fakeStore is an in-memory BookingStore with the same conditional
// update semantics as the real repository, so the tests exercise the
// race behavior for real.
type fakeStore struct {
	mu       sync.Mutex
	seq      int64
	bookings map[int64]*domain.Booking
	timeline []domain.TimelineEntry

	// beforeTransition runs before the conditional update, to slip a
	// concurrent status change in between read and write.
	beforeTransition func(id int64)
}

func newFakeStore() *fakeStore {
	return &fakeStore{bookings: map[int64]*domain.Booking{}}
}

func (f *fakeStore) insert(b *domain.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	b.ID = f.seq
	b.BookingNumber = domain.FormatBookingNumber(b.ID)
	cp := *b
	f.bookings[b.ID] = &cp
}

func (f *fakeStore) setStatus(id int64, s domain.BookingStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings[id].Status = s
}

func (f *fakeStore) Create(ctx context.Context, b *domain.Booking, entry domain.TimelineEntry) error {
	f.insert(b)
	entry.BookingID = b.ID
	f.mu.Lock()
	f.timeline = append(f.timeline, entry)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) Transition(ctx context.Context, bookingID int64, from []domain.BookingStatus, ch repository.StatusChange) error {
	if f.beforeTransition != nil {
		hook := f.beforeTransition
		f.beforeTransition = nil
		hook(bookingID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bookings[bookingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if !statusIn(b.Status, from) {
		return repository.ErrStaleStatus
	}

	b.Status = ch.To
	b.UpdatedAt = ch.Entry.CreatedAt
	f.applyUpdates(b, ch.Updates)

	ch.Entry.BookingID = bookingID
	ch.Entry.Status = ch.To
	f.timeline = append(f.timeline, ch.Entry)
	return nil
}

func (f *fakeStore) applyUpdates(b *domain.Booking, updates map[string]any) {
	cancel := func() *domain.Cancellation {
		if b.Cancellation == nil {
			b.Cancellation = &domain.Cancellation{}
		}
		return b.Cancellation
	}
	for k, v := range updates {
		switch k {
		case "response_time_min":
			n := v.(int)
			b.ResponseTimeMin = &n
		case "pay_status":
			b.Payment.Status = domain.PaymentStatus(v.(string))
		case "cancelled_by_id":
			cancel().CancelledByID = v.(int64)
		case "cancel_role":
			cancel().Role = domain.UserRole(v.(string))
		case "cancel_reason":
			cancel().Reason = domain.CancelReason(v.(string))
		case "cancel_penalty_amount":
			cancel().PenaltyAmount = v.(int64)
		case "cancel_penalty_percent":
			cancel().PenaltyPercent = v.(int64)
		case "cancel_refund_amount":
			cancel().RefundAmount = v.(int64)
		case "cancelled_at":
			cancel().CancelledAt = v.(time.Time)
		}
	}
}

func (f *fakeStore) Timeline(ctx context.Context, bookingID int64) ([]domain.TimelineEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TimelineEntry
	for _, e := range f.timeline {
		if e.BookingID == bookingID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.bookings {
		if b.Status == domain.BookingPending && b.ExpiresAt.Before(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) CountRejectedSince(ctx context.Context, barberID int64, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cnt int64
	for _, b := range f.bookings {
		if b.BarberID == barberID && b.Status == domain.BookingRejected && !b.UpdatedAt.Before(since) {
			cnt++
		}
	}
	return cnt, nil
}

func (f *fakeStore) ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.bookings {
		if b.ClientID == clientID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByBarber(ctx context.Context, barberID int64, limit, offset int) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.bookings {
		if b.BarberID == barberID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// CountOverlapping makes the fake usable as the availability
// checker's booking counter.
func (f *fakeStore) CountOverlapping(ctx context.Context, barberID int64, windowStart, windowEnd time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cnt int64
	for _, b := range f.bookings {
		if b.BarberID != barberID || !statusIn(b.Status, domain.ActiveStatuses()) {
			continue
		}
		end := b.ScheduledFor.Add(time.Duration(b.DurationMin) * time.Minute)
		if b.ScheduledFor.Before(windowEnd) && windowStart.Before(end) {
			cnt++
		}
	}
	return cnt, nil
}

type stubBarbers struct {
	byID map[int64]*domain.Barber
}

func (s *stubBarbers) GetByID(ctx context.Context, id int64) (*domain.Barber, error) {
	b, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (s *stubBarbers) GetByUserID(ctx context.Context, userID int64) (*domain.Barber, error) {
	for _, b := range s.byID {
		if b.UserID == userID {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubClients struct {
	byID map[int64]*domain.Client
}

func (s *stubClients) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (s *stubClients) GetByUserID(ctx context.Context, userID int64) (*domain.Client, error) {
	for _, c := range s.byID {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubUsers struct {
	byID map[int64]*domain.User
}

func (s *stubUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

type MockPenaltyEngine struct {
	mock.Mock
}

func (m *MockPenaltyEngine) Apply(ctx context.Context, v penalty.Violation) (*domain.Penalty, error) {
	args := m.Called(ctx, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Penalty), args.Error(1)
}

type MockStatsSink struct {
	mock.Mock
}

func (m *MockStatsSink) OnAccepted(ctx context.Context, b *domain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockStatsSink) OnRejected(ctx context.Context, b *domain.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockStatsSink) OnCompleted(ctx context.Context, b *domain.Booking, completedAt time.Time) error {
	return m.Called(ctx, b, completedAt).Error(0)
}

func (m *MockStatsSink) OnCancelled(ctx context.Context, b *domain.Booking, byRole domain.UserRole) error {
	return m.Called(ctx, b, byRole).Error(0)
}

func (m *MockStatsSink) OnClientNoShow(ctx context.Context, b *domain.Booking, compensation int64) error {
	return m.Called(ctx, b, compensation).Error(0)
}

func (m *MockStatsSink) OnBarberNoShow(ctx context.Context, b *domain.Booking, bonus int64) error {
	return m.Called(ctx, b, bonus).Error(0)
}

const (
	testClientID     = int64(10)
	testClientUserID = int64(100)
	testBarberID     = int64(20)
	testBarberUserID = int64(200)
)

type testEnv struct {
	now       time.Time
	policy    *config.Policy
	store     *fakeStore
	barbers   *stubBarbers
	clients   *stubClients
	penalties *MockPenaltyEngine
	stats     *MockStatsSink
	svc       *Service
}

func newTestEnv() *testEnv {
	fullWeek := map[string]string{}
	for _, d := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		fullWeek[d] = "09:00-20:00"
	}

	env := &testEnv{
		now:    time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC),
		policy: config.DefaultPolicy(),
		store:  newFakeStore(),
		barbers: &stubBarbers{byID: map[int64]*domain.Barber{
			testBarberID: {
				ID:                testBarberID,
				UserID:            testBarberUserID,
				ShopName:          "Barbería El Tigre",
				Phone:             "912345678",
				ServiceArea:       domain.AreaBoth,
				PriceHaircut:      10000,
				PriceHaircutBeard: 15000,
				DeclaredAddOns:    []domain.AddOn{domain.AddOnEyebrows},
				IsActive:          true,
				IsVerified:        true,
				AcceptsImmediate:  true,
				LiveStatus:        domain.LiveAvailable,
				WeekSchedule:      fullWeek,
			},
		}},
		clients: &stubClients{byID: map[int64]*domain.Client{
			testClientID: {ID: testClientID, UserID: testClientUserID},
		}},
		penalties: new(MockPenaltyEngine),
		stats:     new(MockStatsSink),
	}

	users := &stubUsers{byID: map[int64]*domain.User{
		testClientUserID: {ID: testClientUserID, Name: "Matías", Role: domain.RoleClient},
	}}

	checker := availability.NewChecker(env.policy, env.store)
	calc := pricing.NewCalculator(env.policy)

	env.svc = NewService(env.policy, env.store, env.barbers, env.clients, users,
		checker, calc, env.penalties, env.stats, nil)
	env.svc.now = func() time.Time { return env.now }

	return env
}

func (e *testEnv) seedBooking(status domain.BookingStatus, mut func(*domain.Booking)) *domain.Booking {
	b := &domain.Booking{
		ClientID:     testClientID,
		BarberID:     testBarberID,
		ServiceType:  domain.ServiceHaircut,
		BookingType:  domain.BookingScheduled,
		ScheduledFor: e.now.Add(2 * time.Hour),
		DurationMin:  30,
		LocationType: domain.LocationAtShop,
		Status:       status,
		Payment: domain.Payment{
			Amount:       11000,
			ServicePrice: 10000,
			Commission:   1000,
			Method:       "cash",
			Status:       domain.PaymentPending,
		},
		ExpiresAt: e.now.Add(15 * time.Minute),
		CreatedAt: e.now,
		UpdatedAt: e.now,
	}
	if mut != nil {
		mut(b)
	}
	e.store.insert(b)
	return b
}

func TestCreate_ScheduledBooking(t *testing.T) {
	env := newTestEnv()

	res, err := env.svc.Create(context.Background(), testClientUserID, CreateBookingRequest{
		BarberID:     testBarberID,
		ServiceType:  domain.ServiceHaircut,
		BookingType:  domain.BookingScheduled,
		ScheduledFor: env.now.Add(2 * time.Hour),
		LocationType: domain.LocationAtShop,
	})

	assert.NoError(t, err)
	b := res.Booking
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, "CTB-000001", b.BookingNumber)
	assert.Equal(t, env.now.Add(15*time.Minute), b.ExpiresAt)
	assert.Equal(t, int64(15*60), res.TimeToExpirationSec)
	assert.True(t, b.Payment.BreakdownConsistent())
	assert.Equal(t, int64(11000), b.Payment.Amount)
	assert.Contains(t, res.WhatsAppMessage, "Matías")
	assert.Contains(t, res.WhatsAppURL, "wa.me/56912345678")

	entries, _ := env.store.Timeline(context.Background(), b.ID)
	assert.Len(t, entries, 1)
	assert.Equal(t, domain.BookingPending, entries[0].Status)
}

func TestCreate_ImmediateUsesPrepOffset(t *testing.T) {
	env := newTestEnv()

	res, err := env.svc.Create(context.Background(), testClientUserID, CreateBookingRequest{
		BarberID:     testBarberID,
		ServiceType:  domain.ServiceHaircut,
		BookingType:  domain.BookingImmediate,
		LocationType: domain.LocationAtShop,
	})

	assert.NoError(t, err)
	assert.Equal(t, env.now.Add(15*time.Minute), res.Booking.ScheduledFor)
	assert.Equal(t, env.now.Add(5*time.Minute), res.Booking.ExpiresAt)
}

func TestCreate_ImmediateRequiresFlag(t *testing.T) {
	env := newTestEnv()
	env.barbers.byID[testBarberID].AcceptsImmediate = false

	_, err := env.svc.Create(context.Background(), testClientUserID, CreateBookingRequest{
		BarberID:     testBarberID,
		ServiceType:  domain.ServiceHaircut,
		BookingType:  domain.BookingImmediate,
		LocationType: domain.LocationAtShop,
	})

	assert.ErrorIs(t, err, availability.ErrNoImmediateBookings)
}

func TestCreate_HomeServiceLocalOnlyBarber(t *testing.T) {
	env := newTestEnv()
	env.barbers.byID[testBarberID].ServiceArea = domain.AreaLocal

	_, err := env.svc.Create(context.Background(), testClientUserID, CreateBookingRequest{
		BarberID:     testBarberID,
		ServiceType:  domain.ServiceHaircut,
		BookingType:  domain.BookingScheduled,
		ScheduledFor: env.now.Add(2 * time.Hour),
		LocationType: domain.LocationAtHome,
		Address:      "Av. Italia 850",
	})

	assert.ErrorIs(t, err, pricing.ErrServiceUnavailable)
}

func TestCreate_TimeConflict(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(domain.BookingAccepted, nil)

	_, err := env.svc.Create(context.Background(), testClientUserID, CreateBookingRequest{
		BarberID:     testBarberID,
		ServiceType:  domain.ServiceHaircut,
		BookingType:  domain.BookingScheduled,
		ScheduledFor: env.now.Add(2 * time.Hour),
		LocationType: domain.LocationAtShop,
	})

	assert.ErrorIs(t, err, availability.ErrTimeConflict)
}

func TestCreate_UnknownBarber(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Create(context.Background(), testClientUserID, CreateBookingRequest{
		BarberID:     999,
		ServiceType:  domain.ServiceHaircut,
		BookingType:  domain.BookingScheduled,
		ScheduledFor: env.now.Add(2 * time.Hour),
		LocationType: domain.LocationAtShop,
	})

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAccept_SetsResponseTime(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingPending, nil)
	env.now = env.now.Add(5 * time.Minute)

	env.stats.On("OnAccepted", mock.Anything, mock.Anything).Return(nil)

	res, err := env.svc.Accept(context.Background(), testBarberUserID, b.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingAccepted, res.Status)

	stored, _ := env.store.GetByID(context.Background(), b.ID)
	assert.Equal(t, domain.BookingAccepted, stored.Status)
	if assert.NotNil(t, stored.ResponseTimeMin) {
		assert.Equal(t, 5, *stored.ResponseTimeMin)
	}
	env.stats.AssertExpectations(t)
}

func TestAccept_WrongBarber(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingPending, nil)

	_, err := env.svc.Accept(context.Background(), int64(555), b.ID)

	assert.ErrorIs(t, err, ErrNotAuthorized)
	stored, _ := env.store.GetByID(context.Background(), b.ID)
	assert.Equal(t, domain.BookingPending, stored.Status)
}

func TestAccept_AfterDeadlineExpires(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingPending, nil)
	env.now = env.now.Add(20 * time.Minute)

	_, err := env.svc.Accept(context.Background(), testBarberUserID, b.ID)

	assert.ErrorIs(t, err, ErrBookingExpired)
	stored, _ := env.store.GetByID(context.Background(), b.ID)
	assert.Equal(t, domain.BookingExpired, stored.Status)
}

func TestAccept_LosesRaceToSweeper(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingPending, nil)

	env.store.beforeTransition = func(id int64) {
		env.store.setStatus(id, domain.BookingExpired)
	}

	_, err := env.svc.Accept(context.Background(), testBarberUserID, b.ID)

	assert.ErrorIs(t, err, ErrBookingExpired)
	stored, _ := env.store.GetByID(context.Background(), b.ID)
	assert.Equal(t, domain.BookingExpired, stored.Status)
}

func TestReject_ThirdRejectionTriggersPenalty(t *testing.T) {
	env := newTestEnv()
	env.stats.On("OnRejected", mock.Anything, mock.Anything).Return(nil)
	env.penalties.On("Apply", mock.Anything, mock.MatchedBy(func(v penalty.Violation) bool {
		return v.Type == domain.PenaltyRejectionAbuse &&
			v.Severity == domain.SeverityModerate &&
			v.UserID == testBarberID
	})).Return(&domain.Penalty{FinalAmount: 1500}, nil).Once()

	for i := 0; i < 3; i++ {
		b := env.seedBooking(domain.BookingPending, func(b *domain.Booking) {
			b.ScheduledFor = env.now.Add(time.Duration(2+i) * time.Hour)
		})
		res, err := env.svc.Reject(context.Background(), testBarberUserID, b.ID, "no disponible")
		assert.NoError(t, err)
		if i == 2 {
			assert.Equal(t, int64(1500), res.PenaltyAmount)
		} else {
			assert.Zero(t, res.PenaltyAmount)
		}
	}

	env.penalties.AssertExpectations(t)
}

func TestCancel_InsideFreeWindow(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingAccepted, func(b *domain.Booking) {
		b.ScheduledFor = env.now.Add(3 * time.Hour)
	})
	env.stats.On("OnCancelled", mock.Anything, mock.Anything, domain.RoleClient).Return(nil)

	res, err := env.svc.Cancel(context.Background(), testClientUserID, domain.RoleClient, b.ID, domain.CancelChangedPlans)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, res.Status)
	assert.Zero(t, res.PenaltyAmount)

	stored, _ := env.store.GetByID(context.Background(), b.ID)
	if assert.NotNil(t, stored.Cancellation) {
		assert.Equal(t, testClientID, stored.Cancellation.CancelledByID)
		assert.Equal(t, domain.CancelChangedPlans, stored.Cancellation.Reason)
		assert.Zero(t, stored.Cancellation.PenaltyAmount)
	}
	env.penalties.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestCancel_LateChargesPenalty(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingConfirmed, func(b *domain.Booking) {
		b.ScheduledFor = env.now.Add(time.Hour)
		b.Payment.Status = domain.PaymentPaid
	})
	env.stats.On("OnCancelled", mock.Anything, mock.Anything, domain.RoleClient).Return(nil)
	env.penalties.On("Apply", mock.Anything, mock.MatchedBy(func(v penalty.Violation) bool {
		return v.Type == domain.PenaltyLateCancelClient && v.UserID == testClientID
	})).Return(&domain.Penalty{FinalAmount: 1100}, nil).Once()

	res, err := env.svc.Cancel(context.Background(), testClientUserID, domain.RoleClient, b.ID, domain.CancelEmergency)

	assert.NoError(t, err)
	// 20% of 11000
	assert.Equal(t, int64(2200), res.PenaltyAmount)
	assert.Equal(t, int64(8800), res.RefundAmount)

	stored, _ := env.store.GetByID(context.Background(), b.ID)
	assert.Equal(t, domain.PaymentPartiallyRefunded, stored.Payment.Status)
	env.penalties.AssertExpectations(t)
}

func TestCancel_AdminIsAlwaysFree(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingAccepted, func(b *domain.Booking) {
		b.ScheduledFor = env.now.Add(10 * time.Minute)
	})

	res, err := env.svc.Cancel(context.Background(), int64(1), domain.RoleAdmin, b.ID, domain.CancelAdminAction)

	assert.NoError(t, err)
	assert.Zero(t, res.PenaltyAmount)
	env.penalties.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	env.stats.AssertNotCalled(t, "OnCancelled", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancel_TerminalStatus(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingCompleted, nil)

	_, err := env.svc.Cancel(context.Background(), testClientUserID, domain.RoleClient, b.ID, domain.CancelOther)

	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestConfirm_SettlesPayment(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingAccepted, nil)

	res, err := env.svc.Confirm(context.Background(), testClientUserID, b.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, res.Status)

	stored, _ := env.store.GetByID(context.Background(), b.ID)
	assert.Equal(t, domain.PaymentPaid, stored.Payment.Status)
}

func TestStart_FromConfirmed(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingConfirmed, nil)

	res, err := env.svc.Start(context.Background(), testBarberUserID, b.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingInProgress, res.Status)
}

func TestComplete_UpdatesBothParties(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingInProgress, nil)
	env.stats.On("OnCompleted", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	res, err := env.svc.Complete(context.Background(), testBarberUserID, b.ID)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, res.Status)

	stored, _ := env.store.GetByID(context.Background(), b.ID)
	assert.Equal(t, domain.PaymentPaid, stored.Payment.Status)
	env.stats.AssertExpectations(t)
}

func TestComplete_FromPendingIsIllegal(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingPending, nil)

	_, err := env.svc.Complete(context.Background(), testBarberUserID, b.ID)

	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	stored, _ := env.store.GetByID(context.Background(), b.ID)
	assert.Equal(t, domain.BookingPending, stored.Status)
}

func TestClientNoShow_BeforeSlotIsTooEarly(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingConfirmed, nil)

	_, err := env.svc.MarkClientNoShow(context.Background(), testBarberUserID, b.ID, 10)

	assert.ErrorIs(t, err, ErrTooEarly)
}

func TestClientNoShow_CompensatesBarber(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingConfirmed, nil)
	env.now = b.ScheduledFor.Add(10 * time.Minute)

	env.stats.On("OnClientNoShow", mock.Anything, mock.Anything, int64(5500)).Return(nil).Once()
	env.penalties.On("Apply", mock.Anything, mock.MatchedBy(func(v penalty.Violation) bool {
		return v.Type == domain.PenaltyNoShowClient &&
			v.Severity == domain.SeverityMajor &&
			v.UserID == testClientID
	})).Return(&domain.Penalty{FinalAmount: 7500}, nil).Once()

	res, err := env.svc.MarkClientNoShow(context.Background(), testBarberUserID, b.ID, 20)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingNoShowClient, res.Status)
	// 50% of 11000
	assert.Equal(t, int64(5500), res.CompensationAmount)
	assert.Equal(t, int64(7500), res.PenaltyAmount)
	env.stats.AssertExpectations(t)
	env.penalties.AssertExpectations(t)
}

func TestBarberNoShow_GraceWindow(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingConfirmed, nil)

	env.now = b.ScheduledFor.Add(10 * time.Minute)
	_, err := env.svc.MarkBarberNoShow(context.Background(), testClientUserID, b.ID, 10)
	assert.ErrorIs(t, err, ErrTooEarly)

	env.now = b.ScheduledFor.Add(16 * time.Minute)
	env.stats.On("OnBarberNoShow", mock.Anything, mock.Anything, int64(2200)).Return(nil).Once()
	env.penalties.On("Apply", mock.Anything, mock.MatchedBy(func(v penalty.Violation) bool {
		return v.Type == domain.PenaltyNoShowBarber &&
			v.Severity == domain.SeverityCritical &&
			v.UserID == testBarberID
	})).Return(&domain.Penalty{FinalAmount: 16000}, nil).Once()

	res, err := env.svc.MarkBarberNoShow(context.Background(), testClientUserID, b.ID, 16)

	assert.NoError(t, err)
	assert.Equal(t, domain.BookingNoShowBarber, res.Status)
	assert.Equal(t, int64(11000), res.RefundAmount)
	// 20% bonus voucher
	assert.Equal(t, int64(2200), res.CompensationAmount)

	stored, _ := env.store.GetByID(context.Background(), b.ID)
	assert.Equal(t, domain.PaymentRefunded, stored.Payment.Status)
	env.penalties.AssertExpectations(t)
}

func TestExpireSweep_IsIdempotent(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(domain.BookingPending, func(b *domain.Booking) {
		b.ExpiresAt = env.now.Add(-time.Minute)
	})
	env.seedBooking(domain.BookingPending, func(b *domain.Booking) {
		b.ScheduledFor = env.now.Add(4 * time.Hour)
	})

	n, err := env.svc.ExpireSweep(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = env.svc.ExpireSweep(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestExpireSweep_ImmediateNoResponsePenalty(t *testing.T) {
	env := newTestEnv()
	env.seedBooking(domain.BookingPending, func(b *domain.Booking) {
		b.BookingType = domain.BookingImmediate
		b.ScheduledFor = env.now.Add(9 * time.Minute)
		b.CreatedAt = env.now.Add(-6 * time.Minute)
		b.ExpiresAt = env.now.Add(-time.Minute)
	})
	env.penalties.On("Apply", mock.Anything, mock.MatchedBy(func(v penalty.Violation) bool {
		return v.Type == domain.PenaltyNoResponseImmediate &&
			v.Severity == domain.SeverityMinor &&
			v.UserID == testBarberID
	})).Return(&domain.Penalty{FinalAmount: 500}, nil).Once()

	n, err := env.svc.ExpireSweep(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	env.penalties.AssertExpectations(t)
}

func TestTimeline_RecordsEveryTransition(t *testing.T) {
	env := newTestEnv()
	b := env.seedBooking(domain.BookingPending, nil)
	env.stats.On("OnAccepted", mock.Anything, mock.Anything).Return(nil)
	env.stats.On("OnCompleted", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := env.svc.Accept(context.Background(), testBarberUserID, b.ID)
	assert.NoError(t, err)
	_, err = env.svc.Confirm(context.Background(), testClientUserID, b.ID)
	assert.NoError(t, err)
	_, err = env.svc.Start(context.Background(), testBarberUserID, b.ID)
	assert.NoError(t, err)
	_, err = env.svc.Complete(context.Background(), testBarberUserID, b.ID)
	assert.NoError(t, err)

	entries, err := env.svc.Timeline(context.Background(), b.ID)
	assert.NoError(t, err)
	assert.Len(t, entries, 4)
	assert.Equal(t, domain.BookingAccepted, entries[0].Status)
	assert.Equal(t, domain.BookingCompleted, entries[3].Status)
}
