package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cortate/internal/config"
	"cortate/internal/domain"
	"cortate/internal/modules/availability"
	"cortate/internal/modules/penalty"
	"cortate/internal/pkg/whatsapp"
	"cortate/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UserDirectory resolves display names for outbound messages.
type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Service owns the booking lifecycle: transition legality, expiration
// deadlines, and the ordering of side effects. Status changes go
// through the store's conditional update, so concurrent actors and
// the sweeper race safely; exactly one wins.
type Service struct {
	policy    *config.Policy
	bookings  BookingStore
	barbers   BarberDirectory
	clients   ClientDirectory
	users     UserDirectory
	checker   AvailabilityChecker
	quoter    PriceQuoter
	penalties PenaltyEngine
	stats     StatsSink
	events    EventSink

	now func() time.Time
}

func NewService(
	policy *config.Policy,
	bookings BookingStore,
	barbers BarberDirectory,
	clients ClientDirectory,
	users UserDirectory,
	checker AvailabilityChecker,
	quoter PriceQuoter,
	penalties PenaltyEngine,
	stats StatsSink,
	events EventSink,
) *Service {
	return &Service{
		policy:    policy,
		bookings:  bookings,
		barbers:   barbers,
		clients:   clients,
		users:     users,
		checker:   checker,
		quoter:    quoter,
		penalties: penalties,
		stats:     stats,
		events:    events,
		now:       time.Now,
	}
}

// Create validates the slot, prices the request, and persists the
// booking at pending with its expiration deadline.
func (s *Service) Create(ctx context.Context, actorUserID int64, req CreateBookingRequest) (*CreateResult, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	client, err := s.clients.GetByUserID(ctx, actorUserID)
	if err != nil {
		return nil, asLookupErr(err, ErrNotAuthorized)
	}

	barber, err := s.barbers.GetByID(ctx, req.BarberID)
	if err != nil {
		return nil, asLookupErr(err, ErrNotFound)
	}

	now := s.now().UTC()
	scheduledFor, err := s.checker.Check(ctx, barber, req.ScheduledFor, req.BookingType, req.ServiceType, now)
	if err != nil {
		return nil, err
	}

	quote, err := s.quoter.Quote(barber, req.ServiceType, req.AddOns, req.LocationType)
	if err != nil {
		return nil, err
	}

	expireMin := s.policy.PendingExpireScheduledMin
	if req.BookingType == domain.BookingImmediate {
		expireMin = s.policy.PendingExpireImmediateMin
	}

	method := req.PaymentMethod
	if method == "" {
		method = "cash"
	}

	b := &domain.Booking{
		ClientID:      client.ID,
		BarberID:      barber.ID,
		ServiceType:   req.ServiceType,
		AddOns:        req.AddOns,
		BookingType:   req.BookingType,
		ScheduledFor:  scheduledFor,
		DurationMin:   domain.ServiceDurationMin(req.ServiceType),
		LocationType:  req.LocationType,
		Address:       req.Address,
		LocationNotes: req.LocationNotes,
		Lat:           req.Lat,
		Lng:           req.Lng,
		Status:        domain.BookingPending,
		Payment: domain.Payment{
			Amount:       quote.Total,
			ServicePrice: quote.ServicePrice,
			AddOnsPrice:  quote.AddOnsTotal,
			TransportFee: quote.TransportFee,
			Commission:   quote.Commission,
			Method:       method,
			Status:       domain.PaymentPending,
		},
		ExpiresAt: now.Add(time.Duration(expireMin) * time.Minute),
		CreatedAt: now,
		UpdatedAt: now,
	}

	entry := domain.TimelineEntry{
		Status:    domain.BookingPending,
		ActorID:   client.ID,
		ActorRole: domain.RoleClient,
		Note:      req.Note,
		CreatedAt: now,
	}

	if err := s.bookings.Create(ctx, b, entry); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "idx_no_double_booking" {
			return nil, availability.ErrTimeConflict
		}
		return nil, err
	}

	if s.events != nil {
		s.events.BookingChanged(b, client.UserID, barber.UserID, "booking_created")
	}

	msg := whatsapp.NewBookingMessage(b, s.displayName(ctx, client.UserID))
	phone := barber.WhatsApp
	if phone == "" {
		phone = barber.Phone
	}

	return &CreateResult{
		Booking:             b,
		WhatsAppMessage:     msg,
		WhatsAppURL:         whatsapp.URL(phone, msg),
		TimeToExpirationSec: int64(b.ExpiresAt.Sub(now).Seconds()),
	}, nil
}

// Accept moves pending -> accepted. An accept that observes a passed
// deadline expires the booking itself and reports BookingExpired.
func (s *Service) Accept(ctx context.Context, actorUserID, bookingID int64) (*Result, error) {
	b, barber, err := s.bookingForBarberActor(ctx, actorUserID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingPending {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now().UTC()
	if !now.Before(b.ExpiresAt) {
		s.expireOne(ctx, b, now)
		return nil, ErrBookingExpired
	}

	respMin := int(now.Sub(b.CreatedAt) / time.Minute)
	err = s.bookings.Transition(ctx, b.ID, []domain.BookingStatus{domain.BookingPending}, repository.StatusChange{
		To:      domain.BookingAccepted,
		Updates: map[string]any{"response_time_min": respMin},
		Entry: domain.TimelineEntry{
			ActorID:   barber.ID,
			ActorRole: domain.RoleBarber,
			CreatedAt: now,
		},
	})
	if err != nil {
		return nil, s.loserError(ctx, b.ID, err)
	}

	b.Status = domain.BookingAccepted
	b.ResponseTimeMin = &respMin

	if s.stats != nil {
		if err := s.stats.OnAccepted(ctx, b); err != nil {
			log.Printf("stats_failed op=accept booking=%d error=%q", b.ID, err)
		}
	}
	s.emitFor(ctx, b, "booking_accepted")

	return s.result(b), nil
}

// Reject moves pending -> rejected and feeds the rejection-abuse
// threshold.
func (s *Service) Reject(ctx context.Context, actorUserID, bookingID int64, reason string) (*Result, error) {
	b, barber, err := s.bookingForBarberActor(ctx, actorUserID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingPending {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now().UTC()
	if !now.Before(b.ExpiresAt) {
		s.expireOne(ctx, b, now)
		return nil, ErrBookingExpired
	}

	respMin := int(now.Sub(b.CreatedAt) / time.Minute)
	err = s.bookings.Transition(ctx, b.ID, []domain.BookingStatus{domain.BookingPending}, repository.StatusChange{
		To:      domain.BookingRejected,
		Updates: map[string]any{"response_time_min": respMin},
		Entry: domain.TimelineEntry{
			ActorID:   barber.ID,
			ActorRole: domain.RoleBarber,
			Note:      reason,
			CreatedAt: now,
		},
	})
	if err != nil {
		return nil, s.loserError(ctx, b.ID, err)
	}

	b.Status = domain.BookingRejected
	b.ResponseTimeMin = &respMin

	if s.stats != nil {
		if err := s.stats.OnRejected(ctx, b); err != nil {
			log.Printf("stats_failed op=reject booking=%d error=%q", b.ID, err)
		}
	}

	res := s.result(b)
	count, err := s.bookings.CountRejectedSince(ctx, barber.ID, now.Add(-24*time.Hour))
	switch {
	case err != nil:
		log.Printf("rejection_count_failed barber=%d error=%q", barber.ID, err)
	case count >= int64(s.policy.RejectionDailyThreshold):
		res.PenaltyAmount = s.applyPenalty(ctx, penalty.Violation{
			UserID:     barber.ID,
			UserRole:   domain.RoleBarber,
			Type:       domain.PenaltyRejectionAbuse,
			Severity:   domain.SeverityModerate,
			BookingID:  &b.ID,
			OccurredAt: now,
			Details:    fmt.Sprintf("%d rejections within 24h", count),
		})
	}

	s.emitFor(ctx, b, "booking_rejected")
	return res, nil
}

// Cancel applies the cancellation policy: free inside the window,
// a percentage of the amount when late. Admin cancellations are
// always free and count against nobody's statistics.
func (s *Service) Cancel(ctx context.Context, actorUserID int64, role domain.UserRole, bookingID int64, reason domain.CancelReason) (*Result, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var actorID int64
	switch role {
	case domain.RoleClient:
		client, err := s.clients.GetByUserID(ctx, actorUserID)
		if err != nil || client.ID != b.ClientID {
			return nil, ErrNotAuthorized
		}
		actorID = client.ID
	case domain.RoleBarber:
		barber, err := s.barbers.GetByUserID(ctx, actorUserID)
		if err != nil || barber.ID != b.BarberID {
			return nil, ErrNotAuthorized
		}
		actorID = barber.ID
	case domain.RoleAdmin:
		actorID = actorUserID
	default:
		return nil, ErrNotAuthorized
	}

	cancellable := []domain.BookingStatus{
		domain.BookingPending, domain.BookingAccepted, domain.BookingConfirmed,
	}
	if !statusIn(b.Status, cancellable) {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now().UTC()

	freeMin := s.policy.ScheduledFreeCancelMin
	if b.BookingType == domain.BookingImmediate {
		freeMin = s.policy.ImmediateFreeCancelMin
	}
	late := role != domain.RoleAdmin &&
		b.ScheduledFor.Sub(now) < time.Duration(freeMin)*time.Minute

	var penaltyAmount, penaltyPercent int64
	if late {
		penaltyPercent = s.policy.LateCancelPenaltyPercent
		penaltyAmount = b.Payment.Amount * penaltyPercent / 100
	}

	var refund int64
	var newPayStatus domain.PaymentStatus
	if b.Payment.Status == domain.PaymentPaid {
		refund = b.Payment.Amount - penaltyAmount
		newPayStatus = domain.PaymentRefunded
		if penaltyAmount > 0 {
			newPayStatus = domain.PaymentPartiallyRefunded
		}
	}

	updates := map[string]any{
		"cancelled_by_id":        actorID,
		"cancel_role":            string(role),
		"cancel_reason":          string(reason),
		"cancel_penalty_amount":  penaltyAmount,
		"cancel_penalty_percent": penaltyPercent,
		"cancel_refund_amount":   refund,
		"cancelled_at":           now,
	}
	if newPayStatus != "" {
		updates["pay_status"] = string(newPayStatus)
	}

	err = s.bookings.Transition(ctx, b.ID, cancellable, repository.StatusChange{
		To:      domain.BookingCancelled,
		Updates: updates,
		Entry: domain.TimelineEntry{
			ActorID:   actorID,
			ActorRole: role,
			Note:      string(reason),
			CreatedAt: now,
		},
	})
	if err != nil {
		return nil, s.loserError(ctx, b.ID, err)
	}

	b.Status = domain.BookingCancelled
	if newPayStatus != "" {
		b.Payment.Status = newPayStatus
	}
	b.Cancellation = &domain.Cancellation{
		CancelledByID:  actorID,
		Role:           role,
		Reason:         reason,
		PenaltyAmount:  penaltyAmount,
		PenaltyPercent: penaltyPercent,
		RefundAmount:   refund,
		CancelledAt:    now,
	}

	if late {
		ptype := domain.PenaltyLateCancelClient
		if role == domain.RoleBarber {
			ptype = domain.PenaltyLateCancelBarber
		}
		s.applyPenalty(ctx, penalty.Violation{
			UserID:        actorID,
			UserRole:      role,
			Type:          ptype,
			Severity:      domain.SeverityMinor,
			BookingID:     &b.ID,
			BookingAmount: b.Payment.Amount,
			OccurredAt:    now,
			Details:       fmt.Sprintf("cancelled %d minutes before the slot", int(b.ScheduledFor.Sub(now)/time.Minute)),
		})
	}

	if role != domain.RoleAdmin && s.stats != nil {
		if err := s.stats.OnCancelled(ctx, b, role); err != nil {
			log.Printf("stats_failed op=cancel booking=%d error=%q", b.ID, err)
		}
	}
	s.emitFor(ctx, b, "booking_cancelled")

	res := s.result(b)
	res.PenaltyAmount = penaltyAmount
	res.RefundAmount = refund
	return res, nil
}

// Confirm moves accepted -> confirmed and settles the simulated
// payment.
func (s *Service) Confirm(ctx context.Context, actorUserID, bookingID int64) (*Result, error) {
	b, client, err := s.bookingForClientActor(ctx, actorUserID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingAccepted {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now().UTC()
	err = s.bookings.Transition(ctx, b.ID, []domain.BookingStatus{domain.BookingAccepted}, repository.StatusChange{
		To:      domain.BookingConfirmed,
		Updates: map[string]any{"pay_status": string(domain.PaymentPaid)},
		Entry: domain.TimelineEntry{
			ActorID:   client.ID,
			ActorRole: domain.RoleClient,
			Note:      "payment confirmed",
			CreatedAt: now,
		},
	})
	if err != nil {
		return nil, s.loserError(ctx, b.ID, err)
	}

	b.Status = domain.BookingConfirmed
	b.Payment.Status = domain.PaymentPaid
	s.emitFor(ctx, b, "booking_confirmed")

	return s.result(b), nil
}

// Start moves accepted/confirmed -> in_progress when the barber
// begins the service.
func (s *Service) Start(ctx context.Context, actorUserID, bookingID int64) (*Result, error) {
	b, barber, err := s.bookingForBarberActor(ctx, actorUserID, bookingID)
	if err != nil {
		return nil, err
	}

	from := []domain.BookingStatus{domain.BookingAccepted, domain.BookingConfirmed}
	if !statusIn(b.Status, from) {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now().UTC()
	err = s.bookings.Transition(ctx, b.ID, from, repository.StatusChange{
		To: domain.BookingInProgress,
		Entry: domain.TimelineEntry{
			ActorID:   barber.ID,
			ActorRole: domain.RoleBarber,
			CreatedAt: now,
		},
	})
	if err != nil {
		return nil, s.loserError(ctx, b.ID, err)
	}

	b.Status = domain.BookingInProgress
	s.emitFor(ctx, b, "booking_started")

	return s.result(b), nil
}

// Complete settles the booking and mirrors it into both parties'
// statistics.
func (s *Service) Complete(ctx context.Context, actorUserID, bookingID int64) (*Result, error) {
	b, barber, err := s.bookingForBarberActor(ctx, actorUserID, bookingID)
	if err != nil {
		return nil, err
	}

	from := []domain.BookingStatus{
		domain.BookingAccepted, domain.BookingConfirmed, domain.BookingInProgress,
	}
	if !statusIn(b.Status, from) {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now().UTC()
	updates := map[string]any{}
	if b.Payment.Status != domain.PaymentPaid {
		// Cash bookings settle at completion.
		updates["pay_status"] = string(domain.PaymentPaid)
	}

	err = s.bookings.Transition(ctx, b.ID, from, repository.StatusChange{
		To:      domain.BookingCompleted,
		Updates: updates,
		Entry: domain.TimelineEntry{
			ActorID:   barber.ID,
			ActorRole: domain.RoleBarber,
			CreatedAt: now,
		},
	})
	if err != nil {
		return nil, s.loserError(ctx, b.ID, err)
	}

	b.Status = domain.BookingCompleted
	b.Payment.Status = domain.PaymentPaid

	if s.stats != nil {
		if err := s.stats.OnCompleted(ctx, b, now); err != nil {
			log.Printf("stats_failed op=complete booking=%d error=%q", b.ID, err)
		}
	}
	s.emitFor(ctx, b, "booking_completed")

	return s.result(b), nil
}

// MarkClientNoShow records a client who never showed up. Only allowed
// once the slot time has passed; the barber is credited a percentage
// of the amount as compensation.
func (s *Service) MarkClientNoShow(ctx context.Context, actorUserID, bookingID int64, waitedMinutes int) (*Result, error) {
	b, barber, err := s.bookingForBarberActor(ctx, actorUserID, bookingID)
	if err != nil {
		return nil, err
	}

	from := []domain.BookingStatus{domain.BookingAccepted, domain.BookingConfirmed}
	if !statusIn(b.Status, from) {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now().UTC()
	if now.Before(b.ScheduledFor) {
		return nil, ErrTooEarly
	}

	compensation := b.Payment.Amount * s.policy.NoShowCompensationPercent / 100

	err = s.bookings.Transition(ctx, b.ID, from, repository.StatusChange{
		To: domain.BookingNoShowClient,
		Entry: domain.TimelineEntry{
			ActorID:   barber.ID,
			ActorRole: domain.RoleBarber,
			Note:      fmt.Sprintf("client no-show, waited %d minutes", waitedMinutes),
			CreatedAt: now,
		},
	})
	if err != nil {
		return nil, s.loserError(ctx, b.ID, err)
	}

	b.Status = domain.BookingNoShowClient

	res := s.result(b)
	res.CompensationAmount = compensation
	res.PenaltyAmount = s.applyPenalty(ctx, penalty.Violation{
		UserID:        b.ClientID,
		UserRole:      domain.RoleClient,
		Type:          domain.PenaltyNoShowClient,
		Severity:      domain.SeverityMajor,
		BookingID:     &b.ID,
		BookingAmount: b.Payment.Amount,
		OccurredAt:    now,
		Details:       fmt.Sprintf("barber waited %d minutes", waitedMinutes),
	})

	if s.stats != nil {
		if err := s.stats.OnClientNoShow(ctx, b, compensation); err != nil {
			log.Printf("stats_failed op=client_no_show booking=%d error=%q", b.ID, err)
		}
	}
	s.emitFor(ctx, b, "booking_no_show_client")

	return res, nil
}

// MarkBarberNoShow records a barber who never showed up, after the
// grace period. The client gets a full refund plus a bonus voucher.
func (s *Service) MarkBarberNoShow(ctx context.Context, actorUserID, bookingID int64, waitedMinutes int) (*Result, error) {
	b, client, err := s.bookingForClientActor(ctx, actorUserID, bookingID)
	if err != nil {
		return nil, err
	}

	from := []domain.BookingStatus{domain.BookingAccepted, domain.BookingConfirmed}
	if !statusIn(b.Status, from) {
		return nil, ErrInvalidStatusTransition
	}

	now := s.now().UTC()
	grace := time.Duration(s.policy.BarberNoShowGraceMin) * time.Minute
	if now.Before(b.ScheduledFor.Add(grace)) {
		return nil, ErrTooEarly
	}

	refund := b.Payment.Amount
	bonus := b.Payment.Amount * s.policy.BarberNoShowBonusPercent / 100

	err = s.bookings.Transition(ctx, b.ID, from, repository.StatusChange{
		To:      domain.BookingNoShowBarber,
		Updates: map[string]any{"pay_status": string(domain.PaymentRefunded)},
		Entry: domain.TimelineEntry{
			ActorID:   client.ID,
			ActorRole: domain.RoleClient,
			Note:      fmt.Sprintf("barber no-show, waited %d minutes", waitedMinutes),
			CreatedAt: now,
		},
	})
	if err != nil {
		return nil, s.loserError(ctx, b.ID, err)
	}

	b.Status = domain.BookingNoShowBarber
	b.Payment.Status = domain.PaymentRefunded

	res := s.result(b)
	res.RefundAmount = refund
	res.CompensationAmount = bonus
	res.PenaltyAmount = s.applyPenalty(ctx, penalty.Violation{
		UserID:        b.BarberID,
		UserRole:      domain.RoleBarber,
		Type:          domain.PenaltyNoShowBarber,
		Severity:      domain.SeverityCritical,
		BookingID:     &b.ID,
		BookingAmount: b.Payment.Amount,
		OccurredAt:    now,
		Details:       fmt.Sprintf("client waited %d minutes", waitedMinutes),
	})

	if s.stats != nil {
		if err := s.stats.OnBarberNoShow(ctx, b, bonus); err != nil {
			log.Printf("stats_failed op=barber_no_show booking=%d error=%q", b.ID, err)
		}
	}
	s.emitFor(ctx, b, "booking_no_show_barber")

	return res, nil
}

// ExpireSweep transitions every pending booking whose deadline has
// passed. Safe to run concurrently with accept/reject: each expiry is
// a conditional update, so a booking accepted mid-sweep is skipped.
func (s *Service) ExpireSweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	rows, err := s.bookings.ListExpiredPending(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range rows {
		if s.expireOne(ctx, &rows[i], now) {
			expired++
		}
	}
	return expired, nil
}

func (s *Service) Get(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	return s.getBooking(ctx, bookingID)
}

func (s *Service) Timeline(ctx context.Context, bookingID int64) ([]domain.TimelineEntry, error) {
	if _, err := s.getBooking(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.bookings.Timeline(ctx, bookingID)
}

// ListForClientUser returns the bookings of the client profile behind
// a user account.
func (s *Service) ListForClientUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	client, err := s.clients.GetByUserID(ctx, userID)
	if err != nil {
		return nil, asLookupErr(err, ErrNotFound)
	}
	return s.bookings.ListByClient(ctx, client.ID, limit, offset)
}

func (s *Service) ListForBarberUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Booking, error) {
	barber, err := s.barbers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, asLookupErr(err, ErrNotFound)
	}
	return s.bookings.ListByBarber(ctx, barber.ID, limit, offset)
}

// expireOne races the conditional update to expired. Losing the race
// means someone accepted, rejected or cancelled first; that is not an
// error. Immediate bookings that just timed out charge the barber a
// no-response penalty.
func (s *Service) expireOne(ctx context.Context, b *domain.Booking, now time.Time) bool {
	err := s.bookings.Transition(ctx, b.ID, []domain.BookingStatus{domain.BookingPending}, repository.StatusChange{
		To: domain.BookingExpired,
		Entry: domain.TimelineEntry{
			ActorRole: domain.RoleSystem,
			Note:      "acceptance deadline passed",
			CreatedAt: now,
		},
	})
	if err != nil {
		if !errors.Is(err, repository.ErrStaleStatus) {
			log.Printf("expire_failed booking=%d error=%q", b.ID, err)
		}
		return false
	}

	b.Status = domain.BookingExpired

	noResponse := time.Duration(s.policy.ImmediateNoResponseMin) * time.Minute
	if b.BookingType == domain.BookingImmediate && now.Sub(b.ExpiresAt) <= noResponse {
		s.applyPenalty(ctx, penalty.Violation{
			UserID:        b.BarberID,
			UserRole:      domain.RoleBarber,
			Type:          domain.PenaltyNoResponseImmediate,
			Severity:      domain.SeverityMinor,
			BookingID:     &b.ID,
			BookingAmount: b.Payment.Amount,
			OccurredAt:    now,
			Details:       "immediate booking expired without a response",
		})
	}

	s.emitFor(ctx, b, "booking_expired")
	return true
}

// applyPenalty is fire-and-forget: the transition already committed,
// so a failed penalty write is logged and retried by ops, never
// surfaced to the caller.
func (s *Service) applyPenalty(ctx context.Context, v penalty.Violation) int64 {
	if s.penalties == nil {
		return 0
	}
	p, err := s.penalties.Apply(ctx, v)
	if err != nil {
		log.Printf("penalty_failed type=%s user=%d error=%q", v.Type, v.UserID, err)
		return 0
	}
	if p == nil {
		return 0
	}
	return p.FinalAmount
}

func (s *Service) getBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, asLookupErr(err, ErrNotFound)
	}
	return b, nil
}

// bookingForBarberActor loads the booking and verifies the acting
// user is its assigned barber. Authorization is checked before any
// status precondition.
func (s *Service) bookingForBarberActor(ctx context.Context, actorUserID, bookingID int64) (*domain.Booking, *domain.Barber, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	barber, err := s.barbers.GetByUserID(ctx, actorUserID)
	if err != nil || barber.ID != b.BarberID {
		return nil, nil, ErrNotAuthorized
	}
	return b, barber, nil
}

func (s *Service) bookingForClientActor(ctx context.Context, actorUserID, bookingID int64) (*domain.Booking, *domain.Client, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	client, err := s.clients.GetByUserID(ctx, actorUserID)
	if err != nil || client.ID != b.ClientID {
		return nil, nil, ErrNotAuthorized
	}
	return b, client, nil
}

// loserError folds a lost conditional update into the caller-facing
// taxonomy: the booking expired under us, or someone else moved it.
func (s *Service) loserError(ctx context.Context, bookingID int64, err error) error {
	if !errors.Is(err, repository.ErrStaleStatus) {
		return err
	}
	current, readErr := s.bookings.GetByID(ctx, bookingID)
	if readErr == nil && current.Status == domain.BookingExpired {
		return ErrBookingExpired
	}
	return ErrInvalidStatusTransition
}

func (s *Service) emitFor(ctx context.Context, b *domain.Booking, eventType string) {
	if s.events == nil {
		return
	}
	client, err := s.clients.GetByID(ctx, b.ClientID)
	if err != nil {
		log.Printf("event_skip booking=%d error=%q", b.ID, err)
		return
	}
	barber, err := s.barbers.GetByID(ctx, b.BarberID)
	if err != nil {
		log.Printf("event_skip booking=%d error=%q", b.ID, err)
		return
	}
	s.events.BookingChanged(b, client.UserID, barber.UserID, eventType)
}

func (s *Service) displayName(ctx context.Context, userID int64) string {
	if s.users == nil {
		return "Cliente"
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil || u.Name == "" {
		return "Cliente"
	}
	return u.Name
}

func (s *Service) result(b *domain.Booking) *Result {
	return &Result{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		Status:        b.Status,
	}
}

func validateCreate(req CreateBookingRequest) error {
	switch req.BookingType {
	case domain.BookingScheduled, domain.BookingImmediate:
	default:
		return ErrValidation
	}

	switch req.LocationType {
	case domain.LocationAtShop:
	case domain.LocationAtHome:
		if req.Address == "" {
			return ErrValidation
		}
	default:
		return ErrValidation
	}

	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		return ErrValidation
	}
	return nil
}

func statusIn(s domain.BookingStatus, set []domain.BookingStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func asLookupErr(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
