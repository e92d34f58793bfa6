package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cortate/internal/domain"

	"gorm.io/gorm"
)

// ErrStaleStatus is returned by Transition when the conditional update
// matched no row: the booking moved out of the expected status between
// the caller's read and the commit.
var ErrStaleStatus = errors.New("booking status changed concurrently")

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	BookingNumber string    `gorm:"column:booking_number"`
	ClientID      int64     `gorm:"column:client_id"`
	BarberID      int64     `gorm:"column:barber_id"`
	ServiceType   string    `gorm:"column:service_type"`
	AddOns        *string   `gorm:"column:addons"`
	BookingType   string    `gorm:"column:booking_type"`
	ScheduledFor  time.Time `gorm:"column:scheduled_for"`
	DurationMin   int       `gorm:"column:duration_min"`
	LocationType  string    `gorm:"column:location_type"`
	Address       *string   `gorm:"column:address"`
	LocationNotes *string   `gorm:"column:location_notes"`
	Lat           float64   `gorm:"column:lat"`
	Lng           float64   `gorm:"column:lng"`
	Status        string    `gorm:"column:status"`

	PayAmount       int64  `gorm:"column:pay_amount"`
	PayServicePrice int64  `gorm:"column:pay_service_price"`
	PayAddOnsPrice  int64  `gorm:"column:pay_addons_price"`
	PayTransportFee int64  `gorm:"column:pay_transport_fee"`
	PayCommission   int64  `gorm:"column:pay_commission"`
	PayTax          int64  `gorm:"column:pay_tax"`
	PayDiscount     int64  `gorm:"column:pay_discount"`
	PayMethod       string `gorm:"column:pay_method"`
	PayStatus       string `gorm:"column:pay_status"`

	ExpiresAt       time.Time `gorm:"column:expires_at"`
	ResponseTimeMin *int      `gorm:"column:response_time_min"`

	CancelledByID *int64     `gorm:"column:cancelled_by_id"`
	CancelRole    *string    `gorm:"column:cancel_role"`
	CancelReason  *string    `gorm:"column:cancel_reason"`
	CancelPenalty *int64     `gorm:"column:cancel_penalty_amount"`
	CancelPercent *int64     `gorm:"column:cancel_penalty_percent"`
	CancelRefund  *int64     `gorm:"column:cancel_refund_amount"`
	CancelledAt   *time.Time `gorm:"column:cancelled_at"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "bookings" }

type timelineModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	BookingID int64     `gorm:"column:booking_id"`
	Status    string    `gorm:"column:status"`
	ActorID   int64     `gorm:"column:actor_id"`
	ActorRole string    `gorm:"column:actor_role"`
	Note      *string   `gorm:"column:note"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (timelineModel) TableName() string { return "booking_timeline" }

func toDomainBooking(m bookingModel) *domain.Booking {
	var addOns []domain.AddOn
	if m.AddOns != nil && *m.AddOns != "" {
		_ = json.Unmarshal([]byte(*m.AddOns), &addOns)
	}

	var address, notes string
	if m.Address != nil {
		address = *m.Address
	}
	if m.LocationNotes != nil {
		notes = *m.LocationNotes
	}

	b := &domain.Booking{
		ID:            m.ID,
		BookingNumber: m.BookingNumber,
		ClientID:      m.ClientID,
		BarberID:      m.BarberID,
		ServiceType:   domain.ServiceType(m.ServiceType),
		AddOns:        addOns,
		BookingType:   domain.BookingType(m.BookingType),
		ScheduledFor:  m.ScheduledFor,
		DurationMin:   m.DurationMin,
		LocationType:  domain.LocationType(m.LocationType),
		Address:       address,
		LocationNotes: notes,
		Lat:           m.Lat,
		Lng:           m.Lng,
		Status:        domain.BookingStatus(m.Status),
		Payment: domain.Payment{
			Amount:       m.PayAmount,
			ServicePrice: m.PayServicePrice,
			AddOnsPrice:  m.PayAddOnsPrice,
			TransportFee: m.PayTransportFee,
			Commission:   m.PayCommission,
			Tax:          m.PayTax,
			Discount:     m.PayDiscount,
			Method:       m.PayMethod,
			Status:       domain.PaymentStatus(m.PayStatus),
		},
		ExpiresAt:       m.ExpiresAt,
		ResponseTimeMin: m.ResponseTimeMin,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}

	if m.CancelledByID != nil && m.CancelledAt != nil {
		c := &domain.Cancellation{
			CancelledByID: *m.CancelledByID,
			CancelledAt:   *m.CancelledAt,
		}
		if m.CancelRole != nil {
			c.Role = domain.UserRole(*m.CancelRole)
		}
		if m.CancelReason != nil {
			c.Reason = domain.CancelReason(*m.CancelReason)
		}
		if m.CancelPenalty != nil {
			c.PenaltyAmount = *m.CancelPenalty
		}
		if m.CancelPercent != nil {
			c.PenaltyPercent = *m.CancelPercent
		}
		if m.CancelRefund != nil {
			c.RefundAmount = *m.CancelRefund
		}
		b.Cancellation = c
	}

	return b
}

func toBookingModel(b *domain.Booking) bookingModel {
	var addOns *string
	if len(b.AddOns) > 0 {
		raw, _ := json.Marshal(b.AddOns)
		v := string(raw)
		addOns = &v
	}

	var address, notes *string
	if b.Address != "" {
		v := b.Address
		address = &v
	}
	if b.LocationNotes != "" {
		v := b.LocationNotes
		notes = &v
	}

	return bookingModel{
		ID:            b.ID,
		BookingNumber: b.BookingNumber,
		ClientID:      b.ClientID,
		BarberID:      b.BarberID,
		ServiceType:   string(b.ServiceType),
		AddOns:        addOns,
		BookingType:   string(b.BookingType),
		ScheduledFor:  b.ScheduledFor,
		DurationMin:   b.DurationMin,
		LocationType:  string(b.LocationType),
		Address:       address,
		LocationNotes: notes,
		Lat:           b.Lat,
		Lng:           b.Lng,
		Status:        string(b.Status),

		PayAmount:       b.Payment.Amount,
		PayServicePrice: b.Payment.ServicePrice,
		PayAddOnsPrice:  b.Payment.AddOnsPrice,
		PayTransportFee: b.Payment.TransportFee,
		PayCommission:   b.Payment.Commission,
		PayTax:          b.Payment.Tax,
		PayDiscount:     b.Payment.Discount,
		PayMethod:       b.Payment.Method,
		PayStatus:       string(b.Payment.Status),

		ExpiresAt:       b.ExpiresAt,
		ResponseTimeMin: b.ResponseTimeMin,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func statusStrings(in []domain.BookingStatus) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, string(s))
	}
	return out
}

// Create inserts the booking and its initial timeline entry in one
// transaction, then writes back the generated id and booking number.
func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking, entry domain.TimelineEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := toBookingModel(b)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}

		m.BookingNumber = domain.FormatBookingNumber(m.ID)
		if err := tx.Model(&bookingModel{}).Where("id = ?", m.ID).
			Update("booking_number", m.BookingNumber).Error; err != nil {
			return err
		}

		entry.BookingID = m.ID
		if err := insertTimeline(tx, entry); err != nil {
			return err
		}

		*b = *toDomainBooking(m)
		return nil
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var m bookingModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBooking(m), nil
}

// StatusChange carries everything one lifecycle transition writes:
// the target status, any extra column updates, and the timeline entry
// that documents it.
type StatusChange struct {
	To      domain.BookingStatus
	Updates map[string]any
	Entry   domain.TimelineEntry
}

// Transition is the conditional-update primitive the state machine is
// built on: UPDATE ... WHERE id = ? AND status IN (from). When no row
// matches, the caller lost the race and gets ErrStaleStatus; nothing
// is written, including the timeline entry.
func (r *BookingRepository) Transition(ctx context.Context, bookingID int64, from []domain.BookingStatus, ch StatusChange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"status":     string(ch.To),
			"updated_at": time.Now().UTC(),
		}
		for k, v := range ch.Updates {
			updates[k] = v
		}

		res := tx.Model(&bookingModel{}).
			Where("id = ? AND status IN ?", bookingID, statusStrings(from)).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		ch.Entry.BookingID = bookingID
		ch.Entry.Status = ch.To
		return insertTimeline(tx, ch.Entry)
	})
}

func insertTimeline(tx *gorm.DB, e domain.TimelineEntry) error {
	var note *string
	if e.Note != "" {
		v := e.Note
		note = &v
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return tx.Create(&timelineModel{
		BookingID: e.BookingID,
		Status:    string(e.Status),
		ActorID:   e.ActorID,
		ActorRole: string(e.ActorRole),
		Note:      note,
		CreatedAt: created,
	}).Error
}

// Timeline returns the append-only status history, oldest first.
func (r *BookingRepository) Timeline(ctx context.Context, bookingID int64) ([]domain.TimelineEntry, error) {
	var rows []timelineModel
	tx := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("id ASC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.TimelineEntry, 0, len(rows))
	for _, m := range rows {
		var note string
		if m.Note != nil {
			note = *m.Note
		}
		out = append(out, domain.TimelineEntry{
			ID:        m.ID,
			BookingID: m.BookingID,
			Status:    domain.BookingStatus(m.Status),
			ActorID:   m.ActorID,
			ActorRole: domain.UserRole(m.ActorRole),
			Note:      note,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

// CountOverlapping counts active bookings of the barber whose
// [scheduled_for - duration, scheduled_for + duration) window overlaps
// the given one.
func (r *BookingRepository) CountOverlapping(ctx context.Context, barberID int64, windowStart, windowEnd time.Time) (int64, error) {
	var cnt int64
	q := `
SELECT COUNT(1)
FROM bookings
WHERE barber_id = ?
  AND status IN ?
  AND scheduled_for < ?
  AND ? < scheduled_for + (duration_min * INTERVAL '1 minute')
`
	if r.db.Dialector.Name() == "sqlite" {
		q = `
SELECT COUNT(1)
FROM bookings
WHERE barber_id = ?
  AND status IN ?
  AND scheduled_for < ?
  AND ? < datetime(scheduled_for, '+' || duration_min || ' minutes')
`
	}
	tx := r.db.WithContext(ctx).
		Raw(q, barberID, statusStrings(domain.ActiveStatuses()), windowEnd, windowStart).
		Scan(&cnt)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return cnt, nil
}

// ListExpiredPending returns pending bookings whose deadline passed.
func (r *BookingRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	var rows []bookingModel
	tx := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", string(domain.BookingPending), now).
		Order("expires_at ASC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}

// CountRejectedSince counts bookings the barber rejected after the
// given instant, for the rejection-abuse threshold.
func (r *BookingRepository) CountRejectedSince(ctx context.Context, barberID int64, since time.Time) (int64, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&bookingModel{}).
		Where("barber_id = ? AND status = ? AND updated_at >= ?",
			barberID, string(domain.BookingRejected), since).
		Count(&cnt)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return cnt, nil
}

// ListByClient returns the client's bookings, newest first.
func (r *BookingRepository) ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]domain.Booking, error) {
	return r.list(ctx, "client_id", clientID, limit, offset)
}

// ListByBarber returns the barber's bookings, newest first.
func (r *BookingRepository) ListByBarber(ctx context.Context, barberID int64, limit, offset int) ([]domain.Booking, error) {
	return r.list(ctx, "barber_id", barberID, limit, offset)
}

func (r *BookingRepository) list(ctx context.Context, column string, id int64, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []bookingModel
	tx := r.db.WithContext(ctx).
		Where(column+" = ?", id).
		Order("scheduled_for DESC").
		Limit(limit).Offset(offset).
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainBooking(m))
	}
	return out, nil
}
