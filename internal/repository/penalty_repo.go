package repository

import (
	"context"
	"time"

	"cortate/internal/domain"

	"gorm.io/gorm"
)

type PenaltyRepository struct {
	db *gorm.DB
}

func NewPenaltyRepository(db *gorm.DB) *PenaltyRepository {
	return &PenaltyRepository{db: db}
}

type penaltyModel struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	UserID      int64     `gorm:"column:user_id"`
	UserRole    string    `gorm:"column:user_role"`
	Type        string    `gorm:"column:type"`
	Severity    string    `gorm:"column:severity"`
	BaseAmount  int64     `gorm:"column:base_amount"`
	FinalAmount int64     `gorm:"column:final_amount"`
	Status      string    `gorm:"column:status"`
	BookingID   *int64    `gorm:"column:booking_id"`
	Details     *string   `gorm:"column:details"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (penaltyModel) TableName() string { return "penalties" }

func toDomainPenalty(m penaltyModel) *domain.Penalty {
	var details string
	if m.Details != nil {
		details = *m.Details
	}
	return &domain.Penalty{
		ID:          m.ID,
		UserID:      m.UserID,
		UserRole:    domain.UserRole(m.UserRole),
		Type:        domain.PenaltyType(m.Type),
		Severity:    domain.PenaltySeverity(m.Severity),
		BaseAmount:  m.BaseAmount,
		FinalAmount: m.FinalAmount,
		Status:      domain.PenaltyStatus(m.Status),
		BookingID:   m.BookingID,
		Details:     details,
		ExpiresAt:   m.ExpiresAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (r *PenaltyRepository) Create(ctx context.Context, p *domain.Penalty) error {
	var details *string
	if p.Details != "" {
		v := p.Details
		details = &v
	}
	m := penaltyModel{
		UserID:      p.UserID,
		UserRole:    string(p.UserRole),
		Type:        string(p.Type),
		Severity:    string(p.Severity),
		BaseAmount:  p.BaseAmount,
		FinalAmount: p.FinalAmount,
		Status:      string(p.Status),
		BookingID:   p.BookingID,
		Details:     details,
		ExpiresAt:   p.ExpiresAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*p = *toDomainPenalty(m)
	return nil
}

// ExistsForBooking reports whether a penalty of the given type already
// references the booking. This is the per-incident idempotency check.
func (r *PenaltyRepository) ExistsForBooking(ctx context.Context, bookingID int64, t domain.PenaltyType) (bool, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&penaltyModel{}).
		Where("booking_id = ? AND type = ?", bookingID, string(t)).
		Count(&cnt)
	if tx.Error != nil {
		return false, tx.Error
	}
	return cnt > 0, nil
}

// CountRecent counts the user's active penalties of a type created
// after the given instant, for repeat-offense escalation.
func (r *PenaltyRepository) CountRecent(ctx context.Context, userID int64, t domain.PenaltyType, since time.Time) (int64, error) {
	var cnt int64
	tx := r.db.WithContext(ctx).Model(&penaltyModel{}).
		Where("user_id = ? AND type = ? AND status = ? AND created_at >= ?",
			userID, string(t), string(domain.PenaltyActive), since).
		Count(&cnt)
	if tx.Error != nil {
		return 0, tx.Error
	}
	return cnt, nil
}

// ListByUser returns the user's penalties, newest first.
func (r *PenaltyRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Penalty, error) {
	var rows []penaltyModel
	tx := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}

	out := make([]domain.Penalty, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainPenalty(m))
	}
	return out, nil
}

// VoidExpired moves unresolved penalties past their deadline to the
// expired status. Returns how many rows changed.
func (r *PenaltyRepository) VoidExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&penaltyModel{}).
		Where("status = ? AND expires_at < ?", string(domain.PenaltyActive), now).
		Updates(map[string]any{
			"status":     string(domain.PenaltyVoided),
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}
