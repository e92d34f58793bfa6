package repository

import (
	"context"
	"time"

	"cortate/internal/domain"

	"gorm.io/gorm"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

type clientModel struct {
	ID            int64 `gorm:"column:id;primaryKey"`
	UserID        int64 `gorm:"column:user_id"`
	CreditBalance int64 `gorm:"column:credit_balance"`

	CompletedCount int        `gorm:"column:completed_count"`
	CancelledCount int        `gorm:"column:cancelled_count"`
	NoShowCount    int        `gorm:"column:no_show_count"`
	TotalSpent     int64      `gorm:"column:total_spent"`
	LastBookingAt  *time.Time `gorm:"column:last_booking_at"`
	LastBarberID   *int64     `gorm:"column:last_barber_id"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (clientModel) TableName() string { return "clients" }

func toDomainClient(m clientModel) *domain.Client {
	return &domain.Client{
		ID:            m.ID,
		UserID:        m.UserID,
		CreditBalance: m.CreditBalance,
		Stats: domain.ClientStats{
			CompletedCount: m.CompletedCount,
			CancelledCount: m.CancelledCount,
			NoShowCount:    m.NoShowCount,
			TotalSpent:     m.TotalSpent,
			LastBookingAt:  m.LastBookingAt,
			LastBarberID:   m.LastBarberID,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) error {
	m := clientModel{
		UserID:        c.UserID,
		CreditBalance: c.CreditBalance,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*c = *toDomainClient(m)
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	var m clientModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainClient(m), nil
}

func (r *ClientRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Client, error) {
	var m clientModel
	tx := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainClient(m), nil
}

// ClientStatDelta is an increment-style statistics update for a
// client. Pointer fields overwrite when non-nil.
type ClientStatDelta struct {
	Completed     int
	Cancelled     int
	NoShow        int
	Spent         int64
	Credit        int64
	LastBookingAt *time.Time
	LastBarberID  *int64
}

// ApplyStats adds the delta to the client's rolling counters.
func (r *ClientRepository) ApplyStats(ctx context.Context, clientID int64, d ClientStatDelta) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if d.Completed != 0 {
		updates["completed_count"] = gorm.Expr("completed_count + ?", d.Completed)
	}
	if d.Cancelled != 0 {
		updates["cancelled_count"] = gorm.Expr("cancelled_count + ?", d.Cancelled)
	}
	if d.NoShow != 0 {
		updates["no_show_count"] = gorm.Expr("no_show_count + ?", d.NoShow)
	}
	if d.Spent != 0 {
		updates["total_spent"] = gorm.Expr("total_spent + ?", d.Spent)
	}
	if d.Credit != 0 {
		updates["credit_balance"] = gorm.Expr("credit_balance + ?", d.Credit)
	}
	if d.LastBookingAt != nil {
		updates["last_booking_at"] = *d.LastBookingAt
	}
	if d.LastBarberID != nil {
		updates["last_barber_id"] = *d.LastBarberID
	}

	return r.db.WithContext(ctx).Model(&clientModel{}).
		Where("id = ?", clientID).
		Updates(updates).Error
}
