package repository

import (
	"context"
	"encoding/json"
	"time"

	"cortate/internal/domain"

	"gorm.io/gorm"
)

type BarberRepository struct {
	db *gorm.DB
}

func NewBarberRepository(db *gorm.DB) *BarberRepository {
	return &BarberRepository{db: db}
}

type barberModel struct {
	ID       int64   `gorm:"column:id;primaryKey"`
	UserID   int64   `gorm:"column:user_id"`
	ShopName string  `gorm:"column:shop_name"`
	Address  string  `gorm:"column:address"`
	Lat      float64 `gorm:"column:lat"`
	Lng      float64 `gorm:"column:lng"`
	Phone    string  `gorm:"column:phone"`
	WhatsApp *string `gorm:"column:whatsapp"`

	ServiceArea       string  `gorm:"column:service_area"`
	PriceHaircut      int64   `gorm:"column:price_haircut"`
	PriceHaircutBeard int64   `gorm:"column:price_haircut_beard"`
	DeclaredAddOns    *string `gorm:"column:declared_addons"`

	IsActive         bool       `gorm:"column:is_active"`
	IsVerified       bool       `gorm:"column:is_verified"`
	SuspendedUntil   *time.Time `gorm:"column:suspended_until"`
	AcceptsImmediate bool       `gorm:"column:accepts_immediate"`
	LiveStatus       string     `gorm:"column:live_status"`
	MinAdvanceMin    int        `gorm:"column:min_advance_min"`
	WeekSchedule     *string    `gorm:"column:week_schedule"`

	AcceptedCount    int     `gorm:"column:accepted_count"`
	RejectedCount    int     `gorm:"column:rejected_count"`
	CompletedCount   int     `gorm:"column:completed_count"`
	CancelledCount   int     `gorm:"column:cancelled_count"`
	NoShowCount      int     `gorm:"column:no_show_count"`
	TotalEarnings    int64   `gorm:"column:total_earnings"`
	ReliabilityScore float64 `gorm:"column:reliability_score"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (barberModel) TableName() string { return "barbers" }

func toDomainBarber(m barberModel) *domain.Barber {
	var whatsapp string
	if m.WhatsApp != nil {
		whatsapp = *m.WhatsApp
	}

	var addOns []domain.AddOn
	if m.DeclaredAddOns != nil && *m.DeclaredAddOns != "" {
		_ = json.Unmarshal([]byte(*m.DeclaredAddOns), &addOns)
	}

	var schedule map[string]string
	if m.WeekSchedule != nil && *m.WeekSchedule != "" {
		_ = json.Unmarshal([]byte(*m.WeekSchedule), &schedule)
	}

	return &domain.Barber{
		ID:                m.ID,
		UserID:            m.UserID,
		ShopName:          m.ShopName,
		Address:           m.Address,
		Lat:               m.Lat,
		Lng:               m.Lng,
		Phone:             m.Phone,
		WhatsApp:          whatsapp,
		ServiceArea:       domain.ServiceArea(m.ServiceArea),
		PriceHaircut:      m.PriceHaircut,
		PriceHaircutBeard: m.PriceHaircutBeard,
		DeclaredAddOns:    addOns,
		IsActive:          m.IsActive,
		IsVerified:        m.IsVerified,
		SuspendedUntil:    m.SuspendedUntil,
		AcceptsImmediate:  m.AcceptsImmediate,
		LiveStatus:        domain.LiveStatus(m.LiveStatus),
		MinAdvanceMin:     m.MinAdvanceMin,
		WeekSchedule:      schedule,
		Stats: domain.BarberStats{
			AcceptedCount:    m.AcceptedCount,
			RejectedCount:    m.RejectedCount,
			CompletedCount:   m.CompletedCount,
			CancelledCount:   m.CancelledCount,
			NoShowCount:      m.NoShowCount,
			TotalEarnings:    m.TotalEarnings,
			ReliabilityScore: m.ReliabilityScore,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toBarberModel(b *domain.Barber) barberModel {
	var whatsapp *string
	if b.WhatsApp != "" {
		v := b.WhatsApp
		whatsapp = &v
	}

	var addOns *string
	if len(b.DeclaredAddOns) > 0 {
		raw, _ := json.Marshal(b.DeclaredAddOns)
		v := string(raw)
		addOns = &v
	}

	var schedule *string
	if len(b.WeekSchedule) > 0 {
		raw, _ := json.Marshal(b.WeekSchedule)
		v := string(raw)
		schedule = &v
	}

	return barberModel{
		ID:                b.ID,
		UserID:            b.UserID,
		ShopName:          b.ShopName,
		Address:           b.Address,
		Lat:               b.Lat,
		Lng:               b.Lng,
		Phone:             b.Phone,
		WhatsApp:          whatsapp,
		ServiceArea:       string(b.ServiceArea),
		PriceHaircut:      b.PriceHaircut,
		PriceHaircutBeard: b.PriceHaircutBeard,
		DeclaredAddOns:    addOns,
		IsActive:          b.IsActive,
		IsVerified:        b.IsVerified,
		SuspendedUntil:    b.SuspendedUntil,
		AcceptsImmediate:  b.AcceptsImmediate,
		LiveStatus:        string(b.LiveStatus),
		MinAdvanceMin:     b.MinAdvanceMin,
		WeekSchedule:      schedule,
		AcceptedCount:     b.Stats.AcceptedCount,
		RejectedCount:     b.Stats.RejectedCount,
		CompletedCount:    b.Stats.CompletedCount,
		CancelledCount:    b.Stats.CancelledCount,
		NoShowCount:       b.Stats.NoShowCount,
		TotalEarnings:     b.Stats.TotalEarnings,
		ReliabilityScore:  b.Stats.ReliabilityScore,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func (r *BarberRepository) Create(ctx context.Context, b *domain.Barber) error {
	m := toBarberModel(b)
	tx := r.db.WithContext(ctx).Create(&m)
	if tx.Error != nil {
		return tx.Error
	}
	*b = *toDomainBarber(m)
	return nil
}

func (r *BarberRepository) GetByID(ctx context.Context, id int64) (*domain.Barber, error) {
	var m barberModel
	tx := r.db.WithContext(ctx).First(&m, id)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBarber(m), nil
}

func (r *BarberRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Barber, error) {
	var m barberModel
	tx := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return toDomainBarber(m), nil
}

// BarberStatDelta is an increment-style statistics update. Zero
// fields leave the counter untouched.
type BarberStatDelta struct {
	Accepted  int
	Rejected  int
	Completed int
	Cancelled int
	NoShow    int
	Earnings  int64
}

// ApplyStats adds the delta to the barber's rolling counters.
func (r *BarberRepository) ApplyStats(ctx context.Context, barberID int64, d BarberStatDelta) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if d.Accepted != 0 {
		updates["accepted_count"] = gorm.Expr("accepted_count + ?", d.Accepted)
	}
	if d.Rejected != 0 {
		updates["rejected_count"] = gorm.Expr("rejected_count + ?", d.Rejected)
	}
	if d.Completed != 0 {
		updates["completed_count"] = gorm.Expr("completed_count + ?", d.Completed)
	}
	if d.Cancelled != 0 {
		updates["cancelled_count"] = gorm.Expr("cancelled_count + ?", d.Cancelled)
	}
	if d.NoShow != 0 {
		updates["no_show_count"] = gorm.Expr("no_show_count + ?", d.NoShow)
	}
	if d.Earnings != 0 {
		updates["total_earnings"] = gorm.Expr("total_earnings + ?", d.Earnings)
	}

	return r.db.WithContext(ctx).Model(&barberModel{}).
		Where("id = ?", barberID).
		Updates(updates).Error
}

// Suspend sets the suspension deadline and drops the reliability
// score, both as one update. The score never goes below 1.0.
func (r *BarberRepository) Suspend(ctx context.Context, barberID int64, until time.Time, reliabilityDrop float64) error {
	clamp := "GREATEST(reliability_score - ?, 1.0)"
	if r.db.Dialector.Name() == "sqlite" {
		clamp = "MAX(reliability_score - ?, 1.0)"
	}
	return r.db.WithContext(ctx).Model(&barberModel{}).
		Where("id = ?", barberID).
		Updates(map[string]any{
			"suspended_until":   until,
			"reliability_score": gorm.Expr(clamp, reliabilityDrop),
			"updated_at":        time.Now().UTC(),
		}).Error
}
