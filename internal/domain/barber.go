package domain

import "time"

type ServiceArea string

const (
	AreaLocal ServiceArea = "local"
	AreaHome  ServiceArea = "home"
	AreaBoth  ServiceArea = "both"
)

type LiveStatus string

const (
	LiveAvailable LiveStatus = "available"
	LiveBusy      LiveStatus = "busy"
	LiveOffline   LiveStatus = "offline"
)

// BarberStats are rolling counters updated after each lifecycle event.
// They are only ever mutated through increment-style repository calls.
type BarberStats struct {
	AcceptedCount    int     `json:"accepted_count"`
	RejectedCount    int     `json:"rejected_count"`
	CompletedCount   int     `json:"completed_count"`
	CancelledCount   int     `json:"cancelled_count"`
	NoShowCount      int     `json:"no_show_count"`
	TotalEarnings    int64   `json:"total_earnings"`
	ReliabilityScore float64 `json:"reliability_score"`
}

type Barber struct {
	ID       int64   `json:"id"`
	UserID   int64   `json:"user_id"`
	ShopName string  `json:"shop_name"`
	Address  string  `json:"address"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
	Phone    string  `json:"phone"`
	WhatsApp string  `json:"whatsapp,omitempty"`

	ServiceArea       ServiceArea `json:"service_area"`
	PriceHaircut      int64       `json:"price_haircut"`
	PriceHaircutBeard int64       `json:"price_haircut_beard"`
	DeclaredAddOns    []AddOn     `json:"declared_addons,omitempty"`

	IsActive         bool       `json:"is_active"`
	IsVerified       bool       `json:"is_verified"`
	SuspendedUntil   *time.Time `json:"suspended_until,omitempty"`
	AcceptsImmediate bool       `json:"accepts_immediate"`
	LiveStatus       LiveStatus `json:"live_status"`

	// Minimum advance for scheduled bookings, minutes. 0 means "use
	// the platform default".
	MinAdvanceMin int `json:"min_advance_min,omitempty"`

	// Weekly schedule keyed by lowercase english weekday, value
	// "HH:MM-HH:MM". Missing or empty day means closed.
	WeekSchedule map[string]string `json:"week_schedule,omitempty"`

	Stats BarberStats `json:"stats"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SuspendedAt reports whether the barber is suspended at the given
// instant.
func (b *Barber) SuspendedAt(now time.Time) bool {
	return b.SuspendedUntil != nil && now.Before(*b.SuspendedUntil)
}

// ServicePrice returns the published price for a service, 0 when the
// service is not offered.
func (b *Barber) ServicePrice(s ServiceType) int64 {
	switch s {
	case ServiceHaircut:
		return b.PriceHaircut
	case ServiceHaircutBeard:
		return b.PriceHaircutBeard
	default:
		return 0
	}
}

// OffersAddOn reports whether the barber has declared the add-on.
func (b *Barber) OffersAddOn(a AddOn) bool {
	for _, declared := range b.DeclaredAddOns {
		if declared == a {
			return true
		}
	}
	return false
}
