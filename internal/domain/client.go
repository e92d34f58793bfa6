package domain

import "time"

// ClientStats are rolling counters mirrored from booking transitions.
type ClientStats struct {
	CompletedCount int        `json:"completed_count"`
	CancelledCount int        `json:"cancelled_count"`
	NoShowCount    int        `json:"no_show_count"`
	TotalSpent     int64      `json:"total_spent"`
	LastBookingAt  *time.Time `json:"last_booking_at,omitempty"`
	LastBarberID   *int64     `json:"last_barber_id,omitempty"`
}

type Client struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`

	// Compensation credits and bonus vouchers land here, in CLP.
	CreditBalance int64 `json:"credit_balance"`

	Stats ClientStats `json:"stats"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
