package booking

import (
	"time"

	"cortate/internal/domain"
)

type CreateBookingRequest struct {
	BarberID      int64               `json:"barber_id" binding:"required"`
	ServiceType   domain.ServiceType  `json:"service_type" binding:"required"`
	AddOns        []domain.AddOn      `json:"addons"`
	BookingType   domain.BookingType  `json:"booking_type" binding:"required"`
	ScheduledFor  time.Time           `json:"scheduled_for"`
	LocationType  domain.LocationType `json:"location_type" binding:"required"`
	Address       string              `json:"address"`
	LocationNotes string              `json:"location_notes"`
	Lat           float64             `json:"lat"`
	Lng           float64             `json:"lng"`
	PaymentMethod string              `json:"payment_method"`
	Note          string              `json:"note"`
}

type CancelBookingRequest struct {
	Reason domain.CancelReason `json:"reason" binding:"required"`
}

type NoShowRequest struct {
	WaitedMinutes int `json:"waited_minutes"`
}

// Result is returned by every mutating operation so the caller can
// render the outcome without re-querying.
type Result struct {
	BookingID          int64                `json:"booking_id"`
	BookingNumber      string               `json:"booking_number"`
	Status             domain.BookingStatus `json:"status"`
	PenaltyAmount      int64                `json:"penalty_amount,omitempty"`
	RefundAmount       int64                `json:"refund_amount,omitempty"`
	CompensationAmount int64                `json:"compensation_amount,omitempty"`
}

// CreateResult wraps the new booking with the barber-facing WhatsApp
// template and the time left for the barber to respond.
type CreateResult struct {
	Booking             *domain.Booking `json:"booking"`
	WhatsAppMessage     string          `json:"whatsapp_message"`
	WhatsAppURL         string          `json:"whatsapp_url,omitempty"`
	TimeToExpirationSec int64           `json:"time_to_expiration_sec"`
}
