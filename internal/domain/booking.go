package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingPending      BookingStatus = "pending"
	BookingAccepted     BookingStatus = "accepted"
	BookingRejected     BookingStatus = "rejected"
	BookingConfirmed    BookingStatus = "confirmed"
	BookingInProgress   BookingStatus = "in_progress"
	BookingCompleted    BookingStatus = "completed"
	BookingCancelled    BookingStatus = "cancelled"
	BookingExpired      BookingStatus = "expired"
	BookingNoShowClient BookingStatus = "no_show_client"
	BookingNoShowBarber BookingStatus = "no_show_barber"
)

// legalTransitions is the full edge set of the booking lifecycle.
// Anything not listed here is rejected; terminal states have no edges.
var legalTransitions = map[BookingStatus][]BookingStatus{
	BookingPending: {
		BookingAccepted, BookingRejected, BookingExpired, BookingCancelled,
	},
	BookingAccepted: {
		BookingConfirmed, BookingInProgress, BookingCancelled,
		BookingNoShowClient, BookingNoShowBarber,
	},
	BookingConfirmed: {
		BookingInProgress, BookingCompleted, BookingCancelled,
		BookingNoShowClient, BookingNoShowBarber,
	},
	BookingInProgress: {
		BookingCompleted, BookingCancelled,
		BookingNoShowClient, BookingNoShowBarber,
	},
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing edges.
func (s BookingStatus) IsTerminal() bool {
	return len(legalTransitions[s]) == 0
}

// ActiveStatuses are the statuses that occupy a barber's time window
// for conflict checking.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{
		BookingPending, BookingAccepted, BookingConfirmed, BookingInProgress,
	}
}

type BookingType string

const (
	BookingScheduled BookingType = "scheduled"
	BookingImmediate BookingType = "immediate"
)

type ServiceType string

const (
	ServiceHaircut      ServiceType = "haircut"
	ServiceHaircutBeard ServiceType = "haircut_beard"
)

// ServiceDurationMin returns the nominal duration of a service in
// minutes. Unknown services get 0.
func ServiceDurationMin(s ServiceType) int {
	switch s {
	case ServiceHaircut:
		return 30
	case ServiceHaircutBeard:
		return 45
	default:
		return 0
	}
}

type AddOn string

const (
	AddOnEyebrows  AddOn = "eyebrows"
	AddOnBeardLine AddOn = "beard_line"
	AddOnHairWash  AddOn = "hair_wash"
	AddOnKidsCut   AddOn = "kids_cut"
)

type LocationType string

const (
	LocationAtShop LocationType = "at_shop"
	LocationAtHome LocationType = "at_client_home"
)

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentProcessing        PaymentStatus = "processing"
	PaymentPaid              PaymentStatus = "paid"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

type CancelReason string

const (
	CancelChangedPlans  CancelReason = "changed_plans"
	CancelEmergency     CancelReason = "emergency"
	CancelBarberRequest CancelReason = "barber_request"
	CancelAdminAction   CancelReason = "admin_action"
	CancelOther         CancelReason = "other"
)

// Payment is the money sub-record of a booking. Amount is fixed at
// creation; refunds and penalties live in separate fields. The
// breakdown always satisfies:
//
//	Amount = ServicePrice + AddOnsPrice + TransportFee + Commission + Tax - Discount
type Payment struct {
	Amount       int64         `json:"amount"`
	ServicePrice int64         `json:"service_price"`
	AddOnsPrice  int64         `json:"addons_price"`
	TransportFee int64         `json:"transport_fee"`
	Commission   int64         `json:"commission"`
	Tax          int64         `json:"tax"`
	Discount     int64         `json:"discount"`
	Method       string        `json:"method"`
	Status       PaymentStatus `json:"status"`
}

// BreakdownConsistent reports whether the breakdown sums to Amount.
func (p Payment) BreakdownConsistent() bool {
	return p.ServicePrice+p.AddOnsPrice+p.TransportFee+p.Commission+p.Tax-p.Discount == p.Amount
}

// Cancellation records who cancelled, why, and what it cost them.
type Cancellation struct {
	CancelledByID  int64        `json:"cancelled_by_id"`
	Role           UserRole     `json:"role"`
	Reason         CancelReason `json:"reason"`
	PenaltyAmount  int64        `json:"penalty_amount"`
	PenaltyPercent int64        `json:"penalty_percent"`
	RefundAmount   int64        `json:"refund_amount"`
	CancelledAt    time.Time    `json:"cancelled_at"`
}

// TimelineEntry is one row of a booking's append-only status history.
type TimelineEntry struct {
	ID        int64         `json:"id"`
	BookingID int64         `json:"booking_id"`
	Status    BookingStatus `json:"status"`
	ActorID   int64         `json:"actor_id"`
	ActorRole UserRole      `json:"actor_role"`
	Note      string        `json:"note,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type Booking struct {
	ID            int64         `json:"id"`
	BookingNumber string        `json:"booking_number"`
	ClientID      int64         `json:"client_id"`
	BarberID      int64         `json:"barber_id"`
	ServiceType   ServiceType   `json:"service_type"`
	AddOns        []AddOn       `json:"addons,omitempty"`
	BookingType   BookingType   `json:"booking_type"`
	ScheduledFor  time.Time     `json:"scheduled_for"`
	DurationMin   int           `json:"duration_min"`
	LocationType  LocationType  `json:"location_type"`
	Address       string        `json:"address,omitempty"`
	LocationNotes string        `json:"location_notes,omitempty"`
	Lat           float64       `json:"lat,omitempty"`
	Lng           float64       `json:"lng,omitempty"`
	Status        BookingStatus `json:"status"`
	Payment       Payment       `json:"payment"`
	ExpiresAt     time.Time     `json:"expires_at"`

	// Minutes between creation and the barber's accept/reject; nil
	// until the barber responds.
	ResponseTimeMin *int `json:"response_time_min,omitempty"`

	Cancellation *Cancellation `json:"cancellation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FormatBookingNumber derives the human-readable sequential number
// from the row id.
func FormatBookingNumber(id int64) string {
	return fmt.Sprintf("CTB-%06d", id)
}
