package domain

import "time"

type PenaltyType string

const (
	PenaltyNoShowClient        PenaltyType = "no_show_client"
	PenaltyNoShowBarber        PenaltyType = "no_show_barber"
	PenaltyLateCancelClient    PenaltyType = "late_cancellation_client"
	PenaltyLateCancelBarber    PenaltyType = "late_cancellation_barber"
	PenaltyRejectionAbuse      PenaltyType = "rejection_abuse"
	PenaltyNoResponseImmediate PenaltyType = "no_response_immediate"
)

type PenaltySeverity string

const (
	SeverityMinor    PenaltySeverity = "minor"
	SeverityModerate PenaltySeverity = "moderate"
	SeverityMajor    PenaltySeverity = "major"
	SeverityCritical PenaltySeverity = "critical"
)

type PenaltyStatus string

const (
	PenaltyActive   PenaltyStatus = "active"
	PenaltyResolved PenaltyStatus = "resolved"
	PenaltyDisputed PenaltyStatus = "disputed"
	PenaltyWaived   PenaltyStatus = "waived"
	PenaltyVoided   PenaltyStatus = "expired"
)

// Penalty is created by the penalty engine as a side effect of a
// booking transition. The (BookingID, Type) pair is the idempotency
// key: one penalty per qualifying incident.
type Penalty struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	UserRole    UserRole        `json:"user_role"`
	Type        PenaltyType     `json:"type"`
	Severity    PenaltySeverity `json:"severity"`
	BaseAmount  int64           `json:"base_amount"`
	FinalAmount int64           `json:"final_amount"`
	Status      PenaltyStatus   `json:"status"`
	BookingID   *int64          `json:"booking_id,omitempty"`
	Details     string          `json:"details,omitempty"`

	// Unresolved penalties auto-void past this instant.
	ExpiresAt time.Time `json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
