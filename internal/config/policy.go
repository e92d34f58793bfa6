package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultPendingExpireScheduledMin = "15"
	defaultPendingExpireImmediateMin = "5"
	defaultImmediatePrepMin          = "15"
	defaultMinAdvanceMin             = "60"
	defaultAddOnFee                  = "3000"
	defaultTransportFee              = "5000"
	defaultCommissionPercent         = "10"
	defaultRejectionDailyThreshold   = "3"
	defaultScheduledFreeCancelMin    = "120"
	defaultImmediateFreeCancelMin    = "10"
	defaultLateCancelPenaltyPercent  = "20"
	defaultBarberNoShowGraceMin      = "15"
	defaultNoShowCompensationPercent = "50"
	defaultBarberNoShowBonusPercent  = "20"
	defaultSweepIntervalMin          = "1"
	defaultImmediateNoResponseMin    = "5"
	defaultPenaltyExpireMonths       = "6"
)

// Policy holds every tunable threshold and fee of the booking core.
// It is built once at startup and passed into each component; nothing
// reads these values from the environment afterwards.
type Policy struct {
	// Pending bookings auto-expire after these offsets from creation.
	PendingExpireScheduledMin int
	PendingExpireImmediateMin int

	// Immediate bookings are scheduled now + this preparation offset.
	ImmediatePrepMin int

	// Fallback minimum advance for scheduled bookings when the barber
	// has not configured their own.
	MinAdvanceMin int

	// Flat fees in CLP. No fractional currency units.
	AddOnFee     int64
	TransportFee int64

	// Platform commission, percent of service+addons+transport.
	CommissionPercent int64

	// Rejections within a rolling 24h that trigger a penalty.
	RejectionDailyThreshold int

	// Free-cancellation windows (minutes before scheduledFor) and the
	// percentage of the booking amount charged when cancelling inside.
	ScheduledFreeCancelMin   int
	ImmediateFreeCancelMin   int
	LateCancelPenaltyPercent int64

	// Client must wait this long past scheduledFor before marking a
	// barber no-show.
	BarberNoShowGraceMin int

	// Percent of the booking amount credited to the barber when the
	// client no-shows, and the bonus voucher percent for the client
	// when the barber no-shows (on top of the full refund).
	NoShowCompensationPercent int64
	BarberNoShowBonusPercent  int64

	SweepIntervalMin int

	// An expired immediate booking counts as "no response" only if it
	// expired within this window of its creation.
	ImmediateNoResponseMin int

	// Unresolved penalties auto-void after this many months.
	PenaltyExpireMonths int

	// When true the conflict window for immediate bookings uses the
	// preparation offset instead of the nominal service duration.
	ImmediateConflictUsesPrep bool
}

func LoadPolicy() (*Policy, error) {
	p := &Policy{}

	var err error
	if p.PendingExpireScheduledMin, err = parseIntEnv("PENDING_EXPIRE_SCHEDULED_MIN", defaultPendingExpireScheduledMin); err != nil {
		return nil, err
	}
	if p.PendingExpireImmediateMin, err = parseIntEnv("PENDING_EXPIRE_IMMEDIATE_MIN", defaultPendingExpireImmediateMin); err != nil {
		return nil, err
	}
	if p.ImmediatePrepMin, err = parseIntEnv("IMMEDIATE_PREP_MIN", defaultImmediatePrepMin); err != nil {
		return nil, err
	}
	if p.MinAdvanceMin, err = parseIntEnv("MIN_ADVANCE_MIN", defaultMinAdvanceMin); err != nil {
		return nil, err
	}
	if p.AddOnFee, err = parseAmountEnv("ADDON_FEE", defaultAddOnFee); err != nil {
		return nil, err
	}
	if p.TransportFee, err = parseAmountEnv("TRANSPORT_FEE", defaultTransportFee); err != nil {
		return nil, err
	}
	if p.CommissionPercent, err = parseAmountEnv("COMMISSION_PERCENT", defaultCommissionPercent); err != nil {
		return nil, err
	}
	if p.RejectionDailyThreshold, err = parseIntEnv("REJECTION_DAILY_THRESHOLD", defaultRejectionDailyThreshold); err != nil {
		return nil, err
	}
	if p.ScheduledFreeCancelMin, err = parseIntEnv("SCHEDULED_FREE_CANCEL_MIN", defaultScheduledFreeCancelMin); err != nil {
		return nil, err
	}
	if p.ImmediateFreeCancelMin, err = parseIntEnv("IMMEDIATE_FREE_CANCEL_MIN", defaultImmediateFreeCancelMin); err != nil {
		return nil, err
	}
	if p.LateCancelPenaltyPercent, err = parseAmountEnv("LATE_CANCEL_PENALTY_PERCENT", defaultLateCancelPenaltyPercent); err != nil {
		return nil, err
	}
	if p.BarberNoShowGraceMin, err = parseIntEnv("BARBER_NO_SHOW_GRACE_MIN", defaultBarberNoShowGraceMin); err != nil {
		return nil, err
	}
	if p.NoShowCompensationPercent, err = parseAmountEnv("NO_SHOW_COMPENSATION_PERCENT", defaultNoShowCompensationPercent); err != nil {
		return nil, err
	}
	if p.BarberNoShowBonusPercent, err = parseAmountEnv("BARBER_NO_SHOW_BONUS_PERCENT", defaultBarberNoShowBonusPercent); err != nil {
		return nil, err
	}
	if p.SweepIntervalMin, err = parseIntEnv("SWEEP_INTERVAL_MIN", defaultSweepIntervalMin); err != nil {
		return nil, err
	}
	if p.ImmediateNoResponseMin, err = parseIntEnv("IMMEDIATE_NO_RESPONSE_MIN", defaultImmediateNoResponseMin); err != nil {
		return nil, err
	}
	if p.PenaltyExpireMonths, err = parseIntEnv("PENALTY_EXPIRE_MONTHS", defaultPenaltyExpireMonths); err != nil {
		return nil, err
	}

	p.ImmediateConflictUsesPrep = strings.EqualFold(strings.TrimSpace(os.Getenv("IMMEDIATE_CONFLICT_USES_PREP")), "true")

	return p, nil
}

// DefaultPolicy returns the production defaults without touching the
// environment. Tests build variations from this.
func DefaultPolicy() *Policy {
	return &Policy{
		PendingExpireScheduledMin: 15,
		PendingExpireImmediateMin: 5,
		ImmediatePrepMin:          15,
		MinAdvanceMin:             60,
		AddOnFee:                  3000,
		TransportFee:              5000,
		CommissionPercent:         10,
		RejectionDailyThreshold:   3,
		ScheduledFreeCancelMin:    120,
		ImmediateFreeCancelMin:    10,
		LateCancelPenaltyPercent:  20,
		BarberNoShowGraceMin:      15,
		NoShowCompensationPercent: 50,
		BarberNoShowBonusPercent:  20,
		SweepIntervalMin:          1,
		ImmediateNoResponseMin:    5,
		PenaltyExpireMonths:       6,
	}
}

func parseIntEnv(key, fallback string) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid %s=%q: must be >= 0", key, raw)
	}
	return v, nil
}

func parseAmountEnv(key, fallback string) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid %s=%q: must be >= 0", key, raw)
	}
	return v, nil
}
