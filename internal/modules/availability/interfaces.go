package availability

import (
	"context"
	"time"
)

// BookingCounter is the narrow read the conflict check needs.
type BookingCounter interface {
	CountOverlapping(ctx context.Context, barberID int64, windowStart, windowEnd time.Time) (int64, error)
}
