package availability

import "errors"

var (
	ErrBarberUnavailable        = errors.New("barber is not active or not verified")
	ErrBarberSuspended          = errors.New("barber is suspended")
	ErrInvalidDate              = errors.New("requested time is not in the future")
	ErrInsufficientAdvanceTime  = errors.New("requested time is too soon")
	ErrBarberNotAvailableAtTime = errors.New("barber schedule is closed at the requested time")
	ErrNoImmediateBookings      = errors.New("barber does not take immediate bookings right now")
	ErrTimeConflict             = errors.New("barber already has a booking in that window")
)
