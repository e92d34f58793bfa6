package booking

import "errors"

var (
	ErrNotFound                = errors.New("booking not found")
	ErrNotAuthorized           = errors.New("actor may not perform this operation")
	ErrInvalidStatusTransition = errors.New("booking status does not allow this transition")
	ErrBookingExpired          = errors.New("booking acceptance deadline passed")
	ErrTooEarly                = errors.New("too early to mark a no-show")
	ErrValidation              = errors.New("validation error")
)
