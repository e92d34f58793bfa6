package pricing

import "errors"

var (
	ErrInvalidServiceType = errors.New("service type not supported or not priced by barber")
	ErrServiceUnavailable = errors.New("barber does not serve the requested location")
)
