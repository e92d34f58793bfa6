package pricing

import (
	"cortate/internal/config"
	"cortate/internal/domain"
)

// Quote is the price breakdown of one booking request. Total always
// equals ServicePrice + AddOnsTotal + TransportFee + Commission.
type Quote struct {
	ServicePrice int64 `json:"service_price"`
	AddOnsTotal  int64 `json:"addons_total"`
	TransportFee int64 `json:"transport_fee"`
	Commission   int64 `json:"commission"`
	Total        int64 `json:"total"`
}

type Calculator struct {
	policy *config.Policy
}

func NewCalculator(policy *config.Policy) *Calculator {
	return &Calculator{policy: policy}
}

// Quote computes the total for a service at a location, against the
// barber's published price list. Add-ons the barber has not declared
// are ignored rather than charged.
func (c *Calculator) Quote(barber *domain.Barber, service domain.ServiceType, addOns []domain.AddOn, location domain.LocationType) (*Quote, error) {
	if service != domain.ServiceHaircut && service != domain.ServiceHaircutBeard {
		return nil, ErrInvalidServiceType
	}

	servicePrice := barber.ServicePrice(service)
	if servicePrice <= 0 {
		return nil, ErrInvalidServiceType
	}

	if location == domain.LocationAtHome && barber.ServiceArea == domain.AreaLocal {
		return nil, ErrServiceUnavailable
	}

	var addOnsTotal int64
	for _, a := range addOns {
		if barber.OffersAddOn(a) {
			addOnsTotal += c.policy.AddOnFee
		}
	}

	// Home-only barbers price home service in; only mixed-area
	// barbers charge the transport fee on top.
	var transportFee int64
	if location == domain.LocationAtHome && barber.ServiceArea == domain.AreaBoth {
		transportFee = c.policy.TransportFee
	}

	subtotal := servicePrice + addOnsTotal + transportFee
	commission := subtotal * c.policy.CommissionPercent / 100

	return &Quote{
		ServicePrice: servicePrice,
		AddOnsTotal:  addOnsTotal,
		TransportFee: transportFee,
		Commission:   commission,
		Total:        subtotal + commission,
	}, nil
}
