package booking

import (
	"github.com/shopspring/decimal"

	"github.com/rahhal-travel/service-booking/internal/domain"
)

// Offering is a priced, bookable object: a catalog package or a custom trip.
type Offering interface {
	// FinalPrice returns the effective price of the offering.
	FinalPrice() decimal.Decimal
	// IsBookable reports whether the offering can be booked at all.
	IsBookable() bool
}

// PricingStrategy computes the total price of a booking request.
type PricingStrategy interface {
	// Resolve returns the total price for booking the offering with the given
	// traveler count.
	Resolve(kind BookingKind, offering Offering, travelers int) (decimal.Decimal, error)
}

// StandardPricingStrategy implements the catalog pricing rules:
// package bookings pay the package's final price per traveler, custom-trip
// bookings pay the quoted trip total regardless of traveler count.
type StandardPricingStrategy struct{}

// NewStandardPricingStrategy creates a new StandardPricingStrategy.
func NewStandardPricingStrategy() *StandardPricingStrategy {
	return &StandardPricingStrategy{}
}

// Resolve computes the booking total with exact two-decimal arithmetic.
func (s *StandardPricingStrategy) Resolve(kind BookingKind, offering Offering, travelers int) (decimal.Decimal, error) {
	if offering == nil {
		return decimal.Zero, domain.NewValidationError("offering is required")
	}
	if travelers < 1 {
		return decimal.Zero, domain.NewValidationError("number of travelers must be at least 1")
	}
	if !offering.IsBookable() {
		return decimal.Zero, domain.NewValidationError("offering is not available for booking")
	}

	switch kind {
	case KindPackage:
		return offering.FinalPrice().Mul(decimal.NewFromInt(int64(travelers))), nil
	case KindCustom:
		// The quoted trip total already covers the whole itinerary.
		return offering.FinalPrice(), nil
	default:
		return decimal.Zero, domain.NewValidationError("booking kind must be package or custom")
	}
}
