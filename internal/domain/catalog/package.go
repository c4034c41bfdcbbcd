package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PackageType classifies a catalog package.
type PackageType string

const (
	PackageTypeFamily    PackageType = "family"
	PackageTypeAdventure PackageType = "adventure"
	PackageTypeCultural  PackageType = "cultural"
	PackageTypeHoneymoon PackageType = "honeymoon"
	PackageTypeReligious PackageType = "religious"
)

// Package is a pre-assembled trip offering with a fixed price. The booking
// core treats it as a read-only price source; catalog management lives in a
// separate back office.
type Package struct {
	ID               uuid.UUID
	Title            string
	Type             PackageType
	ShortDescription string
	DurationDays     int
	BasePrice        decimal.Decimal
	DiscountPrice    *decimal.Decimal
	IsFeatured       bool
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FinalPrice returns the discount price when set, otherwise the base price.
func (p *Package) FinalPrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.BasePrice
}

// IsBookable reports whether the package can be booked.
func (p *Package) IsBookable() bool {
	return p.IsActive
}
