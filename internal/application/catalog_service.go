package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rahhal-travel/service-booking/internal/domain"
	"github.com/rahhal-travel/service-booking/internal/domain/catalog"
)

// PackageDTO is the response representation of a travel package.
type PackageDTO struct {
	ID               uuid.UUID        `json:"id"`
	Title            string           `json:"title"`
	Type             string           `json:"type"`
	ShortDescription string           `json:"short_description,omitempty"`
	DurationDays     int              `json:"duration_days"`
	BasePrice        decimal.Decimal  `json:"base_price"`
	DiscountPrice    *decimal.Decimal `json:"discount_price,omitempty"`
	FinalPrice       decimal.Decimal  `json:"final_price"`
	IsFeatured       bool             `json:"is_featured"`
	CreatedAt        time.Time        `json:"created_at"`
}

// CustomTripDTO is the response representation of a custom trip.
type CustomTripDTO struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	Title        string          `json:"title"`
	DurationDays int             `json:"duration_days"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CatalogService exposes the bookable offerings: published packages and the
// caller's custom trips.
type CatalogService struct {
	packages catalog.PackageRepository
	trips    catalog.CustomTripRepository
	logger   *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(
	packages catalog.PackageRepository,
	trips catalog.CustomTripRepository,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		packages: packages,
		trips:    trips,
		logger:   logger,
	}
}

// ListPackages retrieves active packages with pagination, featured first.
func (s *CatalogService) ListPackages(ctx context.Context, page, limit int) (*domain.PaginatedResult[PackageDTO], error) {
	packages, total, err := s.packages.ListActive(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]PackageDTO, len(packages))
	for i, pkg := range packages {
		dtos[i] = toPackageDTO(pkg)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetPackage retrieves a single package by ID.
func (s *CatalogService) GetPackage(ctx context.Context, id uuid.UUID) (*PackageDTO, error) {
	pkg, err := s.packages.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toPackageDTO(pkg)
	return &result, nil
}

// ListTrips retrieves the user's custom trips with pagination.
func (s *CatalogService) ListTrips(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[CustomTripDTO], error) {
	trips, total, err := s.trips.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]CustomTripDTO, len(trips))
	for i, trip := range trips {
		dtos[i] = toCustomTripDTO(trip)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetTrip retrieves a custom trip owned by the user. Other users' trips read
// as not found.
func (s *CatalogService) GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*CustomTripDTO, error) {
	trip, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.UserID() != userID {
		return nil, domain.NewNotFoundError("CustomTrip", tripID.String())
	}
	result := toCustomTripDTO(trip)
	return &result, nil
}

// --- Helpers ---

func toPackageDTO(pkg *catalog.Package) PackageDTO {
	return PackageDTO{
		ID:               pkg.ID,
		Title:            pkg.Title,
		Type:             string(pkg.Type),
		ShortDescription: pkg.ShortDescription,
		DurationDays:     pkg.DurationDays,
		BasePrice:        pkg.BasePrice,
		DiscountPrice:    pkg.DiscountPrice,
		FinalPrice:       pkg.FinalPrice(),
		IsFeatured:       pkg.IsFeatured,
		CreatedAt:        pkg.CreatedAt,
	}
}

func toCustomTripDTO(trip *catalog.CustomTrip) CustomTripDTO {
	return CustomTripDTO{
		ID:           trip.ID(),
		UserID:       trip.UserID(),
		Title:        trip.Title(),
		DurationDays: trip.DurationDays(),
		TotalPrice:   trip.TotalPrice(),
		Status:       string(trip.Status()),
		CreatedAt:    trip.CreatedAt(),
		UpdatedAt:    trip.UpdatedAt(),
	}
}
