package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rahhal-travel/service-booking/internal/domain"
	"github.com/rahhal-travel/service-booking/internal/domain/catalog"
)

// PackageModel is the GORM model for the packages table.
type PackageModel struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Title            string           `gorm:"not null;size:200"`
	Type             string           `gorm:"not null;size:20;index"`
	ShortDescription string           `gorm:"size:300"`
	DurationDays     int              `gorm:"not null"`
	BasePrice        decimal.Decimal  `gorm:"type:numeric(10,2);not null"`
	DiscountPrice    *decimal.Decimal `gorm:"type:numeric(10,2)"`
	IsFeatured       bool             `gorm:"not null;default:false"`
	IsActive         bool             `gorm:"not null;default:true;index"`
	CreatedAt        time.Time        `gorm:"not null"`
	UpdatedAt        time.Time        `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PackageModel) TableName() string {
	return "packages"
}

// CustomTripModel is the GORM model for the custom_trips table.
type CustomTripModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Title        string          `gorm:"not null;size:200"`
	DurationDays int             `gorm:"not null"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	Status       string          `gorm:"not null;size:15;index"`
	Version      int64           `gorm:"not null;default:1"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (CustomTripModel) TableName() string {
	return "custom_trips"
}

// GormPackageRepository is the GORM-based implementation of PackageRepository.
type GormPackageRepository struct {
	db *gorm.DB
}

// NewGormPackageRepository creates a new GormPackageRepository.
func NewGormPackageRepository(db *gorm.DB) *GormPackageRepository {
	return &GormPackageRepository{db: db}
}

// FindByID retrieves a package by its unique identifier.
func (r *GormPackageRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Package, error) {
	var model PackageModel
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Package", id.String())
		}
		return nil, fmt.Errorf("failed to find package by ID: %w", err)
	}
	return toDomainPackage(&model), nil
}

// ListActive retrieves active packages with pagination.
func (r *GormPackageRepository) ListActive(ctx context.Context, page, limit int) ([]*catalog.Package, int64, error) {
	var total int64
	if err := dbFrom(ctx, r.db).Model(&PackageModel{}).Where("is_active = ?", true).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count packages: %w", err)
	}

	var models []PackageModel
	offset := (page - 1) * limit
	if err := dbFrom(ctx, r.db).
		Where("is_active = ?", true).
		Order("is_featured DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list packages: %w", err)
	}

	packages := make([]*catalog.Package, len(models))
	for i, m := range models {
		packages[i] = toDomainPackage(&m)
	}
	return packages, total, nil
}

// GormCustomTripRepository is the GORM-based implementation of CustomTripRepository.
type GormCustomTripRepository struct {
	db *gorm.DB
}

// NewGormCustomTripRepository creates a new GormCustomTripRepository.
func NewGormCustomTripRepository(db *gorm.DB) *GormCustomTripRepository {
	return &GormCustomTripRepository{db: db}
}

// FindByID retrieves a custom trip by its unique identifier.
func (r *GormCustomTripRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.CustomTrip, error) {
	var model CustomTripModel
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("CustomTrip", id.String())
		}
		return nil, fmt.Errorf("failed to find custom trip by ID: %w", err)
	}
	return toDomainCustomTrip(&model)
}

// FindByUserID retrieves trips belonging to a specific user with pagination.
func (r *GormCustomTripRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*catalog.CustomTrip, int64, error) {
	var total int64
	if err := dbFrom(ctx, r.db).Model(&CustomTripModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count custom trips: %w", err)
	}

	var models []CustomTripModel
	offset := (page - 1) * limit
	if err := dbFrom(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find custom trips: %w", err)
	}

	trips := make([]*catalog.CustomTrip, len(models))
	for i, m := range models {
		trip, err := toDomainCustomTrip(&m)
		if err != nil {
			return nil, 0, err
		}
		trips[i] = trip
	}
	return trips, total, nil
}

// Update persists changes to an existing trip with optimistic locking.
func (r *GormCustomTripRepository) Update(ctx context.Context, trip *catalog.CustomTrip) error {
	expectedVersion := trip.Version() - 1
	result := dbFrom(ctx, r.db).
		Model(&CustomTripModel{}).
		Where("id = ? AND version = ?", trip.ID(), expectedVersion).
		Updates(map[string]interface{}{
			"status":     string(trip.Status()),
			"version":    trip.Version(),
			"updated_at": trip.UpdatedAt(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update custom trip: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("custom trip was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toDomainPackage(m *PackageModel) *catalog.Package {
	return &catalog.Package{
		ID:               m.ID,
		Title:            m.Title,
		Type:             catalog.PackageType(m.Type),
		ShortDescription: m.ShortDescription,
		DurationDays:     m.DurationDays,
		BasePrice:        m.BasePrice,
		DiscountPrice:    m.DiscountPrice,
		IsFeatured:       m.IsFeatured,
		IsActive:         m.IsActive,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toDomainCustomTrip(m *CustomTripModel) (*catalog.CustomTrip, error) {
	status, err := catalog.ParseTripStatus(m.Status)
	if err != nil {
		return nil, err
	}
	return catalog.ReconstructCustomTrip(
		m.ID,
		m.UserID,
		m.Title,
		m.DurationDays,
		m.TotalPrice,
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
