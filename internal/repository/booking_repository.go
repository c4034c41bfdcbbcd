package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rahhal-travel/service-booking/internal/domain"
	bookingDomain "github.com/rahhal-travel/service-booking/internal/domain/booking"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber      string          `gorm:"uniqueIndex;not null;size:20"`
	UserID             uuid.UUID       `gorm:"type:uuid;index;not null"`
	BookingType        string          `gorm:"not null;size:10"`
	PackageID          *uuid.UUID      `gorm:"type:uuid;index"`
	CustomTripID       *uuid.UUID      `gorm:"type:uuid;index"`
	Status             string          `gorm:"not null;size:15;index"`
	TotalPrice         decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	NumberOfTravelers  int             `gorm:"not null;default:1"`
	TravelerDetails    json.RawMessage `gorm:"type:jsonb;not null"`
	SpecialRequests    string          `gorm:"size:1000"`
	StartDate          time.Time       `gorm:"type:date;not null"`
	EndDate            time.Time       `gorm:"type:date;not null"`
	BookingDate        time.Time       `gorm:"not null"`
	ConfirmationDate   *time.Time      `gorm:""`
	CancellationDate   *time.Time      `gorm:""`
	CancellationReason string          `gorm:"size:500"`
	Version            int64           `gorm:"not null;default:1"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := dbFrom(ctx, r.db).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumberForUpdate retrieves a booking by number under a row lock.
// Racing payment initiations against the same booking serialize here.
func (r *GormBookingRepository) FindByNumberForUpdate(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := dbFrom(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_number = ?", number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to lock booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves bookings for a specific user with pagination.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := dbFrom(ctx, r.db).Model(&BookingModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := dbFrom(ctx, r.db).
		Where("user_id = ?", userID).
		Order("booking_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find user bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := dbFrom(ctx, r.db).Model(&BookingModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := dbFrom(ctx, r.db).
		Order("booking_date DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		bk, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = bk
	}

	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := dbFrom(ctx, r.db).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// ExistsByNumber reports whether a booking with the given number exists.
func (r *GormBookingRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := dbFrom(ctx, r.db).Model(&BookingModel{}).Where("booking_number = ?", number).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check booking number: %w", err)
	}
	return count > 0, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("booking number already exists")
		}
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// Version was already bumped by IncrementVersion; match against the prior one.
	expectedVersion := bk.Version() - 1
	result := dbFrom(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":              model.Status,
			"total_price":         model.TotalPrice,
			"number_of_travelers": model.NumberOfTravelers,
			"traveler_details":    model.TravelerDetails,
			"special_requests":    model.SpecialRequests,
			"start_date":          model.StartDate,
			"end_date":            model.EndDate,
			"confirmation_date":   model.ConfirmationDate,
			"cancellation_date":   model.CancellationDate,
			"cancellation_reason": model.CancellationReason,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// UpdateStatusIfCurrent atomically moves the booking's status to target only
// if the row currently holds one of the from statuses. This is the
// compare-and-set used by payment settlement and refund cascades, so two
// racing settlements can never both flip the same booking. The version bump
// invalidates any aggregate loaded before the flip; a stale Update then fails
// the optimistic lock instead of overwriting the new status.
func (r *GormBookingRepository) UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, from []bookingDomain.BookingStatus, target bookingDomain.BookingStatus) (bool, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	result := dbFrom(ctx, r.db).
		Model(&BookingModel{}).
		Where("id = ? AND status IN ?", id, states).
		Updates(map[string]interface{}{
			"status":     string(target),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	details := bk.TravelerDetails()
	if details == nil {
		details = []bookingDomain.TravelerDetail{}
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal traveler details: %w", err)
	}

	return &BookingModel{
		ID:                 bk.ID(),
		BookingNumber:      bk.BookingNumber(),
		UserID:             bk.UserID(),
		BookingType:        string(bk.Kind()),
		PackageID:          bk.PackageID(),
		CustomTripID:       bk.CustomTripID(),
		Status:             string(bk.Status()),
		TotalPrice:         bk.TotalPrice(),
		NumberOfTravelers:  bk.Travelers(),
		TravelerDetails:    detailsJSON,
		SpecialRequests:    bk.SpecialRequests(),
		StartDate:          bk.StartDate(),
		EndDate:            bk.EndDate(),
		BookingDate:        bk.BookingDate(),
		ConfirmationDate:   bk.ConfirmationDate(),
		CancellationDate:   bk.CancellationDate(),
		CancellationReason: bk.CancellationReason(),
		Version:            bk.Version(),
		UpdatedAt:          bk.UpdatedAt(),
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var details []bookingDomain.TravelerDetail
	if len(m.TravelerDetails) > 0 {
		if err := json.Unmarshal(m.TravelerDetails, &details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal traveler details: %w", err)
		}
	}

	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.Reconstruct(
		m.ID,
		m.BookingNumber,
		m.UserID,
		bookingDomain.BookingKind(m.BookingType),
		m.PackageID,
		m.CustomTripID,
		status,
		m.TotalPrice,
		m.NumberOfTravelers,
		details,
		m.SpecialRequests,
		m.StartDate,
		m.EndDate,
		m.BookingDate,
		m.ConfirmationDate,
		m.CancellationDate,
		m.CancellationReason,
		m.Version,
		m.UpdatedAt,
	), nil
}
