package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rahhal-travel/service-booking/internal/domain"
	bookingDomain "github.com/rahhal-travel/service-booking/internal/domain/booking"
	"github.com/rahhal-travel/service-booking/internal/domain/catalog"
	"github.com/rahhal-travel/service-booking/internal/events"
	"github.com/rahhal-travel/service-booking/internal/kafka"
)

// BookingNumberPrefix prefixes every booking reference number.
const BookingNumberPrefix = "BK"

// maxReferenceAttempts bounds the retry loop when a freshly generated
// reference number collides with an existing one.
const maxReferenceAttempts = 5

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	BookingType     string                         `json:"booking_type" binding:"required"`
	PackageID       *uuid.UUID                     `json:"package_id"`
	CustomTripID    *uuid.UUID                     `json:"custom_trip_id"`
	Travelers       int                            `json:"number_of_travelers" binding:"required"`
	TravelerDetails []bookingDomain.TravelerDetail `json:"traveler_details" binding:"required"`
	StartDate       time.Time                      `json:"start_date" binding:"required" time_format:"2006-01-02"`
	EndDate         time.Time                      `json:"end_date" binding:"required" time_format:"2006-01-02"`
	SpecialRequests string                         `json:"special_requests"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID                      `json:"id"`
	BookingNumber      string                         `json:"booking_number"`
	UserID             uuid.UUID                      `json:"user_id"`
	BookingType        string                         `json:"booking_type"`
	PackageID          *uuid.UUID                     `json:"package_id,omitempty"`
	CustomTripID       *uuid.UUID                     `json:"custom_trip_id,omitempty"`
	Status             string                         `json:"status"`
	TotalPrice         decimal.Decimal                `json:"total_price"`
	Travelers          int                            `json:"number_of_travelers"`
	TravelerDetails    []bookingDomain.TravelerDetail `json:"traveler_details"`
	SpecialRequests    string                         `json:"special_requests,omitempty"`
	StartDate          time.Time                      `json:"start_date"`
	EndDate            time.Time                      `json:"end_date"`
	BookingDate        time.Time                      `json:"booking_date"`
	ConfirmationDate   *time.Time                     `json:"confirmation_date,omitempty"`
	CancellationDate   *time.Time                     `json:"cancellation_date,omitempty"`
	CancellationReason string                         `json:"cancellation_reason,omitempty"`
	Version            int64                          `json:"version"`
	UpdatedAt          time.Time                      `json:"updated_at"`
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	bookings bookingDomain.BookingRepository
	packages catalog.PackageRepository
	trips    catalog.CustomTripRepository
	pricing  bookingDomain.PricingStrategy
	refs     domain.ReferenceGenerator
	tx       domain.TxManager
	producer EventPublisher
	logger   *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	packages catalog.PackageRepository,
	trips catalog.CustomTripRepository,
	pricing bookingDomain.PricingStrategy,
	refs domain.ReferenceGenerator,
	tx domain.TxManager,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		packages: packages,
		trips:    trips,
		pricing:  pricing,
		refs:     refs,
		tx:       tx,
		producer: producer,
		logger:   logger,
	}
}

// CreateBooking creates a new booking for the given user. The total price is
// derived server-side from the referenced offering; any price sent by the
// client is ignored. Booking a custom trip also flips the trip to booked, in
// the same transaction as the booking insert.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	kind := bookingDomain.BookingKind(req.BookingType)
	if !kind.IsValid() {
		return nil, domain.NewValidationError("booking_type must be package or custom")
	}

	var bk *bookingDomain.Booking
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		offering, trip, err := s.resolveOffering(ctx, userID, kind, req.PackageID, req.CustomTripID)
		if err != nil {
			return err
		}

		totalPrice, err := s.pricing.Resolve(kind, offering, req.Travelers)
		if err != nil {
			return err
		}

		number, err := nextReference(ctx, s.refs, s.logger, BookingNumberPrefix, s.bookings.ExistsByNumber)
		if err != nil {
			return err
		}

		bk, err = bookingDomain.NewBooking(
			number,
			userID,
			kind,
			req.PackageID,
			req.CustomTripID,
			totalPrice,
			req.Travelers,
			req.TravelerDetails,
			req.StartDate,
			req.EndDate,
			req.SpecialRequests,
		)
		if err != nil {
			return err
		}

		if err := s.bookings.Save(ctx, bk); err != nil {
			return fmt.Errorf("failed to save booking: %w", err)
		}

		// A custom trip is consumed by its booking; both writes commit or
		// neither does.
		if trip != nil {
			if err := trip.MarkBooked(); err != nil {
				return err
			}
			trip.IncrementVersion()
			if err := s.trips.Update(ctx, trip); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	evt := events.BookingCreatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		UserID:        bk.UserID(),
		BookingType:   string(bk.Kind()),
		TotalPrice:    bk.TotalPrice().StringFixed(2),
		Travelers:     bk.Travelers(),
		StartDate:     bk.StartDate(),
		EndDate:       bk.EndDate(),
	}
	s.publishEvent(ctx, events.BookingEventsTopic, events.TypeBookingCreated, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels a booking owned by the user. Only pending and
// confirmed bookings can be cancelled.
func (s *BookingService) CancelBooking(ctx context.Context, userID uuid.UUID, bookingNumber, reason string) (*BookingDTO, error) {
	bk, err := s.findOwnedBooking(ctx, userID, bookingNumber)
	if err != nil {
		return nil, err
	}

	if err := bk.Cancel(reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	evt := events.BookingCancelledEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		UserID:        bk.UserID(),
		Reason:        reason,
	}
	s.publishEvent(ctx, events.BookingEventsTopic, events.TypeBookingCancelled, evt)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking retrieves a booking owned by the user.
func (s *BookingService) GetBooking(ctx context.Context, userID uuid.UUID, bookingNumber string) (*BookingDTO, error) {
	bk, err := s.findOwnedBooking(ctx, userID, bookingNumber)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// ListBookings retrieves paginated bookings for a specific user.
func (s *BookingService) ListBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// --- Helpers ---

// resolveOffering loads the priced offering behind the booking request. A trip
// owned by another user reads as not found rather than forbidden, so booking
// numbers of other users cannot be probed.
func (s *BookingService) resolveOffering(
	ctx context.Context,
	userID uuid.UUID,
	kind bookingDomain.BookingKind,
	packageID, customTripID *uuid.UUID,
) (bookingDomain.Offering, *catalog.CustomTrip, error) {
	switch kind {
	case bookingDomain.KindPackage:
		if packageID == nil {
			return nil, nil, domain.NewValidationError("package_id is required for package bookings")
		}
		pkg, err := s.packages.FindByID(ctx, *packageID)
		if err != nil {
			return nil, nil, err
		}
		return pkg, nil, nil
	case bookingDomain.KindCustom:
		if customTripID == nil {
			return nil, nil, domain.NewValidationError("custom_trip_id is required for custom bookings")
		}
		trip, err := s.trips.FindByID(ctx, *customTripID)
		if err != nil {
			return nil, nil, err
		}
		if trip.UserID() != userID {
			return nil, nil, domain.NewNotFoundError("CustomTrip", customTripID.String())
		}
		return trip, trip, nil
	default:
		return nil, nil, domain.NewValidationError("booking_type must be package or custom")
	}
}

// nextReference generates a unique reference number, retrying on collision.
// Shared by booking and payment issuance; the exists check decides which
// number space the draw is checked against.
func nextReference(
	ctx context.Context,
	refs domain.ReferenceGenerator,
	logger *zap.Logger,
	prefix string,
	exists func(ctx context.Context, number string) (bool, error),
) (string, error) {
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		number, err := refs.Generate(prefix)
		if err != nil {
			return "", fmt.Errorf("failed to generate reference number: %w", err)
		}
		taken, err := exists(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
		logger.Warn("reference number collision, retrying",
			zap.String("prefix", prefix),
			zap.Int("attempt", attempt+1),
		)
	}
	return "", domain.NewResourceExhaustedError("reference number generation", maxReferenceAttempts)
}

func (s *BookingService) findOwnedBooking(ctx context.Context, userID uuid.UUID, bookingNumber string) (*bookingDomain.Booking, error) {
	bk, err := s.bookings.FindByNumber(ctx, bookingNumber)
	if err != nil {
		return nil, err
	}
	// Other users' bookings read as not found, never as forbidden.
	if bk.UserID() != userID {
		return nil, domain.NewNotFoundError("Booking", bookingNumber)
	}
	return bk, nil
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(events.EventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:                 bk.ID(),
		BookingNumber:      bk.BookingNumber(),
		UserID:             bk.UserID(),
		BookingType:        string(bk.Kind()),
		PackageID:          bk.PackageID(),
		CustomTripID:       bk.CustomTripID(),
		Status:             string(bk.Status()),
		TotalPrice:         bk.TotalPrice(),
		Travelers:          bk.Travelers(),
		TravelerDetails:    bk.TravelerDetails(),
		SpecialRequests:    bk.SpecialRequests(),
		StartDate:          bk.StartDate(),
		EndDate:            bk.EndDate(),
		BookingDate:        bk.BookingDate(),
		ConfirmationDate:   bk.ConfirmationDate(),
		CancellationDate:   bk.CancellationDate(),
		CancellationReason: bk.CancellationReason(),
		Version:            bk.Version(),
		UpdatedAt:          bk.UpdatedAt(),
	}
}
