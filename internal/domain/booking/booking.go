package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rahhal-travel/service-booking/internal/domain"
)

// BookingKind distinguishes catalog-package bookings from custom-trip bookings.
type BookingKind string

const (
	KindPackage BookingKind = "package"
	KindCustom  BookingKind = "custom"
)

// IsValid returns true if the kind is recognized.
func (k BookingKind) IsValid() bool {
	return k == KindPackage || k == KindCustom
}

// Booking is the aggregate root for the booking domain. Exactly one of
// packageID and customTripID is set, matching the kind. The total price is
// fixed at creation and never recomputed from the offering afterward.
type Booking struct {
	id              uuid.UUID
	bookingNumber   string
	userID          uuid.UUID
	kind            BookingKind
	packageID       *uuid.UUID
	customTripID    *uuid.UUID
	status          BookingStatus
	totalPrice      decimal.Decimal
	travelers       int
	travelerDetails []TravelerDetail
	specialRequests string
	startDate       time.Time
	endDate         time.Time

	bookingDate        time.Time
	confirmationDate   *time.Time
	cancellationDate   *time.Time
	cancellationReason string

	version   int64
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate in status pending.
func NewBooking(
	bookingNumber string,
	userID uuid.UUID,
	kind BookingKind,
	packageID, customTripID *uuid.UUID,
	totalPrice decimal.Decimal,
	travelers int,
	travelerDetails []TravelerDetail,
	startDate, endDate time.Time,
	specialRequests string,
) (*Booking, error) {
	if bookingNumber == "" {
		return nil, domain.NewValidationError("booking number is required")
	}
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if !kind.IsValid() {
		return nil, domain.NewValidationError("booking kind must be package or custom")
	}
	if kind == KindPackage && (packageID == nil || customTripID != nil) {
		return nil, domain.NewValidationError("a package booking must reference a package and no custom trip")
	}
	if kind == KindCustom && (customTripID == nil || packageID != nil) {
		return nil, domain.NewValidationError("a custom booking must reference a custom trip and no package")
	}
	if travelers < 1 {
		return nil, domain.NewValidationError("number of travelers must be at least 1")
	}
	if totalPrice.IsNegative() {
		return nil, domain.NewValidationError("total price must not be negative")
	}
	if !startDate.Before(endDate) {
		return nil, domain.NewValidationError("start date must be before end date")
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		bookingNumber:   bookingNumber,
		userID:          userID,
		kind:            kind,
		packageID:       packageID,
		customTripID:    customTripID,
		status:          StatusPending,
		totalPrice:      totalPrice,
		travelers:       travelers,
		travelerDetails: travelerDetails,
		specialRequests: specialRequests,
		startDate:       startDate,
		endDate:         endDate,
		bookingDate:     now,
		version:         1,
		updatedAt:       now,
	}, nil
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	bookingNumber string,
	userID uuid.UUID,
	kind BookingKind,
	packageID, customTripID *uuid.UUID,
	status BookingStatus,
	totalPrice decimal.Decimal,
	travelers int,
	travelerDetails []TravelerDetail,
	specialRequests string,
	startDate, endDate time.Time,
	bookingDate time.Time,
	confirmationDate, cancellationDate *time.Time,
	cancellationReason string,
	version int64,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		bookingNumber:      bookingNumber,
		userID:             userID,
		kind:               kind,
		packageID:          packageID,
		customTripID:       customTripID,
		status:             status,
		totalPrice:         totalPrice,
		travelers:          travelers,
		travelerDetails:    travelerDetails,
		specialRequests:    specialRequests,
		startDate:          startDate,
		endDate:            endDate,
		bookingDate:        bookingDate,
		confirmationDate:   confirmationDate,
		cancellationDate:   cancellationDate,
		cancellationReason: cancellationReason,
		version:            version,
		updatedAt:          updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking reference.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// UserID returns the owning user's ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// Kind returns the booking kind.
func (b *Booking) Kind() BookingKind { return b.kind }

// PackageID returns the booked package's ID, or nil for custom bookings.
func (b *Booking) PackageID() *uuid.UUID { return b.packageID }

// CustomTripID returns the booked custom trip's ID, or nil for package bookings.
func (b *Booking) CustomTripID() *uuid.UUID { return b.customTripID }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// TotalPrice returns the total price fixed at creation.
func (b *Booking) TotalPrice() decimal.Decimal { return b.totalPrice }

// Travelers returns the number of travelers.
func (b *Booking) Travelers() int { return b.travelers }

// TravelerDetails returns the traveler detail records.
func (b *Booking) TravelerDetails() []TravelerDetail { return b.travelerDetails }

// SpecialRequests returns any special requests attached to the booking.
func (b *Booking) SpecialRequests() string { return b.specialRequests }

// StartDate returns the trip start date.
func (b *Booking) StartDate() time.Time { return b.startDate }

// EndDate returns the trip end date.
func (b *Booking) EndDate() time.Time { return b.endDate }

// BookingDate returns the creation timestamp.
func (b *Booking) BookingDate() time.Time { return b.bookingDate }

// ConfirmationDate returns the confirmation timestamp, or nil.
func (b *Booking) ConfirmationDate() *time.Time { return b.confirmationDate }

// CancellationDate returns the cancellation timestamp, or nil.
func (b *Booking) CancellationDate() *time.Time { return b.cancellationDate }

// CancellationReason returns the cancellation reason.
func (b *Booking) CancellationReason() string { return b.cancellationReason }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Confirm transitions the booking from pending to confirmed.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return domain.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	now := time.Now().UTC()
	b.status = StatusConfirmed
	b.confirmationDate = &now
	b.updatedAt = now
	return nil
}

// MarkPaid transitions the booking to paid after a successful payment.
func (b *Booking) MarkPaid() error {
	if !b.status.CanTransitionTo(StatusPaid) {
		return domain.NewInvalidStateError(string(b.status), string(StatusPaid))
	}
	b.status = StatusPaid
	b.updatedAt = time.Now().UTC()
	return nil
}

// Activate transitions the booking from paid to active when the trip starts.
func (b *Booking) Activate() error {
	if !b.status.CanTransitionTo(StatusActive) {
		return domain.NewInvalidStateError(string(b.status), string(StatusActive))
	}
	b.status = StatusActive
	b.updatedAt = time.Now().UTC()
	return nil
}

// Complete transitions the booking from active to completed.
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	b.status = StatusCompleted
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking to cancelled, stamping the reason. Only
// pending and confirmed bookings can be cancelled; paid bookings go through
// the refund workflow instead.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancellationReason = reason
	b.cancellationDate = &now
	b.updatedAt = now
	return nil
}

// MarkRefunded transitions the booking to refunded after a payment refund.
func (b *Booking) MarkRefunded() error {
	if !b.status.CanTransitionTo(StatusRefunded) {
		return domain.NewInvalidStateError(string(b.status), string(StatusRefunded))
	}
	b.status = StatusRefunded
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
