package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rahhal-travel/service-booking/internal/domain"
)

// TripStatus represents the lifecycle state of a custom trip.
type TripStatus string

const (
	TripStatusDraft     TripStatus = "draft"
	TripStatusQuoted    TripStatus = "quoted"
	TripStatusConfirmed TripStatus = "confirmed"
	TripStatusBooked    TripStatus = "booked"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// validTripTransitions defines the state machine for trip status transitions.
var validTripTransitions = map[TripStatus][]TripStatus{
	TripStatusDraft:     {TripStatusQuoted, TripStatusBooked, TripStatusCancelled},
	TripStatusQuoted:    {TripStatusConfirmed, TripStatusBooked, TripStatusCancelled},
	TripStatusConfirmed: {TripStatusBooked, TripStatusCancelled},
	TripStatusBooked:    {TripStatusCompleted, TripStatusCancelled},
	TripStatusCompleted: {},
	TripStatusCancelled: {},
}

// IsValid returns true if the status is a recognized trip status.
func (s TripStatus) IsValid() bool {
	_, exists := validTripTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s TripStatus) CanTransitionTo(target TripStatus) bool {
	allowed, exists := validTripTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// String returns the string representation of the status.
func (s TripStatus) String() string {
	return string(s)
}

// ParseTripStatus converts a string to a TripStatus, returning an error if invalid.
func ParseTripStatus(s string) (TripStatus, error) {
	status := TripStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid trip status: %s", s)
	}
	return status, nil
}

// CustomTrip is a user-assembled itinerary with a price computed by its own
// quoting flow. Once booked it may not be booked again.
type CustomTrip struct {
	id           uuid.UUID
	userID       uuid.UUID
	title        string
	durationDays int
	totalPrice   decimal.Decimal
	status       TripStatus
	version      int64
	createdAt    time.Time
	updatedAt    time.Time
}

// ReconstructCustomTrip rebuilds a CustomTrip from persistence data (no validation).
func ReconstructCustomTrip(
	id, userID uuid.UUID,
	title string,
	durationDays int,
	totalPrice decimal.Decimal,
	status TripStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *CustomTrip {
	return &CustomTrip{
		id:           id,
		userID:       userID,
		title:        title,
		durationDays: durationDays,
		totalPrice:   totalPrice,
		status:       status,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// ID returns the trip's unique identifier.
func (t *CustomTrip) ID() uuid.UUID { return t.id }

// UserID returns the owning user's ID.
func (t *CustomTrip) UserID() uuid.UUID { return t.userID }

// Title returns the trip title.
func (t *CustomTrip) Title() string { return t.title }

// DurationDays returns the planned trip length in days.
func (t *CustomTrip) DurationDays() int { return t.durationDays }

// TotalPrice returns the quoted total price for the itinerary.
func (t *CustomTrip) TotalPrice() decimal.Decimal { return t.totalPrice }

// Status returns the current trip status.
func (t *CustomTrip) Status() TripStatus { return t.status }

// Version returns the entity version for optimistic locking.
func (t *CustomTrip) Version() int64 { return t.version }

// CreatedAt returns the creation timestamp.
func (t *CustomTrip) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (t *CustomTrip) UpdatedAt() time.Time { return t.updatedAt }

// FinalPrice returns the price a booking of this trip pays. The quoted total
// already reflects the whole itinerary, regardless of traveler count.
func (t *CustomTrip) FinalPrice() decimal.Decimal { return t.totalPrice }

// IsBookable reports whether the trip can be attached to a new booking.
func (t *CustomTrip) IsBookable() bool {
	return t.status.CanTransitionTo(TripStatusBooked)
}

// MarkBooked transitions the trip to booked. A trip that is already booked,
// completed or cancelled cannot be booked again.
func (t *CustomTrip) MarkBooked() error {
	if !t.status.CanTransitionTo(TripStatusBooked) {
		return domain.NewInvalidStateError(string(t.status), string(TripStatusBooked))
	}
	t.status = TripStatusBooked
	t.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (t *CustomTrip) IncrementVersion() {
	t.version++
	t.updatedAt = time.Now().UTC()
}
