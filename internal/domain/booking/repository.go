package booking

import (
	"context"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// FindByNumberForUpdate retrieves a booking by number and takes a row
	// lock on it for the remainder of the surrounding transaction.
	FindByNumberForUpdate(ctx context.Context, number string) (*Booking, error)

	// FindByUserID retrieves bookings belonging to a specific user with pagination.
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// ExistsByNumber reports whether a booking with the given number exists.
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error

	// UpdateStatusIfCurrent atomically moves the booking's status to target
	// only if its current status is one of from, bumping the version so
	// aggregates loaded before the flip fail their next Update. Returns false
	// when the row was not in any of the from states, in which case nothing
	// is written.
	UpdateStatusIfCurrent(ctx context.Context, id uuid.UUID, from []BookingStatus, target BookingStatus) (bool, error)
}
