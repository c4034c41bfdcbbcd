package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRepository defines the persistence contract for Payment aggregates.
type PaymentRepository interface {
	// FindByID retrieves a payment by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByNumber retrieves a payment by its human-readable payment number.
	FindByNumber(ctx context.Context, number string) (*Payment, error)

	// FindByBookingID retrieves all payments made against a booking, newest first.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Payment, error)

	// FindByUserID retrieves payments against bookings owned by the user,
	// newest first, with pagination.
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Payment, int64, error)

	// HasCompletedForBooking reports whether the booking already has a
	// completed payment.
	HasCompletedForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)

	// ExistsByNumber reports whether a payment with the given number exists.
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// GetRevenueStats returns the total completed revenue and payment counts
	// grouped by status (admin).
	GetRevenueStats(ctx context.Context) (totalRevenue decimal.Decimal, countByStatus map[string]int64, err error)

	// Save persists a new payment.
	Save(ctx context.Context, payment *Payment) error

	// Update persists changes to an existing payment with optimistic locking.
	Update(ctx context.Context, payment *Payment) error
}
