package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// Migrate creates or updates the service's tables and the constraints GORM
// tags cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&PackageModel{},
		&CustomTripModel{},
		&BookingModel{},
		&PaymentModel{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	// At most one completed payment per booking, enforced by the store so a
	// check-then-act race between two settlements cannot admit two successes.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_one_completed_per_booking
		 ON payments (booking_id) WHERE status = 'completed'`,
	).Error; err != nil {
		return fmt.Errorf("failed to create completed-payment index: %w", err)
	}

	return nil
}
