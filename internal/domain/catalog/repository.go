package catalog

import (
	"context"

	"github.com/google/uuid"
)

// PackageRepository defines the read contract for catalog packages.
type PackageRepository interface {
	// FindByID retrieves a package by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Package, error)

	// ListActive retrieves active packages with pagination.
	ListActive(ctx context.Context, page, limit int) ([]*Package, int64, error)
}

// CustomTripRepository defines the persistence contract for custom trips.
type CustomTripRepository interface {
	// FindByID retrieves a custom trip by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*CustomTrip, error)

	// FindByUserID retrieves trips belonging to a specific user with pagination.
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*CustomTrip, int64, error)

	// Update persists changes to an existing trip with optimistic locking.
	Update(ctx context.Context, trip *CustomTrip) error
}
