package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahhal-travel/service-booking/internal/domain"
)

func tripInStatus(status TripStatus) *CustomTrip {
	now := time.Now().UTC()
	return ReconstructCustomTrip(
		uuid.New(),
		uuid.New(),
		"Damascus and Palmyra circuit",
		10,
		decimal.RequireFromString("7500.00"),
		status,
		1,
		now,
		now,
	)
}

func TestTripStatus_Transitions(t *testing.T) {
	assert.True(t, TripStatusDraft.CanTransitionTo(TripStatusQuoted))
	assert.True(t, TripStatusDraft.CanTransitionTo(TripStatusBooked))
	assert.True(t, TripStatusQuoted.CanTransitionTo(TripStatusConfirmed))
	assert.True(t, TripStatusQuoted.CanTransitionTo(TripStatusBooked))
	assert.True(t, TripStatusConfirmed.CanTransitionTo(TripStatusBooked))
	assert.True(t, TripStatusBooked.CanTransitionTo(TripStatusCompleted))

	assert.False(t, TripStatusBooked.CanTransitionTo(TripStatusBooked))
	assert.False(t, TripStatusCompleted.CanTransitionTo(TripStatusBooked))
	assert.False(t, TripStatusCancelled.CanTransitionTo(TripStatusBooked))
}

func TestCustomTrip_MarkBooked(t *testing.T) {
	trip := tripInStatus(TripStatusConfirmed)
	require.True(t, trip.IsBookable())

	require.NoError(t, trip.MarkBooked())
	assert.Equal(t, TripStatusBooked, trip.Status())
}

func TestCustomTrip_MarkBookedTwice(t *testing.T) {
	trip := tripInStatus(TripStatusBooked)
	assert.False(t, trip.IsBookable())

	err := trip.MarkBooked()
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestCustomTrip_FinalPrice(t *testing.T) {
	trip := tripInStatus(TripStatusQuoted)
	assert.Equal(t, "7500.00", trip.FinalPrice().StringFixed(2))
}

func TestPackage_FinalPrice(t *testing.T) {
	discount := decimal.RequireFromString("899.00")
	pkg := &Package{
		ID:        uuid.New(),
		Title:     "Aleppo heritage week",
		Type:      PackageTypeCultural,
		BasePrice: decimal.RequireFromString("1099.00"),
		IsActive:  true,
	}

	assert.Equal(t, "1099.00", pkg.FinalPrice().StringFixed(2))
	assert.True(t, pkg.IsBookable())

	pkg.DiscountPrice = &discount
	assert.Equal(t, "899.00", pkg.FinalPrice().StringFixed(2))

	pkg.IsActive = false
	assert.False(t, pkg.IsBookable())
}

func TestParseTripStatus(t *testing.T) {
	status, err := ParseTripStatus("quoted")
	require.NoError(t, err)
	assert.Equal(t, TripStatusQuoted, status)

	_, err = ParseTripStatus("imaginary")
	assert.Error(t, err)
}
