//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahhal-travel/service-booking/internal/application"
	"github.com/rahhal-travel/service-booking/internal/domain"
	bookingDomain "github.com/rahhal-travel/service-booking/internal/domain/booking"
	"github.com/rahhal-travel/service-booking/internal/events"
	"github.com/rahhal-travel/service-booking/internal/repository"
)

// TestGatewayCallback_SettlesPaymentAndBooking verifies that when a completed
// gateway callback is published to payment.gateway.callbacks, the service
// picks it up, completes the payment and flips the booking to "paid".
func TestGatewayCallback_SettlesPaymentAndBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupPaymentStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	// Seed a pending booking with an in-flight payment.
	bookingID := uuid.New()
	userID := uuid.New()
	amount := decimal.RequireFromString("2500.00")
	seedPendingBooking(t, infra.DB, bookingID, userID, amount)
	paymentNumber := seedProcessingPayment(t, infra.DB, bookingID, amount)

	// Start the consumer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	// Publish the gateway's completed verdict.
	evt := events.GatewayCallbackEvent{
		PaymentNumber: paymentNumber,
		Status:        "completed",
		TransactionID: "TXN" + paymentNumber + "4242",
		GatewayName:   "simulated",
	}
	publishTestEvent(t, infra.KafkaBrokers, events.GatewayCallbacksTopic,
		"gateway-bridge", events.TypeGatewayCallback, evt)

	// Assert: payment transitions to "completed" with the gateway's transaction ID.
	paymentModel := waitForPaymentStatus(t, infra.DB, paymentNumber, "completed", 15*time.Second)
	assert.Equal(t, evt.TransactionID, paymentModel.TransactionID)
	assert.NotNil(t, paymentModel.PaymentDate, "payment_date should be set")

	// Assert: booking cascades to "paid".
	waitForBookingStatus(t, infra.DB, bookingID, "paid", 15*time.Second)

	// Assert: PaymentCompletedEvent on payment.events.
	ce := consumeOneEvent(t, infra.KafkaBrokers, events.PaymentEventsTopic,
		events.TypePaymentCompleted, 15*time.Second)

	var completed events.PaymentCompletedEvent
	require.NoError(t, ce.ParseData(&completed))
	assert.Equal(t, paymentNumber, completed.PaymentNumber)
	assert.Equal(t, bookingID, completed.BookingID)
	assert.Equal(t, "2500.00", completed.Amount)
}

// TestGatewayCallback_Redelivery verifies that a redelivered callback is a
// no-op rather than an error.
func TestGatewayCallback_Redelivery(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupPaymentStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	bookingID := uuid.New()
	userID := uuid.New()
	amount := decimal.RequireFromString("980.50")
	seedPendingBooking(t, infra.DB, bookingID, userID, amount)
	paymentNumber := seedProcessingPayment(t, infra.DB, bookingID, amount)

	evt := events.GatewayCallbackEvent{
		PaymentNumber: paymentNumber,
		Status:        "completed",
		TransactionID: "TXN" + paymentNumber + "9001",
	}

	ctx := context.Background()
	require.NoError(t, stack.Service.ApplyGatewayCallback(ctx, evt))
	require.NoError(t, stack.Service.ApplyGatewayCallback(ctx, evt), "redelivery must be idempotent")

	paymentModel := waitForPaymentStatus(t, infra.DB, paymentNumber, "completed", 5*time.Second)
	assert.Equal(t, evt.TransactionID, paymentModel.TransactionID)
	waitForBookingStatus(t, infra.DB, bookingID, "paid", 5*time.Second)
}

// TestSettlementCascade_InvalidatesStaleAggregates verifies that the status
// compare-and-set bumps the row version, so a booking aggregate loaded before
// settlement cannot overwrite the paid status afterwards.
func TestSettlementCascade_InvalidatesStaleAggregates(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	ctx := context.Background()
	repo := repository.NewGormBookingRepository(infra.DB)

	bookingID := uuid.New()
	userID := uuid.New()
	number := seedPendingBooking(t, infra.DB, bookingID, userID, decimal.RequireFromString("1200.00"))

	// Load the aggregate before settlement flips the row.
	stale, err := repo.FindByNumber(ctx, number)
	require.NoError(t, err)

	flipped, err := repo.UpdateStatusIfCurrent(ctx, bookingID,
		[]bookingDomain.BookingStatus{bookingDomain.StatusPending, bookingDomain.StatusConfirmed},
		bookingDomain.StatusPaid)
	require.NoError(t, err)
	require.True(t, flipped)

	// The stale cancel must fail the optimistic lock, not overwrite paid.
	require.NoError(t, stale.Cancel("changed plans"))
	stale.IncrementVersion()
	err = repo.Update(ctx, stale)
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)

	var model repository.BookingModel
	require.NoError(t, infra.DB.Where("id = ?", bookingID).First(&model).Error)
	assert.Equal(t, "paid", model.Status)
	assert.Equal(t, int64(2), model.Version)
}

// TestInitiatePayment_EndToEnd exercises the synchronous settlement path
// against real infrastructure: lock, charge, cascade, insert.
func TestInitiatePayment_EndToEnd(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupPaymentStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	bookingID := uuid.New()
	userID := uuid.New()
	amount := decimal.RequireFromString("1500.00")
	bookingNumber := seedPendingBooking(t, infra.DB, bookingID, userID, amount)

	result, err := stack.Service.InitiatePayment(context.Background(), userID, application.InitiatePaymentRequest{
		BookingNumber: bookingNumber,
		Method:        "credit_card",
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.True(t, amount.Equal(result.Amount), "amount must equal the booking total")

	waitForBookingStatus(t, infra.DB, bookingID, "paid", 5*time.Second)

	// A second initiation against the settled booking must be rejected.
	_, err = stack.Service.InitiatePayment(context.Background(), userID, application.InitiatePaymentRequest{
		BookingNumber: bookingNumber,
		Method:        "credit_card",
	})
	require.Error(t, err)
}
