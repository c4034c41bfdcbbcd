package payment

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rahhal-travel/service-booking/internal/domain"
)

// Payment is the aggregate root for one attempt to collect an amount against
// one booking. Many payments may exist per booking over time, but at most one
// may ever hold status completed.
type Payment struct {
	id            uuid.UUID
	paymentNumber string
	bookingID     uuid.UUID
	amount        decimal.Decimal
	currency      Currency
	method        Method
	status        PaymentStatus

	transactionID   string
	gatewayName     string
	gatewayResponse json.RawMessage
	paymentDate     *time.Time

	refundAmount decimal.Decimal
	refundDate   *time.Time
	refundReason string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewPayment creates a new Payment aggregate in status pending. The amount
// must equal the booking's total price; the caller derives it from the
// booking row, never from client input.
func NewPayment(
	paymentNumber string,
	bookingID uuid.UUID,
	amount decimal.Decimal,
	currency Currency,
	method Method,
) (*Payment, error) {
	if paymentNumber == "" {
		return nil, domain.NewValidationError("payment number is required")
	}
	if bookingID == uuid.Nil {
		return nil, domain.NewValidationError("booking ID is required")
	}
	if amount.IsNegative() {
		return nil, domain.NewValidationError("payment amount must not be negative")
	}
	if !currency.IsValid() {
		return nil, domain.NewValidationError("unsupported currency: " + string(currency))
	}
	if !method.IsValid() {
		return nil, domain.NewValidationError("unsupported payment method: " + string(method))
	}

	now := time.Now().UTC()
	return &Payment{
		id:            uuid.New(),
		paymentNumber: paymentNumber,
		bookingID:     bookingID,
		amount:        amount,
		currency:      currency,
		method:        method,
		status:        StatusPending,
		refundAmount:  decimal.Zero,
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// Reconstruct rebuilds a Payment from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	paymentNumber string,
	bookingID uuid.UUID,
	amount decimal.Decimal,
	currency Currency,
	method Method,
	status PaymentStatus,
	transactionID, gatewayName string,
	gatewayResponse json.RawMessage,
	paymentDate *time.Time,
	refundAmount decimal.Decimal,
	refundDate *time.Time,
	refundReason string,
	version int64,
	createdAt, updatedAt time.Time,
) *Payment {
	return &Payment{
		id:              id,
		paymentNumber:   paymentNumber,
		bookingID:       bookingID,
		amount:          amount,
		currency:        currency,
		method:          method,
		status:          status,
		transactionID:   transactionID,
		gatewayName:     gatewayName,
		gatewayResponse: gatewayResponse,
		paymentDate:     paymentDate,
		refundAmount:    refundAmount,
		refundDate:      refundDate,
		refundReason:    refundReason,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// --- Getters ---

// ID returns the payment's unique identifier.
func (p *Payment) ID() uuid.UUID { return p.id }

// PaymentNumber returns the human-readable payment reference.
func (p *Payment) PaymentNumber() string { return p.paymentNumber }

// BookingID returns the owning booking's ID.
func (p *Payment) BookingID() uuid.UUID { return p.bookingID }

// Amount returns the amount to collect.
func (p *Payment) Amount() decimal.Decimal { return p.amount }

// Currency returns the payment currency.
func (p *Payment) Currency() Currency { return p.currency }

// Method returns the payment method.
func (p *Payment) Method() Method { return p.method }

// Status returns the current payment status.
func (p *Payment) Status() PaymentStatus { return p.status }

// TransactionID returns the gateway transaction ID assigned on settlement.
func (p *Payment) TransactionID() string { return p.transactionID }

// GatewayName returns the name of the gateway that settled the payment.
func (p *Payment) GatewayName() string { return p.gatewayName }

// GatewayResponse returns the opaque gateway response payload.
func (p *Payment) GatewayResponse() json.RawMessage { return p.gatewayResponse }

// PaymentDate returns the settlement timestamp, or nil.
func (p *Payment) PaymentDate() *time.Time { return p.paymentDate }

// RefundAmount returns the refunded amount (zero unless refunded).
func (p *Payment) RefundAmount() decimal.Decimal { return p.refundAmount }

// RefundDate returns the refund timestamp, or nil.
func (p *Payment) RefundDate() *time.Time { return p.refundDate }

// RefundReason returns the refund reason.
func (p *Payment) RefundReason() string { return p.refundReason }

// Version returns the entity version for optimistic locking.
func (p *Payment) Version() int64 { return p.version }

// CreatedAt returns the creation timestamp.
func (p *Payment) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (p *Payment) UpdatedAt() time.Time { return p.updatedAt }

// IsSuccessful returns true if the payment settled successfully.
func (p *Payment) IsSuccessful() bool {
	return p.status == StatusCompleted
}

// CanRefund returns true if the payment is refundable: settled successfully
// and not refunded before.
func (p *Payment) CanRefund() bool {
	return p.status == StatusCompleted && p.refundAmount.IsZero()
}

// --- Behavior ---

// StartProcessing transitions the payment from pending to processing.
func (p *Payment) StartProcessing() error {
	if !p.status.CanTransitionTo(StatusProcessing) {
		return domain.NewInvalidStateError(string(p.status), string(StatusProcessing))
	}
	p.status = StatusProcessing
	p.updatedAt = time.Now().UTC()
	return nil
}

// Complete settles the payment successfully, recording the gateway's
// transaction ID and response payload.
func (p *Payment) Complete(transactionID, gatewayName string, response json.RawMessage) error {
	if !p.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(p.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	p.status = StatusCompleted
	p.transactionID = transactionID
	p.gatewayName = gatewayName
	p.gatewayResponse = response
	p.paymentDate = &now
	p.updatedAt = now
	return nil
}

// Fail settles the payment unsuccessfully, recording the gateway's response.
// The owning booking is left unchanged.
func (p *Payment) Fail(gatewayName string, response json.RawMessage) error {
	if !p.status.CanTransitionTo(StatusFailed) {
		return domain.NewInvalidStateError(string(p.status), string(StatusFailed))
	}
	p.status = StatusFailed
	p.gatewayName = gatewayName
	p.gatewayResponse = response
	p.updatedAt = time.Now().UTC()
	return nil
}

// Cancel abandons a pending payment before settlement.
func (p *Payment) Cancel() error {
	if !p.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(p.status), string(StatusCancelled))
	}
	p.status = StatusCancelled
	p.updatedAt = time.Now().UTC()
	return nil
}

// ApplyRefund refunds the payment once. The amount must be positive and no
// greater than the collected amount.
func (p *Payment) ApplyRefund(amount decimal.Decimal, reason string) error {
	if !p.CanRefund() {
		return domain.NewInvalidStateError(string(p.status), string(StatusRefunded))
	}
	if !amount.IsPositive() {
		return domain.NewInvalidAmountError("refund amount must be positive")
	}
	if amount.GreaterThan(p.amount) {
		return domain.NewInvalidAmountError("refund amount exceeds the paid amount")
	}
	now := time.Now().UTC()
	p.status = StatusRefunded
	p.refundAmount = amount
	p.refundDate = &now
	p.refundReason = reason
	p.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (p *Payment) IncrementVersion() {
	p.version++
	p.updatedAt = time.Now().UTC()
}
