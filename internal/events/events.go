package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics this service produces to and consumes from.
const (
	BookingEventsTopic    = "booking.events"
	PaymentEventsTopic    = "payment.events"
	GatewayCallbacksTopic = "payment.gateway.callbacks"
)

// CloudEvent type identifiers.
const (
	TypeBookingCreated   = "com.rahhal.booking.created"
	TypeBookingCancelled = "com.rahhal.booking.cancelled"
	TypePaymentCompleted = "com.rahhal.payment.completed"
	TypePaymentFailed    = "com.rahhal.payment.failed"
	TypePaymentRefunded  = "com.rahhal.payment.refunded"
	TypeGatewayCallback  = "com.rahhal.payment.gateway.callback"
)

// EventSource identifies this service as the event producer.
const EventSource = "service-booking"

// BookingCreatedEvent is published when a booking is created.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	UserID        uuid.UUID `json:"user_id"`
	BookingType   string    `json:"booking_type"`
	TotalPrice    string    `json:"total_price"`
	Travelers     int       `json:"travelers"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
}

// BookingCancelledEvent is published when a booking is cancelled by the traveler.
type BookingCancelledEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	UserID        uuid.UUID `json:"user_id"`
	Reason        string    `json:"reason,omitempty"`
}

// PaymentCompletedEvent is published when a payment settles successfully.
type PaymentCompletedEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	PaymentNumber string    `json:"payment_number"`
	BookingID     uuid.UUID `json:"booking_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	TransactionID string    `json:"transaction_id"`
}

// PaymentFailedEvent is published when the gateway declines a payment.
type PaymentFailedEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	PaymentNumber string    `json:"payment_number"`
	BookingID     uuid.UUID `json:"booking_id"`
	Reason        string    `json:"reason,omitempty"`
}

// PaymentRefundedEvent is published when a completed payment is refunded.
type PaymentRefundedEvent struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	PaymentNumber string    `json:"payment_number"`
	BookingID     uuid.UUID `json:"booking_id"`
	RefundAmount  string    `json:"refund_amount"`
	Reason        string    `json:"reason,omitempty"`
}

// GatewayCallbackEvent carries an asynchronous settlement notification from a
// payment gateway. Status is the gateway's terminal verdict, "completed" or
// "failed".
type GatewayCallbackEvent struct {
	PaymentNumber string `json:"payment_number"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	GatewayName   string `json:"gateway_name,omitempty"`
}
