package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rahhal-travel/service-booking/internal/domain"
	bookingDomain "github.com/rahhal-travel/service-booking/internal/domain/booking"
	paymentDomain "github.com/rahhal-travel/service-booking/internal/domain/payment"
	"github.com/rahhal-travel/service-booking/internal/events"
	"github.com/rahhal-travel/service-booking/internal/kafka"
)

// PaymentNumberPrefix prefixes every payment reference number.
const PaymentNumberPrefix = "PAY"

// payableStatuses are the booking statuses a settlement may flip to paid.
var payableStatuses = []bookingDomain.BookingStatus{
	bookingDomain.StatusPending,
	bookingDomain.StatusConfirmed,
}

// refundableBookingStatuses are the booking statuses a refund may flip to refunded.
var refundableBookingStatuses = []bookingDomain.BookingStatus{
	bookingDomain.StatusPaid,
	bookingDomain.StatusCompleted,
}

// InitiatePaymentRequest holds the data needed to initiate a payment.
// The amount is never part of the request; it is always the booking's total.
type InitiatePaymentRequest struct {
	BookingNumber string `json:"booking_number" binding:"required"`
	Method        string `json:"payment_method" binding:"required"`
	Currency      string `json:"currency"`
}

// RefundRequest holds the data needed to refund a payment. A zero amount
// requests a full refund.
type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// PaymentDTO is the response representation of a payment.
type PaymentDTO struct {
	ID              uuid.UUID       `json:"id"`
	PaymentNumber   string          `json:"payment_number"`
	BookingID       uuid.UUID       `json:"booking_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentMethod   string          `json:"payment_method"`
	Status          string          `json:"status"`
	TransactionID   string          `json:"transaction_id,omitempty"`
	PaymentGateway  string          `json:"payment_gateway,omitempty"`
	PaymentDate     *time.Time      `json:"payment_date,omitempty"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	RefundDate      *time.Time      `json:"refund_date,omitempty"`
	RefundReason    string          `json:"refund_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// RefundResult reports the outcome of a refund request. A refund a business
// rule rejects is an answer, not an error; Refunded is false and Message says
// why.
type RefundResult struct {
	Refunded bool        `json:"refunded"`
	Message  string      `json:"message,omitempty"`
	Payment  *PaymentDTO `json:"payment,omitempty"`
}

// PaymentService is the application service orchestrating payment use cases.
type PaymentService struct {
	payments       paymentDomain.PaymentRepository
	bookings       bookingDomain.BookingRepository
	gateway        paymentDomain.Gateway
	refs           domain.ReferenceGenerator
	tx             domain.TxManager
	producer       EventPublisher
	gatewayTimeout time.Duration
	logger         *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	payments paymentDomain.PaymentRepository,
	bookings bookingDomain.BookingRepository,
	gateway paymentDomain.Gateway,
	refs domain.ReferenceGenerator,
	tx domain.TxManager,
	producer EventPublisher,
	gatewayTimeout time.Duration,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments:       payments,
		bookings:       bookings,
		gateway:        gateway,
		refs:           refs,
		tx:             tx,
		producer:       producer,
		gatewayTimeout: gatewayTimeout,
		logger:         logger,
	}
}

// InitiatePayment charges the booking's total through the gateway and records
// the outcome. A declined charge is a normal result carrying a failed payment,
// not an error. The booking row is locked for the whole settlement, so two
// concurrent initiations against the same booking serialize; the loser then
// fails the completed-payment check.
func (s *PaymentService) InitiatePayment(ctx context.Context, userID uuid.UUID, req InitiatePaymentRequest) (*PaymentDTO, error) {
	method, err := paymentDomain.ParseMethod(req.Method)
	if err != nil {
		return nil, err
	}
	currency := paymentDomain.CurrencySYP
	if req.Currency != "" {
		currency, err = paymentDomain.ParseCurrency(req.Currency)
		if err != nil {
			return nil, err
		}
	}

	var p *paymentDomain.Payment
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		bk, err := s.bookings.FindByNumberForUpdate(ctx, req.BookingNumber)
		if err != nil {
			return err
		}
		if bk.UserID() != userID {
			return domain.NewNotFoundError("Booking", req.BookingNumber)
		}
		if !bk.Status().IsPayable() {
			return domain.NewInvalidStateError(string(bk.Status()), string(bookingDomain.StatusPaid))
		}

		settled, err := s.payments.HasCompletedForBooking(ctx, bk.ID())
		if err != nil {
			return err
		}
		if settled {
			return domain.NewDuplicatePaymentError(bk.BookingNumber())
		}

		number, err := nextReference(ctx, s.refs, s.logger, PaymentNumberPrefix, s.payments.ExistsByNumber)
		if err != nil {
			return err
		}

		p, err = paymentDomain.NewPayment(number, bk.ID(), bk.TotalPrice(), currency, method)
		if err != nil {
			return err
		}
		if err := p.StartProcessing(); err != nil {
			return err
		}

		if err := s.settle(ctx, p); err != nil {
			return err
		}

		if p.IsSuccessful() {
			flipped, err := s.bookings.UpdateStatusIfCurrent(ctx, bk.ID(), payableStatuses, bookingDomain.StatusPaid)
			if err != nil {
				return err
			}
			if !flipped {
				// Someone settled the booking between our lock acquisition
				// and now; roll the whole payment back.
				return domain.NewDuplicatePaymentError(bk.BookingNumber())
			}
		}

		return s.payments.Save(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.publishSettlementEvent(ctx, p)

	result := toPaymentDTO(p)
	return &result, nil
}

// ApplyGatewayCallback applies an asynchronous settlement notification. The
// operation is idempotent: a callback reporting the status the payment already
// holds is a no-op, and a callback contradicting a terminal status is a
// conflict.
func (s *PaymentService) ApplyGatewayCallback(ctx context.Context, evt events.GatewayCallbackEvent) error {
	target, err := paymentDomain.ParsePaymentStatus(evt.Status)
	if err != nil {
		return err
	}
	if target != paymentDomain.StatusCompleted && target != paymentDomain.StatusFailed {
		return domain.NewValidationError("callback status must be completed or failed")
	}

	var p *paymentDomain.Payment
	var applied bool
	err = s.tx.Do(ctx, func(ctx context.Context) error {
		p, err = s.payments.FindByNumber(ctx, evt.PaymentNumber)
		if err != nil {
			return err
		}

		// Redelivered callback: already in the reported status.
		if p.Status() == target {
			return nil
		}
		if p.Status().IsTerminal() {
			return domain.NewConflictError(fmt.Sprintf(
				"payment %s is already %s, cannot apply %s callback",
				p.PaymentNumber(), p.Status(), target,
			))
		}
		if p.Status() == paymentDomain.StatusPending {
			if err := p.StartProcessing(); err != nil {
				return err
			}
		}

		gatewayName := evt.GatewayName
		if gatewayName == "" {
			gatewayName = s.gateway.Name()
		}
		response, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to marshal callback payload: %w", err)
		}

		if target == paymentDomain.StatusCompleted {
			settled, err := s.payments.HasCompletedForBooking(ctx, p.BookingID())
			if err != nil {
				return err
			}
			if settled {
				return domain.NewDuplicatePaymentError(p.BookingID().String())
			}
			if err := p.Complete(evt.TransactionID, gatewayName, response); err != nil {
				return err
			}
			flipped, err := s.bookings.UpdateStatusIfCurrent(ctx, p.BookingID(), payableStatuses, bookingDomain.StatusPaid)
			if err != nil {
				return err
			}
			if !flipped {
				// The booking left the payable statuses while the payment was
				// in flight; completing the payment anyway would diverge the
				// two lifecycles. Same treatment as the synchronous path.
				return domain.NewConflictError(fmt.Sprintf(
					"booking %s is no longer payable, cannot complete payment %s",
					p.BookingID(), p.PaymentNumber(),
				))
			}
		} else {
			if err := p.Fail(gatewayName, response); err != nil {
				return err
			}
		}

		p.IncrementVersion()
		applied = true
		return s.payments.Update(ctx, p)
	})
	if err != nil {
		return err
	}

	if applied {
		s.publishSettlementEvent(ctx, p)
	}
	return nil
}

// Refund refunds a completed payment owned by the user and cascades the
// booking to refunded. Business-rule rejections come back in the result;
// malformed amounts and infrastructure failures come back as errors.
func (s *PaymentService) Refund(ctx context.Context, userID uuid.UUID, paymentNumber string, req RefundRequest) (*RefundResult, error) {
	var result RefundResult
	err := s.tx.Do(ctx, func(ctx context.Context) error {
		p, err := s.findOwnedPayment(ctx, userID, paymentNumber)
		if err != nil {
			return err
		}

		if !p.CanRefund() {
			dto := toPaymentDTO(p)
			result = RefundResult{
				Refunded: false,
				Message:  refundRejectionMessage(p),
				Payment:  &dto,
			}
			return nil
		}

		amount := req.Amount
		if amount.IsZero() {
			amount = p.Amount()
		}
		if err := p.ApplyRefund(amount, req.Reason); err != nil {
			return err
		}

		p.IncrementVersion()
		if err := s.payments.Update(ctx, p); err != nil {
			return err
		}

		flipped, err := s.bookings.UpdateStatusIfCurrent(ctx, p.BookingID(), refundableBookingStatuses, bookingDomain.StatusRefunded)
		if err != nil {
			return err
		}
		if !flipped {
			s.logger.Warn("refund applied but booking not in a refundable status",
				zap.String("payment_number", p.PaymentNumber()),
				zap.String("booking_id", p.BookingID().String()),
			)
		}

		dto := toPaymentDTO(p)
		result = RefundResult{Refunded: true, Payment: &dto}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Refunded {
		p := result.Payment
		evt := events.PaymentRefundedEvent{
			PaymentID:     p.ID,
			PaymentNumber: p.PaymentNumber,
			BookingID:     p.BookingID,
			RefundAmount:  p.RefundAmount.StringFixed(2),
			Reason:        p.RefundReason,
		}
		s.publishEvent(ctx, events.PaymentEventsTopic, events.TypePaymentRefunded, evt)
	}

	return &result, nil
}

// GetPayment retrieves a payment whose booking is owned by the user.
func (s *PaymentService) GetPayment(ctx context.Context, userID uuid.UUID, paymentNumber string) (*PaymentDTO, error) {
	p, err := s.findOwnedPayment(ctx, userID, paymentNumber)
	if err != nil {
		return nil, err
	}
	result := toPaymentDTO(p)
	return &result, nil
}

// ListPayments retrieves paginated payments against the user's bookings.
func (s *PaymentService) ListPayments(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[PaymentDTO], error) {
	payments, total, err := s.payments.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}

	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// ListMethods returns the supported payment methods.
func (s *PaymentService) ListMethods() []string {
	methods := paymentDomain.Methods()
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return out
}

// ListCurrencies returns the supported currencies.
func (s *PaymentService) ListCurrencies() []string {
	currencies := paymentDomain.Currencies()
	out := make([]string, len(currencies))
	for i, c := range currencies {
		out[i] = string(c)
	}
	return out
}

// --- Admin methods ---

// RevenueStatsDTO holds payment statistics for the admin dashboard.
type RevenueStatsDTO struct {
	TotalRevenue decimal.Decimal  `json:"total_revenue"`
	ByStatus     map[string]int64 `json:"by_status"`
}

// GetRevenueStats returns aggregate payment statistics (admin).
func (s *PaymentService) GetRevenueStats(ctx context.Context) (*RevenueStatsDTO, error) {
	revenue, counts, err := s.payments.GetRevenueStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue stats: %w", err)
	}
	return &RevenueStatsDTO{
		TotalRevenue: revenue,
		ByStatus:     counts,
	}, nil
}

// --- Helpers ---

// settle charges the gateway under a deadline and records the verdict on the
// payment. A timed-out or erroring gateway call fails the payment; it never
// leaves it processing.
func (s *PaymentService) settle(ctx context.Context, p *paymentDomain.Payment) error {
	chargeCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	result, err := s.gateway.Charge(chargeCtx, paymentDomain.ChargeRequest{
		PaymentNumber: p.PaymentNumber(),
		Amount:        p.Amount(),
		Currency:      p.Currency(),
		Method:        p.Method(),
	})
	if err != nil {
		s.logger.Warn("gateway charge failed",
			zap.String("payment_number", p.PaymentNumber()),
			zap.Error(err),
		)
		message := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			message = "gateway timeout"
		}
		response, _ := json.Marshal(map[string]string{
			"status":        "failed",
			"error_message": message,
		})
		return p.Fail(s.gateway.Name(), response)
	}

	if result.Approved {
		return p.Complete(result.TransactionID, s.gateway.Name(), result.Response)
	}
	return p.Fail(s.gateway.Name(), result.Response)
}

// findOwnedPayment loads a payment and checks that its booking belongs to the
// user. Other users' payments read as not found.
func (s *PaymentService) findOwnedPayment(ctx context.Context, userID uuid.UUID, paymentNumber string) (*paymentDomain.Payment, error) {
	p, err := s.payments.FindByNumber(ctx, paymentNumber)
	if err != nil {
		return nil, err
	}
	bk, err := s.bookings.FindByID(ctx, p.BookingID())
	if err != nil {
		return nil, err
	}
	if bk.UserID() != userID {
		return nil, domain.NewNotFoundError("Payment", paymentNumber)
	}
	return p, nil
}

func refundRejectionMessage(p *paymentDomain.Payment) string {
	if p.Status() == paymentDomain.StatusRefunded || !p.RefundAmount().IsZero() {
		return "payment has already been refunded"
	}
	return "only completed payments can be refunded"
}

func (s *PaymentService) publishSettlementEvent(ctx context.Context, p *paymentDomain.Payment) {
	switch p.Status() {
	case paymentDomain.StatusCompleted:
		evt := events.PaymentCompletedEvent{
			PaymentID:     p.ID(),
			PaymentNumber: p.PaymentNumber(),
			BookingID:     p.BookingID(),
			Amount:        p.Amount().StringFixed(2),
			Currency:      string(p.Currency()),
			TransactionID: p.TransactionID(),
		}
		s.publishEvent(ctx, events.PaymentEventsTopic, events.TypePaymentCompleted, evt)
	case paymentDomain.StatusFailed:
		evt := events.PaymentFailedEvent{
			PaymentID:     p.ID(),
			PaymentNumber: p.PaymentNumber(),
			BookingID:     p.BookingID(),
		}
		s.publishEvent(ctx, events.PaymentEventsTopic, events.TypePaymentFailed, evt)
	}
}

func (s *PaymentService) publishEvent(ctx context.Context, topic, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(events.EventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toPaymentDTO(p *paymentDomain.Payment) PaymentDTO {
	return PaymentDTO{
		ID:             p.ID(),
		PaymentNumber:  p.PaymentNumber(),
		BookingID:      p.BookingID(),
		Amount:         p.Amount(),
		Currency:       string(p.Currency()),
		PaymentMethod:  string(p.Method()),
		Status:         string(p.Status()),
		TransactionID:  p.TransactionID(),
		PaymentGateway: p.GatewayName(),
		PaymentDate:    p.PaymentDate(),
		RefundAmount:   p.RefundAmount(),
		RefundDate:     p.RefundDate(),
		RefundReason:   p.RefundReason(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}
