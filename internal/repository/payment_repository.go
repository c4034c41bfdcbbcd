package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rahhal-travel/service-booking/internal/domain"
	paymentDomain "github.com/rahhal-travel/service-booking/internal/domain/payment"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PaymentNumber   string          `gorm:"uniqueIndex;not null;size:20"`
	BookingID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Amount          decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Currency        string          `gorm:"not null;size:3;default:'SYP'"`
	PaymentMethod   string          `gorm:"not null;size:20"`
	Status          string          `gorm:"not null;size:15;index"`
	TransactionID   string          `gorm:"size:100;index"`
	PaymentGateway  string          `gorm:"size:50"`
	GatewayResponse json.RawMessage `gorm:"type:jsonb"`
	PaymentDate     *time.Time      `gorm:""`
	RefundAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	RefundDate      *time.Time      `gorm:""`
	RefundReason    string          `gorm:"size:500"`
	Version         int64           `gorm:"not null;default:1"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (PaymentModel) TableName() string {
	return "payments"
}

// GormPaymentRepository is the GORM-based implementation of PaymentRepository.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository.
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID retrieves a payment by its unique identifier.
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := dbFrom(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", id.String())
		}
		return nil, fmt.Errorf("failed to find payment by ID: %w", err)
	}
	return toDomainPayment(&model)
}

// FindByNumber retrieves a payment by its payment number.
func (r *GormPaymentRepository) FindByNumber(ctx context.Context, number string) (*paymentDomain.Payment, error) {
	var model PaymentModel
	if err := dbFrom(ctx, r.db).Where("payment_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Payment", number)
		}
		return nil, fmt.Errorf("failed to find payment by number: %w", err)
	}
	return toDomainPayment(&model)
}

// FindByBookingID retrieves all payments made against a booking, newest first.
func (r *GormPaymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	var models []PaymentModel
	if err := dbFrom(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find payments by booking: %w", err)
	}

	payments := make([]*paymentDomain.Payment, len(models))
	for i, m := range models {
		p, err := toDomainPayment(&m)
		if err != nil {
			return nil, err
		}
		payments[i] = p
	}
	return payments, nil
}

// FindByUserID retrieves payments against bookings owned by the user.
func (r *GormPaymentRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*paymentDomain.Payment, int64, error) {
	base := dbFrom(ctx, r.db).
		Model(&PaymentModel{}).
		Joins("JOIN bookings ON bookings.id = payments.booking_id").
		Where("bookings.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user payments: %w", err)
	}

	var models []PaymentModel
	offset := (page - 1) * limit
	if err := dbFrom(ctx, r.db).
		Joins("JOIN bookings ON bookings.id = payments.booking_id").
		Where("bookings.user_id = ?", userID).
		Order("payments.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find user payments: %w", err)
	}

	payments := make([]*paymentDomain.Payment, len(models))
	for i, m := range models {
		p, err := toDomainPayment(&m)
		if err != nil {
			return nil, 0, err
		}
		payments[i] = p
	}
	return payments, total, nil
}

// HasCompletedForBooking reports whether the booking already has a completed payment.
func (r *GormPaymentRepository) HasCompletedForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	if err := dbFrom(ctx, r.db).
		Model(&PaymentModel{}).
		Where("booking_id = ? AND status = ?", bookingID, string(paymentDomain.StatusCompleted)).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check completed payment: %w", err)
	}
	return count > 0, nil
}

// ExistsByNumber reports whether a payment with the given number exists.
func (r *GormPaymentRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	if err := dbFrom(ctx, r.db).Model(&PaymentModel{}).Where("payment_number = ?", number).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check payment number: %w", err)
	}
	return count > 0, nil
}

// GetRevenueStats returns the total completed revenue and counts by status (admin).
func (r *GormPaymentRepository) GetRevenueStats(ctx context.Context) (decimal.Decimal, map[string]int64, error) {
	var revenue decimal.NullDecimal
	if err := dbFrom(ctx, r.db).
		Model(&PaymentModel{}).
		Select("COALESCE(SUM(amount - refund_amount), 0)").
		Where("status IN ?", []string{string(paymentDomain.StatusCompleted), string(paymentDomain.StatusRefunded)}).
		Scan(&revenue).Error; err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := dbFrom(ctx, r.db).Model(&PaymentModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to count payments by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}

	total := decimal.Zero
	if revenue.Valid {
		total = revenue.Decimal
	}
	return total, counts, nil
}

// Save persists a new payment. The partial unique index on completed
// payments rejects a second completed payment for the same booking even if
// two settlements race past the application-level check.
func (r *GormPaymentRepository) Save(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("payment conflicts with an existing payment")
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// Update persists changes to an existing payment with optimistic locking.
func (r *GormPaymentRepository) Update(ctx context.Context, p *paymentDomain.Payment) error {
	model := toPaymentModel(p)

	expectedVersion := p.Version() - 1
	result := dbFrom(ctx, r.db).
		Model(&PaymentModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":           model.Status,
			"transaction_id":   model.TransactionID,
			"payment_gateway":  model.PaymentGateway,
			"gateway_response": model.GatewayResponse,
			"payment_date":     model.PaymentDate,
			"refund_amount":    model.RefundAmount,
			"refund_date":      model.RefundDate,
			"refund_reason":    model.RefundReason,
			"version":          model.Version,
			"updated_at":       model.UpdatedAt,
		})

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.NewConflictError("payment conflicts with an existing payment")
		}
		return fmt.Errorf("failed to update payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("payment was modified by another transaction")
	}
	return nil
}

// --- Conversion Helpers ---

func toPaymentModel(p *paymentDomain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:              p.ID(),
		PaymentNumber:   p.PaymentNumber(),
		BookingID:       p.BookingID(),
		Amount:          p.Amount(),
		Currency:        string(p.Currency()),
		PaymentMethod:   string(p.Method()),
		Status:          string(p.Status()),
		TransactionID:   p.TransactionID(),
		PaymentGateway:  p.GatewayName(),
		GatewayResponse: p.GatewayResponse(),
		PaymentDate:     p.PaymentDate(),
		RefundAmount:    p.RefundAmount(),
		RefundDate:      p.RefundDate(),
		RefundReason:    p.RefundReason(),
		Version:         p.Version(),
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
	}
}

func toDomainPayment(m *PaymentModel) (*paymentDomain.Payment, error) {
	status, err := paymentDomain.ParsePaymentStatus(m.Status)
	if err != nil {
		return nil, err
	}
	currency, err := paymentDomain.ParseCurrency(m.Currency)
	if err != nil {
		return nil, err
	}
	method, err := paymentDomain.ParseMethod(m.PaymentMethod)
	if err != nil {
		return nil, err
	}

	return paymentDomain.Reconstruct(
		m.ID,
		m.PaymentNumber,
		m.BookingID,
		m.Amount,
		currency,
		method,
		status,
		m.TransactionID,
		m.PaymentGateway,
		m.GatewayResponse,
		m.PaymentDate,
		m.RefundAmount,
		m.RefundDate,
		m.RefundReason,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
