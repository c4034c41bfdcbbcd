package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rahhal-travel/service-booking/internal/domain"
	bookingDomain "github.com/rahhal-travel/service-booking/internal/domain/booking"
	"github.com/rahhal-travel/service-booking/internal/domain/catalog"
	paymentDomain "github.com/rahhal-travel/service-booking/internal/domain/payment"
	"github.com/rahhal-travel/service-booking/internal/kafka"
)

// --- Transaction fake ---

// passthroughTx runs the unit of work on the same context. The in-memory
// repositories have no rollback, so tests asserting rollback behavior inspect
// what was written instead.
type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// --- Event publisher fake ---

type publishedEvent struct {
	Topic string
	Event kafka.CloudEvent
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *capturingPublisher) PublishEvent(_ context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Event: event})
	return nil
}

func (p *capturingPublisher) byType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// --- Reference generator fake ---

type seqRefs struct {
	mu   sync.Mutex
	next int
	// fixed pins every generated reference to one value, for collision tests.
	fixed string
}

func (g *seqRefs) Generate(prefix string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fixed != "" {
		return g.fixed, nil
	}
	g.next++
	return fmt.Sprintf("%s%08d", prefix, g.next), nil
}

// --- Booking repository fake ---

// memBookingRepo mirrors the GORM repository's concurrency contract: reads
// hand out detached copies, Update gates on the stored version, and the
// status compare-and-set bumps the version so stale copies conflict.
type memBookingRepo struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*bookingDomain.Booking
	byNumber map[string]*bookingDomain.Booking
}

func cloneBooking(bk *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.Reconstruct(
		bk.ID(), bk.BookingNumber(), bk.UserID(), bk.Kind(),
		bk.PackageID(), bk.CustomTripID(), bk.Status(), bk.TotalPrice(),
		bk.Travelers(), bk.TravelerDetails(), bk.SpecialRequests(),
		bk.StartDate(), bk.EndDate(), bk.BookingDate(),
		bk.ConfirmationDate(), bk.CancellationDate(), bk.CancellationReason(),
		bk.Version(), bk.UpdatedAt(),
	)
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{
		byID:     make(map[uuid.UUID]*bookingDomain.Booking),
		byNumber: make(map[string]*bookingDomain.Booking),
	}
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(bk), nil
}

func (r *memBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.byNumber[number]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", number)
	}
	return cloneBooking(bk), nil
}

func (r *memBookingRepo) FindByNumberForUpdate(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	return r.FindByNumber(ctx, number)
}

func (r *memBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.byID {
		if bk.UserID() == userID {
			out = append(out, cloneBooking(bk))
		}
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) ListAll(_ context.Context, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.byID {
		out = append(out, cloneBooking(bk))
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.byID {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *memBookingRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byNumber[number]
	return ok, nil
}

func (r *memBookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byNumber[bk.BookingNumber()]; ok {
		return domain.NewConflictError("booking number already exists")
	}
	stored := cloneBooking(bk)
	r.byID[stored.ID()] = stored
	r.byNumber[stored.BookingNumber()] = stored
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	if stored.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	updated := cloneBooking(bk)
	r.byID[updated.ID()] = updated
	r.byNumber[updated.BookingNumber()] = updated
	return nil
}

func (r *memBookingRepo) UpdateStatusIfCurrent(_ context.Context, id uuid.UUID, from []bookingDomain.BookingStatus, target bookingDomain.BookingStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.byID[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if bk.Status() == s {
			rebuilt := bookingDomain.Reconstruct(
				bk.ID(), bk.BookingNumber(), bk.UserID(), bk.Kind(),
				bk.PackageID(), bk.CustomTripID(), target, bk.TotalPrice(),
				bk.Travelers(), bk.TravelerDetails(), bk.SpecialRequests(),
				bk.StartDate(), bk.EndDate(), bk.BookingDate(),
				bk.ConfirmationDate(), bk.CancellationDate(), bk.CancellationReason(),
				bk.Version()+1, bk.UpdatedAt(),
			)
			r.byID[id] = rebuilt
			r.byNumber[rebuilt.BookingNumber()] = rebuilt
			return true, nil
		}
	}
	return false, nil
}

// --- Payment repository fake ---

// memPaymentRepo hands out detached copies and version-gates Update, like
// the GORM repository.
type memPaymentRepo struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*paymentDomain.Payment
	byNumber map[string]*paymentDomain.Payment
	bookings *memBookingRepo
}

func clonePayment(p *paymentDomain.Payment) *paymentDomain.Payment {
	return paymentDomain.Reconstruct(
		p.ID(), p.PaymentNumber(), p.BookingID(), p.Amount(),
		p.Currency(), p.Method(), p.Status(),
		p.TransactionID(), p.GatewayName(), p.GatewayResponse(), p.PaymentDate(),
		p.RefundAmount(), p.RefundDate(), p.RefundReason(),
		p.Version(), p.CreatedAt(), p.UpdatedAt(),
	)
}

func newMemPaymentRepo(bookings *memBookingRepo) *memPaymentRepo {
	return &memPaymentRepo{
		byID:     make(map[uuid.UUID]*paymentDomain.Payment),
		byNumber: make(map[string]*paymentDomain.Payment),
		bookings: bookings,
	}
}

func (r *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError("Payment", id.String())
	}
	return clonePayment(p), nil
}

func (r *memPaymentRepo) FindByNumber(_ context.Context, number string) (*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byNumber[number]
	if !ok {
		return nil, domain.NewNotFoundError("Payment", number)
	}
	return clonePayment(p), nil
}

func (r *memPaymentRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*paymentDomain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*paymentDomain.Payment
	for _, p := range r.byID {
		if p.BookingID() == bookingID {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (r *memPaymentRepo) FindByUserID(ctx context.Context, userID uuid.UUID, _, _ int) ([]*paymentDomain.Payment, int64, error) {
	r.mu.Lock()
	payments := make([]*paymentDomain.Payment, 0, len(r.byID))
	for _, p := range r.byID {
		payments = append(payments, clonePayment(p))
	}
	r.mu.Unlock()

	var out []*paymentDomain.Payment
	for _, p := range payments {
		bk, err := r.bookings.FindByID(ctx, p.BookingID())
		if err != nil {
			continue
		}
		if bk.UserID() == userID {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memPaymentRepo) HasCompletedForBooking(_ context.Context, bookingID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		if p.BookingID() == bookingID && p.Status() == paymentDomain.StatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPaymentRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byNumber[number]
	return ok, nil
}

func (r *memPaymentRepo) GetRevenueStats(_ context.Context) (decimal.Decimal, map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	counts := make(map[string]int64)
	for _, p := range r.byID {
		counts[string(p.Status())]++
		if p.Status() == paymentDomain.StatusCompleted || p.Status() == paymentDomain.StatusRefunded {
			total = total.Add(p.Amount().Sub(p.RefundAmount()))
		}
	}
	return total, counts, nil
}

func (r *memPaymentRepo) Save(_ context.Context, p *paymentDomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byNumber[p.PaymentNumber()]; ok {
		return domain.NewConflictError("payment number already exists")
	}
	stored := clonePayment(p)
	r.byID[stored.ID()] = stored
	r.byNumber[stored.PaymentNumber()] = stored
	return nil
}

func (r *memPaymentRepo) Update(_ context.Context, p *paymentDomain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[p.ID()]
	if !ok {
		return domain.NewNotFoundError("Payment", p.ID().String())
	}
	if stored.Version() != p.Version()-1 {
		return domain.NewConflictError("payment was modified by another transaction")
	}
	updated := clonePayment(p)
	r.byID[updated.ID()] = updated
	r.byNumber[updated.PaymentNumber()] = updated
	return nil
}

// --- Catalog repository fakes ---

type memPackageRepo struct {
	packages map[uuid.UUID]*catalog.Package
}

func newMemPackageRepo(packages ...*catalog.Package) *memPackageRepo {
	byID := make(map[uuid.UUID]*catalog.Package, len(packages))
	for _, pkg := range packages {
		byID[pkg.ID] = pkg
	}
	return &memPackageRepo{packages: byID}
}

func (r *memPackageRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Package, error) {
	pkg, ok := r.packages[id]
	if !ok {
		return nil, domain.NewNotFoundError("Package", id.String())
	}
	return pkg, nil
}

func (r *memPackageRepo) ListActive(_ context.Context, _, _ int) ([]*catalog.Package, int64, error) {
	var out []*catalog.Package
	for _, pkg := range r.packages {
		if pkg.IsActive {
			out = append(out, pkg)
		}
	}
	return out, int64(len(out)), nil
}

type memTripRepo struct {
	mu    sync.Mutex
	trips map[uuid.UUID]*catalog.CustomTrip
}

func newMemTripRepo(trips ...*catalog.CustomTrip) *memTripRepo {
	byID := make(map[uuid.UUID]*catalog.CustomTrip, len(trips))
	for _, trip := range trips {
		byID[trip.ID()] = trip
	}
	return &memTripRepo{trips: byID}
}

func (r *memTripRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.CustomTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	trip, ok := r.trips[id]
	if !ok {
		return nil, domain.NewNotFoundError("CustomTrip", id.String())
	}
	return trip, nil
}

func (r *memTripRepo) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*catalog.CustomTrip, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*catalog.CustomTrip
	for _, trip := range r.trips {
		if trip.UserID() == userID {
			out = append(out, trip)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memTripRepo) Update(_ context.Context, trip *catalog.CustomTrip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trips[trip.ID()]; !ok {
		return domain.NewNotFoundError("CustomTrip", trip.ID().String())
	}
	r.trips[trip.ID()] = trip
	return nil
}

// --- Gateway fake ---

type stubGateway struct {
	approve bool
	err     error
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) Charge(_ context.Context, req paymentDomain.ChargeRequest) (paymentDomain.ChargeResult, error) {
	if g.err != nil {
		return paymentDomain.ChargeResult{}, g.err
	}
	if !g.approve {
		return paymentDomain.ChargeResult{
			Approved: false,
			Reason:   "declined by gateway",
			Response: []byte(`{"status":"failed"}`),
		}, nil
	}
	return paymentDomain.ChargeResult{
		Approved:      true,
		TransactionID: "TXN" + req.PaymentNumber + "0001",
		Response:      []byte(`{"status":"success"}`),
	}, nil
}
