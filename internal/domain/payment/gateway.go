package payment

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// ChargeRequest carries the data the gateway needs to collect a payment.
type ChargeRequest struct {
	PaymentNumber string
	Amount        decimal.Decimal
	Currency      Currency
	Method        Method
}

// ChargeResult is the gateway's settlement outcome. Exactly one of approved
// or declined; the raw response is persisted verbatim on the payment.
type ChargeResult struct {
	Approved      bool
	TransactionID string
	Reason        string
	Response      json.RawMessage
}

// Gateway abstracts the external payment gateway so the settlement state
// machine can be exercised against a stub. Implementations must respect the
// context deadline; a timed-out charge is treated as declined, never approved.
type Gateway interface {
	// Name identifies the gateway in persisted payment rows.
	Name() string

	// Charge attempts to collect the requested amount.
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// SimulatedGateway approves a configurable fraction of charges at random.
// It stands in for a real gateway integration in development and testing.
type SimulatedGateway struct {
	approveRate float64
	mu          sync.Mutex
}

// NewSimulatedGateway creates a gateway approving roughly approveRate of
// charges (clamped to [0, 1]).
func NewSimulatedGateway(approveRate float64) *SimulatedGateway {
	if approveRate < 0 {
		approveRate = 0
	}
	if approveRate > 1 {
		approveRate = 1
	}
	return &SimulatedGateway{approveRate: approveRate}
}

// Name returns the gateway identifier.
func (g *SimulatedGateway) Name() string {
	return "simulated"
}

// Charge resolves the payment to approved or declined.
func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}

	g.mu.Lock()
	approved, err := g.draw()
	g.mu.Unlock()
	if err != nil {
		return ChargeResult{}, fmt.Errorf("gateway draw failed: %w", err)
	}

	now := time.Now().UTC()
	if !approved {
		response, _ := json.Marshal(map[string]interface{}{
			"status":        "failed",
			"error_message": "payment processing failed",
			"timestamp":     now.Format(time.RFC3339),
		})
		return ChargeResult{
			Approved: false,
			Reason:   "declined by gateway",
			Response: response,
		}, nil
	}

	suffix, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return ChargeResult{}, fmt.Errorf("failed to generate transaction id: %w", err)
	}
	transactionID := fmt.Sprintf("TXN%s%d", req.PaymentNumber, suffix.Int64()+1000)

	response, _ := json.Marshal(map[string]interface{}{
		"status":         "success",
		"transaction_id": transactionID,
		"message":        "payment processed successfully",
		"timestamp":      now.Format(time.RFC3339),
	})
	return ChargeResult{
		Approved:      true,
		TransactionID: transactionID,
		Response:      response,
	}, nil
}

func (g *SimulatedGateway) draw() (bool, error) {
	const scale = 1_000_000
	n, err := rand.Int(rand.Reader, big.NewInt(scale))
	if err != nil {
		return false, err
	}
	return float64(n.Int64()) < g.approveRate*scale, nil
}
