package payments

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"rstays/internal/app/policies"
	"rstays/internal/domain/shared/money"
)

var ErrIntentNotFound = errors.New("payments: intent not found")

// defaultFeePercent is the gateway cut applied at capture.
const defaultFeePercent = 3.0

type intent struct {
	bookingID string
	amount    int64
	currency  string
	captured  bool
}

// Gateway is an in-process payment collaborator for dev and tests. It holds
// intents in memory and charges a flat percentage fee at capture.
type Gateway struct {
	FeePercent float64

	mu      sync.Mutex
	intents map[string]*intent
	credits map[string]int64
}

func NewGateway() *Gateway {
	return &Gateway{
		intents: make(map[string]*intent),
		credits: make(map[string]int64),
	}
}

func (g *Gateway) Authorize(ctx context.Context, bookingID string, amount int64, currency string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := uuid.NewString()
	g.intents[id] = &intent{bookingID: bookingID, amount: amount, currency: currency}
	return id, nil
}

func (g *Gateway) Capture(ctx context.Context, intentID string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[intentID]
	if !ok {
		return 0, ErrIntentNotFound
	}
	in.captured = true
	fee := money.Round(float64(in.amount) * g.feePercent() / 100)
	return fee, nil
}

func (g *Gateway) Decline(ctx context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.intents[intentID]; !ok {
		return ErrIntentNotFound
	}
	delete(g.intents, intentID)
	return nil
}

func (g *Gateway) Refund(ctx context.Context, intentID string, fraction float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.intents[intentID]; !ok {
		return ErrIntentNotFound
	}
	return nil
}

func (g *Gateway) CreditBalance(ctx context.Context, userID string, amount int64, currency string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.credits[userID] += amount
	return nil
}

// Balance reports funds credited back to a user.
func (g *Gateway) Balance(userID string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.credits[userID]
}

func (g *Gateway) feePercent() float64 {
	if g.FeePercent > 0 {
		return g.FeePercent
	}
	return defaultFeePercent
}

var _ policies.PaymentsPort = (*Gateway)(nil)
