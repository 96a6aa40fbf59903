package gateway

import (
	"context"
	"fmt"
	"sync"

	"directory-pass/internal/domain/ports/adapter"
)

var _ adapter.MobileMoneyGateway = (*NoopGateway)(nil)

// NoopGateway is a simple in-memory gateway for dev mode and tests.
// Every cash-in is accepted and immediately reported as successful.
type NoopGateway struct {
	mu      sync.Mutex
	seq     int64
	intents map[string]int64 // transaction id -> amount
}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{intents: make(map[string]int64)}
}

func (g *NoopGateway) Name() string { return "noop" }

func (g *NoopGateway) CashIn(ctx context.Context, req adapter.CashInRequest) (adapter.CashInResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	g.intents[req.TransactionID] = req.Amount
	return adapter.CashInResult{
		ProviderRef: fmt.Sprintf("noop-%d", g.seq),
		PaymentURL:  "https://example.test/pay/" + req.TransactionID,
	}, nil
}

func (g *NoopGateway) GetTransactionStatus(ctx context.Context, transactionID string) (adapter.TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.intents[transactionID]; !ok {
		return adapter.TransactionStatus{TransactionID: transactionID, Status: "UNKNOWN"}, nil
	}
	return adapter.TransactionStatus{TransactionID: transactionID, Status: "SUCCESS", Succeeded: true}, nil
}
