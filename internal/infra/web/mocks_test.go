//go:build !integration

package web_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"directory-pass/internal/config"
	"directory-pass/internal/domain"
	"directory-pass/internal/domain/model"
	"directory-pass/internal/domain/ports/adapter"
	"directory-pass/internal/domain/ports/repository"
	redisinfra "directory-pass/internal/infra/redis"
	"directory-pass/internal/infra/web"
	"directory-pass/internal/usecase"
)

const (
	testAPIKey        = "svc-key"
	testAdminPassword = "hunter2"
	testJWTSecret     = "jwt-secret"
)

// memRepo is the in-memory stand-in for the Postgres repository, keeping the
// same conditional-update semantics.
type memRepo struct {
	mu     sync.Mutex
	passes map[string]*model.AccessPass
}

func newMemRepo() *memRepo { return &memRepo{passes: make(map[string]*model.AccessPass)} }

func (m *memRepo) clone(p *model.AccessPass) *model.AccessPass { cp := *p; return &cp }

func (m *memRepo) Save(_ context.Context, _ repository.Tx, p *model.AccessPass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes[p.ID] = m.clone(p)
	return nil
}

func (m *memRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.AccessPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.passes[id]; ok {
		return m.clone(p), nil
	}
	return nil, domain.ErrNotFound
}

func (m *memRepo) FindActiveByUser(_ context.Context, _ repository.Tx, userID string) (*model.AccessPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *model.AccessPass
	now := time.Now()
	for _, p := range m.passes {
		if p.UserID == userID && p.Status == model.PassStatusActive && p.ExpiresAt.After(now) {
			if best == nil || p.ExpiresAt.After(best.ExpiresAt) {
				best = p
			}
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return m.clone(best), nil
}

func (m *memRepo) RaiseExpiry(_ context.Context, _ repository.Tx, id string, expiresAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.passes[id]
	if !ok || p.Status != model.PassStatusActive {
		return 0, nil
	}
	if expiresAt.After(p.ExpiresAt) {
		p.ExpiresAt = expiresAt
	}
	return 1, nil
}

func (m *memRepo) RevokeActiveByUser(_ context.Context, _ repository.Tx, userID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.passes {
		if p.UserID == userID && p.Status == model.PassStatusActive {
			p.Status = model.PassStatusRevoked
			t := at
			p.RevokedAt = &t
			n++
		}
	}
	return n, nil
}

func (m *memRepo) MarkExpired(_ context.Context, _ repository.Tx) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now()
	for _, p := range m.passes {
		if p.Status == model.PassStatusActive && !p.ExpiresAt.After(now) {
			p.Status = model.PassStatusExpired
			n++
		}
	}
	return n, nil
}

func (m *memRepo) ListByUser(_ context.Context, _ repository.Tx, userID string) ([]*model.AccessPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AccessPass
	for _, p := range m.passes {
		if p.UserID == userID {
			out = append(out, m.clone(p))
		}
	}
	return out, nil
}

func (m *memRepo) CountByStatus(_ context.Context, _ repository.Tx) (map[model.PassStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.PassStatus]int)
	for _, p := range m.passes {
		out[p.Status]++
	}
	return out, nil
}

func (m *memRepo) rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.passes)
}

type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

type mockGateway struct {
	mu        sync.Mutex
	cashInErr error
	result    adapter.CashInResult
	status    adapter.TransactionStatus
	reqs      []adapter.CashInRequest
}

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) CashIn(_ context.Context, req adapter.CashInRequest) (adapter.CashInResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if g.cashInErr != nil {
		return adapter.CashInResult{}, g.cashInErr
	}
	return g.result, nil
}

func (g *mockGateway) GetTransactionStatus(_ context.Context, txID string) (adapter.TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.status
	st.TransactionID = txID
	return st, nil
}

type testEnv struct {
	handler http.Handler
	repo    *memRepo
	gw      *mockGateway
	passUC  usecase.AccessPassUseCase
	cfg     config.PassConfig
}

// newTestEnv wires the full router against in-memory infrastructure, with
// the webhook dedup backed by miniredis. webhookSecret "" disables signature
// enforcement.
func newTestEnv(t *testing.T, webhookSecret string) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	cfg := config.PassConfig{
		PriceAmount: 5000,
		Currency:    "XOF",
		Duration:    time.Hour,
		Operators:   []string{"OM", "MOMO", "MOOV", "WAVE"},
	}

	mr := miniredis.RunT(t)
	redisClient, err := redisinfra.NewClient(context.Background(), &config.RedisConfig{URL: mr.Addr()})
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })
	dedup := redisinfra.NewEventDedup(redisClient, time.Hour)

	repo := newMemRepo()
	gw := &mockGateway{}
	passUC := usecase.NewAccessPassUseCase(repo, memTxManager{}, nil, &logger)
	purchaseUC := usecase.NewPurchaseUseCase(gw, cfg, true, &logger)
	activationUC := usecase.NewActivationUseCase(gw, passUC, &logger)

	auth := web.NewAuthManager(testJWTSecret, false, time.Hour)
	srv := web.NewServer(passUC, purchaseUC, activationUC, web.Options{
		PassConfig:    cfg,
		APIKey:        testAPIKey,
		AdminPassword: testAdminPassword,
		WebhookSecret: webhookSecret,
		Auth:          auth,
		Dedup:         dedup,
	}, &logger)

	return &testEnv{handler: srv.Routes(), repo: repo, gw: gw, passUC: passUC, cfg: cfg}
}
