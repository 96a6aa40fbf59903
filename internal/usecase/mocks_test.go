//go:build !integration

package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"directory-pass/internal/domain"
	"directory-pass/internal/domain/model"
	"directory-pass/internal/domain/ports/adapter"
	"directory-pass/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- repository ---

// memPassRepo mirrors the conditional-update semantics of the SQL
// implementation: expiry only ever raised, revocation only touches active
// rows, liveness judged against the store's clock.
type memPassRepo struct {
	mu     sync.Mutex
	passes map[string]*model.AccessPass
	saveN  int
	failOn string // method name that should return ErrOperationFailed
}

func newMemPassRepo() *memPassRepo {
	return &memPassRepo{passes: make(map[string]*model.AccessPass)}
}

func (m *memPassRepo) clone(p *model.AccessPass) *model.AccessPass {
	cp := *p
	return &cp
}

func (m *memPassRepo) Save(_ context.Context, _ repository.Tx, p *model.AccessPass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "Save" {
		return domain.ErrOperationFailed
	}
	m.passes[p.ID] = m.clone(p)
	m.saveN++
	return nil
}

func (m *memPassRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.AccessPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.passes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.clone(p), nil
}

func (m *memPassRepo) FindActiveByUser(_ context.Context, _ repository.Tx, userID string) (*model.AccessPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "FindActiveByUser" {
		return nil, domain.ErrOperationFailed
	}
	var best *model.AccessPass
	now := time.Now()
	for _, p := range m.passes {
		if p.UserID != userID || p.Status != model.PassStatusActive || !p.ExpiresAt.After(now) {
			continue
		}
		if best == nil || p.ExpiresAt.After(best.ExpiresAt) {
			best = p
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return m.clone(best), nil
}

func (m *memPassRepo) RaiseExpiry(_ context.Context, _ repository.Tx, id string, expiresAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "RaiseExpiry" {
		return 0, domain.ErrOperationFailed
	}
	p, ok := m.passes[id]
	if !ok || p.Status != model.PassStatusActive {
		return 0, nil
	}
	if expiresAt.After(p.ExpiresAt) {
		p.ExpiresAt = expiresAt
	}
	return 1, nil
}

func (m *memPassRepo) RevokeActiveByUser(_ context.Context, _ repository.Tx, userID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "RevokeActiveByUser" {
		return 0, domain.ErrOperationFailed
	}
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

func (m *memPassRepo) MarkExpired(_ context.Context, _ repository.Tx) (int64, error) {
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

func (m *memPassRepo) ListByUser(_ context.Context, _ repository.Tx, userID string) ([]*model.AccessPass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AccessPass
	for _, p := range m.passes {
		if p.UserID == userID {
			out = append(out, m.clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memPassRepo) CountByStatus(_ context.Context, _ repository.Tx) (map[model.PassStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.PassStatus]int)
	for _, p := range m.passes {
		out[p.Status]++
	}
	return out, nil
}

func (m *memPassRepo) rows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.passes)
}

// --- transaction manager ---

// memTxManager runs the function inline with no transaction handle, matching
// what the repositories accept on the non-transactional path.
type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// --- locker ---

type memLocker struct {
	mu    sync.Mutex
	held  map[string]string
	locks int
}

func newMemLocker() *memLocker { return &memLocker{held: make(map[string]string)} }

func (l *memLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrLockNotAcquired
	}
	l.held[key] = "tok"
	l.locks++
	return "tok", nil
}

func (l *memLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

// --- gateway ---

type mockGateway struct {
	mu         sync.Mutex
	cashInErr  error
	cashInReqs []adapter.CashInRequest
	result     adapter.CashInResult
	statuses   []adapter.TransactionStatus // consumed one per poll, last one sticks
	statusErr  error
	polls      int
}

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) CashIn(_ context.Context, req adapter.CashInRequest) (adapter.CashInResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cashInReqs = append(g.cashInReqs, req)
	if g.cashInErr != nil {
		return adapter.CashInResult{}, g.cashInErr
	}
	return g.result, nil
}

func (g *mockGateway) GetTransactionStatus(_ context.Context, txID string) (adapter.TransactionStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.polls++
	if g.statusErr != nil {
		return adapter.TransactionStatus{}, g.statusErr
	}
	if len(g.statuses) == 0 {
		return adapter.TransactionStatus{TransactionID: txID, Status: "PENDING"}, nil
	}
	st := g.statuses[0]
	if len(g.statuses) > 1 {
		g.statuses = g.statuses[1:]
	}
	st.TransactionID = txID
	return st, nil
}
