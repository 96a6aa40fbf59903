// File: internal/usecase/pass_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"directory-pass/internal/domain"
	"directory-pass/internal/domain/model"
	"directory-pass/internal/domain/ports/repository"
	"directory-pass/internal/infra/logging"
	"directory-pass/internal/infra/metrics"
)

// Compile-time check
var _ AccessPassUseCase = (*passUC)(nil)

// Locker serializes pass writes per user. Satisfied by the redis locker;
// tests use an in-memory stub.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// AccessPassUseCase is the single owner of access pass state transitions.
// Both the webhook receiver and the admin API go through it, which is what
// makes concurrent grants and revocations commute.
type AccessPassUseCase interface {
	// ActivePass returns the pass that currently grants access, or
	// domain.ErrNoActivePass. Pure read.
	ActivePass(ctx context.Context, userID string) (*model.AccessPass, error)

	// GrantOrExtend activates access for the user. An existing active pass is
	// extended in place: the new expiry is now+duration, but never earlier
	// than what is already stored. Idempotent under at-least-once delivery of
	// the triggering webhook; repeated calls re-anchor the countdown, they do
	// not stack durations.
	GrantOrExtend(ctx context.Context, userID string, amount int64, currency string, duration time.Duration) (*model.AccessPass, error)

	// Revoke terminates the user's active pass immediately. Terminal for the
	// affected row; a later purchase creates a fresh pass.
	Revoke(ctx context.Context, userID, cause string) error

	// FinishExpired flips lapsed active rows to expired. Housekeeping for the
	// scheduler; access checks never rely on it.
	FinishExpired(ctx context.Context) (int64, error)

	ListByUser(ctx context.Context, userID string) ([]*model.AccessPass, error)
	CountByStatus(ctx context.Context) (map[model.PassStatus]int, error)
}

type passUC struct {
	passes repository.AccessPassRepository
	tm     repository.TransactionManager
	locker Locker
	log    *zerolog.Logger
}

func NewAccessPassUseCase(passes repository.AccessPassRepository, tm repository.TransactionManager, locker Locker, logger *zerolog.Logger) *passUC {
	l := logger.With().Str("component", "PassUC").Logger()
	return &passUC{passes: passes, tm: tm, locker: locker, log: &l}
}

func (u *passUC) ActivePass(ctx context.Context, userID string) (*model.AccessPass, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	p, err := u.passes.FindActiveByUser(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActivePass
		}
		return nil, err
	}
	return p, nil
}

func (u *passUC) GrantOrExtend(ctx context.Context, userID string, amount int64, currency string, duration time.Duration) (*model.AccessPass, error) {
	if userID == "" || duration <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	defer logging.TraceDuration(u.log, "PassUC.GrantOrExtend")()

	if u.locker != nil {
		token, err := u.locker.TryLock(ctx, "pass:grant:"+userID, 10*time.Second)
		if err == nil {
			defer func() { _ = u.locker.Unlock(ctx, "pass:grant:"+userID, token) }()
		}
		// Lock failure is not fatal: the conditional SQL keeps concurrent
		// writers monotonic, the lock just reduces duplicate inserts.
	}

	var granted *model.AccessPass
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		newExpiry := now.Add(duration)

		existing, err := u.passes.FindActiveByUser(ctx, tx, userID)
		switch {
		case err == nil:
			// Extend in place. The repository only raises expires_at, so a
			// concurrent writer that computed a later expiry wins.
			if _, err := u.passes.RaiseExpiry(ctx, tx, existing.ID, newExpiry); err != nil {
				return err
			}
			if newExpiry.After(existing.ExpiresAt) {
				existing.ExpiresAt = newExpiry
			}
			granted = existing
			metrics.IncPassGranted("extend")
			return nil
		case errors.Is(err, domain.ErrNotFound):
			p := &model.AccessPass{
				ID:        uuid.NewString(),
				UserID:    userID,
				Status:    model.PassStatusActive,
				Amount:    amount,
				Currency:  currency,
				ExpiresAt: newExpiry,
				CreatedAt: now,
			}
			if err := u.passes.Save(ctx, tx, p); err != nil {
				return err
			}
			granted = p
			metrics.IncPassGranted("grant")
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().
		Str("user_id", userID).
		Time("expires_at", granted.ExpiresAt).
		Msg("access pass granted")
	return granted, nil
}

func (u *passUC) Revoke(ctx context.Context, userID, cause string) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	n, err := u.passes.RevokeActiveByUser(ctx, repository.NoTX, userID, time.Now())
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNoActivePass
	}
	metrics.IncPassRevoked(cause)
	u.log.Warn().Str("user_id", userID).Str("cause", cause).Int64("rows", n).Msg("access pass revoked")
	return nil
}

func (u *passUC) FinishExpired(ctx context.Context) (int64, error) {
	n, err := u.passes.MarkExpired(ctx, repository.NoTX)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.IncPassesExpired(n)
	}
	return n, nil
}

func (u *passUC) ListByUser(ctx context.Context, userID string) ([]*model.AccessPass, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.passes.ListByUser(ctx, repository.NoTX, userID)
}

func (u *passUC) CountByStatus(ctx context.Context) (map[model.PassStatus]int, error) {
	return u.passes.CountByStatus(ctx, repository.NoTX)
}
