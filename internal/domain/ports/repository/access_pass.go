package repository

import (
	"context"
	"time"

	"directory-pass/internal/domain/model"
)

// AccessPassRepository is the port for persisted access passes.
//
// All mutating operations must be safe under concurrent webhook retries and
// admin actions: implementations use conditional updates (expiry only ever
// raised, revocation only touches active rows) rather than read-modify-write.
type AccessPassRepository interface {
	Save(ctx context.Context, tx Tx, p *model.AccessPass) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.AccessPass, error)

	// FindActiveByUser returns the active row with the latest expiry, judged
	// against the datastore's own clock. domain.ErrNotFound when none.
	FindActiveByUser(ctx context.Context, tx Tx, userID string) (*model.AccessPass, error)

	// RaiseExpiry sets expires_at to the given value only if it is later than
	// the stored one and the row is still active. Returns the rows affected.
	RaiseExpiry(ctx context.Context, tx Tx, id string, expiresAt time.Time) (int64, error)

	// RevokeActiveByUser flips every active row of the user to revoked.
	// Returns the number of rows revoked.
	RevokeActiveByUser(ctx context.Context, tx Tx, userID string, at time.Time) (int64, error)

	// MarkExpired flips active rows whose expiry has passed to expired.
	// Housekeeping only; access decisions never depend on it.
	MarkExpired(ctx context.Context, tx Tx) (int64, error)

	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.AccessPass, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.PassStatus]int, error)
}
