package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"directory-pass/internal/domain"
	"directory-pass/internal/domain/model"
	"directory-pass/internal/domain/ports/repository"
)

// Ensure accessPassRepo implements repository.AccessPassRepository
var _ repository.AccessPassRepository = (*accessPassRepo)(nil)

type accessPassRepo struct {
	pool *pgxpool.Pool
}

func NewAccessPassRepo(pool *pgxpool.Pool) *accessPassRepo {
	return &accessPassRepo{pool: pool}
}

const passColumns = `id, user_id, status, amount, currency, expires_at, created_at, revoked_at`

func (r *accessPassRepo) Save(ctx context.Context, tx repository.Tx, p *model.AccessPass) error {
	const q = `
INSERT INTO access_passes (
  id, user_id, status, amount, currency, expires_at, created_at, revoked_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  status=$3, expires_at=$6, revoked_at=$8;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.Status, p.Amount, p.Currency, p.ExpiresAt, p.CreatedAt, p.RevokedAt)
	return mapError(err)
}

func (r *accessPassRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.AccessPass, error) {
	q := `SELECT ` + passColumns + ` FROM access_passes WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.queryOne(ctx, tx, q, id)
}

// FindActiveByUser compares expiry against the database clock so that a
// skewed application clock cannot keep a stale pass alive.
func (r *accessPassRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.AccessPass, error) {
	q := `
SELECT ` + passColumns + `
  FROM access_passes
 WHERE user_id=$1 AND status='active' AND expires_at > NOW()
 ORDER BY expires_at DESC
 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	return r.queryOne(ctx, tx, q, userID)
}

// RaiseExpiry only ever moves expires_at forward; a retried webhook or a
// racing admin grant that computed an earlier expiry becomes a no-op.
func (r *accessPassRepo) RaiseExpiry(ctx context.Context, tx repository.Tx, id string, expiresAt time.Time) (int64, error) {
	const q = `
UPDATE access_passes
   SET expires_at = GREATEST(expires_at, $2)
 WHERE id=$1 AND status='active';`
	tag, err := execSQL(ctx, r.pool, tx, q, id, expiresAt)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *accessPassRepo) RevokeActiveByUser(ctx context.Context, tx repository.Tx, userID string, at time.Time) (int64, error) {
	const q = `
UPDATE access_passes
   SET status='revoked', revoked_at=$2
 WHERE user_id=$1 AND status='active';`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, at)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *accessPassRepo) MarkExpired(ctx context.Context, tx repository.Tx) (int64, error) {
	const q = `
UPDATE access_passes
   SET status='expired'
 WHERE status='active' AND expires_at <= NOW();`
	tag, err := execSQL(ctx, r.pool, tx, q)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *accessPassRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.AccessPass, error) {
	const q = `
SELECT ` + passColumns + `
  FROM access_passes
 WHERE user_id=$1
 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*model.AccessPass
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *accessPassRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.PassStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM access_passes GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	counts := make(map[model.PassStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.PassStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

func (r *accessPassRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.AccessPass, error) {
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapError(err)
	}
	p := &model.AccessPass{}
	if err := row.Scan(&p.ID, &p.UserID, &p.Status, &p.Amount, &p.Currency, &p.ExpiresAt, &p.CreatedAt, &p.RevokedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func scanPass(rows pgx.Rows) (*model.AccessPass, error) {
	p := &model.AccessPass{}
	if err := rows.Scan(&p.ID, &p.UserID, &p.Status, &p.Amount, &p.Currency, &p.ExpiresAt, &p.CreatedAt, &p.RevokedAt); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
