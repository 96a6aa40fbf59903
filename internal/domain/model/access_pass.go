package model

import "time"

type PassStatus string

const (
	PassStatusActive  PassStatus = "active"  // granted and not past expiry
	PassStatusExpired PassStatus = "expired" // housekeeping flag; liveness is computed from expires_at
	PassStatusRevoked PassStatus = "revoked" // terminal, never re-enters active
)

// AccessPass is a user's temporary authorization to view the business directory.
// At most one row per user matters for access decisions at any time: the active
// row with the latest expires_at.
type AccessPass struct {
	ID        string // UUID
	UserID    string // owner identity (external account entity)
	Status    PassStatus
	Amount    int64  // price paid in minor units, immutable after grant
	Currency  string // ISO-ish code, e.g. "XOF"
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time // set when status becomes revoked
}

// ActiveAt reports whether the pass grants access at the given instant.
func (p *AccessPass) ActiveAt(now time.Time) bool {
	return p != nil && p.Status == PassStatusActive && p.ExpiresAt.After(now)
}

// Remaining returns the time left on the pass at the given instant, or zero.
func (p *AccessPass) Remaining(now time.Time) time.Duration {
	if !p.ActiveAt(now) {
		return 0
	}
	return p.ExpiresAt.Sub(now)
}
