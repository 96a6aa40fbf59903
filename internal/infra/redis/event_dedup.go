package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// EventDedup remembers webhook body digests for a short window so repeated
// deliveries of the same event can be spotted cheaply. Advisory only: the
// grant path is idempotent regardless, so a redis outage just means the
// duplicate does a harmless extra write.
type EventDedup struct {
	cli *Client
	ttl time.Duration
}

func NewEventDedup(c *Client, ttl time.Duration) *EventDedup {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &EventDedup{cli: c, ttl: ttl}
}

// Seen records the body digest and reports whether it was already present.
func (d *EventDedup) Seen(ctx context.Context, body []byte) (bool, error) {
	sum := sha256.Sum256(body)
	key := "webhook:seen:" + hex.EncodeToString(sum[:])
	fresh, err := d.cli.SetNX(ctx, key, 1, d.ttl)
	if err != nil {
		return false, err
	}
	return !fresh, nil
}
