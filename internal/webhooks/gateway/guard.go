package gatewaywebhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sanabelapp/sanabel-backend/pkg/redis"
)

const guardScope = "gateway_webhook"

// Guard is the fast-path dedupe for webhook deliveries. It only short-circuits
// work; correctness is carried by the (gateway, track_id) constraint and the
// absorbing-state check in the service.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewGuard builds a guard with the given dedupe window.
func NewGuard(store redis.IdempotencyStore, ttl time.Duration) *Guard {
	return &Guard{store: store, ttl: ttl}
}

// Fingerprint derives the dedupe key for a raw payload.
func Fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// CheckAndMark claims the fingerprint. The false return means an identical
// payload was already accepted inside the TTL window. A nil guard or a store
// error claims nothing and lets the delivery through; the database-level
// idempotency still holds.
func (g *Guard) CheckAndMark(ctx context.Context, fingerprint string) bool {
	if g == nil || g.store == nil {
		return true
	}
	first, err := g.store.SetNX(ctx, g.store.IdempotencyKey(guardScope, fingerprint), "1", g.ttl)
	if err != nil {
		return true
	}
	return first
}

// Release frees the fingerprint so the gateway's retry of a transiently
// failed delivery is not swallowed by the fast path.
func (g *Guard) Release(ctx context.Context, fingerprint string) {
	if g == nil || g.store == nil {
		return
	}
	_ = g.store.Del(ctx, g.store.IdempotencyKey(guardScope, fingerprint))
}
