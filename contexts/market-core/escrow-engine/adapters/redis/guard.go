package redisadapter

import (
	"context"
	"fmt"
	"time"

	domainerrors "caravel/contexts/market-core/escrow-engine/domain/errors"
	"caravel/contexts/market-core/escrow-engine/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// unlockLua deletes the guard key only if its value matches the holder's
// token, so one holder can never release another holder's guard.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// Guard is the distributed rendition of the entry guard for deployments that
// run more than one engine process against a shared registry. SETNX gives the
// same fail-fast single-flight semantics as the in-process latch; the TTL
// bounds how long a crashed holder can wedge the market.
type Guard struct {
	rdb      *redis.Client
	unlockSc *redis.Script
	key      string
	ttl      time.Duration
}

func NewGuard(rdb *redis.Client, key string, ttl time.Duration) *Guard {
	if key == "" {
		key = "guard:market-escrow"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Guard{
		rdb:      rdb,
		unlockSc: redis.NewScript(unlockLua),
		key:      key,
		ttl:      ttl,
	}
}

// Acquire takes the guard or fails fast with ErrReentrantCall. The returned
// release closure is safe to call more than once.
func (g *Guard) Acquire(ctx context.Context) (func(), error) {
	token := uuid.New().String()

	ok, err := g.rdb.SetNX(ctx, g.key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire guard %s: %w", g.key, err)
	}
	if !ok {
		return nil, domainerrors.ErrReentrantCall
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true

		// Background context so the release still lands when the caller's
		// context is already cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = g.unlockSc.Run(releaseCtx, g.rdb, []string{g.key}, token).Err()
	}
	return release, nil
}

var _ ports.EntryGuard = (*Guard)(nil)
