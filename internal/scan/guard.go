// Package scan keeps one physical scan from being processed twice.
// Barcode readers emit bursts of identical events; a key stays locked until
// the work it started has settled.
package scan

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrInProgress = errors.New("a scan from this device is still being processed")

// Guard is a set of keyed, non-reentrant locks.
type Guard interface {
	// Acquire reports false when key is already held.
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// MemoryGuard holds the locks in process.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.held[key]; ok {
		return false, nil
	}
	g.held[key] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.held, key)
	g.mu.Unlock()
	return nil
}

// releaseScript deletes the lock only if this instance still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard shares the locks between API instances. Every lock carries a
// TTL so a crashed holder cannot wedge a device.
type RedisGuard struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	owner  string

	mu     sync.Mutex
	tokens map[string]string
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{
		rdb:    rdb,
		ttl:    ttl,
		prefix: "scan:lock:",
		owner:  uuid.NewString(),
		tokens: make(map[string]string),
	}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	token := g.owner + ":" + uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, g.prefix+key, token, g.ttl).Result()
	if err != nil || !ok {
		return false, err
	}
	g.mu.Lock()
	g.tokens[key] = token
	g.mu.Unlock()
	return true, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	token, ok := g.tokens[key]
	delete(g.tokens, key)
	g.mu.Unlock()
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, g.rdb, []string{g.prefix + key}, token).Err()
}
