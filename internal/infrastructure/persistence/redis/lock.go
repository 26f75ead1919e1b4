package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements scheduler.Locker with SET NX and a token-checked release.
type Locker struct {
	cache *Cache
}

// NewLocker creates a Locker.
func NewLocker(cache *Cache) *Locker {
	return &Locker{cache: cache}
}

// Acquire takes the lock for name. acquired is false when another holder has it.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), bool, error) {
	if ttl <= 0 {
		ttl = TTLDistributedLock
	}

	key := LockKey(name)
	token := uuid.NewString()

	ok, err := l.cache.SetNX(ctx, key, token, ttl)
	if err != nil || !ok {
		return func() {}, false, err
	}

	release := func() {
		// The run context may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, l.cache.client, []string{key}, token).Err()
	}
	return release, true, nil
}
