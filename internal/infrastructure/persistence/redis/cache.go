// Package redis implements Redis caching and locking for the placement hub.
//
// Key components:
//   - Cache: JSON values with TTL and prefix invalidation
//   - SuggestionCache: ranked suggestion lists per student
//   - Locker: scheduler job locks shared between replicas
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrCacheMiss          = errors.New("cache: miss")
	ErrCacheUnavailable   = errors.New("cache: redis unavailable")
	ErrCacheSerialization = errors.New("cache: cannot encode value")
	ErrCacheInvalidTTL    = errors.New("cache: negative ttl")
	ErrCacheKeyEmpty      = errors.New("cache: empty key")
	ErrCacheNilValue      = errors.New("cache: nil value")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYS & TTLs
// ══════════════════════════════════════════════════════════════════════════════

const (
	PrefixSuggestions = "suggestions:"
	PrefixLock        = "lock:"
)

const (
	// TTLSuggestions caps staleness of a list no invalidation reached.
	TTLSuggestions = 15 * time.Minute

	// TTLDistributedLock applies when a caller passes no TTL.
	TTLDistributedLock = 30 * time.Minute
)

// scanBatch is both the SCAN COUNT hint and the DEL batch size.
const scanBatch = 100

func SuggestionsKey(studentID string) string { return PrefixSuggestions + studentID }

func LockKey(job string) string { return PrefixLock + job }

// ══════════════════════════════════════════════════════════════════════════════
// CACHE
// ══════════════════════════════════════════════════════════════════════════════

// Cache stores JSON-encoded values in Redis.
type Cache struct {
	client *redis.Client
}

// NewCache dials Redis with opts and pings it once. The ping is bounded by
// opts.DialTimeout when set.
func NewCache(ctx context.Context, opts *redis.Options) (*Cache, error) {
	client := redis.NewClient(opts)

	if opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w at %s: %v", ErrCacheUnavailable, opts.Addr, err)
	}
	return &Cache{client: client}, nil
}

// NewCacheFromClient wraps a client the caller already configured.
func NewCacheFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Close() error { return c.client.Close() }

func (c *Cache) Ping(ctx context.Context) error { return c.client.Ping(ctx).Err() }

// Set encodes value as JSON under key. A zero ttl keeps the key forever.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch {
	case key == "":
		return ErrCacheKeyEmpty
	case value == nil:
		return ErrCacheNilValue
	case ttl < 0:
		return ErrCacheInvalidTTL
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Join(ErrCacheSerialization, err)
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

// Get decodes the value under key into dest, or returns ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return errors.Join(ErrCacheSerialization, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// DeleteByPattern walks the keyspace with SCAN and deletes matches in
// batches, so it never blocks Redis the way KEYS would.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) error {
	if pattern == "" {
		return ErrCacheKeyEmpty
	}

	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.client.Del(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	it := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for it.Next(ctx) {
		batch = append(batch, it.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	return flush()
}

// SetNX writes value only when key is absent and reports whether it did.
func (c *Cache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, ErrCacheKeyEmpty
	}
	if ttl < 0 {
		return false, ErrCacheInvalidTTL
	}
	return c.client.SetNX(ctx, key, value, ttl).Result()
}
