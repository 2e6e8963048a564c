// Package tiered implements a two-level cache: an in-process L1 in front of
// a shared L2 such as NATS KV.
package tiered

import (
	"context"
	"log/slog"
	"time"

	"github.com/Strob0t/TwinForge/internal/port/cache"
)

// Cache combines an L1 and an L2 cache. Get checks L1 first, then L2,
// backfilling L1 on an L2 hit. Set and Delete write both levels.
//
// L2 errors are logged and absorbed: while the remote store is unreachable
// the cache keeps serving from L1 so job polling and idempotency keep
// working on this instance.
type Cache struct {
	l1       cache.Cache
	l2       cache.Cache
	l1Expire time.Duration
}

var _ cache.Cache = (*Cache)(nil)

// New creates a tiered cache. l1Expire bounds how long L2 backfills live
// in L1.
func New(l1, l2 cache.Cache, l1Expire time.Duration) *Cache {
	return &Cache{l1: l1, l2: l2, l1Expire: l1Expire}
}

// Get checks L1, then L2.
func (c *Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	val, found, err := c.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		return val, true, nil
	}

	val, found, err = c.l2.Get(ctx, key)
	if err != nil {
		slog.Warn("tiered cache: l2 get failed", "key", key, "error", err)
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}
	if err := c.l1.Set(ctx, key, val, c.l1Expire); err != nil {
		slog.Debug("tiered cache: l1 backfill failed", "key", key, "error", err)
	}
	return val, true, nil
}

// Set writes L1, then L2.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := c.l2.Set(ctx, key, value, ttl); err != nil {
		slog.Warn("tiered cache: l2 set failed", "key", key, "error", err)
	}
	return nil
}

// Delete removes key from both levels.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.l1.Delete(ctx, key); err != nil {
		return err
	}
	if err := c.l2.Delete(ctx, key); err != nil {
		slog.Warn("tiered cache: l2 delete failed", "key", key, "error", err)
	}
	return nil
}
