// Package ristretto is the in-process cache: job states and idempotent
// replies live here, either alone or as the L1 in front of NATS KV.
package ristretto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// ErrTooLarge is returned by Set for a value that can never fit.
var ErrTooLarge = errors.New("ristretto: value exceeds cache size")

// Cache holds byte values costed by key plus value length.
type Cache struct {
	c       *ristretto.Cache[string, []byte]
	maxCost int64
}

// New sizes the cache to hold at most maxCostBytes of keys and values.
func New(maxCostBytes int64) (*Cache, error) {
	if maxCostBytes <= 0 {
		return nil, fmt.Errorf("ristretto: max cost must be positive, got %d", maxCostBytes)
	}
	// A job state is a few hundred bytes; count roughly ten keys per entry.
	counters := max(maxCostBytes/32, 1000)
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: counters,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("ristretto: %w", err)
	}
	return &Cache{c: c, maxCost: maxCostBytes}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, ok := c.c.Get(key)
	return val, ok, nil
}

// Set stores a copy of value. ttl <= 0 keeps the entry until it is
// evicted. Set waits for ristretto's write buffer so that a Get right after
// it sees the value.
func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cost := int64(len(key) + len(value))
	if cost > c.maxCost {
		return fmt.Errorf("set %s (%d bytes): %w", key, cost, ErrTooLarge)
	}
	v := append([]byte(nil), value...)
	if ttl < 0 {
		ttl = 0
	}
	if !c.c.SetWithTTL(key, v, cost, ttl) {
		return fmt.Errorf("ristretto: set %s rejected", key)
	}
	c.c.Wait()
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.c.Del(key)
	return nil
}

func (c *Cache) Close() {
	c.c.Close()
}
