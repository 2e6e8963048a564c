package tiered_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Strob0t/TwinForge/internal/adapter/tiered"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) (data []byte, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.data, key)
	return nil
}

func TestTiered_L1Hit(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)
	l1.data["job:1"] = []byte("accepted")

	val, found, err := c.Get(context.Background(), "job:1")
	if err != nil || !found || string(val) != "accepted" {
		t.Fatalf("val=%s found=%v err=%v", val, found, err)
	}
}

func TestTiered_L2HitBackfillsL1(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, 5*time.Minute)
	l2.data["job:2"] = []byte("completed")

	val, found, err := c.Get(context.Background(), "job:2")
	if err != nil || !found || string(val) != "completed" {
		t.Fatalf("val=%s found=%v err=%v", val, found, err)
	}
	if string(l1.data["job:2"]) != "completed" {
		t.Fatal("expected L1 backfill")
	}
}

func TestTiered_Miss(t *testing.T) {
	c := tiered.New(newMemCache(), newMemCache(), time.Minute)
	if _, found, err := c.Get(context.Background(), "missing"); found || err != nil {
		t.Fatalf("found=%v err=%v", found, err)
	}
}

func TestTiered_SetAndDeleteBoth(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	c := tiered.New(l1, l2, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "idem:k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if _, ok := l1.data["idem:k"]; !ok {
		t.Fatal("expected key in L1")
	}
	if _, ok := l2.data["idem:k"]; !ok {
		t.Fatal("expected key in L2")
	}

	if err := c.Delete(ctx, "idem:k"); err != nil {
		t.Fatal(err)
	}
	if len(l1.data) != 0 || len(l2.data) != 0 {
		t.Fatalf("expected both levels empty, got %v / %v", l1.data, l2.data)
	}
}

func TestTiered_L2FailureFallsBackToL1(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l2.err = errors.New("nats: no responders")
	c := tiered.New(l1, l2, time.Minute)
	ctx := context.Background()

	if err := c.Set(ctx, "job:3", []byte("processing"), time.Minute); err != nil {
		t.Fatalf("Set should absorb L2 error, got %v", err)
	}
	val, found, err := c.Get(ctx, "job:3")
	if err != nil || !found || string(val) != "processing" {
		t.Fatalf("val=%s found=%v err=%v", val, found, err)
	}
	if _, found, err := c.Get(ctx, "other"); found || err != nil {
		t.Fatalf("miss with L2 down: found=%v err=%v", found, err)
	}
	if err := c.Delete(ctx, "job:3"); err != nil {
		t.Fatalf("Delete should absorb L2 error, got %v", err)
	}
}

func TestTiered_L1ErrorPropagates(t *testing.T) {
	l1, l2 := newMemCache(), newMemCache()
	l1.err = errors.New("l1 broken")
	c := tiered.New(l1, l2, time.Minute)
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected L1 error")
	}
}
