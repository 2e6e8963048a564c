package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Strob0t/TwinForge/internal/adapter/memqueue"
	tfnats "github.com/Strob0t/TwinForge/internal/adapter/nats"
	"github.com/Strob0t/TwinForge/internal/adapter/natskv"
	"github.com/Strob0t/TwinForge/internal/adapter/ristretto"
	"github.com/Strob0t/TwinForge/internal/adapter/tiered"
	"github.com/Strob0t/TwinForge/internal/config"
	"github.com/Strob0t/TwinForge/internal/port/cache"
	"github.com/Strob0t/TwinForge/internal/port/messagequeue"
)

// infra bundles the queue and the shared cache. With NATS configured the
// queue is JetStream and the cache is ristretto in front of a KV bucket;
// otherwise both stay in process.
type infra struct {
	queue messagequeue.Queue
	cache cache.Cache
	l1    *ristretto.Cache
}

func connectInfra(ctx context.Context, cfg *config.Config) (*infra, error) {
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB << 20)
	if err != nil {
		return nil, fmt.Errorf("l1 cache: %w", err)
	}

	if cfg.NATS.URL == "" {
		slog.Info("nats not configured, using in-process queue")
		return &infra{queue: memqueue.New(), cache: l1, l1: l1}, nil
	}

	q, err := tfnats.Connect(ctx, cfg.NATS.URL, cfg.NATS.Stream)
	if err != nil {
		l1.Close()
		return nil, fmt.Errorf("nats: %w", err)
	}
	kv, err := q.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
	if err != nil {
		_ = q.Close()
		l1.Close()
		return nil, err
	}
	slog.Info("nats connected", "url", cfg.NATS.URL, "stream", cfg.NATS.Stream, "kv_bucket", cfg.Cache.L2Bucket)

	return &infra{
		queue: q,
		cache: tiered.New(l1, natskv.New(kv), cfg.Cache.L2TTL),
		l1:    l1,
	}, nil
}

// Close closes the queue connection and releases the L1 cache. The
// pipeline drains the queue before this runs.
func (i *infra) Close() {
	if err := i.queue.Close(); err != nil {
		slog.Warn("queue close failed", "error", err)
	}
	i.l1.Close()
}
