package main

import (
	"context"
	"testing"

	"github.com/Strob0t/TwinForge/internal/adapter/memqueue"
	"github.com/Strob0t/TwinForge/internal/config"
	"github.com/Strob0t/TwinForge/internal/port/cache"
)

func TestConnectInfra_WithoutNATSKeepsStateInProcess(t *testing.T) {
	cfg := config.Defaults()
	cfg.NATS.URL = ""

	inf, err := connectInfra(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("connectInfra: %v", err)
	}
	defer inf.Close()

	if _, ok := inf.queue.(*memqueue.Queue); !ok {
		t.Errorf("queue = %T, want in-process queue", inf.queue)
	}
	// No L2 tier: job states are only as durable as the L1 cache.
	if inf.cache != cache.Cache(inf.l1) {
		t.Errorf("cache = %T, want the L1 cache itself", inf.cache)
	}
}
