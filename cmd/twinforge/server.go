package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/TwinForge/internal/adapter/filesink"
	tfhttp "github.com/Strob0t/TwinForge/internal/adapter/http"
	tfmcp "github.com/Strob0t/TwinForge/internal/adapter/mcp"
	tfotel "github.com/Strob0t/TwinForge/internal/adapter/otel"
	"github.com/Strob0t/TwinForge/internal/adapter/ws"
	"github.com/Strob0t/TwinForge/internal/config"
	"github.com/Strob0t/TwinForge/internal/expert"
	"github.com/Strob0t/TwinForge/internal/middleware"
	"github.com/Strob0t/TwinForge/internal/port/a2a"
	"github.com/Strob0t/TwinForge/internal/port/notifier"
	"github.com/Strob0t/TwinForge/internal/resilience"
	"github.com/Strob0t/TwinForge/internal/service"
)

// newPrincipal builds the expert registry and a principal agent publishing
// to cfg's response file. The caller initializes it.
func newPrincipal(cfg *config.Config) (*service.PrincipalService, *expert.Registry, *filesink.Sink, error) {
	out, err := filesink.New(cfg.Output.FilePath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("response sink: %w", err)
	}
	reg, err := expert.NewRegistry(expert.Standard()...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("expert registry: %w", err)
	}
	principal, err := service.NewPrincipalService(reg, out,
		resilience.NewBreaker("sink", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout),
		service.PrincipalConfig{
			HistorySize: cfg.Orchestrator.HistorySize,
			MaxParallel: cfg.Orchestrator.MaxParallel,
		})
	if err != nil {
		return nil, nil, nil, err
	}
	return principal, reg, out, nil
}

// newNotifications builds a notifier for every configured channel.
func newNotifications(cfg config.Notify) (*service.NotificationService, error) {
	var notifiers []notifier.Notifier
	for name, settings := range cfg.Channels() {
		n, err := notifier.New(name, settings)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return service.NewNotificationService(notifiers, cfg.Events), nil
}

func runServer(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOTEL, err := tfotel.Setup(ctx, tfotel.Config{
		Endpoint:       cfg.OTEL.Endpoint,
		Insecure:       cfg.OTEL.Insecure,
		ServiceName:    cfg.OTEL.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(flushCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := tfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	inf, err := connectInfra(ctx, cfg)
	if err != nil {
		return err
	}
	defer inf.Close()

	// --- Services ---

	principal, reg, out, err := newPrincipal(cfg)
	if err != nil {
		return err
	}
	hub := ws.NewHub(cfg.Server.CORSOrigin)
	defer hub.Close()

	principal.SetBroadcaster(hub)
	principal.SetQueue(inf.queue)
	principal.SetMetrics(metrics)

	jobs := service.NewJobService(principal, out, inf.cache, cfg.Cache.JobTTL)
	jobs.SetQueue(inf.queue)
	jobs.SetBroadcaster(hub)
	jobs.SetMetrics(metrics)
	jobs.SetTimeout(cfg.Agents.Timeout)
	jobs.SetBreaker(resilience.NewBreaker("queue", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	notifications, err := newNotifications(cfg.Notify)
	if err != nil {
		return err
	}

	pipe := &pipeline{principal: principal, jobs: jobs, notifications: notifications, queue: inf.queue}
	if err := pipe.start(ctx); err != nil {
		return err
	}
	// Covers early returns; the normal path stops the pipeline explicitly
	// after the HTTP and MCP servers.
	defer pipe.stop()

	// --- MCP ---

	stopMCP := func() {}
	if cfg.MCP.Enabled {
		mcpSrv := tfmcp.NewServer(
			tfmcp.ServerConfig{Addr: cfg.MCP.Addr, Name: "twinforge", Version: version},
			tfmcp.ServerDeps{Principal: principal, Jobs: jobs, Responses: out},
		)
		if err := mcpSrv.Start(); err != nil {
			return fmt.Errorf("mcp: %w", err)
		}
		var once sync.Once
		stopMCP = func() {
			once.Do(func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := mcpSrv.Stop(stopCtx); err != nil {
					slog.Warn("mcp shutdown", "error", err)
				}
			})
		}
		defer stopMCP()
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	limiter.OnReject(func(ctx context.Context, _ string) {
		metrics.RateLimited.Add(ctx, 1)
	})
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	a2aHandler := a2a.NewHandler(a2a.BuildAgentCard("http://"+cfg.Server.Addr(), version, reg), jobs)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(tfotel.HTTPMiddleware(cfg.OTEL.ServiceName))
	r.Use(tfhttp.SecurityHeaders)
	r.Use(tfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(tfhttp.Logger)
	r.Use(tfhttp.Timeout(cfg.Server.RequestTimeout))

	tfhttp.MountRoutes(r, &tfhttp.Handlers{Principal: principal, Jobs: jobs, Responses: out}, tfhttp.RouteOptions{
		RateLimit:   limiter.Handler,
		Idempotency: middleware.Idempotency(inf.cache, cfg.Idempotency.TTL),
		WebSocket:   hub.HandleWS,
		Extra:       []func(chi.Router){a2aHandler.MountRoutes},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	// Stop intake first, then let accepted work finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	stopMCP()
	pipe.stop()
	return err
}
