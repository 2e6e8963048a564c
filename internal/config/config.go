// Package config provides hierarchical configuration loading for TwinForge.
// Precedence: defaults < YAML file < environment variables < CLI flags.
package config

import "time"

// Config holds all runtime configuration for the TwinForge service.
type Config struct {
	Server       Server       `yaml:"server"`
	Logging      Logging      `yaml:"logging"`
	Output       Output       `yaml:"output"`
	Agents       Agents       `yaml:"agents"`
	Orchestrator Orchestrator `yaml:"orchestrator"`
	NATS         NATS         `yaml:"nats"`
	Cache        Cache        `yaml:"cache"`
	Idempotency  Idempotency  `yaml:"idempotency"`
	Breaker      Breaker      `yaml:"breaker"`
	Rate         Rate         `yaml:"rate"`
	OTEL         OTEL         `yaml:"otel"`
	MCP          MCP          `yaml:"mcp"`
	Notify       Notify       `yaml:"notify"`
}

// Server holds HTTP server configuration.
type Server struct {
	Host           string        `yaml:"host"`
	Port           string        `yaml:"port"`
	CORSOrigin     string        `yaml:"cors_origin"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Addr returns host:port.
func (s Server) Addr() string {
	return s.Host + ":" + s.Port
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Output holds the result sink configuration.
type Output struct {
	FilePath string `yaml:"file_path"`
}

// Agents holds expert agent limits.
type Agents struct {
	MaxConversationTurns int           `yaml:"max_conversation_turns"`
	Timeout              time.Duration `yaml:"timeout"` // Per request pipeline (default: 60s)
}

// Orchestrator holds principal agent configuration.
type Orchestrator struct {
	HistorySize int `yaml:"history_size"` // Workflow log entries kept (default: 1000)
	MaxParallel int `yaml:"max_parallel"` // Concurrent expert invocations; 0 = unlimited
}

// NATS holds NATS JetStream configuration. An empty URL selects the
// in-process queue.
type NATS struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

// Cache holds the tiered job status cache configuration.
type Cache struct {
	// L1MaxSizeMB bounds the in-process cache shared by job states and
	// idempotent replies. A job state costs a few hundred bytes. Without NATS
	// this is the only copy, so an evicted job polls as 404.
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	L2Bucket    string        `yaml:"l2_bucket"`
	L2TTL       time.Duration `yaml:"l2_ttl"`
	JobTTL      time.Duration `yaml:"job_ttl"`
}

// Idempotency holds Idempotency-Key replay configuration.
type Idempotency struct {
	TTL time.Duration `yaml:"ttl"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// OTEL holds OpenTelemetry export configuration. An empty endpoint disables
// export.
type OTEL struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// MCP holds the MCP tool server configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Notify holds publication notification channels. A channel without a
// webhook URL is disabled; an empty Events list enables every event.
type Notify struct {
	SlackWebhookURL   string   `yaml:"slack_webhook_url"`
	DiscordWebhookURL string   `yaml:"discord_webhook_url"`
	Events            []string `yaml:"events"`
}

// Channels returns the notifier settings keyed by provider name for every
// configured channel.
func (n Notify) Channels() map[string]map[string]string {
	out := make(map[string]map[string]string)
	if n.SlackWebhookURL != "" {
		out["slack"] = map[string]string{"webhook_url": n.SlackWebhookURL}
	}
	if n.DiscordWebhookURL != "" {
		out["discord"] = map[string]string{"webhook_url": n.DiscordWebhookURL}
	}
	return out
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Host:           "0.0.0.0",
			Port:           "8000",
			CORSOrigin:     "*",
			RequestTimeout: 60 * time.Second,
		},
		Logging: Logging{
			Level:   "info",
			Service: "twinforge",
		},
		Output: Output{
			FilePath: "./output/responses.json",
		},
		Agents: Agents{
			MaxConversationTurns: 10,
			Timeout:              60 * time.Second,
		},
		Orchestrator: Orchestrator{
			HistorySize: 1000,
			MaxParallel: 0,
		},
		NATS: NATS{
			Stream: "TWINFORGE",
		},
		Cache: Cache{
			L1MaxSizeMB: 32,
			L2Bucket:    "TWINFORGE_JOBS",
			L2TTL:       24 * time.Hour,
			JobTTL:      24 * time.Hour,
		},
		Idempotency: Idempotency{
			TTL: 24 * time.Hour,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             100,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		OTEL: OTEL{
			ServiceName: "twinforge",
		},
		MCP: MCP{
			Addr: ":8001",
		},
	}
}
