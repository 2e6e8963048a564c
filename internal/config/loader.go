package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "twinforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// LoadWithCLI is LoadFrom with CLI flags applied last. It returns the YAML
// path that was used.
func LoadWithCLI(flags CLIFlags) (*Config, string, error) {
	path := DefaultConfigFile
	if flags.ConfigPath != nil {
		path = *flags.ConfigPath
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, path); err != nil {
		return nil, "", fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)
	applyCLI(&cfg, flags)

	if err := validate(&cfg); err != nil {
		return nil, "", fmt.Errorf("config validate: %w", err)
	}
	return &cfg, path, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	// Historical names
	setString(&cfg.Server.Host, "API_HOST")
	setString(&cfg.Server.Port, "API_PORT")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Output.FilePath, "OUTPUT_FILE_PATH")
	setInt(&cfg.Agents.MaxConversationTurns, "MAX_CONVERSATION_TURNS")
	setSeconds(&cfg.Agents.Timeout, "TIMEOUT")

	setString(&cfg.Server.CORSOrigin, "TWINFORGE_CORS_ORIGIN")
	setDuration(&cfg.Server.RequestTimeout, "TWINFORGE_REQUEST_TIMEOUT")
	setString(&cfg.Logging.Service, "TWINFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TWINFORGE_LOG_ASYNC")

	setInt(&cfg.Orchestrator.HistorySize, "TWINFORGE_HISTORY_SIZE")
	setInt(&cfg.Orchestrator.MaxParallel, "TWINFORGE_MAX_PARALLEL")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "TWINFORGE_NATS_STREAM")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "TWINFORGE_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "TWINFORGE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "TWINFORGE_CACHE_L2_TTL")
	setDuration(&cfg.Cache.JobTTL, "TWINFORGE_JOB_TTL")
	setDuration(&cfg.Idempotency.TTL, "TWINFORGE_IDEMPOTENCY_TTL")

	setInt(&cfg.Breaker.MaxFailures, "TWINFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TWINFORGE_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "TWINFORGE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "TWINFORGE_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "TWINFORGE_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "TWINFORGE_RATE_MAX_IDLE_TIME")

	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.OTEL.Insecure, "TWINFORGE_OTEL_INSECURE")
	setString(&cfg.OTEL.ServiceName, "TWINFORGE_OTEL_SERVICE_NAME")

	setBool(&cfg.MCP.Enabled, "TWINFORGE_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "TWINFORGE_MCP_ADDR")

	setString(&cfg.Notify.SlackWebhookURL, "TWINFORGE_SLACK_WEBHOOK_URL")
	setString(&cfg.Notify.DiscordWebhookURL, "TWINFORGE_DISCORD_WEBHOOK_URL")
	setList(&cfg.Notify.Events, "TWINFORGE_NOTIFY_EVENTS")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	switch {
	case cfg.Server.Port == "":
		return errors.New("server.port is required")
	case cfg.Output.FilePath == "":
		return errors.New("output.file_path is required")
	case cfg.Agents.MaxConversationTurns < 1:
		return errors.New("agents.max_conversation_turns must be >= 1")
	case cfg.Agents.Timeout <= 0:
		return errors.New("agents.timeout must be > 0")
	case cfg.Orchestrator.HistorySize < 1:
		return errors.New("orchestrator.history_size must be >= 1")
	case cfg.Orchestrator.MaxParallel < 0:
		return errors.New("orchestrator.max_parallel must be >= 0")
	case cfg.Cache.L1MaxSizeMB < 1:
		return errors.New("cache.l1_max_size_mb must be >= 1")
	case cfg.Breaker.MaxFailures < 1:
		return errors.New("breaker.max_failures must be >= 1")
	case cfg.Rate.Burst < 1:
		return errors.New("rate.burst must be >= 1")
	}
	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		return fmt.Errorf("server.port %q is not a number", cfg.Server.Port)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// setList splits a comma-separated value, dropping empty items.
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// setSeconds accepts a plain number of seconds or a Go duration.
func setSeconds(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(n) * time.Second
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}
