package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8000" {
		t.Errorf("expected port 8000, got %s", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8000" {
		t.Errorf("expected addr 0.0.0.0:8000, got %s", cfg.Server.Addr())
	}
	if cfg.Output.FilePath != "./output/responses.json" {
		t.Errorf("expected default output path, got %s", cfg.Output.FilePath)
	}
	if cfg.Agents.MaxConversationTurns != 10 || cfg.Agents.Timeout != 60*time.Second {
		t.Errorf("unexpected agent defaults: %+v", cfg.Agents)
	}
	if cfg.Breaker.Timeout != 30*time.Second {
		t.Errorf("expected breaker timeout 30s, got %v", cfg.Breaker.Timeout)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("expected no NATS by default, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
orchestrator:
  max_parallel: 2
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "http://example.com" {
		t.Errorf("expected cors http://example.com, got %s", cfg.Server.CORSOrigin)
	}
	if cfg.Orchestrator.MaxParallel != 2 {
		t.Errorf("expected max_parallel 2, got %d", cfg.Orchestrator.MaxParallel)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host, got %s", cfg.Server.Host)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(yamlPath, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(yamlPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("API_HOST", "127.0.0.1")
	t.Setenv("API_PORT", "7070")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("OUTPUT_FILE_PATH", "/tmp/out.json")
	t.Setenv("MAX_CONVERSATION_TURNS", "4")
	t.Setenv("TIMEOUT", "15")
	t.Setenv("NATS_URL", "nats://queue:4222")
	t.Setenv("TWINFORGE_BREAKER_TIMEOUT", "1m")
	t.Setenv("TWINFORGE_MAX_PARALLEL", "3")

	loadEnv(&cfg)

	if cfg.Server.Addr() != "127.0.0.1:7070" {
		t.Errorf("expected addr 127.0.0.1:7070, got %s", cfg.Server.Addr())
	}
	if cfg.Logging.Level != "WARNING" {
		t.Errorf("expected log level WARNING, got %s", cfg.Logging.Level)
	}
	if cfg.Output.FilePath != "/tmp/out.json" {
		t.Errorf("expected output path from env, got %s", cfg.Output.FilePath)
	}
	if cfg.Agents.MaxConversationTurns != 4 {
		t.Errorf("expected 4 turns, got %d", cfg.Agents.MaxConversationTurns)
	}
	if cfg.Agents.Timeout != 15*time.Second {
		t.Errorf("expected TIMEOUT in seconds, got %v", cfg.Agents.Timeout)
	}
	if cfg.NATS.URL != "nats://queue:4222" {
		t.Errorf("expected NATS URL from env, got %s", cfg.NATS.URL)
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
	if cfg.Orchestrator.MaxParallel != 3 {
		t.Errorf("expected max_parallel 3, got %d", cfg.Orchestrator.MaxParallel)
	}
}

func TestEnvTimeoutAcceptsDuration(t *testing.T) {
	cfg := Defaults()
	t.Setenv("TIMEOUT", "90s")
	loadEnv(&cfg)
	if cfg.Agents.Timeout != 90*time.Second {
		t.Errorf("expected 90s, got %v", cfg.Agents.Timeout)
	}
}

func TestEnvNotifyChannels(t *testing.T) {
	cfg := Defaults()
	if len(cfg.Notify.Channels()) != 0 {
		t.Fatalf("no channels expected by default, got %v", cfg.Notify.Channels())
	}

	t.Setenv("TWINFORGE_SLACK_WEBHOOK_URL", "https://hooks.slack.test/x")
	t.Setenv("TWINFORGE_NOTIFY_EVENTS", "responses.published, ,jobs.completed")
	loadEnv(&cfg)

	ch := cfg.Notify.Channels()
	if len(ch) != 1 || ch["slack"]["webhook_url"] != "https://hooks.slack.test/x" {
		t.Errorf("channels = %v", ch)
	}
	if len(cfg.Notify.Events) != 2 || cfg.Notify.Events[1] != "jobs.completed" {
		t.Errorf("events = %v", cfg.Notify.Events)
	}
}

func TestEnvMalformedIgnored(t *testing.T) {
	cfg := Defaults()
	t.Setenv("MAX_CONVERSATION_TURNS", "many")
	t.Setenv("TIMEOUT", "soon")
	loadEnv(&cfg)
	if cfg.Agents.MaxConversationTurns != 10 || cfg.Agents.Timeout != 60*time.Second {
		t.Errorf("malformed env must keep defaults: %+v", cfg.Agents)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name:   "non-numeric port",
			modify: func(c *Config) { c.Server.Port = "http" },
			errMsg: `server.port "http" is not a number`,
		},
		{
			name:   "empty output path",
			modify: func(c *Config) { c.Output.FilePath = "" },
			errMsg: "output.file_path is required",
		},
		{
			name:   "zero turns",
			modify: func(c *Config) { c.Agents.MaxConversationTurns = 0 },
			errMsg: "agents.max_conversation_turns must be >= 1",
		},
		{
			name:   "zero timeout",
			modify: func(c *Config) { c.Agents.Timeout = 0 },
			errMsg: "agents.timeout must be > 0",
		},
		{
			name:   "zero history",
			modify: func(c *Config) { c.Orchestrator.HistorySize = 0 },
			errMsg: "orchestrator.history_size must be >= 1",
		},
		{
			name:   "negative parallelism",
			modify: func(c *Config) { c.Orchestrator.MaxParallel = -1 },
			errMsg: "orchestrator.max_parallel must be >= 0",
		},
		{
			name:   "zero breaker failures",
			modify: func(c *Config) { c.Breaker.MaxFailures = 0 },
			errMsg: "breaker.max_failures must be >= 1",
		},
		{
			name:   "zero rate burst",
			modify: func(c *Config) { c.Rate.Burst = 0 },
			errMsg: "rate.burst must be >= 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadFrom_FullHierarchy(t *testing.T) {
	// YAML sets port=9090, env overrides to 7070. Env must win.
	yamlPath := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
logging:
  level: "debug"
output:
  file_path: "/data/responses.json"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("API_PORT", "7070")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("env should override YAML: got port %q, want 7070", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("env should override YAML: got level %q, want warn", cfg.Logging.Level)
	}
	if cfg.Output.FilePath != "/data/responses.json" {
		t.Errorf("YAML output path lost: %q", cfg.Output.FilePath)
	}
}

func TestParseFlags(t *testing.T) {
	flags, err := ParseFlags([]string{"--port", "9090", "--log-level", "debug"})
	if err != nil {
		t.Fatal(err)
	}

	if flags.Port == nil || *flags.Port != "9090" {
		t.Errorf("expected port 9090, got %v", flags.Port)
	}
	if flags.LogLevel == nil || *flags.LogLevel != "debug" {
		t.Errorf("expected log-level debug, got %v", flags.LogLevel)
	}
	// Unset flags remain nil
	if flags.NatsURL != nil {
		t.Errorf("expected nil NatsURL, got %v", *flags.NatsURL)
	}
	if flags.ConfigPath != nil {
		t.Errorf("expected nil ConfigPath, got %v", *flags.ConfigPath)
	}
}

func TestParseFlagsShorthand(t *testing.T) {
	flags, err := ParseFlags([]string{"-p", "7070", "-c", "custom.yaml", "-o", "out.json"})
	if err != nil {
		t.Fatal(err)
	}

	if flags.Port == nil || *flags.Port != "7070" {
		t.Errorf("expected port 7070, got %v", flags.Port)
	}
	if flags.ConfigPath == nil || *flags.ConfigPath != "custom.yaml" {
		t.Errorf("expected config custom.yaml, got %v", flags.ConfigPath)
	}
	if flags.OutputPath == nil || *flags.OutputPath != "out.json" {
		t.Errorf("expected output out.json, got %v", flags.OutputPath)
	}
}

func TestParseFlagsInvalid(t *testing.T) {
	_, err := ParseFlags([]string{"--unknown-flag"})
	if err == nil {
		t.Error("expected error for unknown flag, got nil")
	}
}

func TestApplyCLINilFlags(t *testing.T) {
	cfg := Defaults()
	original := cfg

	// All-nil flags should change nothing.
	applyCLI(&cfg, CLIFlags{})

	if cfg != original {
		t.Errorf("config changed: %+v", cfg)
	}
}

func TestCLIOverridesEnv(t *testing.T) {
	t.Setenv("API_PORT", "7070")
	t.Setenv("LOG_LEVEL", "warn")

	flags, err := ParseFlags([]string{"--port", "3333", "--log-level", "error", "--config", filepath.Join(t.TempDir(), "none.yaml")})
	if err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadWithCLI(flags)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "3333" {
		t.Errorf("expected CLI port 3333 to override ENV 7070, got %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected CLI log-level error to override ENV warn, got %s", cfg.Logging.Level)
	}
}

func TestLoadWithCLICustomConfig(t *testing.T) {
	yamlPath := filepath.Join(t.TempDir(), "custom.yaml")
	content := `
server:
  port: "5555"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	flags, err := ParseFlags([]string{"--config", yamlPath})
	if err != nil {
		t.Fatal(err)
	}

	cfg, resolvedPath, err := LoadWithCLI(flags)
	if err != nil {
		t.Fatal(err)
	}

	if resolvedPath != yamlPath {
		t.Errorf("expected resolved path %s, got %s", yamlPath, resolvedPath)
	}
	if cfg.Server.Port != "5555" {
		t.Errorf("expected port 5555 from custom YAML, got %s", cfg.Server.Port)
	}
}
