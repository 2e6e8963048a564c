// Command twinforge runs the TwinForge expert analysis service.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TwinForge/internal/config"
	"github.com/Strob0t/TwinForge/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "twinforge",
		Short:         "Expert routing and quality-gated publication service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	collect := config.BindFlags(root.PersistentFlags())

	// load reads the configuration and installs the default logger. The
	// returned function flushes the logger.
	load := func() (*config.Config, func(), error) {
		cfg, path, err := config.LoadWithCLI(collect())
		if err != nil {
			return nil, nil, fmt.Errorf("config: %w", err)
		}
		log, closer := logger.New(cfg.Logging)
		slog.SetDefault(log)
		slog.Info("config loaded",
			"file", path,
			"addr", cfg.Server.Addr(),
			"log_level", cfg.Logging.Level,
			"output", cfg.Output.FilePath,
			"nats", cfg.NATS.URL != "",
			"max_conversation_turns", cfg.Agents.MaxConversationTurns,
		)
		return cfg, closer.Close, nil
	}

	root.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, flush, err := load()
		if err != nil {
			return err
		}
		defer flush()
		return runServer(cmd.Context(), cfg)
	}
	root.AddCommand(newProcessCmd(load))
	return root
}
