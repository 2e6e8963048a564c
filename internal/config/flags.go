package config

import (
	"github.com/spf13/pflag"
)

// CLIFlags holds command-line overrides. Nil fields were not given.
type CLIFlags struct {
	ConfigPath *string
	Host       *string
	Port       *string
	LogLevel   *string
	NatsURL    *string
	OutputPath *string
}

// BindFlags registers the server flags on fs. Call the returned function
// after fs has been parsed to collect the flags that were set.
func BindFlags(fs *pflag.FlagSet) func() CLIFlags {
	var v struct {
		config, host, port, logLevel, natsURL, output string
	}
	fs.StringVarP(&v.config, "config", "c", DefaultConfigFile, "path to YAML config file")
	fs.StringVar(&v.host, "host", "", "listen host (overrides API_HOST)")
	fs.StringVarP(&v.port, "port", "p", "", "listen port (overrides API_PORT)")
	fs.StringVar(&v.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&v.natsURL, "nats-url", "", "NATS server URL; empty runs the in-process queue")
	fs.StringVarP(&v.output, "output", "o", "", "response file path (overrides OUTPUT_FILE_PATH)")

	return func() CLIFlags {
		pick := func(name string, val *string) *string {
			if !fs.Changed(name) {
				return nil
			}
			s := *val
			return &s
		}
		return CLIFlags{
			ConfigPath: pick("config", &v.config),
			Host:       pick("host", &v.host),
			Port:       pick("port", &v.port),
			LogLevel:   pick("log-level", &v.logLevel),
			NatsURL:    pick("nats-url", &v.natsURL),
			OutputPath: pick("output", &v.output),
		}
	}
}

// ParseFlags parses args into CLIFlags.
func ParseFlags(args []string) (CLIFlags, error) {
	fs := pflag.NewFlagSet("twinforge", pflag.ContinueOnError)
	collect := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return CLIFlags{}, err
	}
	return collect(), nil
}

// applyCLI overlays the set flags onto cfg.
func applyCLI(cfg *Config, f CLIFlags) {
	if f.Host != nil {
		cfg.Server.Host = *f.Host
	}
	if f.Port != nil {
		cfg.Server.Port = *f.Port
	}
	if f.LogLevel != nil {
		cfg.Logging.Level = *f.LogLevel
	}
	if f.NatsURL != nil {
		cfg.NATS.URL = *f.NatsURL
	}
	if f.OutputPath != nil {
		cfg.Output.FilePath = *f.OutputPath
	}
}
