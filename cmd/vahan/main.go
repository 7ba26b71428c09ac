// VahanPulse - vehicle registration ingestion and dashboard API.
// Fetches raw registration exports, normalizes them into the canonical
// schema and serves growth metrics over HTTP.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"vahanpulse/internal/app"
	"vahanpulse/internal/config"
	"vahanpulse/internal/infrastructure"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "vahan",
		Short: "VahanPulse - vehicle registration analytics",
		Long: `VahanPulse ingests vehicle registration exports, normalizes them into a
canonical table and reports year-over-year and quarter-over-quarter growth.

Configuration is read from .env, VAHAN_* environment variables and an
optional YAML file (--config or VAHAN_CONFIG_FILE).

Examples:
  vahan run                         # fetch, normalize and persist
  vahan summary                     # headline metrics of the cleaned table
  vahan top -n 5 --start 2023-01-01 # top manufacturers in a window
  vahan serve --port 8080           # dashboard API`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(
		newFetchCmd(opts),
		newSampleCmd(opts),
		newCleanCmd(opts),
		newRunCmd(opts),
		newSummaryCmd(opts),
		newTopCmd(opts),
		newServeCmd(opts),
	)
	return root
}

func versionString() string {
	if app.Commit == "" {
		return app.Version
	}
	return fmt.Sprintf("%s (%s)", app.Version, app.Commit)
}

// load reads the configuration and applies the shared flag overrides.
func (o *rootOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

// cliLogger logs JSON to w so command output on stdout stays clean.
func cliLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return infrastructure.NewLogger(cfg.Logging.Level, w)
}
