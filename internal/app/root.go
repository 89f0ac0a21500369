// Package app contains the Cobra command tree for tipwatch.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/tipwatch/internal/config"
	"github.com/blackwell-systems/tipwatch/internal/history"
	"github.com/blackwell-systems/tipwatch/internal/logging"
	"github.com/blackwell-systems/tipwatch/internal/output"
	"github.com/blackwell-systems/tipwatch/internal/registry"
	"github.com/blackwell-systems/tipwatch/internal/store"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

// Loaded once per invocation by the root PersistentPreRunE.
var (
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "tipwatch",
	Short: "Evidence-based workflow tips for AI coding sessions",
	Long: `tipwatch reads a session metrics snapshot, compares it against the
history recorded for the project and recommends at most five corrective
commands, each with a confidence score and the evidence behind it.

Record finished sessions with 'tipwatch record' so confidence is calibrated
against your own history instead of industry defaults.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// setup loads configuration, builds the logger and configures output
// styling before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err = logging.New(flagVerbose)
	if err != nil {
		return err
	}

	output.ConfigureColor(cmd.OutOrStdout(), cfg.Output.Color && !flagNoColor)
	output.SetWidth(cfg.Output.Width)
	return nil
}

// Execute is the entry point called from main.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/tipwatch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output and debug logging")
}

func openStore() (*store.DB, error) {
	db, err := store.Open(cfg.DBPath, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func loadRegistry() (*registry.Registry, error) {
	if cfg.RegistryFile == "" {
		return registry.Default(), nil
	}
	reg, err := registry.LoadFile(cfg.RegistryFile, registry.Default())
	if err != nil {
		return nil, fmt.Errorf("loading command registry: %w", err)
	}
	return reg, nil
}

func newResolver(db *store.DB) *history.Resolver {
	rc := history.ResolverConfig{
		Logger:       logger,
		QueryTimeout: cfg.QueryTimeout,
		CacheTTL:     cfg.CacheTTL,
	}
	// A nil *store.DB must not become a non-nil interface.
	if db != nil {
		rc.Source = db
		rc.Cache = db
	}
	return history.NewResolver(rc)
}
