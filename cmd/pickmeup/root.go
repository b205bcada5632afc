package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pickmeup/pkg/checkpoint"
	"pickmeup/pkg/config"
	"pickmeup/pkg/logger"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	stateDir   string
	logLevel   string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pickmeup",
	Short: "Inspect and manage resumable run checkpoints",
	Long: `pickmeup tracks the progress of resumable runs in durable checkpoint
records, one per run name. A run interrupted by a crash resumes at the
first unprocessed element the next time it starts.

This tool inspects and manages those records:

  pickmeup list            show runs with pending state
  pickmeup show <name>     show details of one pending run
  pickmeup clear <name>    discard a pending run's state`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Flags override file and environment values
		if stateDir != "" {
			cfg.State.Directory = stateDir
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		if err := logger.Initialize(&cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory holding checkpoint records")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// openStore builds the checkpoint store from the effective configuration
func openStore() (*checkpoint.Store, error) {
	store, err := checkpoint.NewStore(cfg.State.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint store: %w", err)
	}
	return store, nil
}
