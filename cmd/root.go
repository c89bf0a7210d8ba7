package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/matchrate/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "matchrate",
	Short: "Phone number identity match-rate estimator",
	Long: `Queries an ordered list of identity vendors for a batch of phone numbers,
optionally as a waterfall where later vendors only see numbers earlier vendors
left unmatched, and reports each vendor's match rate.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Replaced once a command loads its config file.
		return config.InitLogger(config.LogConfig{Level: "info", Format: "console"})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("matchrate failed", zap.Error(err))
		_ = zap.L().Sync()
		os.Exit(1)
	}
}

// loadConfig reads and validates the config at path and installs its logger.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}
