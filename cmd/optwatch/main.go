// Command optwatch inspects and monitors the learning-process health of a
// query optimizer from its recorded metrics snapshots.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/optwatch/optwatch/internal/config"
	"github.com/optwatch/optwatch/internal/logging"
	"github.com/optwatch/optwatch/internal/metrics"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "optwatch",
	Short: "Learning-process health monitor for a query optimizer",
	Long: `optwatch ingests recorded self-tuning metrics (learning cycles,
parameter adaptations, strategy effectiveness, query patterns), evaluates
them with heuristic anomaly detectors, and raises deduplicated, severity
ranked alerts.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration, builds the logger, and loads the metrics
// snapshot when the command needs one.
func setup(loadSnapshot bool) (*config.Config, *zap.Logger, *metrics.Store, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := logging.New(verbose)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	store, err := metrics.NewStore(&metrics.StoreConfig{
		MaxHistorySize: cfg.MaxHistorySize,
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	if loadSnapshot {
		if cfg.MetricsDir == "" {
			return nil, nil, nil, fmt.Errorf("no metrics_dir configured (set metrics_dir or OPTWATCH_METRICS_DIR)")
		}
		if err := store.LoadSnapshot(cfg.MetricsDir); err != nil {
			return nil, nil, nil, err
		}
	}

	return cfg, logger, store, nil
}
