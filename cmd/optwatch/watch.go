package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/optwatch/optwatch/internal/alert"
	"github.com/optwatch/optwatch/internal/monitor"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the background monitor until interrupted",
	Long: `Load the metrics snapshot from metrics_dir (when configured) and run
the background monitor, printing alerts to the console as they are raised.
Stops cleanly on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, store, err := setup(false)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck // stdout sync failure is uninteresting

		if cfg.MetricsDir != "" {
			if err := store.LoadSnapshot(cfg.MetricsDir); err != nil {
				// A missing snapshot just means a cold start
				logger.Info("starting with an empty metrics store",
					zap.String("metrics_dir", cfg.MetricsDir))
			}
		}

		console := alert.NewConsoleHandler()
		handlers := []alert.Handler{console.Func()}

		if cfg.ArchivePath != "" {
			archive, err := alert.NewSQLiteArchive(cfg.ArchivePath)
			if err != nil {
				return err
			}
			defer archive.Close()
			handlers = append(handlers, archive.Handler(logger))
		}

		dispatcher := alert.NewDispatcher(&alert.DispatcherConfig{
			AlertsDir: cfg.AlertsDir,
			Handlers:  handlers,
			Logger:    logger,
		})

		mon, err := monitor.New(&monitor.Deps{
			Store:      store,
			Dispatcher: dispatcher,
			Config: &monitor.Config{
				CheckInterval: cfg.CheckInterval.Std(),
				Detector:      cfg.Alerts,
			},
			Logger: logger,
		})
		if err != nil {
			return err
		}

		mon.Start()
		fmt.Printf("optwatch monitoring (check interval %v); Ctrl-C to stop\n", cfg.CheckInterval.Std())

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		mon.Stop()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
