package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/optwatch/optwatch/internal/alert"
	"github.com/optwatch/optwatch/internal/anomaly"
	"github.com/optwatch/optwatch/internal/monitor"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one detection pass over a recorded snapshot",
	Long: `Load the metrics snapshot from metrics_dir, run the anomaly
detectors once, and print every raised alert. Exits non-zero when a
critical anomaly is found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, store, err := setup(true)
		if err != nil {
			return err
		}
		defer logger.Sync() //nolint:errcheck // stdout sync failure is uninteresting

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

		raised := mon.CheckNow()
		if len(raised) == 0 {
			fmt.Printf("%s No anomalies detected\n", color.GreenString("✓"))
			return nil
		}

		critical := 0
		for _, a := range raised {
			if a.Severity == anomaly.SeverityCritical {
				critical++
			}
		}
		fmt.Printf("\n%d anomaly(ies) raised, %d critical\n", len(raised), critical)
		if critical > 0 {
			return fmt.Errorf("%d critical anomaly(ies) detected", critical)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
