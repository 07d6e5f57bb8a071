// kpiwatch monitors business indicators: it schedules metric collection,
// evaluates deviations and thresholds, and tracks alert state.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/kpiwatch/kpiwatch/internal/collector"
	"github.com/kpiwatch/kpiwatch/internal/conf"
	"github.com/kpiwatch/kpiwatch/internal/datastore/repository"
	"github.com/kpiwatch/kpiwatch/internal/logger"
	"github.com/kpiwatch/kpiwatch/internal/monitor"
	"github.com/kpiwatch/kpiwatch/internal/notification"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "kpiwatch",
		Short:         "Business indicator monitoring engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(serveCommand(&configPath))
	root.AddCommand(dashboardCommand(&configPath))
	return root
}

func serveCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring engine until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := conf.Load(*configPath)
			if err != nil {
				return err
			}
			log := newLogger(settings.LogLevel)

			db, err := repository.Open(settings.Database.Driver, settings.Database.DSN)
			if err != nil {
				return err
			}

			notification.Initialize(nil)
			svc := notification.GetService()
			svc.Subscribe(func(event *notification.Event) {
				log.Info("alert notification",
					logger.String("kind", string(event.Kind)),
					logger.String("indicator", event.Indicator),
					logger.String("severity", event.Severity),
					logger.String("message", event.Message))
			})

			engine := buildEngine(db, settings, svc, log)
			engine.Start(cmd.Context())
			log.Info("kpiwatch started",
				logger.String("driver", settings.Database.Driver),
				logger.Duration("tick_interval", settings.Monitor.TickInterval.Std()),
				logger.Int("workers", settings.Monitor.Workers))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				log.Info("shutting down", logger.String("signal", sig.String()))
			case <-cmd.Context().Done():
			}

			engine.Stop()
			svc.Stop()
			return nil
		},
	}
}

func dashboardCommand(configPath *string) *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print a dashboard snapshot for the trailing window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := conf.Load(*configPath)
			if err != nil {
				return err
			}
			db, err := repository.Open(settings.Database.Driver, settings.Database.DSN)
			if err != nil {
				return err
			}

			agg := monitor.NewAggregator(repository.NewStatsRepository(db), monitor.SystemClock{}, 0)
			snap, err := agg.Snapshot(cmd.Context(), window)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().DurationVar(&window, "window", 24*time.Hour, "trailing window for the snapshot")
	return cmd
}

func buildEngine(db *gorm.DB, settings *conf.Settings, notifier monitor.Notifier, log logger.Logger) *monitor.Engine {
	indicators := repository.NewIndicatorRepository(db)
	executions := repository.NewExecutionRepository(db)
	alertStates := repository.NewAlertStateRepository(db)
	stats := repository.NewStatsRepository(db)

	metrics := monitor.NewMetrics(prometheus.DefaultRegisterer)
	httpCollector := collector.NewHTTPCollector(nil)

	return monitor.NewEngine(httpCollector, indicators, executions, alertStates, stats, notifier,
		monitor.SystemClock{}, monitor.Options{
			TickInterval:         settings.Monitor.TickInterval.Std(),
			Workers:              settings.Monitor.Workers,
			CollectorTimeout:     settings.Monitor.CollectorTimeout.Std(),
			DashboardCacheTTL:    settings.Monitor.DashboardCacheTTL.Std(),
			HistoryRetentionDays: settings.Monitor.HistoryRetentionDays,
		}, metrics, log)
}

func newLogger(level string) logger.Logger {
	return logger.NewSlogLogger(os.Stdout, parseLevel(level), []logger.Field{
		logger.String("service", "kpiwatch"),
	})
}

func parseLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.LogLevelDebug
	case "warn":
		return logger.LogLevelWarn
	case "error":
		return logger.LogLevelError
	default:
		return logger.LogLevelInfo
	}
}
