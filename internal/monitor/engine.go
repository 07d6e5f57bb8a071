package monitor

import (
	"context"
	"time"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
	"github.com/kpiwatch/kpiwatch/internal/logger"
)

const (
	// cleanupInterval is how often the retention cleanup goroutine runs.
	cleanupInterval = 1 * time.Hour
	// cleanupTimeout is the context deadline for one retention sweep.
	cleanupTimeout = 5 * time.Second
)

// Options configures an Engine.
type Options struct {
	TickInterval         time.Duration
	Workers              int
	CollectorTimeout     time.Duration
	DashboardCacheTTL    time.Duration
	HistoryRetentionDays int
}

// Engine wires the scheduler, executor, alert store and aggregator into
// one lifecycle, and exposes the query surface consumed by the web layer.
type Engine struct {
	scheduler  *Scheduler
	aggregator *Aggregator
	indicators IndicatorSource
	ledger     ExecutionLedger
	clock      Clock
	retention  int
	log        logger.Logger

	cleanupStop chan struct{}
}

// NewEngine assembles the engine from its collaborators.
func NewEngine(collector Collector, indicators IndicatorSource, ledger ExecutionLedger, alertStates AlertStateStore, stats StatsSource, notifier Notifier, clock Clock, opts Options, metrics *Metrics, log logger.Logger) *Engine {
	alerts := NewAlertStore(alertStates)
	executor := NewExecutor(collector, indicators, ledger, alerts, notifier, clock, opts.CollectorTimeout, metrics, log)
	scheduler := NewScheduler(indicators, executor, NewLeaseMap(), clock, opts.TickInterval, opts.Workers, metrics, log)
	return &Engine{
		scheduler:  scheduler,
		aggregator: NewAggregator(stats, clock, opts.DashboardCacheTTL),
		indicators: indicators,
		ledger:     ledger,
		clock:      clock,
		retention:  opts.HistoryRetentionDays,
		log:        log,
	}
}

// Start launches the scheduler loop and, if retention is configured, the
// periodic execution-history cleanup.
func (e *Engine) Start(ctx context.Context) {
	e.scheduler.Start(ctx)
	e.startCleanup()
	e.log.Info("monitor engine started", logger.Int("retention_days", e.retention))
}

// Stop shuts down the scheduler and background goroutines, waiting for
// in-flight runs to finish.
func (e *Engine) Stop() {
	e.scheduler.Stop()
	if e.cleanupStop != nil {
		close(e.cleanupStop)
		e.cleanupStop = nil
	}
}

// DueIndicators returns the active indicators currently due, part of the
// query surface for the web layer.
func (e *Engine) DueIndicators(ctx context.Context) ([]entities.Indicator, error) {
	active, err := e.indicators.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	now := e.clock.Now()
	due := make([]entities.Indicator, 0, len(active))
	for i := range active {
		if Due(&active[i], now) {
			due = append(due, active[i])
		}
	}
	return due, nil
}

// Dashboard computes the dashboard snapshot for a trailing window.
func (e *Engine) Dashboard(ctx context.Context, window time.Duration) (*DashboardSnapshot, error) {
	return e.aggregator.Snapshot(ctx, window)
}

// startCleanup runs a background goroutine deleting execution records
// older than the retention horizon. Retention of 0 disables it.
func (e *Engine) startCleanup() {
	if e.retention <= 0 {
		return
	}
	e.cleanupStop = make(chan struct{})
	stopCh := e.cleanupStop
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cutoff := e.clock.Now().AddDate(0, 0, -e.retention)
				ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
				deleted, err := e.ledger.DeleteBefore(ctx, cutoff)
				cancel()
				if err != nil {
					e.log.Error("execution history cleanup failed", logger.Error(err))
				} else if deleted > 0 {
					e.log.Info("execution history cleanup completed",
						logger.Int64("deleted", deleted),
						logger.Int("retention_days", e.retention))
				}
			case <-stopCh:
				return
			}
		}
	}()
}
