package monitor

import (
	"context"
	"time"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
	"github.com/kpiwatch/kpiwatch/internal/logger"
)

// DefaultCollectorTimeout bounds a metric collection call when no timeout
// is configured.
const DefaultCollectorTimeout = 30 * time.Second

// Executor orchestrates one indicator run: collect → evaluate → record →
// alert transition → notify. Each step is failure-isolated so one
// indicator's problems never affect another's run.
type Executor struct {
	collector  Collector
	indicators IndicatorSource
	ledger     ExecutionLedger
	alerts     *AlertStore
	notifier   Notifier
	clock      Clock
	timeout    time.Duration
	metrics    *Metrics
	log        logger.Logger
}

// NewExecutor creates an Executor. A non-positive timeout falls back to
// DefaultCollectorTimeout.
func NewExecutor(collector Collector, indicators IndicatorSource, ledger ExecutionLedger, alerts *AlertStore, notifier Notifier, clock Clock, timeout time.Duration, metrics *Metrics, log logger.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultCollectorTimeout
	}
	return &Executor{
		collector:  collector,
		indicators: indicators,
		ledger:     ledger,
		alerts:     alerts,
		notifier:   notifier,
		clock:      clock,
		timeout:    timeout,
		metrics:    metrics,
		log:        log,
	}
}

// Run executes a single indicator at the given tick time and returns the
// execution record that was appended to the ledger. The returned record is
// also produced on failure paths so callers can inspect the outcome.
func (e *Executor) Run(ctx context.Context, ind *entities.Indicator, now time.Time) entities.ExecutionRecord {
	started := e.clock.Now()
	record := entities.ExecutionRecord{
		IndicatorID: ind.ID,
		Timestamp:   now,
	}

	cfg, err := ConfigFor(ind)
	if err != nil {
		// Should have been rejected at create/update; never evaluate a
		// malformed definition at run time.
		e.finishRun(ctx, ind, &record, started, now, err)
		return record
	}

	collectCtx, cancel := context.WithTimeout(ctx, e.timeout)
	sample, err := e.collector.Collect(collectCtx, ind.SourceRef, cfg.WindowMinutes())
	cancel()
	if err != nil {
		// Collection failure: record it, advance lastRun so the indicator
		// is not hot-retried, skip evaluation and alerting.
		e.finishRun(ctx, ind, &record, started, now, err)
		return record
	}

	eval := Evaluate(cfg, sample.Current, sample.Baseline)
	record.CurrentValue = sample.Current
	record.BaselineValue = sample.Baseline
	record.DeviationPercent = eval.DeviationPercent
	record.Success = true
	e.finishRun(ctx, ind, &record, started, now, nil)

	result, err := e.alerts.Transition(ctx, ind, eval, now)
	if err != nil {
		e.log.Error("alert transition failed",
			logger.Uint64("indicator_id", uint64(ind.ID)),
			logger.Error(err))
		return record
	}

	switch {
	case result.Triggered:
		e.metrics.alertTriggered()
		e.notifyTriggered(ind, eval, sample, now)
	case result.Resolved:
		e.metrics.alertResolved()
		e.notifyResolved(ind, now)
	}
	return record
}

// finishRun appends the execution record and advances lastRun. Both happen
// on success and failure paths; persistence errors are logged, never
// propagated into the run outcome.
func (e *Executor) finishRun(ctx context.Context, ind *entities.Indicator, record *entities.ExecutionRecord, started, now time.Time, runErr error) {
	if runErr != nil {
		record.Success = false
		record.ErrorMessage = runErr.Error()
	}
	record.DurationMS = e.clock.Now().Sub(started).Milliseconds()

	if err := e.ledger.Append(ctx, record); err != nil {
		e.log.Error("failed to append execution record",
			logger.Uint64("indicator_id", uint64(ind.ID)),
			logger.Error(err))
	}
	if err := e.indicators.UpdateLastRun(ctx, ind.ID, now); err != nil {
		e.log.Error("failed to update indicator last run",
			logger.Uint64("indicator_id", uint64(ind.ID)),
			logger.Error(err))
	}
	e.metrics.observeRun(record.Success, time.Duration(record.DurationMS)*time.Millisecond)

	if runErr != nil {
		e.log.Warn("indicator run failed",
			logger.Uint64("indicator_id", uint64(ind.ID)),
			logger.String("name", ind.Name),
			logger.Error(runErr))
	}
}

// notifyTriggered hands a new alert to the notifier. Fire-and-forget: a
// notifier failure is logged and surfaced to its own retry policy, never
// rolled back into the alert state or the ledger.
func (e *Executor) notifyTriggered(ind *entities.Indicator, eval Evaluation, sample Sample, now time.Time) {
	if e.notifier == nil {
		return
	}
	err := e.notifier.AlertTriggered(TriggeredAlert{
		IndicatorID:      ind.ID,
		Name:             ind.Name,
		Owner:            ind.Owner,
		Severity:         eval.Severity,
		CurrentValue:     sample.Current,
		BaselineValue:    sample.Baseline,
		DeviationPercent: eval.DeviationPercent,
		TriggerTime:      now,
	})
	if err != nil {
		e.log.Error("alert notification failed",
			logger.Uint64("indicator_id", uint64(ind.ID)),
			logger.Error(err))
	}
}

func (e *Executor) notifyResolved(ind *entities.Indicator, now time.Time) {
	if e.notifier == nil {
		return
	}
	err := e.notifier.AlertResolved(ResolvedAlert{
		IndicatorID:  ind.ID,
		Name:         ind.Name,
		ResolvedTime: now,
	})
	if err != nil {
		e.log.Error("resolution notification failed",
			logger.Uint64("indicator_id", uint64(ind.ID)),
			logger.Error(err))
	}
}
