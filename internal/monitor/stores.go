package monitor

import (
	"context"
	"time"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
)

// IndicatorSource supplies active indicator definitions and accepts
// last-run updates. Backed by the indicator repository.
type IndicatorSource interface {
	GetActive(ctx context.Context) ([]entities.Indicator, error)
	UpdateLastRun(ctx context.Context, indicatorID uint, lastRun time.Time) error
}

// ExecutionLedger is the append-only store of execution outcomes. Records
// are never mutated; DeleteBefore exists solely for retention cleanup.
type ExecutionLedger interface {
	Append(ctx context.Context, record *entities.ExecutionRecord) error
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AlertStateStore persists the single current alert row per indicator.
// Get returns (nil, nil) when no state exists yet; Save upserts by
// indicator ID. Transition rules live in AlertStore, not here.
type AlertStateStore interface {
	Get(ctx context.Context, indicatorID uint) (*entities.AlertState, error)
	Save(ctx context.Context, state *entities.AlertState) error
}

// Stats is a consistent snapshot of aggregation inputs, read as of a
// single logical time so the dashboard never reports impossible
// combinations.
type Stats struct {
	ActiveIndicators    []entities.Indicator
	ExecutionsInWindow  int64
	AlertsInWindow      int64
	IndicatorsWithAlert int64
}

// StatsSource reads a consistent Stats snapshot covering [since, now].
type StatsSource interface {
	Stats(ctx context.Context, since time.Time) (*Stats, error)
}
