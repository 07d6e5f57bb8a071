package repository

import (
	"context"
	"time"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
)

// IndicatorFilter narrows indicator listings. Zero values mean "no filter".
type IndicatorFilter struct {
	Owner  string
	Active *bool
	Type   string
}

// ExecutionFilter narrows execution history queries.
type ExecutionFilter struct {
	IndicatorID uint
	From        *time.Time
	To          *time.Time
	Success     *bool
	Limit       int
	Offset      int
}

// IndicatorRepository manages indicator definitions. Create and Update
// validate the indicator's type configuration before persisting.
type IndicatorRepository interface {
	List(ctx context.Context, filter IndicatorFilter) ([]entities.Indicator, error)
	Get(ctx context.Context, id uint) (*entities.Indicator, error)
	Create(ctx context.Context, ind *entities.Indicator) error
	Update(ctx context.Context, ind *entities.Indicator) error
	Delete(ctx context.Context, id uint) error
	SetActive(ctx context.Context, id uint, active bool) error

	// GetActive and UpdateLastRun also satisfy monitor.IndicatorSource.
	GetActive(ctx context.Context) ([]entities.Indicator, error)
	UpdateLastRun(ctx context.Context, id uint, lastRun time.Time) error
}

// ExecutionRepository is the append-only ledger of indicator runs.
// Append and DeleteBefore also satisfy monitor.ExecutionLedger.
type ExecutionRepository interface {
	Append(ctx context.Context, rec *entities.ExecutionRecord) error
	ListHistory(ctx context.Context, filter ExecutionFilter) ([]entities.ExecutionRecord, int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AlertStateRepository persists per-indicator alert state.
// Get and Save also satisfy monitor.AlertStateStore.
type AlertStateRepository interface {
	// Get returns (nil, nil) when no state exists for the indicator.
	Get(ctx context.Context, indicatorID uint) (*entities.AlertState, error)
	Save(ctx context.Context, state *entities.AlertState) error
	List(ctx context.Context) ([]entities.AlertState, error)
	CountTriggeredSince(ctx context.Context, since time.Time) (int64, error)
}
