package monitor

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Health is the categorical system health of the monitored fleet.
type Health string

const (
	HealthExcellent Health = "excellent"
	HealthGood      Health = "good"
	HealthFair      Health = "fair"
	HealthPoor      Health = "poor"
	HealthCritical  Health = "critical"
	HealthUnknown   Health = "unknown"
)

// DashboardSnapshot is a derived view over the indicator set, the
// execution ledger and the alert states, recomputed on demand. It is
// never persisted as a source of truth.
type DashboardSnapshot struct {
	GeneratedAt        time.Time `json:"generated_at"`
	Window             string    `json:"window"`
	ActiveIndicators   int       `json:"active_indicators"`
	DueIndicators      int       `json:"due_indicators"`
	ExecutionsInWindow int64     `json:"executions_in_window"`
	AlertsInWindow     int64     `json:"alerts_in_window"`
	SystemLoadPercent  float64   `json:"system_load_percent"`
	Health             Health    `json:"health"`
}

// Aggregator computes dashboard snapshots from a consistent stats read.
// Snapshots are briefly cached per window to keep repeated dashboard
// polling off the database.
type Aggregator struct {
	stats StatsSource
	clock Clock
	cache *gocache.Cache
}

// NewAggregator creates an Aggregator. cacheTTL <= 0 disables caching.
func NewAggregator(stats StatsSource, clock Clock, cacheTTL time.Duration) *Aggregator {
	var c *gocache.Cache
	if cacheTTL > 0 {
		c = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return &Aggregator{stats: stats, clock: clock, cache: c}
}

// Snapshot computes the dashboard view for the trailing window.
func (a *Aggregator) Snapshot(ctx context.Context, window time.Duration) (*DashboardSnapshot, error) {
	key := window.String()
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			return cached.(*DashboardSnapshot), nil
		}
	}

	now := a.clock.Now()
	stats, err := a.stats.Stats(ctx, now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard stats: %w", err)
	}

	snap := &DashboardSnapshot{
		GeneratedAt:        now,
		Window:             key,
		ActiveIndicators:   len(stats.ActiveIndicators),
		ExecutionsInWindow: stats.ExecutionsInWindow,
		AlertsInWindow:     stats.AlertsInWindow,
	}
	for i := range stats.ActiveIndicators {
		if Due(&stats.ActiveIndicators[i], now) {
			snap.DueIndicators++
		}
	}
	snap.SystemLoadPercent = systemLoad(snap.DueIndicators, snap.ActiveIndicators)
	snap.Health = systemHealth(snap.ActiveIndicators, stats.IndicatorsWithAlert)

	if a.cache != nil {
		a.cache.Set(key, snap, gocache.DefaultExpiration)
	}
	return snap, nil
}

// systemLoad is the due share of the active fleet, 0 when nothing is
// active (never a division error).
func systemLoad(due, active int) float64 {
	if active == 0 {
		return 0
	}
	return float64(due) / float64(active) * 100
}

// systemHealth buckets the share of active indicators without a recent
// alert.
func systemHealth(active int, withAlert int64) Health {
	if active == 0 {
		return HealthUnknown
	}
	pct := (float64(active) - float64(withAlert)) / float64(active) * 100
	switch {
	case pct >= 90:
		return HealthExcellent
	case pct >= 75:
		return HealthGood
	case pct >= 50:
		return HealthFair
	case pct >= 25:
		return HealthPoor
	default:
		return HealthCritical
	}
}
