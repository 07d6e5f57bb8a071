package monitor

import "context"

// Sample is one collected metric observation. Baseline is nil when the
// source has no historical comparison value (threshold indicators).
type Sample struct {
	Current  float64
	Baseline *float64
}

// Collector fetches the current and baseline values for an indicator's
// source reference. The context carries the per-run deadline; on expiry
// the run is treated as a collection failure.
type Collector interface {
	Collect(ctx context.Context, sourceRef string, windowMinutes int) (Sample, error)
}
