package monitor

import "time"

// TriggeredAlert is emitted once per breach episode, on the transition
// into the triggered state.
type TriggeredAlert struct {
	IndicatorID      uint
	Name             string
	Owner            string
	Severity         Severity
	CurrentValue     float64
	BaselineValue    *float64
	DeviationPercent *float64
	TriggerTime      time.Time
}

// ResolvedAlert is emitted when a triggered indicator returns to normal.
type ResolvedAlert struct {
	IndicatorID  uint
	Name         string
	ResolvedTime time.Time
}

// Notifier receives alert lifecycle events. Delivery and retry are the
// notifier's responsibility; the engine fires and forgets, and a notifier
// failure never rolls back recorded state.
type Notifier interface {
	AlertTriggered(alert TriggeredAlert) error
	AlertResolved(alert ResolvedAlert) error
}
