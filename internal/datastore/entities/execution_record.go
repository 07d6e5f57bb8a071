package entities

import "time"

// ExecutionRecord captures the outcome of a single indicator run.
// Records are append-only: created exactly once per run, never mutated.
// Retention cleanup is the only deletion path.
type ExecutionRecord struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	IndicatorID      uint       `gorm:"not null;index:idx_executions_indicator_ts,priority:1" json:"indicator_id"`
	Timestamp        time.Time  `gorm:"not null;index:idx_executions_indicator_ts,priority:2" json:"timestamp"`
	CurrentValue     float64    `json:"current_value"`
	BaselineValue    *float64   `json:"baseline_value"`
	DeviationPercent *float64   `json:"deviation_percent"`
	Success          bool       `gorm:"not null;index" json:"success"`
	ErrorMessage     string     `gorm:"size:2000;default:''" json:"error_message,omitempty"`
	DurationMS       int64      `json:"duration_ms"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	Indicator        *Indicator `gorm:"foreignKey:IndicatorID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (ExecutionRecord) TableName() string {
	return "execution_records"
}
