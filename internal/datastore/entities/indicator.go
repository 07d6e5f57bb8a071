// Package entities defines the persisted kpiwatch data model.
package entities

import "time"

// Indicator is a monitored metric definition. Type selects the evaluation
// rule; the nullable config columns form the type-specific configuration,
// validated on create/update so the scheduler never sees a malformed one.
type Indicator struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Name             string     `gorm:"size:255;not null" json:"name"`
	Owner            string     `gorm:"size:255;default:''" json:"owner"`
	Active           bool       `gorm:"not null;index" json:"active"`
	Priority         int        `gorm:"not null;default:0" json:"priority"`
	FrequencyMinutes int        `gorm:"not null" json:"frequency_minutes"`
	LastRun          *time.Time `json:"last_run"`
	Type             string     `gorm:"size:32;not null" json:"type"`
	SourceRef        string     `gorm:"size:1000;not null" json:"source_ref"`

	// Type-specific configuration. Which columns are required depends on Type.
	ThresholdValue     *float64 `json:"threshold_value,omitempty"`
	ComparisonOperator string   `gorm:"size:8;default:''" json:"comparison_operator,omitempty"`
	DeviationPercent   *float64 `json:"deviation_percent,omitempty"`
	WindowMinutes      *int     `json:"window_minutes,omitempty"`
	MinimumThreshold   *float64 `json:"minimum_threshold,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (Indicator) TableName() string {
	return "indicators"
}
