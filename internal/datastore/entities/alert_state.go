package entities

import "time"

// Alert status values for AlertState.Status.
const (
	AlertStatusNone      = "none"
	AlertStatusTriggered = "triggered"
	AlertStatusResolved  = "resolved"
)

// AlertState is the single current alert row per indicator. It is created
// lazily on the first qualifying evaluation and then overwritten in place
// by transitions; it is never deleted. At most one logical active alert
// exists per indicator at a time.
type AlertState struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	IndicatorID   uint       `gorm:"not null;uniqueIndex" json:"indicator_id"`
	Status        string     `gorm:"size:16;not null" json:"status"`
	LastTrigger   *time.Time `gorm:"index" json:"last_trigger"`
	LastDeviation *float64   `json:"last_deviation"`
	Severity      string     `gorm:"size:16;default:''" json:"severity"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Indicator     *Indicator `gorm:"foreignKey:IndicatorID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for GORM.
func (AlertState) TableName() string {
	return "alert_states"
}
