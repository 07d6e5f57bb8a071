// Package monitor implements the kpiwatch core: scheduling, metric
// evaluation, alert state transitions, and dashboard aggregation.
package monitor

import (
	"fmt"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
)

// IndicatorType selects the evaluation rule for an indicator.
type IndicatorType string

const (
	TypeThreshold         IndicatorType = "threshold"
	TypeSuccessRate       IndicatorType = "success_rate"
	TypeTransactionVolume IndicatorType = "transaction_volume"
	TypeTrendAnalysis     IndicatorType = "trend_analysis"
)

// Operator is a threshold comparison operator.
type Operator string

const (
	OperatorGT  Operator = "gt"
	OperatorGTE Operator = "gte"
	OperatorLT  Operator = "lt"
	OperatorLTE Operator = "lte"
	OperatorEQ  Operator = "eq"
)

// Severity is the categorical urgency of an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// DefaultThresholdSeverity is used for threshold indicators, which have no
// deviation gradient to classify against.
const DefaultThresholdSeverity = SeverityMedium

// ThresholdConfig configures a threshold indicator.
type ThresholdConfig struct {
	Value    float64
	Operator Operator
}

// DeviationConfig configures success_rate, transaction_volume and
// trend_analysis indicators. MinimumThreshold gates alerting for the two
// volume-sensitive types and is unused for trend_analysis.
type DeviationConfig struct {
	MaxDeviationPercent float64
	WindowMinutes       int
	MinimumThreshold    float64
}

// TypeConfig is the tagged union of per-type configuration. Exactly one of
// Threshold/Deviation is set, matching Type.
type TypeConfig struct {
	Type      IndicatorType
	Threshold *ThresholdConfig
	Deviation *DeviationConfig
}

// WindowMinutes returns the collection window, or 0 when the type has none.
func (c TypeConfig) WindowMinutes() int {
	if c.Deviation != nil {
		return c.Deviation.WindowMinutes
	}
	return 0
}

// ConfigError reports an indicator definition that fails the required-field
// set for its type. Such indicators are rejected on create/update and are
// never dispatched.
type ConfigError struct {
	Type  IndicatorType
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s config: %s: %s", e.Type, e.Field, e.Msg)
}

func configErr(typ IndicatorType, field, msg string) error {
	return &ConfigError{Type: typ, Field: field, Msg: msg}
}

func validOperator(op Operator) bool {
	switch op {
	case OperatorGT, OperatorGTE, OperatorLT, OperatorLTE, OperatorEQ:
		return true
	default:
		return false
	}
}

// ConfigFor decodes an indicator's nullable config columns into the typed
// variant for its type. It assumes the indicator passed ValidateIndicator.
func ConfigFor(ind *entities.Indicator) (TypeConfig, error) {
	typ := IndicatorType(ind.Type)
	switch typ {
	case TypeThreshold:
		if ind.ThresholdValue == nil {
			return TypeConfig{}, configErr(typ, "threshold_value", "required")
		}
		return TypeConfig{
			Type: typ,
			Threshold: &ThresholdConfig{
				Value:    *ind.ThresholdValue,
				Operator: Operator(ind.ComparisonOperator),
			},
		}, nil
	case TypeSuccessRate, TypeTransactionVolume, TypeTrendAnalysis:
		if ind.DeviationPercent == nil || ind.WindowMinutes == nil {
			return TypeConfig{}, configErr(typ, "deviation_percent/window_minutes", "required")
		}
		cfg := &DeviationConfig{
			MaxDeviationPercent: *ind.DeviationPercent,
			WindowMinutes:       *ind.WindowMinutes,
		}
		if ind.MinimumThreshold != nil {
			cfg.MinimumThreshold = *ind.MinimumThreshold
		}
		return TypeConfig{Type: typ, Deviation: cfg}, nil
	default:
		return TypeConfig{}, configErr(typ, "type", "unknown indicator type")
	}
}

// ValidateIndicator enforces the per-type required-field set plus the
// shared invariants (frequency > 0). Called on create/update so malformed
// definitions never reach the scheduler.
func ValidateIndicator(ind *entities.Indicator) error {
	typ := IndicatorType(ind.Type)
	if ind.Name == "" {
		return configErr(typ, "name", "required")
	}
	if ind.FrequencyMinutes <= 0 {
		return configErr(typ, "frequency_minutes", "must be positive")
	}
	if ind.SourceRef == "" {
		return configErr(typ, "source_ref", "required")
	}

	switch typ {
	case TypeThreshold:
		if ind.ThresholdValue == nil {
			return configErr(typ, "threshold_value", "required")
		}
		if !validOperator(Operator(ind.ComparisonOperator)) {
			return configErr(typ, "comparison_operator", "must be one of gt, gte, lt, lte, eq")
		}
	case TypeSuccessRate, TypeTransactionVolume:
		if err := validateDeviationFields(typ, ind); err != nil {
			return err
		}
		if ind.MinimumThreshold == nil {
			return configErr(typ, "minimum_threshold", "required")
		}
		if *ind.MinimumThreshold < 0 {
			return configErr(typ, "minimum_threshold", "must not be negative")
		}
	case TypeTrendAnalysis:
		if err := validateDeviationFields(typ, ind); err != nil {
			return err
		}
	default:
		return configErr(typ, "type", "unknown indicator type")
	}
	return nil
}

func validateDeviationFields(typ IndicatorType, ind *entities.Indicator) error {
	if ind.DeviationPercent == nil {
		return configErr(typ, "deviation_percent", "required")
	}
	if *ind.DeviationPercent < 0 || *ind.DeviationPercent > 100 {
		return configErr(typ, "deviation_percent", "must be within 0-100")
	}
	if ind.WindowMinutes == nil {
		return configErr(typ, "window_minutes", "required")
	}
	if *ind.WindowMinutes < 1 {
		return configErr(typ, "window_minutes", "must be at least 1")
	}
	return nil
}
