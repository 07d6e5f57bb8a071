package monitor

import "math"

// Evaluation is the outcome of applying an indicator's rule to a collected
// sample. DeviationPercent is nil when no deviation can be computed
// (threshold type, or a zero/absent baseline).
type Evaluation struct {
	DeviationPercent *float64
	ShouldAlert      bool
	Severity         Severity
}

// Evaluate applies the type-specific rule to a current value and optional
// baseline. Pure and deterministic: no I/O, no clock.
//
// Rules:
//   - threshold: compare current against the configured value; no deviation.
//   - success_rate / transaction_volume: deviation vs baseline, suppressed
//     below the minimum volume threshold.
//   - trend_analysis: same deviation formula; the window only shapes what
//     the collector supplies as current/baseline.
func Evaluate(cfg TypeConfig, current float64, baseline *float64) Evaluation {
	switch cfg.Type {
	case TypeThreshold:
		return Evaluation{
			ShouldAlert: compare(current, cfg.Threshold.Value, cfg.Threshold.Operator),
			Severity:    DefaultThresholdSeverity,
		}
	case TypeSuccessRate, TypeTransactionVolume:
		eval := evaluateDeviation(cfg.Deviation, current, baseline)
		if current < cfg.Deviation.MinimumThreshold {
			// Volume too low to be meaningful; keep the computed deviation
			// for the record but never alert on it.
			eval.ShouldAlert = false
		}
		return eval
	case TypeTrendAnalysis:
		return evaluateDeviation(cfg.Deviation, current, baseline)
	default:
		return Evaluation{Severity: SeverityLow}
	}
}

func evaluateDeviation(cfg *DeviationConfig, current float64, baseline *float64) Evaluation {
	if baseline == nil || *baseline == 0 {
		// Cannot compute a relative deviation; treated as an evaluation
		// error, not a run failure.
		return Evaluation{Severity: SeverityLow}
	}
	deviation := (current - *baseline) / *baseline * 100
	return Evaluation{
		DeviationPercent: &deviation,
		ShouldAlert:      math.Abs(deviation) >= cfg.MaxDeviationPercent,
		Severity:         severityFor(deviation),
	}
}

// severityFor buckets a deviation percentage by absolute magnitude.
func severityFor(deviation float64) Severity {
	abs := math.Abs(deviation)
	switch {
	case abs >= 50:
		return SeverityCritical
	case abs >= 25:
		return SeverityHigh
	case abs >= 10:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// compare implements the threshold comparison operators exactly.
func compare(current, threshold float64, op Operator) bool {
	switch op {
	case OperatorGT:
		return current > threshold
	case OperatorGTE:
		return current >= threshold
	case OperatorLT:
		return current < threshold
	case OperatorLTE:
		return current <= threshold
	case OperatorEQ:
		return current == threshold
	default:
		return false
	}
}
