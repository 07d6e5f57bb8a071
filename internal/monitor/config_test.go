package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
)

func intPtr(v int) *int { return &v }

func validThreshold() *entities.Indicator {
	return &entities.Indicator{
		Name:               "checkout-latency",
		FrequencyMinutes:   15,
		Type:               string(TypeThreshold),
		SourceRef:          "https://metrics.internal/api/checkout-latency",
		ThresholdValue:     floatPtr(500),
		ComparisonOperator: string(OperatorGT),
	}
}

func validSuccessRate() *entities.Indicator {
	return &entities.Indicator{
		Name:             "payment-success",
		FrequencyMinutes: 5,
		Type:             string(TypeSuccessRate),
		SourceRef:        "https://metrics.internal/api/payment-success",
		DeviationPercent: floatPtr(10),
		WindowMinutes:    intPtr(60),
		MinimumThreshold: floatPtr(100),
	}
}

func TestValidateIndicator(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*entities.Indicator)
		indicator *entities.Indicator
		wantField string
	}{
		{name: "valid threshold", indicator: validThreshold()},
		{name: "valid success rate", indicator: validSuccessRate()},
		{
			name:      "missing name",
			indicator: validThreshold(),
			mutate:    func(i *entities.Indicator) { i.Name = "" },
			wantField: "name",
		},
		{
			name:      "zero frequency",
			indicator: validThreshold(),
			mutate:    func(i *entities.Indicator) { i.FrequencyMinutes = 0 },
			wantField: "frequency_minutes",
		},
		{
			name:      "missing source ref",
			indicator: validThreshold(),
			mutate:    func(i *entities.Indicator) { i.SourceRef = "" },
			wantField: "source_ref",
		},
		{
			name:      "threshold without value",
			indicator: validThreshold(),
			mutate:    func(i *entities.Indicator) { i.ThresholdValue = nil },
			wantField: "threshold_value",
		},
		{
			name:      "threshold with bogus operator",
			indicator: validThreshold(),
			mutate:    func(i *entities.Indicator) { i.ComparisonOperator = "between" },
			wantField: "comparison_operator",
		},
		{
			name:      "success rate without deviation",
			indicator: validSuccessRate(),
			mutate:    func(i *entities.Indicator) { i.DeviationPercent = nil },
			wantField: "deviation_percent",
		},
		{
			name:      "deviation out of range",
			indicator: validSuccessRate(),
			mutate:    func(i *entities.Indicator) { i.DeviationPercent = floatPtr(150) },
			wantField: "deviation_percent",
		},
		{
			name:      "window below one minute",
			indicator: validSuccessRate(),
			mutate:    func(i *entities.Indicator) { i.WindowMinutes = intPtr(0) },
			wantField: "window_minutes",
		},
		{
			name:      "success rate without minimum threshold",
			indicator: validSuccessRate(),
			mutate:    func(i *entities.Indicator) { i.MinimumThreshold = nil },
			wantField: "minimum_threshold",
		},
		{
			name:      "negative minimum threshold",
			indicator: validSuccessRate(),
			mutate:    func(i *entities.Indicator) { i.MinimumThreshold = floatPtr(-1) },
			wantField: "minimum_threshold",
		},
		{
			name:      "unknown type",
			indicator: validThreshold(),
			mutate:    func(i *entities.Indicator) { i.Type = "sentiment" },
			wantField: "type",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ind := tt.indicator
			if tt.mutate != nil {
				tt.mutate(ind)
			}
			err := ValidateIndicator(ind)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestValidateIndicator_TrendHasNoMinimumRequirement(t *testing.T) {
	ind := validSuccessRate()
	ind.Type = string(TypeTrendAnalysis)
	ind.MinimumThreshold = nil
	assert.NoError(t, ValidateIndicator(ind))
}

func TestConfigFor(t *testing.T) {
	cfg, err := ConfigFor(validThreshold())
	require.NoError(t, err)
	require.NotNil(t, cfg.Threshold)
	assert.Equal(t, OperatorGT, cfg.Threshold.Operator)
	assert.Zero(t, cfg.WindowMinutes(), "threshold indicators have no collection window")

	cfg, err = ConfigFor(validSuccessRate())
	require.NoError(t, err)
	require.NotNil(t, cfg.Deviation)
	assert.InDelta(t, 10.0, cfg.Deviation.MaxDeviationPercent, 0.001)
	assert.Equal(t, 60, cfg.WindowMinutes())

	bad := validThreshold()
	bad.Type = "sentiment"
	_, err = ConfigFor(bad)
	assert.Error(t, err)
}
