package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
	"github.com/kpiwatch/kpiwatch/internal/monitor"
)

// setupTestDB creates an in-memory SQLite database. Uses shared-cache mode
// with a single connection so all operations see the same database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_foreign_keys=ON"), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")

	sqlDB, err := db.DB()
	require.NoError(t, err, "failed to get sql.DB")
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db), "failed to migrate schema")
	return db
}

func thresholdIndicator(name string) *entities.Indicator {
	value := 500.0
	return &entities.Indicator{
		Name:               name,
		Owner:              "payments",
		Active:             true,
		Priority:           1,
		FrequencyMinutes:   15,
		Type:               string(monitor.TypeThreshold),
		SourceRef:          "https://metrics.internal/api/checkout-latency",
		ThresholdValue:     &value,
		ComparisonOperator: string(monitor.OperatorGT),
	}
}

func successRateIndicator(name string) *entities.Indicator {
	deviation := 10.0
	window := 60
	minimum := 100.0
	return &entities.Indicator{
		Name:             name,
		Owner:            "payments",
		Active:           true,
		Priority:         5,
		FrequencyMinutes: 5,
		Type:             string(monitor.TypeSuccessRate),
		SourceRef:        "https://metrics.internal/api/payment-success",
		DeviationPercent: &deviation,
		WindowMinutes:    &window,
		MinimumThreshold: &minimum,
	}
}
