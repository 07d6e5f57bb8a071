package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
	"github.com/kpiwatch/kpiwatch/internal/monitor"
)

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository returns a monitor.StatsSource that reads all
// aggregation inputs inside a single transaction.
func NewStatsRepository(db *gorm.DB) monitor.StatsSource {
	return &statsRepository{db: db}
}

func (r *statsRepository) Stats(ctx context.Context, since time.Time) (*monitor.Stats, error) {
	var stats monitor.Stats
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("active = ?", true).
			Order("priority DESC, id ASC").
			Find(&stats.ActiveIndicators).Error; err != nil {
			return fmt.Errorf("loading active indicators: %w", err)
		}
		if err := tx.Model(&entities.ExecutionRecord{}).
			Where("timestamp >= ?", since).
			Count(&stats.ExecutionsInWindow).Error; err != nil {
			return fmt.Errorf("counting executions: %w", err)
		}
		if err := tx.Model(&entities.AlertState{}).
			Where("last_trigger >= ?", since).
			Count(&stats.AlertsInWindow).Error; err != nil {
			return fmt.Errorf("counting alerts: %w", err)
		}
		if err := tx.Model(&entities.AlertState{}).
			Where("last_trigger >= ?", since).
			Distinct("indicator_id").
			Count(&stats.IndicatorsWithAlert).Error; err != nil {
			return fmt.Errorf("counting alerting indicators: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting dashboard stats: %w", err)
	}
	return &stats, nil
}
