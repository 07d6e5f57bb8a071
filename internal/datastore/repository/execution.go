package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
)

const defaultHistoryLimit = 100

type executionRepository struct {
	db *gorm.DB
}

// NewExecutionRepository returns a GORM-backed ExecutionRepository.
func NewExecutionRepository(db *gorm.DB) ExecutionRepository {
	return &executionRepository{db: db}
}

func (r *executionRepository) Append(ctx context.Context, rec *entities.ExecutionRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("appending execution record for indicator %d: %w", rec.IndicatorID, err)
	}
	return nil
}

func (r *executionRepository) ListHistory(ctx context.Context, filter ExecutionFilter) ([]entities.ExecutionRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.ExecutionRecord{})
	if filter.IndicatorID != 0 {
		query = query.Where("indicator_id = ?", filter.IndicatorID)
	}
	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("timestamp < ?", *filter.To)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting execution records: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var records []entities.ExecutionRecord
	if err := query.Order("timestamp DESC, id DESC").
		Limit(limit).Offset(filter.Offset).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("listing execution records: %w", err)
	}
	return records, total, nil
}

func (r *executionRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.ExecutionRecord{}).
		Where("timestamp >= ?", since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting executions since %s: %w", since.Format(time.RFC3339), err)
	}
	return count, nil
}

func (r *executionRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("timestamp < ?", before).
		Delete(&entities.ExecutionRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting execution records before %s: %w", before.Format(time.RFC3339), result.Error)
	}
	return result.RowsAffected, nil
}
