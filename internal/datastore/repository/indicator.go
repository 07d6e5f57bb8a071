package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
	"github.com/kpiwatch/kpiwatch/internal/monitor"
)

type indicatorRepository struct {
	db *gorm.DB
}

// NewIndicatorRepository returns a GORM-backed IndicatorRepository.
func NewIndicatorRepository(db *gorm.DB) IndicatorRepository {
	return &indicatorRepository{db: db}
}

func (r *indicatorRepository) List(ctx context.Context, filter IndicatorFilter) ([]entities.Indicator, error) {
	query := r.db.WithContext(ctx)
	if filter.Owner != "" {
		query = query.Where("owner = ?", filter.Owner)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var indicators []entities.Indicator
	if err := query.Order("priority DESC, id ASC").Find(&indicators).Error; err != nil {
		return nil, fmt.Errorf("listing indicators: %w", err)
	}
	return indicators, nil
}

func (r *indicatorRepository) Get(ctx context.Context, id uint) (*entities.Indicator, error) {
	var ind entities.Indicator
	if err := r.db.WithContext(ctx).First(&ind, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIndicatorNotFound
		}
		return nil, fmt.Errorf("getting indicator %d: %w", id, err)
	}
	return &ind, nil
}

func (r *indicatorRepository) Create(ctx context.Context, ind *entities.Indicator) error {
	if err := monitor.ValidateIndicator(ind); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(ind).Error; err != nil {
		return fmt.Errorf("creating indicator %q: %w", ind.Name, err)
	}
	return nil
}

func (r *indicatorRepository) Update(ctx context.Context, ind *entities.Indicator) error {
	if err := monitor.ValidateIndicator(ind); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&entities.Indicator{}).
		Where("id = ?", ind.ID).
		Select("*").Omit("id", "created_at").
		Updates(ind)
	if result.Error != nil {
		return fmt.Errorf("updating indicator %d: %w", ind.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIndicatorNotFound
	}
	return nil
}

func (r *indicatorRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Indicator{}, id)
	if result.Error != nil {
		return fmt.Errorf("deleting indicator %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIndicatorNotFound
	}
	return nil
}

func (r *indicatorRepository) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&entities.Indicator{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return fmt.Errorf("setting indicator %d active=%v: %w", id, active, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIndicatorNotFound
	}
	return nil
}

func (r *indicatorRepository) GetActive(ctx context.Context) ([]entities.Indicator, error) {
	var indicators []entities.Indicator
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("priority DESC, id ASC").
		Find(&indicators).Error; err != nil {
		return nil, fmt.Errorf("listing active indicators: %w", err)
	}
	return indicators, nil
}

func (r *indicatorRepository) UpdateLastRun(ctx context.Context, id uint, lastRun time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.Indicator{}).
		Where("id = ?", id).
		Update("last_run", lastRun)
	if result.Error != nil {
		return fmt.Errorf("updating last run for indicator %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIndicatorNotFound
	}
	return nil
}
