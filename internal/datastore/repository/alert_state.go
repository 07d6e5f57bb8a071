package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kpiwatch/kpiwatch/internal/datastore/entities"
)

type alertStateRepository struct {
	db *gorm.DB
}

// NewAlertStateRepository returns a GORM-backed AlertStateRepository.
func NewAlertStateRepository(db *gorm.DB) AlertStateRepository {
	return &alertStateRepository{db: db}
}

func (r *alertStateRepository) Get(ctx context.Context, indicatorID uint) (*entities.AlertState, error) {
	var state entities.AlertState
	err := r.db.WithContext(ctx).
		Where("indicator_id = ?", indicatorID).
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting alert state for indicator %d: %w", indicatorID, err)
	}
	return &state, nil
}

func (r *alertStateRepository) Save(ctx context.Context, state *entities.AlertState) error {
	db := r.db.WithContext(ctx)

	var err error
	if state.ID != 0 {
		err = db.Save(state).Error
	} else {
		// First write for this indicator; the conflict clause covers a
		// concurrent writer racing to create the same row.
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "indicator_id"}},
			UpdateAll: true,
		}).Create(state).Error
	}
	if err != nil {
		return fmt.Errorf("saving alert state for indicator %d: %w", state.IndicatorID, err)
	}
	return nil
}

func (r *alertStateRepository) List(ctx context.Context) ([]entities.AlertState, error) {
	var states []entities.AlertState
	if err := r.db.WithContext(ctx).
		Order("indicator_id ASC").
		Find(&states).Error; err != nil {
		return nil, fmt.Errorf("listing alert states: %w", err)
	}
	return states, nil
}

func (r *alertStateRepository) CountTriggeredSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.AlertState{}).
		Where("last_trigger >= ?", since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting alerts since %s: %w", since.Format(time.RFC3339), err)
	}
	return count, nil
}
