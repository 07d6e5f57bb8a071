package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpiwatch/kpiwatch/internal/monitor"
)

func TestIndicatorRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndicatorRepository(db)
	ctx := testContext(t)

	ind := thresholdIndicator("checkout-latency")
	require.NoError(t, repo.Create(ctx, ind))
	require.NotZero(t, ind.ID, "create should assign an ID")

	got, err := repo.Get(ctx, ind.ID)
	require.NoError(t, err)
	assert.Equal(t, "checkout-latency", got.Name)
	assert.Equal(t, string(monitor.TypeThreshold), got.Type)
	require.NotNil(t, got.ThresholdValue)
	assert.InDelta(t, 500.0, *got.ThresholdValue, 0.001)
}

func TestIndicatorRepository_CreateRejectsInvalidConfig(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndicatorRepository(db)
	ctx := testContext(t)

	ind := thresholdIndicator("broken")
	ind.ThresholdValue = nil

	err := repo.Create(ctx, ind)
	require.Error(t, err)
	var cfgErr *monitor.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "threshold_value", cfgErr.Field)

	var count int64
	require.NoError(t, db.Table("indicators").Count(&count).Error)
	assert.Zero(t, count, "invalid indicator must not be persisted")
}

func TestIndicatorRepository_GetNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndicatorRepository(db)

	_, err := repo.Get(testContext(t), 9999)
	assert.ErrorIs(t, err, ErrIndicatorNotFound)
}

func TestIndicatorRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndicatorRepository(db)
	ctx := testContext(t)

	ind := thresholdIndicator("checkout-latency")
	require.NoError(t, repo.Create(ctx, ind))

	newValue := 750.0
	ind.ThresholdValue = &newValue
	ind.Priority = 9
	require.NoError(t, repo.Update(ctx, ind))

	got, err := repo.Get(ctx, ind.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Priority)
	require.NotNil(t, got.ThresholdValue)
	assert.InDelta(t, 750.0, *got.ThresholdValue, 0.001)
}

func TestIndicatorRepository_UpdateNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndicatorRepository(db)

	ind := thresholdIndicator("ghost")
	ind.ID = 4242
	assert.ErrorIs(t, repo.Update(testContext(t), ind), ErrIndicatorNotFound)
}

func TestIndicatorRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndicatorRepository(db)
	ctx := testContext(t)

	ind := thresholdIndicator("checkout-latency")
	require.NoError(t, repo.Create(ctx, ind))
	require.NoError(t, repo.Delete(ctx, ind.ID))

	_, err := repo.Get(ctx, ind.ID)
	assert.ErrorIs(t, err, ErrIndicatorNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, ind.ID), ErrIndicatorNotFound)
}

func TestIndicatorRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndicatorRepository(db)
	ctx := testContext(t)

	active := thresholdIndicator("active-latency")
	require.NoError(t, repo.Create(ctx, active))

	inactive := successRateIndicator("paused-success")
	inactive.Active = false
	inactive.Owner = "fraud"
	require.NoError(t, repo.Create(ctx, inactive))

	all, err := repo.List(ctx, IndicatorFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	isActive := true
	onlyActive, err := repo.List(ctx, IndicatorFilter{Active: &isActive})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, "active-latency", onlyActive[0].Name)

	byOwner, err := repo.List(ctx, IndicatorFilter{Owner: "fraud"})
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, "paused-success", byOwner[0].Name)

	byType, err := repo.List(ctx, IndicatorFilter{Type: string(monitor.TypeSuccessRate)})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "paused-success", byType[0].Name)
}

func TestIndicatorRepository_ListOrdersByPriority(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndicatorRepository(db)
	ctx := testContext(t)

	low := thresholdIndicator("low-priority")
	low.Priority = 1
	high := thresholdIndicator("high-priority")
	high.Priority = 10
	require.NoError(t, repo.Create(ctx, low))
	require.NoError(t, repo.Create(ctx, high))

	all, err := repo.List(ctx, IndicatorFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "high-priority", all[0].Name)
}

func TestIndicatorRepository_SetActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndicatorRepository(db)
	ctx := testContext(t)

	ind := thresholdIndicator("checkout-latency")
	require.NoError(t, repo.Create(ctx, ind))
	require.NoError(t, repo.SetActive(ctx, ind.ID, false))

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, repo.SetActive(ctx, 9999, true), ErrIndicatorNotFound)
}

func TestIndicatorRepository_UpdateLastRun(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIndicatorRepository(db)
	ctx := testContext(t)

	ind := successRateIndicator("payment-success")
	require.NoError(t, repo.Create(ctx, ind))

	runAt := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastRun(ctx, ind.ID, runAt))

	got, err := repo.Get(ctx, ind.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastRun)
	assert.True(t, got.LastRun.Equal(runAt), "expected last run %v, got %v", runAt, got.LastRun)

	assert.ErrorIs(t, repo.UpdateLastRun(ctx, 9999, runAt), ErrIndicatorNotFound)
}
