package usecases

import (
	"testing"
	"time"

	"starter-server/apperrors"
	"starter-server/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePending map[string]map[string]int64

func (f fakePending) Pending(userID string) map[string]int64 { return f[userID] }

func TestUsageUseCase_Summary(t *testing.T) {
	s := newStack(t)
	now := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	require.NoError(t, s.usage.BulkInsert(bg, []entities.UsageRecord{
		{UserID: "u1", Metric: entities.MetricAPIRequests, Quantity: 10, RecordedAt: now.Add(-time.Hour)},
		{UserID: "u1", Metric: entities.MetricAPIRequests, Quantity: 99, RecordedAt: now.AddDate(0, 0, -40)},
		{UserID: "u1", Metric: entities.MetricUploads, Quantity: 2, RecordedAt: now.AddDate(0, 0, -3)},
	}))

	uc := NewUsageUseCase(s.usage, fakePending{"u1": {entities.MetricAPIRequests: 5, entities.MetricReports: 1}})
	uc.now = fixedClock(now)

	summary, err := uc.Summary(bg, "u1", DefaultUsageDays)
	require.NoError(t, err)
	assert.Equal(t, 30, summary.Days)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), summary.Since)
	assert.Equal(t, []entities.UsageTotal{
		{Metric: entities.MetricAPIRequests, Quantity: 15},
		{Metric: entities.MetricReports, Quantity: 1},
		{Metric: entities.MetricUploads, Quantity: 2},
	}, summary.Totals)

	for _, days := range []int{-1, 0, 91} {
		_, err := uc.Summary(bg, "u1", days)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	}
}

func TestUsageUseCase_Daily(t *testing.T) {
	s := newStack(t)
	now := time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)
	require.NoError(t, s.usage.BulkInsert(bg, []entities.UsageRecord{
		{UserID: "u1", Metric: entities.MetricAPIRequests, Quantity: 4, RecordedAt: now.AddDate(0, 0, -1)},
		{UserID: "u1", Metric: entities.MetricAPIRequests, Quantity: 6, RecordedAt: now},
		{UserID: "u1", Metric: entities.MetricAPIRequests, Quantity: 1, RecordedAt: now.AddDate(0, 0, -10)},
	}))

	uc := NewUsageUseCase(s.usage, nil)
	uc.now = fixedClock(now)

	points, err := uc.Daily(bg, "u1", "", 7)
	require.NoError(t, err)
	assert.Equal(t, []entities.UsagePoint{
		{Day: "2026-10-13", Quantity: 4},
		{Day: "2026-10-14", Quantity: 6},
	}, points)
}
