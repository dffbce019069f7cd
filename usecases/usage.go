package usecases

import (
	"context"
	"sort"
	"time"

	"starter-server/apperrors"
	"starter-server/entities"
	"starter-server/repositories"
)

const (
	// DefaultUsageDays is the window used when a caller does not pick one.
	DefaultUsageDays = 30
	maxUsageDays     = 90
)

// PendingUsage exposes counts recorded but not yet flushed.
type PendingUsage interface {
	Pending(userID string) map[string]int64
}

// UsageSummary is the per-metric usage of a user over a window.
type UsageSummary struct {
	Days   int                   `json:"days"`
	Since  time.Time             `json:"since"`
	Totals []entities.UsageTotal `json:"totals"`
}

type UsageUseCase struct {
	UsageRepo repositories.UsageRepository

	pending PendingUsage
	now     func() time.Time
}

func NewUsageUseCase(usageRepo repositories.UsageRepository, pending PendingUsage) *UsageUseCase {
	return &UsageUseCase{UsageRepo: usageRepo, pending: pending, now: nowUTC}
}

// Summary totals usage per metric, including counts still buffered in memory.
func (uc *UsageUseCase) Summary(ctx context.Context, userID string, days int) (*UsageSummary, error) {
	since, days, err := uc.window(days)
	if err != nil {
		return nil, err
	}

	stored, err := uc.UsageRepo.Summary(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	byMetric := make(map[string]int64, len(stored))
	for _, t := range stored {
		byMetric[t.Metric] += t.Quantity
	}
	if uc.pending != nil {
		for metric, qty := range uc.pending.Pending(userID) {
			byMetric[metric] += qty
		}
	}

	totals := make([]entities.UsageTotal, 0, len(byMetric))
	for metric, qty := range byMetric {
		totals = append(totals, entities.UsageTotal{Metric: metric, Quantity: qty})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Metric < totals[j].Metric })

	return &UsageSummary{Days: days, Since: since, Totals: totals}, nil
}

// Daily returns one point per day that has stored usage of metric.
func (uc *UsageUseCase) Daily(ctx context.Context, userID, metric string, days int) ([]entities.UsagePoint, error) {
	if metric == "" {
		metric = entities.MetricAPIRequests
	}
	since, _, err := uc.window(days)
	if err != nil {
		return nil, err
	}
	return uc.UsageRepo.Daily(ctx, userID, metric, since)
}

func (uc *UsageUseCase) window(days int) (time.Time, int, error) {
	if days < 1 || days > maxUsageDays {
		return time.Time{}, 0, apperrors.Validationf("days must be between 1 and %d", maxUsageDays)
	}
	today := uc.now().Truncate(24 * time.Hour)
	return today.AddDate(0, 0, -(days - 1)), days, nil
}
