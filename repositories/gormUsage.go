package repositories

import (
	"context"
	"time"

	"starter-server/db"
	"starter-server/entities"
)

type usageGormRepository struct {
	db db.Database
}

func NewUsageRepository(database db.Database) UsageRepository {
	return &usageGormRepository{db: database}
}

func (r *usageGormRepository) BulkInsert(ctx context.Context, records []entities.UsageRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.GetDB().WithContext(ctx).CreateInBatches(&records, 500).Error
}

func (r *usageGormRepository) Summary(ctx context.Context, userID string, since time.Time) ([]entities.UsageTotal, error) {
	var totals []entities.UsageTotal
	err := r.db.GetDB().WithContext(ctx).Model(&entities.UsageRecord{}).
		Select("metric, COALESCE(SUM(quantity), 0) AS quantity").
		Where("user_id = ? AND recorded_at >= ?", userID, since.UTC()).
		Group("metric").
		Order("metric").
		Scan(&totals).Error
	return totals, err
}

func (r *usageGormRepository) Daily(ctx context.Context, userID, metric string, since time.Time) ([]entities.UsagePoint, error) {
	day := r.dayExpr()
	var points []entities.UsagePoint
	err := r.db.GetDB().WithContext(ctx).Model(&entities.UsageRecord{}).
		Select(day+" AS day, COALESCE(SUM(quantity), 0) AS quantity").
		Where("user_id = ? AND metric = ? AND recorded_at >= ?", userID, metric, since.UTC()).
		Group(day).
		Order("day").
		Scan(&points).Error
	return points, err
}

func (r *usageGormRepository) Total(ctx context.Context, metric string, since time.Time) (int64, error) {
	var sum int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.UsageRecord{}).
		Where("metric = ? AND recorded_at >= ?", metric, since.UTC()).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	return sum, err
}

// List returns raw records since the given time, newest first.
func (r *usageGormRepository) List(ctx context.Context, since time.Time, limit int) ([]entities.UsageRecord, error) {
	var records []entities.UsageRecord
	err := r.db.GetDB().WithContext(ctx).
		Where("recorded_at >= ?", since.UTC()).
		Order("recorded_at desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// dayExpr formats recorded_at as YYYY-MM-DD in the active dialect.
func (r *usageGormRepository) dayExpr() string {
	if r.db.GetDB().Dialector.Name() == "postgres" {
		return "to_char(recorded_at, 'YYYY-MM-DD')"
	}
	return "strftime('%Y-%m-%d', recorded_at)"
}
