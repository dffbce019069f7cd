package services

import (
	"context"
	"time"

	"starter-server/cache"
	"starter-server/entities"
	"starter-server/logger"
	"starter-server/metrics"
	"starter-server/repositories"
)

// UsageProcessor buffers usage in memory and periodically writes it out as
// UsageRecord rows.
type UsageProcessor struct {
	cache    *cache.UsageCache
	repo     repositories.UsageRepository
	log      logger.Logger
	interval time.Duration
}

func NewUsageProcessor(repo repositories.UsageRepository, log logger.Logger, interval time.Duration) *UsageProcessor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &UsageProcessor{
		cache:    cache.NewUsageCache(),
		repo:     repo,
		log:      log,
		interval: interval,
	}
}

// Start flushes every interval until ctx is done, then flushes once more.
// It returns a channel closed after the final flush.
func (p *UsageProcessor) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(p.interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := p.Flush(ctx); err != nil {
					p.log.Error("usage flush failed: ", err)
				}
			case <-ctx.Done():
				final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if _, err := p.Flush(final); err != nil {
					p.log.Error("final usage flush failed: ", err)
				}
				cancel()
				return
			}
		}
	}()
	return done
}

// Flush drains the cache into the repository. On failure the drained points
// go back into the cache so the next flush retries them.
func (p *UsageProcessor) Flush(ctx context.Context) (int, error) {
	points := p.cache.Drain()
	if len(points) == 0 {
		return 0, nil
	}

	records := make([]entities.UsageRecord, 0, len(points))
	for _, pt := range points {
		records = append(records, entities.UsageRecord{
			UserID:     pt.Key.UserID,
			Metric:     pt.Key.Metric,
			Quantity:   pt.Quantity,
			RecordedAt: pt.LastSeen.UTC(),
		})
	}

	if err := p.repo.BulkInsert(ctx, records); err != nil {
		p.cache.Restore(points)
		metrics.RecordUsageFlush(0, err)
		return 0, err
	}
	metrics.RecordUsageFlush(len(records), nil)
	p.log.Debug("flushed ", len(records), " usage counters")
	return len(records), nil
}

func (p *UsageProcessor) Record(userID, metric string, qty int64) {
	p.cache.Add(userID, metric, qty)
}

// Pending returns unflushed quantities per metric for the user.
func (p *UsageProcessor) Pending(userID string) map[string]int64 {
	return p.cache.Pending(userID)
}

// Buffered returns a copy of the unflushed counters.
func (p *UsageProcessor) Buffered() []cache.UsagePoint {
	return p.cache.Snapshot()
}

func (p *UsageProcessor) Stats() map[string]interface{} {
	return p.cache.Stats()
}
