package cache

import (
	"sync"
	"time"
)

// UsageKey identifies one metered counter.
type UsageKey struct {
	UserID string
	Metric string
}

// UsagePoint is the quantity accumulated for a key since the last drain.
type UsagePoint struct {
	Key       UsageKey
	Quantity  int64
	FirstSeen time.Time
	LastSeen  time.Time
}

// UsageCache buffers usage counters in memory until they are drained.
type UsageCache struct {
	mu       sync.RWMutex
	points   map[UsageKey]*UsagePoint
	drained  int64
	lastTick time.Time
	now      func() time.Time
}

func NewUsageCache() *UsageCache {
	return &UsageCache{
		points: make(map[UsageKey]*UsagePoint),
		now:    time.Now,
	}
}

// Add accumulates qty for the user and metric.
func (uc *UsageCache) Add(userID, metric string, qty int64) {
	if userID == "" || metric == "" || qty <= 0 {
		return
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	now := uc.now()
	key := UsageKey{UserID: userID, Metric: metric}
	p, ok := uc.points[key]
	if !ok {
		p = &UsagePoint{Key: key, FirstSeen: now}
		uc.points[key] = p
	}
	p.Quantity += qty
	p.LastSeen = now
}

// Snapshot returns a copy of the buffered points.
func (uc *UsageCache) Snapshot() []UsagePoint {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	out := make([]UsagePoint, 0, len(uc.points))
	for _, p := range uc.points {
		out = append(out, *p)
	}
	return out
}

// Pending returns the buffered quantities per metric for one user.
func (uc *UsageCache) Pending(userID string) map[string]int64 {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	out := make(map[string]int64)
	for key, p := range uc.points {
		if key.UserID == userID {
			out[key.Metric] += p.Quantity
		}
	}
	return out
}

// Drain returns every buffered point and empties the cache.
func (uc *UsageCache) Drain() []UsagePoint {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	out := make([]UsagePoint, 0, len(uc.points))
	for _, p := range uc.points {
		out = append(out, *p)
		uc.drained += p.Quantity
	}
	uc.points = make(map[UsageKey]*UsagePoint)
	uc.lastTick = uc.now()
	return out
}

// Restore puts drained points back, merging with anything added since.
func (uc *UsageCache) Restore(points []UsagePoint) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	for _, rp := range points {
		p, ok := uc.points[rp.Key]
		if !ok {
			cp := rp
			uc.points[rp.Key] = &cp
			uc.drained -= rp.Quantity
			continue
		}
		p.Quantity += rp.Quantity
		if rp.FirstSeen.Before(p.FirstSeen) {
			p.FirstSeen = rp.FirstSeen
		}
		uc.drained -= rp.Quantity
	}
}

// Stats returns statistics about the current cache
func (uc *UsageCache) Stats() map[string]interface{} {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	var pending int64
	users := make(map[string]struct{})
	for key, p := range uc.points {
		pending += p.Quantity
		users[key.UserID] = struct{}{}
	}

	stats := map[string]interface{}{
		"buffered_counters": len(uc.points),
		"buffered_users":    len(users),
		"pending_quantity":  pending,
		"drained_quantity":  uc.drained,
	}
	if !uc.lastTick.IsZero() {
		stats["last_drain_at"] = uc.lastTick.UTC().Format(time.RFC3339)
	}
	return stats
}
