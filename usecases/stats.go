package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"starter-server/entities"
	"starter-server/repositories"
)

const statsTTL = 30 * time.Second

type cachedStats struct {
	stats   entities.DashboardStats
	expires time.Time
}

type StatsUseCase struct {
	UserRepo         repositories.UserRepository
	CustomerRepo     repositories.CustomerRepository
	InvoiceRepo      repositories.InvoiceRepository
	UsageRepo        repositories.UsageRepository
	NotificationRepo repositories.NotificationRepository

	mu    sync.Mutex
	cache map[string]cachedStats
	now   func() time.Time
}

func NewStatsUseCase(userRepo repositories.UserRepository, customerRepo repositories.CustomerRepository, invoiceRepo repositories.InvoiceRepository, usageRepo repositories.UsageRepository, notificationRepo repositories.NotificationRepository) *StatsUseCase {
	return &StatsUseCase{
		UserRepo:         userRepo,
		CustomerRepo:     customerRepo,
		InvoiceRepo:      invoiceRepo,
		UsageRepo:        usageRepo,
		NotificationRepo: notificationRepo,
		cache:            make(map[string]cachedStats),
		now:              nowUTC,
	}
}

// Dashboard computes the dashboard figures for p. Results are reused for
// 30 seconds per user. Admins see platform-wide API usage, members their own.
func (uc *StatsUseCase) Dashboard(ctx context.Context, p Principal) (*entities.DashboardStats, error) {
	now := uc.now()

	uc.mu.Lock()
	if hit, ok := uc.cache[p.UserID]; ok && now.Before(hit.expires) {
		uc.mu.Unlock()
		stats := hit.stats
		return &stats, nil
	}
	uc.mu.Unlock()

	stats, err := uc.compute(ctx, p, now)
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	uc.cache[p.UserID] = cachedStats{stats: *stats, expires: now.Add(statsTTL)}
	uc.mu.Unlock()
	return stats, nil
}

// Invalidate drops every cached result.
func (uc *StatsUseCase) Invalidate() {
	uc.mu.Lock()
	uc.cache = make(map[string]cachedStats)
	uc.mu.Unlock()
}

func (uc *StatsUseCase) compute(ctx context.Context, p Principal, now time.Time) (*entities.DashboardStats, error) {
	s := &entities.DashboardStats{GeneratedAt: now}
	var err error

	if s.TotalUsers, err = uc.UserRepo.Count(ctx, ""); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if s.ActiveUsers, err = uc.UserRepo.Count(ctx, entities.UserStatusActive); err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}
	if s.TotalCustomers, err = uc.CustomerRepo.Count(ctx, ""); err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}
	if s.ActiveCustomers, err = uc.CustomerRepo.Count(ctx, entities.CustomerStatusActive); err != nil {
		return nil, fmt.Errorf("count active customers: %w", err)
	}
	if s.MonthlyRecurringRevenueCents, err = uc.CustomerRepo.SumMRR(ctx); err != nil {
		return nil, fmt.Errorf("sum mrr: %w", err)
	}
	if s.OpenInvoicesCents, err = uc.InvoiceRepo.SumByStatus(ctx, entities.InvoiceOpen); err != nil {
		return nil, fmt.Errorf("sum open invoices: %w", err)
	}

	since := now.AddDate(0, 0, -30)
	if p.IsAdmin() {
		s.APIRequests30d, err = uc.UsageRepo.Total(ctx, entities.MetricAPIRequests, since)
	} else {
		var totals []entities.UsageTotal
		totals, err = uc.UsageRepo.Summary(ctx, p.UserID, since)
		for _, t := range totals {
			if t.Metric == entities.MetricAPIRequests {
				s.APIRequests30d = t.Quantity
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("usage totals: %w", err)
	}

	if s.UnreadNotifications, err = uc.NotificationRepo.CountUnread(ctx, p.UserID); err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	return s, nil
}
