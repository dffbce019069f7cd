package usecases

import (
	"testing"
	"time"

	"starter-server/entities"
	"starter-server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsUseCase_Dashboard(t *testing.T) {
	s := newStack(t)
	admin := testutil.CreateTestUser(t, s.db, "admin@example.com", entities.RoleAdmin)
	member := testutil.CreateTestUser(t, s.db, "member@example.com", entities.RoleMember)
	customer := testutil.CreateTestCustomer(t, s.db, "acme", 5000)
	testutil.CreateTestCustomer(t, s.db, "globex", 2500)

	billing := NewBillingUseCase(s.invoices, s.customers)
	_, err := billing.CreateInvoice(bg, InvoiceInput{CustomerID: customer.ID, AmountCents: 700})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, s.usage.BulkInsert(bg, []entities.UsageRecord{
		{UserID: admin.ID, Metric: entities.MetricAPIRequests, Quantity: 3, RecordedAt: now},
		{UserID: member.ID, Metric: entities.MetricAPIRequests, Quantity: 4, RecordedAt: now},
	}))
	require.NoError(t, s.notifications.Create(bg, &entities.Notification{UserID: member.ID, Title: "hi"}))

	uc := NewStatsUseCase(s.users, s.customers, s.invoices, s.usage, s.notifications)

	adminStats, err := uc.Dashboard(bg, Principal{UserID: admin.ID, Role: entities.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(2), adminStats.TotalUsers)
	assert.Equal(t, int64(2), adminStats.ActiveUsers)
	assert.Equal(t, int64(2), adminStats.ActiveCustomers)
	assert.Equal(t, int64(7500), adminStats.MonthlyRecurringRevenueCents)
	assert.Equal(t, int64(700), adminStats.OpenInvoicesCents)
	assert.Equal(t, int64(7), adminStats.APIRequests30d)
	assert.Zero(t, adminStats.UnreadNotifications)

	memberStats, err := uc.Dashboard(bg, Principal{UserID: member.ID, Role: entities.RoleMember})
	require.NoError(t, err)
	assert.Equal(t, int64(4), memberStats.APIRequests30d)
	assert.Equal(t, int64(1), memberStats.UnreadNotifications)
}

func TestStatsUseCase_Cache(t *testing.T) {
	s := newStack(t)
	admin := testutil.CreateTestUser(t, s.db, "admin@example.com", entities.RoleAdmin)
	p := Principal{UserID: admin.ID, Role: entities.RoleAdmin}

	uc := NewStatsUseCase(s.users, s.customers, s.invoices, s.usage, s.notifications)
	start := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	uc.now = fixedClock(start)

	first, err := uc.Dashboard(bg, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.TotalUsers)

	testutil.CreateTestUser(t, s.db, "new@example.com", entities.RoleMember)

	cached, err := uc.Dashboard(bg, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached.TotalUsers, "served from cache")

	uc.now = fixedClock(start.Add(31 * time.Second))
	fresh, err := uc.Dashboard(bg, p)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh.TotalUsers)

	testutil.CreateTestUser(t, s.db, "third@example.com", entities.RoleMember)
	uc.Invalidate()
	afterInvalidate, err := uc.Dashboard(bg, p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), afterInvalidate.TotalUsers)
}

func TestStatsUseCase_WritesInvalidate(t *testing.T) {
	s := newStack(t)
	admin := testutil.CreateTestUser(t, s.db, "admin@example.com", entities.RoleAdmin)
	p := Principal{UserID: admin.ID, Role: entities.RoleAdmin}

	stats := NewStatsUseCase(s.users, s.customers, s.invoices, s.usage, s.notifications)
	stats.now = fixedClock(time.Now().UTC())
	customers := NewCustomerUseCase(s.customers)
	customers.Stats = stats
	billing := NewBillingUseCase(s.invoices, s.customers)
	billing.Stats = stats

	before, err := stats.Dashboard(bg, p)
	require.NoError(t, err)
	assert.Zero(t, before.TotalCustomers)

	customer, err := customers.Create(bg, admin.ID, CustomerInput{Name: "Acme", Status: entities.CustomerStatusActive, MonthlyRevenueCents: 1200})
	require.NoError(t, err)
	afterCreate, err := stats.Dashboard(bg, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), afterCreate.TotalCustomers)
	assert.Equal(t, int64(1200), afterCreate.MonthlyRecurringRevenueCents)

	invoice, err := billing.CreateInvoice(bg, InvoiceInput{CustomerID: customer.ID, AmountCents: 900})
	require.NoError(t, err)
	withInvoice, err := stats.Dashboard(bg, p)
	require.NoError(t, err)
	assert.Equal(t, int64(900), withInvoice.OpenInvoicesCents)

	_, err = billing.MarkPaid(bg, invoice.ID)
	require.NoError(t, err)
	afterPay, err := stats.Dashboard(bg, p)
	require.NoError(t, err)
	assert.Zero(t, afterPay.OpenInvoicesCents)
}
