package entities

import "time"

// DashboardStats is the computed summary shown on the admin dashboard
type DashboardStats struct {
	TotalUsers                   int64     `json:"total_users"`
	ActiveUsers                  int64     `json:"active_users"`
	TotalCustomers               int64     `json:"total_customers"`
	ActiveCustomers              int64     `json:"active_customers"`
	MonthlyRecurringRevenueCents int64     `json:"monthly_recurring_revenue_cents"`
	OpenInvoicesCents            int64     `json:"open_invoices_cents"`
	APIRequests30d               int64     `json:"api_requests_30d"`
	UnreadNotifications          int64     `json:"unread_notifications"`
	GeneratedAt                  time.Time `json:"generated_at"`
}
