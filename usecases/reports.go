package usecases

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"starter-server/apperrors"
	"starter-server/entities"
	"starter-server/repositories"
)

// MaxReportRows caps the number of rows a report contains.
const MaxReportRows = 10000

const (
	ReportUsers     = "users"
	ReportCustomers = "customers"
	ReportInvoices  = "invoices"
	ReportUsage     = "usage"

	FormatCSV  = "csv"
	FormatJSON = "json"
)

// UsageRecorder meters usage per user.
type UsageRecorder interface {
	Record(userID, metric string, qty int64)
}

// Report is a generated export ready to be served as an attachment.
type Report struct {
	Name        string
	ContentType string
	Rows        int
	Truncated   bool
	Data        []byte
}

type table struct {
	header    []string
	rows      [][]string
	items     []interface{}
	limit     int
	truncated bool
}

// add appends a row. It returns false, marking the table truncated, once
// limit rows are held.
func (t *table) add(item interface{}, row ...string) bool {
	if len(t.rows) >= t.limit {
		t.truncated = true
		return false
	}
	t.rows = append(t.rows, row)
	t.items = append(t.items, item)
	return true
}

type ReportUseCase struct {
	UserRepo     repositories.UserRepository
	CustomerRepo repositories.CustomerRepository
	InvoiceRepo  repositories.InvoiceRepository
	UsageRepo    repositories.UsageRepository

	recorder UsageRecorder
	maxRows  int
	now      func() time.Time
}

func NewReportUseCase(userRepo repositories.UserRepository, customerRepo repositories.CustomerRepository, invoiceRepo repositories.InvoiceRepository, usageRepo repositories.UsageRepository, recorder UsageRecorder) *ReportUseCase {
	return &ReportUseCase{
		UserRepo:     userRepo,
		CustomerRepo: customerRepo,
		InvoiceRepo:  invoiceRepo,
		UsageRepo:    usageRepo,
		recorder:     recorder,
		maxRows:      MaxReportRows,
		now:          nowUTC,
	}
}

// Generate exports kind in the given format. Admin only.
func (uc *ReportUseCase) Generate(ctx context.Context, p Principal, kind, format string) (*Report, error) {
	if !p.IsAdmin() {
		return nil, apperrors.Forbidden("reports are restricted to admins")
	}
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatJSON {
		return nil, apperrors.Validationf("unknown format %q", format)
	}

	var (
		t   *table
		err error
	)
	switch kind {
	case ReportUsers:
		t, err = uc.users(ctx)
	case ReportCustomers:
		t, err = uc.customers(ctx)
	case ReportInvoices:
		t, err = uc.invoices(ctx)
	case ReportUsage:
		t, err = uc.usage(ctx)
	default:
		return nil, apperrors.Validationf("unknown report %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("collect %s report: %w", kind, err)
	}

	report := &Report{
		Name:      fmt.Sprintf("%s-%s.%s", kind, uc.now().Format("20060102"), format),
		Rows:      len(t.rows),
		Truncated: t.truncated,
	}
	if format == FormatCSV {
		report.ContentType = "text/csv; charset=utf-8"
		report.Data, err = encodeCSV(t)
	} else {
		report.ContentType = "application/json"
		items := t.items
		if items == nil {
			items = []interface{}{}
		}
		report.Data, err = json.Marshal(items)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s report: %w", kind, err)
	}

	if uc.recorder != nil {
		uc.recorder.Record(p.UserID, entities.MetricReports, 1)
	}
	return report, nil
}

// pages walks a list endpoint in MaxLimit pages until fetch returns a short
// page or keep reports the table is full.
func pages(fetch func(q repositories.ListQuery) (int, error)) error {
	q := repositories.ListQuery{Limit: repositories.MaxLimit, SortOrder: "asc"}
	for {
		n, err := fetch(q)
		if err != nil || n < q.Limit {
			return err
		}
		q.Offset += n
	}
}

func (uc *ReportUseCase) users(ctx context.Context) (*table, error) {
	t := &table{header: []string{"id", "name", "email", "role", "status", "last_login_at", "created_at"}, limit: uc.maxRows}
	err := pages(func(q repositories.ListQuery) (int, error) {
		users, _, err := uc.UserRepo.List(ctx, q)
		for _, u := range users {
			if !t.add(u, u.ID, u.Name, u.Email, u.Role, u.Status, formatTimePtr(u.LastLoginAt), formatTime(u.CreatedAt)) {
				return 0, err
			}
		}
		return len(users), err
	})
	return t, err
}

func (uc *ReportUseCase) customers(ctx context.Context) (*table, error) {
	t := &table{header: []string{"id", "name", "email", "company", "status", "plan", "monthly_revenue_cents", "created_at"}, limit: uc.maxRows}
	err := pages(func(q repositories.ListQuery) (int, error) {
		customers, _, err := uc.CustomerRepo.List(ctx, q)
		for _, c := range customers {
			if !t.add(c, c.ID, c.Name, c.Email, c.Company, c.Status, c.Plan, strconv.FormatInt(c.MonthlyRevenueCents, 10), formatTime(c.CreatedAt)) {
				return 0, err
			}
		}
		return len(customers), err
	})
	return t, err
}

func (uc *ReportUseCase) invoices(ctx context.Context) (*table, error) {
	t := &table{header: []string{"id", "number", "customer_id", "amount_cents", "currency", "status", "issued_at", "due_at", "paid_at"}, limit: uc.maxRows}
	err := pages(func(q repositories.ListQuery) (int, error) {
		invoices, _, err := uc.InvoiceRepo.List(ctx, q, "")
		for _, i := range invoices {
			if !t.add(i, i.ID, i.Number, i.CustomerID, strconv.FormatInt(i.AmountCents, 10), i.Currency, i.Status, formatTime(i.IssuedAt), formatTime(i.DueAt), formatTimePtr(i.PaidAt)) {
				return 0, err
			}
		}
		return len(invoices), err
	})
	return t, err
}

func (uc *ReportUseCase) usage(ctx context.Context) (*table, error) {
	t := &table{header: []string{"id", "user_id", "metric", "quantity", "recorded_at"}, limit: uc.maxRows}
	// One extra record tells a full table from a cut one.
	records, err := uc.UsageRepo.List(ctx, time.Time{}, uc.maxRows+1)
	for _, r := range records {
		if !t.add(r, r.ID, r.UserID, r.Metric, strconv.FormatInt(r.Quantity, 10), formatTime(r.RecordedAt)) {
			break
		}
	}
	return t, err
}

func encodeCSV(t *table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
