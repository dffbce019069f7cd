package usecases

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"starter-server/apperrors"
	"starter-server/entities"
	"starter-server/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultPaymentTerms = 30 * 24 * time.Hour

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// InvoiceInput is the body of an invoice create.
type InvoiceInput struct {
	CustomerID  string     `json:"customer_id" binding:"required"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueAt       *time.Time `json:"due_at"`
}

// BillingSummary totals invoice amounts per status.
type BillingSummary struct {
	DraftCents int64 `json:"draft_cents"`
	OpenCents  int64 `json:"open_cents"`
	PaidCents  int64 `json:"paid_cents"`
	MRRCents   int64 `json:"mrr_cents"`
}

type BillingUseCase struct {
	InvoiceRepo  repositories.InvoiceRepository
	CustomerRepo repositories.CustomerRepository
	Stats        Invalidator

	now func() time.Time
}

func NewBillingUseCase(invoiceRepo repositories.InvoiceRepository, customerRepo repositories.CustomerRepository) *BillingUseCase {
	return &BillingUseCase{InvoiceRepo: invoiceRepo, CustomerRepo: customerRepo, now: nowUTC}
}

func (uc *BillingUseCase) ListInvoices(ctx context.Context, q repositories.ListQuery, customerID string) ([]entities.Invoice, int64, error) {
	if q.Status != "" && !entities.ValidInvoiceStatus(q.Status) {
		return nil, 0, apperrors.Validationf("unknown status %q", q.Status)
	}
	return uc.InvoiceRepo.List(ctx, q, customerID)
}

// CustomerInvoices lists the invoices of an existing customer.
func (uc *BillingUseCase) CustomerInvoices(ctx context.Context, customerID string, q repositories.ListQuery) ([]entities.Invoice, int64, error) {
	if err := uc.customerExists(ctx, customerID); err != nil {
		return nil, 0, err
	}
	return uc.ListInvoices(ctx, q, customerID)
}

func (uc *BillingUseCase) CreateInvoice(ctx context.Context, in InvoiceInput) (*entities.Invoice, error) {
	if in.AmountCents <= 0 {
		return nil, apperrors.Validation("amount must be greater than zero")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}
	if !currencyPattern.MatchString(currency) {
		return nil, apperrors.Validation("currency must be a 3-letter ISO code")
	}
	status := in.Status
	if status == "" {
		status = entities.InvoiceOpen
	}
	if status != entities.InvoiceDraft && status != entities.InvoiceOpen {
		return nil, apperrors.Validation("new invoices must be draft or open")
	}
	if err := uc.customerExists(ctx, in.CustomerID); err != nil {
		return nil, err
	}

	issued := uc.now()
	due := issued.Add(defaultPaymentTerms)
	if in.DueAt != nil {
		if in.DueAt.Before(issued) {
			return nil, apperrors.Validation("due date cannot be in the past")
		}
		due = in.DueAt.UTC()
	}

	invoice := &entities.Invoice{
		CustomerID:  in.CustomerID,
		Number:      invoiceNumber(issued),
		AmountCents: in.AmountCents,
		Currency:    currency,
		Status:      status,
		Description: strings.TrimSpace(in.Description),
		IssuedAt:    issued,
		DueAt:       due,
	}
	if err := uc.InvoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}
	invalidate(uc.Stats)
	return invoice, nil
}

// MarkPaid moves an open invoice to paid. The status change is
// conditional on the stored status, so concurrent calls pay once.
func (uc *BillingUseCase) MarkPaid(ctx context.Context, id string) (*entities.Invoice, error) {
	now := uc.now()
	return uc.transition(ctx, id, "pay", []string{entities.InvoiceOpen}, map[string]interface{}{
		"status":  entities.InvoicePaid,
		"paid_at": now,
	})
}

// Void cancels a draft or open invoice.
func (uc *BillingUseCase) Void(ctx context.Context, id string) (*entities.Invoice, error) {
	return uc.transition(ctx, id, "void", []string{entities.InvoiceDraft, entities.InvoiceOpen}, map[string]interface{}{
		"status": entities.InvoiceVoid,
	})
}

func (uc *BillingUseCase) transition(ctx context.Context, id, verb string, from []string, updates map[string]interface{}) (*entities.Invoice, error) {
	if _, err := uc.getInvoice(ctx, id); err != nil {
		return nil, err
	}
	changed, err := uc.InvoiceRepo.Transition(ctx, id, from, updates)
	if err != nil {
		return nil, err
	}
	invoice, err := uc.getInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot %s a %s invoice", verb, invoice.Status))
	}
	invalidate(uc.Stats)
	return invoice, nil
}

func (uc *BillingUseCase) Summary(ctx context.Context) (*BillingSummary, error) {
	var s BillingSummary
	var err error
	if s.DraftCents, err = uc.InvoiceRepo.SumByStatus(ctx, entities.InvoiceDraft); err != nil {
		return nil, err
	}
	if s.OpenCents, err = uc.InvoiceRepo.SumByStatus(ctx, entities.InvoiceOpen); err != nil {
		return nil, err
	}
	if s.PaidCents, err = uc.InvoiceRepo.SumByStatus(ctx, entities.InvoicePaid); err != nil {
		return nil, err
	}
	if s.MRRCents, err = uc.CustomerRepo.SumMRR(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

func (uc *BillingUseCase) getInvoice(ctx context.Context, id string) (*entities.Invoice, error) {
	invoice, err := uc.InvoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("invoice")
		}
		return nil, err
	}
	return invoice, nil
}

func (uc *BillingUseCase) customerExists(ctx context.Context, id string) error {
	if _, err := uc.CustomerRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("customer")
		}
		return err
	}
	return nil
}

// invoiceNumber returns INV-YYYYMM-xxxxxx with a random upper-case hex suffix.
func invoiceNumber(issued time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("INV-%s-%s", issued.Format("200601"), suffix)
}
