package usecases

import (
	"context"
	"regexp"
	"testing"
	"time"

	"starter-server/apperrors"
	"starter-server/entities"
	"starter-server/repositories"
	"starter-server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingUseCase_CreateInvoice(t *testing.T) {
	s := newStack(t)
	customer := testutil.CreateTestCustomer(t, s.db, "acme", 9900)
	uc := NewBillingUseCase(s.invoices, s.customers)
	uc.now = fixedClock(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC))

	inv, err := uc.CreateInvoice(bg, InvoiceInput{CustomerID: customer.ID, AmountCents: 1500, Currency: "eur"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^INV-202603-[0-9A-F]{6}$`), inv.Number)
	assert.Equal(t, "EUR", inv.Currency)
	assert.Equal(t, entities.InvoiceOpen, inv.Status)
	assert.Equal(t, time.Date(2026, 4, 14, 12, 0, 0, 0, time.UTC), inv.DueAt)

	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bad := []InvoiceInput{
		{CustomerID: customer.ID, AmountCents: 0},
		{CustomerID: customer.ID, AmountCents: 1, Currency: "EURO"},
		{CustomerID: customer.ID, AmountCents: 1, Status: entities.InvoicePaid},
		{CustomerID: customer.ID, AmountCents: 1, DueAt: &past},
	}
	for _, in := range bad {
		_, err := uc.CreateInvoice(bg, in)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "%+v", in)
	}

	_, err = uc.CreateInvoice(bg, InvoiceInput{CustomerID: "missing", AmountCents: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBillingUseCase_Transitions(t *testing.T) {
	s := newStack(t)
	customer := testutil.CreateTestCustomer(t, s.db, "acme", 9900)
	uc := NewBillingUseCase(s.invoices, s.customers)

	open, err := uc.CreateInvoice(bg, InvoiceInput{CustomerID: customer.ID, AmountCents: 1000})
	require.NoError(t, err)
	draft, err := uc.CreateInvoice(bg, InvoiceInput{CustomerID: customer.ID, AmountCents: 300, Status: entities.InvoiceDraft})
	require.NoError(t, err)

	_, err = uc.MarkPaid(bg, draft.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "drafts cannot be paid")

	paid, err := uc.MarkPaid(bg, open.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.InvoicePaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = uc.Void(bg, open.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "paid invoices cannot be voided")

	voided, err := uc.Void(bg, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.InvoiceVoid, voided.Status)

	_, err = uc.MarkPaid(bg, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	summary, err := uc.Summary(bg)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), summary.PaidCents)
	assert.Zero(t, summary.OpenCents)
	assert.Zero(t, summary.DraftCents)
	assert.Equal(t, int64(9900), summary.MRRCents)

	list, total, err := uc.CustomerInvoices(bg, customer.ID, repositories.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	_, _, err = uc.CustomerInvoices(bg, "missing", repositories.ListQuery{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, _, err = uc.ListInvoices(bg, repositories.ListQuery{Status: "late"}, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// staleInvoices always reports invoices as open, like a read that raced
// with another writer.
type staleInvoices struct {
	repositories.InvoiceRepository
}

func (r staleInvoices) GetByID(ctx context.Context, id string) (*entities.Invoice, error) {
	inv, err := r.InvoiceRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Status = entities.InvoiceOpen
	inv.PaidAt = nil
	return inv, nil
}

func TestBillingUseCase_PayOnce(t *testing.T) {
	s := newStack(t)
	customer := testutil.CreateTestCustomer(t, s.db, "acme", 0)
	uc := NewBillingUseCase(staleInvoices{s.invoices}, s.customers)

	inv, err := uc.CreateInvoice(bg, InvoiceInput{CustomerID: customer.ID, AmountCents: 500})
	require.NoError(t, err)

	_, err = uc.MarkPaid(bg, inv.ID)
	require.NoError(t, err)
	_, err = uc.MarkPaid(bg, inv.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict, "a stale read cannot pay twice")
	_, err = uc.Void(bg, inv.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	stored, err := s.invoices.GetByID(bg, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.InvoicePaid, stored.Status)
}
