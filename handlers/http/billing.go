package httpHandler

import (
	"net/http"

	"starter-server/logger"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	base
	useCase *usecases.BillingUseCase
}

func NewBillingHandler(useCase *usecases.BillingUseCase, log logger.Logger) *BillingHandler {
	return &BillingHandler{base: base{log: log}, useCase: useCase}
}

// ListInvoices handles GET /api/v1/billing/invoices
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	invoices, total, err := h.useCase.ListInvoices(c.Request.Context(), q, c.Query("customer_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, invoices, total)
}

// CreateInvoice handles POST /api/v1/billing/invoices
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var in usecases.InvoiceInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	invoice, err := h.useCase.CreateInvoice(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Invoice created successfully",
		"data":    invoice,
	})
}

// PayInvoice handles POST /api/v1/billing/invoices/:id/pay
func (h *BillingHandler) PayInvoice(c *gin.Context) {
	invoice, err := h.useCase.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, invoice)
}

// VoidInvoice handles POST /api/v1/billing/invoices/:id/void
func (h *BillingHandler) VoidInvoice(c *gin.Context) {
	invoice, err := h.useCase.Void(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, invoice)
}

// Summary handles GET /api/v1/billing/summary
func (h *BillingHandler) Summary(c *gin.Context) {
	summary, err := h.useCase.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, summary)
}
