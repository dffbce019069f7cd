package httpHandler

import (
	"net/http"

	"starter-server/logger"
	"starter-server/usecases"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	base
	useCase *usecases.CustomerUseCase
	billing *usecases.BillingUseCase
}

func NewCustomerHandler(useCase *usecases.CustomerUseCase, billing *usecases.BillingUseCase, log logger.Logger) *CustomerHandler {
	return &CustomerHandler{base: base{log: log}, useCase: useCase, billing: billing}
}

// ListCustomers handles GET /api/v1/customers
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	customers, total, err := h.useCase.List(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, customers, total)
}

// GetCustomer handles GET /api/v1/customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.useCase.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, customer)
}

// CreateCustomer handles POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var in usecases.CustomerInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	customer, err := h.useCase.Create(c.Request.Context(), principal(c).UserID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Customer created successfully",
		"data":    customer,
	})
}

// UpdateCustomer handles PUT /api/v1/customers/:id
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	var patch usecases.CustomerPatch
	if err := bindJSON(c, &patch); err != nil {
		h.fail(c, err)
		return
	}
	customer, err := h.useCase.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /api/v1/customers/:id
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	if err := h.useCase.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCustomerInvoices handles GET /api/v1/customers/:id/invoices
func (h *CustomerHandler) ListCustomerInvoices(c *gin.Context) {
	q, err := listQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	invoices, total, err := h.billing.CustomerInvoices(c.Request.Context(), c.Param("id"), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondList(c, invoices, total)
}
