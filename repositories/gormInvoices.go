package repositories

import (
	"context"

	"starter-server/db"
	"starter-server/entities"

	"gorm.io/gorm"
)

type invoiceGormRepository struct {
	db db.Database
}

func NewInvoiceRepository(database db.Database) InvoiceRepository {
	return &invoiceGormRepository{db: database}
}

func (r *invoiceGormRepository) Create(ctx context.Context, invoice *entities.Invoice) error {
	return r.db.GetDB().WithContext(ctx).Create(invoice).Error
}

func (r *invoiceGormRepository) GetByID(ctx context.Context, id string) (*entities.Invoice, error) {
	var invoice entities.Invoice
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceGormRepository) List(ctx context.Context, q ListQuery, customerID string) ([]entities.Invoice, int64, error) {
	q = q.Normalize("issued_at", "due_at", "amount_cents", "number")

	base := r.db.GetDB().WithContext(ctx).Model(&entities.Invoice{}).Scopes(searchScope(q.Search, "number", "description"))
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}
	if customerID != "" {
		base = base.Where("customer_id = ?", customerID)
	}

	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []entities.Invoice
	err := base.Scopes(paginate(q)).Find(&invoices).Error
	return invoices, total, err
}

func (r *invoiceGormRepository) Transition(ctx context.Context, id string, from []string, updates map[string]interface{}) (bool, error) {
	res := r.db.GetDB().WithContext(ctx).Model(&entities.Invoice{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *invoiceGormRepository) SumByStatus(ctx context.Context, status string) (int64, error) {
	var sum int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Invoice{}).
		Where("status = ?", status).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&sum).Error
	return sum, err
}
