package repositories

import (
	"context"

	"starter-server/db"
	"starter-server/entities"

	"gorm.io/gorm"
)

type customerGormRepository struct {
	db db.Database
}

func NewCustomerRepository(database db.Database) CustomerRepository {
	return &customerGormRepository{db: database}
}

func (r *customerGormRepository) Create(ctx context.Context, customer *entities.Customer) error {
	return r.db.GetDB().WithContext(ctx).Create(customer).Error
}

func (r *customerGormRepository) GetByID(ctx context.Context, id string) (*entities.Customer, error) {
	var customer entities.Customer
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerGormRepository) List(ctx context.Context, q ListQuery) ([]entities.Customer, int64, error) {
	q = q.Normalize("created_at", "name", "company", "monthly_revenue_cents")

	base := r.db.GetDB().WithContext(ctx).Model(&entities.Customer{}).Scopes(searchScope(q.Search, "name", "email", "company"))
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}

	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var customers []entities.Customer
	err := base.Scopes(paginate(q)).Find(&customers).Error
	return customers, total, err
}

func (r *customerGormRepository) Update(ctx context.Context, customer *entities.Customer) error {
	return r.db.GetDB().WithContext(ctx).Save(customer).Error
}

func (r *customerGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.GetDB().WithContext(ctx).Where("id = ?", id).Delete(&entities.Customer{}).Error
}

func (r *customerGormRepository) Count(ctx context.Context, status string) (int64, error) {
	var count int64
	tx := r.db.GetDB().WithContext(ctx).Model(&entities.Customer{})
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	err := tx.Count(&count).Error
	return count, err
}

// SumMRR totals the monthly revenue of active customers.
func (r *customerGormRepository) SumMRR(ctx context.Context) (int64, error) {
	var sum int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Customer{}).
		Where("status = ?", entities.CustomerStatusActive).
		Select("COALESCE(SUM(monthly_revenue_cents), 0)").
		Scan(&sum).Error
	return sum, err
}
