package repositories

import (
	"context"
	"time"

	"starter-server/db"
	"starter-server/entities"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db db.Database
}

func NewUserRepository(database db.Database) UserRepository {
	return &userGormRepository{db: database}
}

func (r *userGormRepository) Create(ctx context.Context, user *entities.User) error {
	return r.db.GetDB().WithContext(ctx).Create(user).Error
}

func (r *userGormRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userGormRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where("email = ?", entities.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userGormRepository) List(ctx context.Context, q ListQuery) ([]entities.User, int64, error) {
	q = q.Normalize("created_at", "name", "email", "last_login_at")

	base := r.db.GetDB().WithContext(ctx).Model(&entities.User{}).Scopes(searchScope(q.Search, "name", "email"))
	if q.Status != "" {
		base = base.Where("status = ?", q.Status)
	}

	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []entities.User
	err := base.Scopes(paginate(q)).Find(&users).Error
	return users, total, err
}

func (r *userGormRepository) Update(ctx context.Context, user *entities.User) error {
	return r.db.GetDB().WithContext(ctx).Save(user).Error
}

// Delete soft-deletes the user and releases its email.
func (r *userGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user entities.User
		if err := tx.Where("id = ?", id).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Update("email", entities.TombstoneEmail(user.ID, user.Email)).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

func (r *userGormRepository) Count(ctx context.Context, status string) (int64, error) {
	var count int64
	tx := r.db.GetDB().WithContext(ctx).Model(&entities.User{})
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	err := tx.Count(&count).Error
	return count, err
}

func (r *userGormRepository) CountByRole(ctx context.Context, role, status string) (int64, error) {
	var count int64
	tx := r.db.GetDB().WithContext(ctx).Model(&entities.User{}).Where("role = ?", role)
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	err := tx.Count(&count).Error
	return count, err
}

func (r *userGormRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.GetDB().WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Update("last_login_at", at).Error
}
