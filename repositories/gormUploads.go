package repositories

import (
	"context"

	"starter-server/db"
	"starter-server/entities"

	"gorm.io/gorm"
)

type uploadGormRepository struct {
	db db.Database
}

func NewUploadRepository(database db.Database) UploadRepository {
	return &uploadGormRepository{db: database}
}

func (r *uploadGormRepository) Create(ctx context.Context, upload *entities.Upload) error {
	return r.db.GetDB().WithContext(ctx).Create(upload).Error
}

func (r *uploadGormRepository) GetByID(ctx context.Context, id string) (*entities.Upload, error) {
	var upload entities.Upload
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&upload).Error
	if err != nil {
		return nil, err
	}
	return &upload, nil
}

func (r *uploadGormRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]entities.Upload, int64, error) {
	q := ListQuery{Limit: limit, Offset: offset}.Normalize("created_at")

	base := r.db.GetDB().WithContext(ctx).Model(&entities.Upload{})
	if ownerID != "" {
		base = base.Where("owner_id = ?", ownerID)
	}

	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var uploads []entities.Upload
	err := base.Scopes(paginate(q)).Find(&uploads).Error
	return uploads, total, err
}

func (r *uploadGormRepository) Delete(ctx context.Context, id string) error {
	return r.db.GetDB().WithContext(ctx).Where("id = ?", id).Delete(&entities.Upload{}).Error
}
