package repositories

import (
	"context"
	"time"

	"starter-server/db"
	"starter-server/entities"

	"gorm.io/gorm"
)

type notificationGormRepository struct {
	db db.Database
}

func NewNotificationRepository(database db.Database) NotificationRepository {
	return &notificationGormRepository{db: database}
}

func (r *notificationGormRepository) Create(ctx context.Context, n *entities.Notification) error {
	return r.db.GetDB().WithContext(ctx).Create(n).Error
}

func (r *notificationGormRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]entities.Notification, int64, error) {
	q := ListQuery{Limit: limit, Offset: offset}.Normalize("created_at")

	base := r.db.GetDB().WithContext(ctx).Model(&entities.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("read_at IS NULL")
	}

	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []entities.Notification
	err := base.Scopes(paginate(q)).Find(&items).Error
	return items, total, err
}

// MarkRead reports whether a notification owned by userID was found.
func (r *notificationGormRepository) MarkRead(ctx context.Context, id, userID string, at time.Time) (bool, error) {
	var count int64
	if err := r.db.GetDB().WithContext(ctx).Model(&entities.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, nil
	}
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", at).Error
	return err == nil, err
}

func (r *notificationGormRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := r.db.GetDB().WithContext(ctx).Model(&entities.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)
	return res.RowsAffected, res.Error
}

func (r *notificationGormRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.GetDB().WithContext(ctx).Model(&entities.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).Count(&count).Error
	return count, err
}
