package repositories

import (
	"context"
	"time"

	"starter-server/db"
	"starter-server/entities"
)

type sessionGormRepository struct {
	db db.Database
}

func NewSessionRepository(database db.Database) SessionRepository {
	return &sessionGormRepository{db: database}
}

func (r *sessionGormRepository) Create(ctx context.Context, session *entities.Session) error {
	return r.db.GetDB().WithContext(ctx).Create(session).Error
}

func (r *sessionGormRepository) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	var session entities.Session
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionGormRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	return r.db.GetDB().WithContext(ctx).Model(&entities.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at).Error
}

// RevokeAllForUser revokes every live session of the user except exceptID
// (pass "" to revoke all).
func (r *sessionGormRepository) RevokeAllForUser(ctx context.Context, userID, exceptID string, at time.Time) error {
	tx := r.db.GetDB().WithContext(ctx).Model(&entities.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID)
	if exceptID != "" {
		tx = tx.Where("id <> ?", exceptID)
	}
	return tx.Update("revoked_at", at).Error
}

func (r *sessionGormRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.GetDB().WithContext(ctx).
		Where("expires_at < ? OR revoked_at IS NOT NULL", before).
		Delete(&entities.Session{})
	return res.RowsAffected, res.Error
}
