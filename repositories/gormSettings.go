package repositories

import (
	"context"
	"errors"

	"starter-server/db"
	"starter-server/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type settingsGormRepository struct {
	db db.Database
}

func NewSettingsRepository(database db.Database) SettingsRepository {
	return &settingsGormRepository{db: database}
}

func (r *settingsGormRepository) GetByUserID(ctx context.Context, userID string) (*entities.Settings, error) {
	var settings entities.Settings
	err := r.db.GetDB().WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert inserts the settings or overwrites the row of the same user.
func (r *settingsGormRepository) Upsert(ctx context.Context, settings *entities.Settings) error {
	if settings.ID != "" {
		return r.db.GetDB().WithContext(ctx).Save(settings).Error
	}
	return r.db.GetDB().WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"theme", "language", "timezone", "email_notifications", "marketing_emails", "updated_at",
		}),
	}).Create(settings).Error
}
