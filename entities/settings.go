package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Settings holds per-user preferences for the admin panel
type Settings struct {
	ID                 string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID             string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Theme              string    `gorm:"type:varchar(16);not null" json:"theme"`
	Language           string    `gorm:"type:varchar(16);not null" json:"language"`
	Timezone           string    `gorm:"type:varchar(64);not null" json:"timezone"`
	EmailNotifications bool      `json:"email_notifications"`
	MarketingEmails    bool      `json:"marketing_emails"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (s *Settings) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// DefaultSettings returns the preferences a new user starts with
func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID:             userID,
		Theme:              ThemeSystem,
		Language:           "en",
		Timezone:           "UTC",
		EmailNotifications: true,
		MarketingEmails:    false,
	}
}

func ValidTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark || theme == ThemeSystem
}
