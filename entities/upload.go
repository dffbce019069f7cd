package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Upload is the metadata of a file stored on disk.
type Upload struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID      string         `gorm:"type:varchar(36);index;not null" json:"owner_id"`
	OriginalName string         `gorm:"type:varchar(255);not null" json:"original_name"`
	StoredName   string         `gorm:"type:varchar(64);not null" json:"-"`
	ContentType  string         `gorm:"type:varchar(128);not null" json:"content_type"`
	Size         int64          `gorm:"not null" json:"size"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *Upload) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
