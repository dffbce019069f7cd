package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Metric names recorded by the server itself.
const (
	MetricAPIRequests = "api_requests"
	MetricUploads     = "uploads"
	MetricReports     = "reports"
)

// UsageRecord is one flushed batch of metered usage for a user.
type UsageRecord struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Metric     string    `gorm:"type:varchar(64);index;not null" json:"metric"`
	Quantity   int64     `gorm:"not null" json:"quantity"`
	RecordedAt time.Time `gorm:"index;not null" json:"recorded_at"`
}

func (u *UsageRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.RecordedAt.IsZero() {
		u.RecordedAt = time.Now().UTC()
	}
	return nil
}

// UsageTotal is an aggregated quantity for one metric.
type UsageTotal struct {
	Metric   string `json:"metric"`
	Quantity int64  `json:"quantity"`
}

// UsagePoint is an aggregated quantity for one day.
type UsagePoint struct {
	Day      string `json:"day"`
	Quantity int64  `json:"quantity"`
}
