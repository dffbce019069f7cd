package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InvoiceDraft = "draft"
	InvoiceOpen  = "open"
	InvoicePaid  = "paid"
	InvoiceVoid  = "void"
)

type Invoice struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	CustomerID  string     `gorm:"type:varchar(36);index;not null" json:"customer_id"`
	Number      string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"number"`
	AmountCents int64      `gorm:"not null" json:"amount_cents"`
	Currency    string     `gorm:"type:varchar(3);not null" json:"currency"`
	Status      string     `gorm:"type:varchar(16);not null;index" json:"status"`
	Description string     `gorm:"type:text" json:"description"`
	IssuedAt    time.Time  `json:"issued_at"`
	DueAt       time.Time  `json:"due_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	if i.Status == "" {
		i.Status = InvoiceOpen
	}
	return nil
}

func ValidInvoiceStatus(status string) bool {
	switch status {
	case InvoiceDraft, InvoiceOpen, InvoicePaid, InvoiceVoid:
		return true
	}
	return false
}
