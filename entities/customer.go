package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CustomerStatusActive  = "active"
	CustomerStatusLead    = "lead"
	CustomerStatusChurned = "churned"

	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

type Customer struct {
	ID                  string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name                string         `gorm:"type:varchar(120);not null" json:"name"`
	Email               string         `gorm:"type:varchar(254);index" json:"email"`
	Company             string         `gorm:"type:varchar(120)" json:"company"`
	Phone               string         `gorm:"type:varchar(32)" json:"phone"`
	Status              string         `gorm:"type:varchar(16);not null;default:lead;index" json:"status"`
	Plan                string         `gorm:"type:varchar(16);not null;default:free" json:"plan"`
	MonthlyRevenueCents int64          `gorm:"not null;default:0" json:"monthly_revenue_cents"`
	OwnerID             string         `gorm:"type:varchar(36);index" json:"owner_id"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CustomerStatusLead
	}
	if c.Plan == "" {
		c.Plan = PlanFree
	}
	return nil
}

func ValidCustomerStatus(status string) bool {
	switch status {
	case CustomerStatusActive, CustomerStatusLead, CustomerStatusChurned:
		return true
	}
	return false
}

func ValidPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanPro, PlanEnterprise:
		return true
	}
	return false
}
