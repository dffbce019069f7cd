package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	UserStatusActive    = "active"
	UserStatusInvited   = "invited"
	UserStatusSuspended = "suspended"
)

// User represents an account that can sign in to the admin panel
type User struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string         `gorm:"type:varchar(120);not null" json:"name"`
	Email        string         `gorm:"type:varchar(254);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         string         `gorm:"type:varchar(16);not null;default:member" json:"role"`
	Status       string         `gorm:"type:varchar(16);not null;default:active;index" json:"status"`
	AvatarURL    string         `json:"avatar_url,omitempty"`
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	return nil
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// TombstoneEmail is the address kept on a deleted user so the original
// one can be registered again.
func TombstoneEmail(id, email string) string {
	t := "deleted+" + id + "+" + email
	if len(t) > 254 {
		t = t[:254]
	}
	return t
}

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

func ValidUserStatus(status string) bool {
	switch status {
	case UserStatusActive, UserStatusInvited, UserStatusSuspended:
		return true
	}
	return false
}
