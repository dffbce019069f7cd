package entities

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_BeforeCreate(t *testing.T) {
	u := &User{Email: "  Jane@Example.COM "}
	assert.NoError(t, u.BeforeCreate(nil))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.Equal(t, RoleMember, u.Role)
	assert.Equal(t, UserStatusActive, u.Status)

	keep := &User{ID: "fixed", Role: RoleAdmin}
	assert.NoError(t, keep.BeforeCreate(nil))
	assert.Equal(t, "fixed", keep.ID)
	assert.True(t, keep.IsAdmin())
}

func TestTombstoneEmail(t *testing.T) {
	assert.Equal(t, "deleted+u1+jane@example.com", TombstoneEmail("u1", "jane@example.com"))

	long := TombstoneEmail("0f8fad5b-d9cb-469f-a165-70867728950e", strings.Repeat("a", 250)+"@example.com")
	assert.Len(t, long, 254)
	assert.True(t, strings.HasPrefix(long, "deleted+0f8fad5b-d9cb-469f-a165-70867728950e+"))
}

func TestSession_Active(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, s.Active(now))
	assert.False(t, s.Active(now.Add(2*time.Hour)))

	revoked := now
	s.RevokedAt = &revoked
	assert.False(t, s.Active(now))
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("u1")
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, ThemeSystem, s.Theme)
	assert.Equal(t, "UTC", s.Timezone)
	assert.True(t, s.EmailNotifications)
	assert.False(t, s.MarketingEmails)
}

func TestEnumValidators(t *testing.T) {
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("owner"))
	assert.True(t, ValidUserStatus(UserStatusSuspended))
	assert.False(t, ValidUserStatus("deleted"))
	assert.True(t, ValidCustomerStatus(CustomerStatusChurned))
	assert.True(t, ValidPlan(PlanEnterprise))
	assert.False(t, ValidPlan("gold"))
	assert.True(t, ValidTheme(ThemeDark))
	assert.True(t, ValidInvoiceStatus(InvoiceVoid))
	assert.True(t, ValidNotificationType(NotificationWarning))
}
