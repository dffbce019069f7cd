package testutil

import (
	"testing"

	"starter-server/db"
	"starter-server/entities"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plain-text password of users created by CreateTestUser.
const TestPassword = "correct-horse-battery"

// CreateTestUser inserts a user with TestPassword and the given role.
func CreateTestUser(t *testing.T, database db.Database, email, role string) *entities.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &entities.User{
		Name:         "Test " + role,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       entities.UserStatusActive,
	}
	require.NoError(t, database.GetDB().Create(user).Error)
	return user
}

// CreateTestCustomer inserts an active customer.
func CreateTestCustomer(t *testing.T, database db.Database, name string, mrrCents int64) *entities.Customer {
	t.Helper()

	customer := &entities.Customer{
		Name:                name,
		Email:               "billing@" + name + ".test",
		Company:             name + " Inc",
		Status:              entities.CustomerStatusActive,
		Plan:                entities.PlanPro,
		MonthlyRevenueCents: mrrCents,
	}
	require.NoError(t, database.GetDB().Create(customer).Error)
	return customer
}
