package usecases

import (
	"context"
	"time"

	"starter-server/entities"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
}

func (p Principal) IsAdmin() bool { return p.Role == entities.RoleAdmin }

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Invalidator drops derived data after a write.
type Invalidator interface {
	Invalidate()
}

func invalidate(i Invalidator) {
	if i != nil {
		i.Invalidate()
	}
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func nowUTC() time.Time { return time.Now().UTC() }
