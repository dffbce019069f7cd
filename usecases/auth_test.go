package usecases

import (
	"testing"
	"time"

	"starter-server/apperrors"
	"starter-server/entities"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthUseCase_Register(t *testing.T) {
	s := newStack(t)
	auth := s.auth()

	first, err := auth.Register(bg, "Ada", " Ada@Example.com ", "supersecret", SessionMeta{UserAgent: "test"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, "ada@example.com", first.User.Email)
	assert.Equal(t, entities.RoleAdmin, first.User.Role, "first user becomes admin")

	second, err := auth.Register(bg, "Bob", "bob@example.com", "supersecret", SessionMeta{})
	require.NoError(t, err)
	assert.Equal(t, entities.RoleMember, second.User.Role)

	settings, err := s.settings.GetByUserID(bg, second.User.ID)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, entities.ThemeSystem, settings.Theme)

	_, err = auth.Register(bg, "Ada again", "ADA@example.com", "supersecret", SessionMeta{})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAuthUseCase_RegisterValidation(t *testing.T) {
	auth := newStack(t).auth()

	tests := []struct {
		name, user, email, password string
	}{
		{"missing name", " ", "a@b.co", "supersecret"},
		{"bad email", "A", "not-an-email", "supersecret"},
		{"short password", "A", "a@b.co", "short"},
		{"long password", "A", "a@b.co", string(make([]byte, 73))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(bg, tt.user, tt.email, tt.password, SessionMeta{})
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestAuthUseCase_LoginAndAuthenticate(t *testing.T) {
	s := newStack(t)
	auth := s.auth()
	_, err := auth.Register(bg, "Ada", "ada@example.com", "supersecret", SessionMeta{})
	require.NoError(t, err)

	_, err = auth.Login(bg, "ada@example.com", "wrong-password", SessionMeta{})
	require.Error(t, err)
	unknown, err2 := auth.Login(bg, "nobody@example.com", "supersecret", SessionMeta{})
	require.Nil(t, unknown)
	assert.Equal(t, apperrors.From(err).Message, apperrors.From(err2).Message)
	assert.Equal(t, "invalid email or password", apperrors.From(err).Message)

	res, err := auth.Login(bg, "ADA@example.com", "supersecret", SessionMeta{IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	require.NotNil(t, res.User.LastLoginAt)

	p, err := auth.Authenticate(bg, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, p.UserID)
	assert.Equal(t, entities.RoleAdmin, p.Role)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(res.Token, claims)
	require.NoError(t, err)
	assert.Equal(t, p.SessionID, claims.SessionID)
	assert.Equal(t, res.User.ID, claims.Subject)

	require.NoError(t, auth.Logout(bg, p.SessionID))
	require.NoError(t, auth.Logout(bg, p.SessionID), "logout is idempotent")
	_, err = auth.Authenticate(bg, res.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAuthUseCase_AuthenticateRejects(t *testing.T) {
	s := newStack(t)
	auth := s.auth()
	res, err := auth.Register(bg, "Ada", "ada@example.com", "supersecret", SessionMeta{})
	require.NoError(t, err)

	_, err = auth.Authenticate(bg, "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = auth.Authenticate(bg, res.Token+"x")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	other := s.auth()
	other.secret = []byte("another-secret")
	_, err = other.Authenticate(bg, res.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	expired := s.auth()
	expired.now = fixedClock(time.Now().Add(2 * s.cfg.Auth.SessionTTL))
	_, err = expired.Authenticate(bg, res.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SessionID: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.Authenticate(bg, none)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	res.User.Status = entities.UserStatusSuspended
	require.NoError(t, s.users.Update(bg, res.User))
	_, err = auth.Authenticate(bg, res.Token)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = auth.Login(bg, "ada@example.com", "supersecret", SessionMeta{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestAuthUseCase_ChangePassword(t *testing.T) {
	s := newStack(t)
	auth := s.auth()
	res, err := auth.Register(bg, "Ada", "ada@example.com", "supersecret", SessionMeta{})
	require.NoError(t, err)
	other, err := auth.Login(bg, "ada@example.com", "supersecret", SessionMeta{})
	require.NoError(t, err)

	p, err := auth.Authenticate(bg, res.Token)
	require.NoError(t, err)

	err = auth.ChangePassword(bg, *p, "wrong", "newsecret1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	err = auth.ChangePassword(bg, *p, "supersecret", "short")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, auth.ChangePassword(bg, *p, "supersecret", "newsecret1"))

	_, err = auth.Authenticate(bg, res.Token)
	assert.NoError(t, err, "current session survives")
	_, err = auth.Authenticate(bg, other.Token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "other sessions are revoked")

	_, err = auth.Login(bg, "ada@example.com", "newsecret1", SessionMeta{})
	assert.NoError(t, err)
}

func TestAuthUseCase_LogoutAllAndPurge(t *testing.T) {
	s := newStack(t)
	auth := s.auth()
	a, err := auth.Register(bg, "Ada", "ada@example.com", "supersecret", SessionMeta{})
	require.NoError(t, err)
	b, err := auth.Login(bg, "ada@example.com", "supersecret", SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, auth.LogoutAll(bg, a.User.ID))
	for _, tok := range []string{a.Token, b.Token} {
		_, err := auth.Authenticate(bg, tok)
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	}

	n, err := auth.PurgeExpiredSessions(bg)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	me, err := auth.Me(bg, a.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.Name)
	_, err = auth.Me(bg, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
