package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"starter-server/apperrors"
	"starter-server/confs"
	"starter-server/entities"
	"starter-server/repositories"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLen = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLen = 72
)

var errInvalidCredentials = apperrors.Unauthorized("invalid email or password")

// Claims are the JWT claims of a session token.
type Claims struct {
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// SessionMeta describes the client a session is created for.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *entities.User `json:"user"`
}

type AuthUseCase struct {
	UserRepo     repositories.UserRepository
	SessionRepo  repositories.SessionRepository
	SettingsRepo repositories.SettingsRepository
	Stats        Invalidator

	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthUseCase(userRepo repositories.UserRepository, sessionRepo repositories.SessionRepository, settingsRepo repositories.SettingsRepository, cfg confs.AuthConfig) *AuthUseCase {
	return &AuthUseCase{
		UserRepo:     userRepo,
		SessionRepo:  sessionRepo,
		SettingsRepo: settingsRepo,
		secret:       []byte(cfg.JWTSecret),
		ttl:          cfg.SessionTTL,
		bcryptCost:   bcrypt.DefaultCost,
		now:          nowUTC,
	}
}

// SessionTTL is the lifetime of issued sessions.
func (uc *AuthUseCase) SessionTTL() time.Duration { return uc.ttl }

// Register creates an account and signs it in. The first account ever
// created becomes an admin.
func (uc *AuthUseCase) Register(ctx context.Context, name, email, password string, meta SessionMeta) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = entities.NormalizeEmail(email)
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if !validEmail(email) {
		return nil, apperrors.Validation("a valid email is required")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	if _, err := uc.UserRepo.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("email is already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	total, err := uc.UserRepo.Count(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	role := entities.RoleMember
	if total == 0 {
		role = entities.RoleAdmin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       entities.UserStatusActive,
	}
	if err := uc.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("email is already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := uc.SettingsRepo.Upsert(ctx, entities.DefaultSettings(user.ID)); err != nil {
		return nil, fmt.Errorf("create default settings: %w", err)
	}
	invalidate(uc.Stats)

	return uc.issue(ctx, user, meta)
}

// Login checks credentials and opens a new session.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string, meta SessionMeta) (*AuthResult, error) {
	user, err := uc.UserRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	if user.Status == entities.UserStatusSuspended {
		return nil, apperrors.Forbidden("account is suspended")
	}

	res, err := uc.issue(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	if err := uc.UserRepo.TouchLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("touch login: %w", err)
	}
	user.LastLoginAt = &now
	return res, nil
}

// Authenticate validates a session token and returns its principal.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("authentication required")
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return uc.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(uc.now))
	if err != nil || !parsed.Valid {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	session, err := uc.SessionRepo.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("session not found")
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !session.Active(uc.now()) || session.UserID != claims.Subject {
		return nil, apperrors.Unauthorized("session is no longer valid")
	}

	user, err := uc.UserRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("session is no longer valid")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user.Status == entities.UserStatusSuspended {
		return nil, apperrors.Forbidden("account is suspended")
	}

	// Role comes from the user row so demotions apply to live sessions.
	return &Principal{UserID: user.ID, SessionID: session.ID, Role: user.Role}, nil
}

// Logout revokes one session. Revoking an already revoked session is a no-op.
func (uc *AuthUseCase) Logout(ctx context.Context, sessionID string) error {
	return uc.SessionRepo.Revoke(ctx, sessionID, uc.now())
}

// LogoutAll revokes every session of the user.
func (uc *AuthUseCase) LogoutAll(ctx context.Context, userID string) error {
	return uc.SessionRepo.RevokeAllForUser(ctx, userID, "", uc.now())
}

func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*entities.User, error) {
	user, err := uc.UserRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password and revokes every other session.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, p Principal, current, next string) error {
	user, err := uc.Me(ctx, p.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}
	if err := checkPassword(next); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), uc.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := uc.UserRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return uc.SessionRepo.RevokeAllForUser(ctx, user.ID, p.SessionID, uc.now())
}

// PurgeExpiredSessions deletes sessions that can no longer authenticate.
func (uc *AuthUseCase) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return uc.SessionRepo.DeleteExpired(ctx, uc.now())
}

func (uc *AuthUseCase) issue(ctx context.Context, user *entities.User, meta SessionMeta) (*AuthResult, error) {
	now := uc.now()
	session := &entities.Session{
		UserID:    user.ID,
		ExpiresAt: now.Add(uc.ttl),
		UserAgent: truncate(meta.UserAgent, 255),
		IPAddress: truncate(meta.IPAddress, 64),
	}
	if err := uc.SessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	claims := Claims{
		SessionID: session.ID,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AuthResult{Token: signed, ExpiresAt: session.ExpiresAt, User: user}, nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLen {
		return apperrors.Validationf("password must be at least %d characters", minPasswordLen)
	}
	if len(password) > maxPasswordLen {
		return apperrors.Validationf("password must be at most %d bytes", maxPasswordLen)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
