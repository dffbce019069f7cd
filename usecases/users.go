package usecases

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"starter-server/apperrors"
	"starter-server/entities"
	"starter-server/repositories"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUserInput is an admin invite.
type CreateUserInput struct {
	Name  string `json:"name" binding:"required,max=120"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

// UpdateUserInput holds the fields an admin may change. Nil fields are kept.
type UpdateUserInput struct {
	Name   *string `json:"name"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

type UserUseCase struct {
	UserRepo    repositories.UserRepository
	SessionRepo repositories.SessionRepository
	Stats       Invalidator
}

func NewUserUseCase(userRepo repositories.UserRepository, sessionRepo repositories.SessionRepository) *UserUseCase {
	return &UserUseCase{UserRepo: userRepo, SessionRepo: sessionRepo}
}

func (uc *UserUseCase) List(ctx context.Context, q repositories.ListQuery) ([]entities.User, int64, error) {
	if q.Status != "" && !entities.ValidUserStatus(q.Status) {
		return nil, 0, apperrors.Validationf("unknown status %q", q.Status)
	}
	return uc.UserRepo.List(ctx, q)
}

func (uc *UserUseCase) Get(ctx context.Context, id string) (*entities.User, error) {
	user, err := uc.UserRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return user, nil
}

// Create invites a user. The account gets a random password hash and
// stays in the invited status until the password is reset.
func (uc *UserUseCase) Create(ctx context.Context, in CreateUserInput) (*entities.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = entities.NormalizeEmail(in.Email)
	if in.Name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if !validEmail(in.Email) {
		return nil, apperrors.Validation("a valid email is required")
	}
	if in.Role == "" {
		in.Role = entities.RoleMember
	}
	if !entities.ValidRole(in.Role) {
		return nil, apperrors.Validationf("unknown role %q", in.Role)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Status:       entities.UserStatusInvited,
	}
	if err := uc.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("email is already registered")
		}
		return nil, err
	}
	invalidate(uc.Stats)
	return user, nil
}

// Update applies an admin change to a user.
func (uc *UserUseCase) Update(ctx context.Context, actor Principal, id string, in UpdateUserInput) (*entities.User, error) {
	user, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	self := actor.UserID == user.ID

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("name cannot be empty")
		}
		user.Name = name
	}

	if in.Role != nil && *in.Role != user.Role {
		if !entities.ValidRole(*in.Role) {
			return nil, apperrors.Validationf("unknown role %q", *in.Role)
		}
		if user.IsAdmin() {
			if self {
				return nil, apperrors.Forbidden("you cannot change your own role")
			}
			if user.Status == entities.UserStatusActive {
				if err := uc.ensureAnotherAdmin(ctx); err != nil {
					return nil, err
				}
			}
		}
		user.Role = *in.Role
	}

	revoke := false
	if in.Status != nil && *in.Status != user.Status {
		if !entities.ValidUserStatus(*in.Status) {
			return nil, apperrors.Validationf("unknown status %q", *in.Status)
		}
		if self {
			return nil, apperrors.Forbidden("you cannot change your own status")
		}
		if user.IsAdmin() && user.Status == entities.UserStatusActive {
			if err := uc.ensureAnotherAdmin(ctx); err != nil {
				return nil, err
			}
		}
		user.Status = *in.Status
		revoke = user.Status == entities.UserStatusSuspended
	}

	if err := uc.UserRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	invalidate(uc.Stats)
	if revoke {
		if err := uc.SessionRepo.RevokeAllForUser(ctx, user.ID, "", nowUTC()); err != nil {
			return nil, fmt.Errorf("revoke sessions: %w", err)
		}
	}
	return user, nil
}

// Delete soft-deletes a user other than the caller.
func (uc *UserUseCase) Delete(ctx context.Context, actor Principal, id string) error {
	if actor.UserID == id {
		return apperrors.Forbidden("you cannot delete your own account")
	}
	user, err := uc.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() && user.Status == entities.UserStatusActive {
		if err := uc.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}
	if err := uc.UserRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(uc.Stats)
	return uc.SessionRepo.RevokeAllForUser(ctx, id, "", nowUTC())
}

func (uc *UserUseCase) ensureAnotherAdmin(ctx context.Context) error {
	admins, err := uc.UserRepo.CountByRole(ctx, entities.RoleAdmin, entities.UserStatusActive)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if admins <= 1 {
		return apperrors.Conflict("at least one active admin is required")
	}
	return nil
}
