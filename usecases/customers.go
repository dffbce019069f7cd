package usecases

import (
	"context"
	"errors"
	"strings"

	"starter-server/apperrors"
	"starter-server/entities"
	"starter-server/repositories"

	"gorm.io/gorm"
)

// CustomerInput is the body of a customer create.
type CustomerInput struct {
	Name                string `json:"name"`
	Email               string `json:"email"`
	Company             string `json:"company"`
	Phone               string `json:"phone"`
	Status              string `json:"status"`
	Plan                string `json:"plan"`
	MonthlyRevenueCents int64  `json:"monthly_revenue_cents"`
}

// CustomerPatch is the body of a customer update. Nil fields are kept.
type CustomerPatch struct {
	Name                *string `json:"name"`
	Email               *string `json:"email"`
	Company             *string `json:"company"`
	Phone               *string `json:"phone"`
	Status              *string `json:"status"`
	Plan                *string `json:"plan"`
	MonthlyRevenueCents *int64  `json:"monthly_revenue_cents"`
}

type CustomerUseCase struct {
	CustomerRepo repositories.CustomerRepository
	Stats        Invalidator
}

func NewCustomerUseCase(customerRepo repositories.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{CustomerRepo: customerRepo}
}

func (uc *CustomerUseCase) List(ctx context.Context, q repositories.ListQuery) ([]entities.Customer, int64, error) {
	if q.Status != "" && !entities.ValidCustomerStatus(q.Status) {
		return nil, 0, apperrors.Validationf("unknown status %q", q.Status)
	}
	return uc.CustomerRepo.List(ctx, q)
}

func (uc *CustomerUseCase) Get(ctx context.Context, id string) (*entities.Customer, error) {
	customer, err := uc.CustomerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("customer")
		}
		return nil, err
	}
	return customer, nil
}

func (uc *CustomerUseCase) Create(ctx context.Context, ownerID string, in CustomerInput) (*entities.Customer, error) {
	customer := &entities.Customer{
		Name:                strings.TrimSpace(in.Name),
		Email:               entities.NormalizeEmail(in.Email),
		Company:             strings.TrimSpace(in.Company),
		Phone:               strings.TrimSpace(in.Phone),
		Status:              in.Status,
		Plan:                in.Plan,
		MonthlyRevenueCents: in.MonthlyRevenueCents,
		OwnerID:             ownerID,
	}
	if customer.Status == "" {
		customer.Status = entities.CustomerStatusLead
	}
	if customer.Plan == "" {
		customer.Plan = entities.PlanFree
	}
	if err := validateCustomer(customer); err != nil {
		return nil, err
	}
	if err := uc.CustomerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	invalidate(uc.Stats)
	return customer, nil
}

// Update only provided fields
func (uc *CustomerUseCase) Update(ctx context.Context, id string, patch CustomerPatch) (*entities.Customer, error) {
	customer, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		customer.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		customer.Email = entities.NormalizeEmail(*patch.Email)
	}
	if patch.Company != nil {
		customer.Company = strings.TrimSpace(*patch.Company)
	}
	if patch.Phone != nil {
		customer.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Status != nil {
		customer.Status = *patch.Status
	}
	if patch.Plan != nil {
		customer.Plan = *patch.Plan
	}
	if patch.MonthlyRevenueCents != nil {
		customer.MonthlyRevenueCents = *patch.MonthlyRevenueCents
	}

	if err := validateCustomer(customer); err != nil {
		return nil, err
	}
	if err := uc.CustomerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	invalidate(uc.Stats)
	return customer, nil
}

func (uc *CustomerUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}
	if err := uc.CustomerRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidate(uc.Stats)
	return nil
}

func validateCustomer(c *entities.Customer) error {
	switch {
	case c.Name == "":
		return apperrors.Validation("name is required")
	case len(c.Name) > 120:
		return apperrors.Validation("name must be at most 120 characters")
	case c.Email != "" && !validEmail(c.Email):
		return apperrors.Validation("email is not valid")
	case !entities.ValidCustomerStatus(c.Status):
		return apperrors.Validationf("unknown status %q", c.Status)
	case !entities.ValidPlan(c.Plan):
		return apperrors.Validationf("unknown plan %q", c.Plan)
	case c.MonthlyRevenueCents < 0:
		return apperrors.Validation("monthly revenue cannot be negative")
	}
	return nil
}
