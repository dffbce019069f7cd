package usecases

import (
	"context"
	"strings"
	"time"
	_ "time/tzdata"

	"starter-server/apperrors"
	"starter-server/entities"
	"starter-server/repositories"
)

// SettingsPatch lists the preferences to change. Nil fields are kept.
type SettingsPatch struct {
	Theme              *string `json:"theme"`
	Language           *string `json:"language"`
	Timezone           *string `json:"timezone"`
	EmailNotifications *bool   `json:"email_notifications"`
	MarketingEmails    *bool   `json:"marketing_emails"`
}

type SettingsUseCase struct {
	SettingsRepo repositories.SettingsRepository
}

func NewSettingsUseCase(settingsRepo repositories.SettingsRepository) *SettingsUseCase {
	return &SettingsUseCase{SettingsRepo: settingsRepo}
}

// Get returns the stored settings, creating the defaults on first access.
func (uc *SettingsUseCase) Get(ctx context.Context, userID string) (*entities.Settings, error) {
	settings, err := uc.SettingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}

	settings = entities.DefaultSettings(userID)
	if err := uc.SettingsRepo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (uc *SettingsUseCase) Update(ctx context.Context, userID string, patch SettingsPatch) (*entities.Settings, error) {
	settings, err := uc.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Theme != nil {
		if !entities.ValidTheme(*patch.Theme) {
			return nil, apperrors.Validationf("unknown theme %q", *patch.Theme)
		}
		settings.Theme = *patch.Theme
	}
	if patch.Language != nil {
		lang := strings.TrimSpace(*patch.Language)
		if lang == "" || len(lang) > 16 {
			return nil, apperrors.Validation("language must be 1 to 16 characters")
		}
		settings.Language = lang
	}
	if patch.Timezone != nil {
		// LoadLocation accepts "" and "Local", neither of which is a real zone.
		if *patch.Timezone == "" || *patch.Timezone == "Local" {
			return nil, apperrors.Validationf("unknown timezone %q", *patch.Timezone)
		}
		if _, err := time.LoadLocation(*patch.Timezone); err != nil {
			return nil, apperrors.Validationf("unknown timezone %q", *patch.Timezone)
		}
		settings.Timezone = *patch.Timezone
	}
	if patch.EmailNotifications != nil {
		settings.EmailNotifications = *patch.EmailNotifications
	}
	if patch.MarketingEmails != nil {
		settings.MarketingEmails = *patch.MarketingEmails
	}

	if err := uc.SettingsRepo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
