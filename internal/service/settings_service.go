package service

import (
	"context"
	"io"

	"same-inventory/internal/blob"
	"same-inventory/internal/model"
	"same-inventory/internal/repository"
	"same-inventory/internal/session"
	"same-inventory/internal/ws"
)

// SettingsPatch is a partial update: nil fields are left untouched.
type SettingsPatch struct {
	DisplayName *string       `json:"display_name" validate:"omitempty,max=255"`
	Modules     *ModulesPatch `json:"modules"`
}

type ModulesPatch struct {
	Sales         *bool `json:"sales"`
	Cashflow      *bool `json:"cashflow"`
	Notifications *bool `json:"notifications"`
}

type SettingsService interface {
	Get(ctx context.Context, scope session.Scope) (*model.Settings, error)
	Update(ctx context.Context, scope session.Scope, patch *SettingsPatch) (*model.Settings, error)
	UploadLogo(ctx context.Context, scope session.Scope, r io.Reader) (*model.Settings, error)
	ModuleEnabled(ctx context.Context, scope session.Scope, module string) (bool, error)
}

type settingsService struct {
	repo      repository.SettingsRepository
	blobs     blob.Store
	publisher Publisher
}

func NewSettingsService(repo repository.SettingsRepository, blobs blob.Store, publisher Publisher) SettingsService {
	return &settingsService{
		repo:      repo,
		blobs:     blobs,
		publisher: publisherOrNop(publisher),
	}
}

func (s *settingsService) Get(ctx context.Context, scope session.Scope) (*model.Settings, error) {
	return s.repo.Find(ctx, scope)
}

func (s *settingsService) Update(ctx context.Context, scope session.Scope, patch *SettingsPatch) (*model.Settings, error) {
	if err := validate(patch); err != nil {
		return nil, err
	}

	current, err := s.repo.Find(ctx, scope)
	if err != nil {
		return nil, err
	}

	columns := applyPatch(current, patch)
	if len(columns) == 0 {
		return current, nil
	}
	if err := s.repo.Merge(ctx, scope, current, columns); err != nil {
		return nil, err
	}

	s.publisher.Publish(scope, ws.Settings)
	return current, nil
}

// applyPatch copies the supplied fields into settings and returns the
// columns that changed hands.
func applyPatch(settings *model.Settings, patch *SettingsPatch) []string {
	var columns []string
	if patch.DisplayName != nil {
		settings.DisplayName = *patch.DisplayName
		columns = append(columns, "display_name")
	}
	if m := patch.Modules; m != nil {
		if m.Sales != nil {
			settings.Modules.Sales = *m.Sales
			columns = append(columns, "module_sales")
		}
		if m.Cashflow != nil {
			settings.Modules.Cashflow = *m.Cashflow
			columns = append(columns, "module_cashflow")
		}
		if m.Notifications != nil {
			settings.Modules.Notifications = *m.Notifications
			columns = append(columns, "module_notifications")
		}
	}
	return columns
}

func (s *settingsService) UploadLogo(ctx context.Context, scope session.Scope, r io.Reader) (*model.Settings, error) {
	ref, err := s.blobs.PutImage(ctx, scope, r)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.Find(ctx, scope)
	if err != nil {
		return nil, err
	}
	current.LogoRef = ref
	if err := s.repo.Merge(ctx, scope, current, []string{"logo_ref"}); err != nil {
		return nil, err
	}

	s.publisher.Publish(scope, ws.Settings)
	return current, nil
}

func (s *settingsService) ModuleEnabled(ctx context.Context, scope session.Scope, module string) (bool, error) {
	settings, err := s.repo.Find(ctx, scope)
	if err != nil {
		return false, err
	}
	return settings.Modules.Enabled(module), nil
}
