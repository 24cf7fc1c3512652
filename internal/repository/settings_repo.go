package repository

import (
	"context"
	"errors"
	"time"

	"same-inventory/internal/model"
	"same-inventory/internal/session"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository interface {
	// Find returns the stored settings or the defaults when none exist yet.
	Find(ctx context.Context, scope session.Scope) (*model.Settings, error)
	// Merge inserts settings or, when the row exists, overwrites only columns.
	Merge(ctx context.Context, scope session.Scope, settings *model.Settings, columns []string) error
	CreateTx(tx *gorm.DB, scope session.Scope, settings *model.Settings) error
}

type settingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db}
}

func (r *settingsRepo) Find(ctx context.Context, scope session.Scope) (*model.Settings, error) {
	var settings model.Settings
	err := r.db.WithContext(ctx).Scopes(tenant(scope)).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaults := model.DefaultSettings(scope.TenantID())
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepo) Merge(ctx context.Context, scope session.Scope, settings *model.Settings, columns []string) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	settings.TenantID = scope.TenantID()
	settings.UpdatedAt = time.Now()

	update := append([]string{"updated_at"}, columns...)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(settings).Error
}

func (r *settingsRepo) CreateTx(tx *gorm.DB, scope session.Scope, settings *model.Settings) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	settings.TenantID = scope.TenantID()
	return tx.Create(settings).Error
}
