package repository

import (
	"context"

	"same-inventory/internal/model"
	"same-inventory/internal/session"

	"gorm.io/gorm"
)

type CashFlowRepository interface {
	Create(ctx context.Context, scope session.Scope, entry *model.CashFlowEntry) error
	FindAll(ctx context.Context, scope session.Scope) ([]model.CashFlowEntry, error)
}

type cashFlowRepo struct {
	db *gorm.DB
}

func NewCashFlowRepo(db *gorm.DB) CashFlowRepository {
	return &cashFlowRepo{db}
}

func (r *cashFlowRepo) Create(ctx context.Context, scope session.Scope, entry *model.CashFlowEntry) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	entry.TenantID = scope.TenantID()
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *cashFlowRepo) FindAll(ctx context.Context, scope session.Scope) ([]model.CashFlowEntry, error) {
	var entries []model.CashFlowEntry
	err := r.db.WithContext(ctx).Scopes(tenant(scope)).Order("date DESC").Find(&entries).Error
	return entries, err
}
