package repository

import (
	"context"

	"same-inventory/internal/model"
	"same-inventory/internal/session"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, scope session.Scope, sale *model.Sale) error
	FindAll(ctx context.Context, scope session.Scope) ([]model.Sale, error)
	FindByID(ctx context.Context, scope session.Scope, id uuid.UUID) (*model.Sale, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) CreateTx(tx *gorm.DB, scope session.Scope, sale *model.Sale) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	sale.TenantID = scope.TenantID()
	return tx.Omit("Product").Create(sale).Error
}

func (r *saleRepo) FindAll(ctx context.Context, scope session.Scope) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).Scopes(tenant(scope)).
		Preload("Product").
		Order("created_at DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByID(ctx context.Context, scope session.Scope, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := r.db.WithContext(ctx).Scopes(tenant(scope)).Preload("Product").First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}
