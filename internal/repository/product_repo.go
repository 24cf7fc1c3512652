package repository

import (
	"context"

	"same-inventory/internal/model"
	"same-inventory/internal/session"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, scope session.Scope, product *model.Product) error
	FindAll(ctx context.Context, scope session.Scope) ([]model.Product, error)
	FindByID(ctx context.Context, scope session.Scope, id uuid.UUID) (*model.Product, error)
	FindByCode(ctx context.Context, scope session.Scope, code string) ([]model.Product, error)
	LockByID(tx *gorm.DB, scope session.Scope, id uuid.UUID) (*model.Product, error)
	UpdateQuantity(tx *gorm.DB, scope session.Scope, id uuid.UUID, quantity int) error
	UpdateDetails(tx *gorm.DB, scope session.Scope, product *model.Product) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(ctx context.Context, scope session.Scope, product *model.Product) error {
	if !scope.Valid() {
		return ErrInvalidScope
	}
	product.TenantID = scope.TenantID()
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context, scope session.Scope) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Scopes(tenant(scope)).Order("created_at DESC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, scope session.Scope, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Scopes(tenant(scope)).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByCode returns at most two matches, enough for the caller to tell a
// unique hit from an ambiguous one.
func (r *productRepo) FindByCode(ctx context.Context, scope session.Scope, code string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Scopes(tenant(scope)).
		Where("code = ?", code).
		Limit(2).
		Find(&products).Error
	return products, err
}

// LockByID re-reads a product inside tx with a row lock (SELECT ... FOR UPDATE)
func (r *productRepo) LockByID(tx *gorm.DB, scope session.Scope, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := tx.Scopes(tenant(scope)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateQuantity receives tx so it runs inside the caller's transaction
func (r *productRepo) UpdateQuantity(tx *gorm.DB, scope session.Scope, id uuid.UUID, quantity int) error {
	return tx.Model(&model.Product{}).
		Scopes(tenant(scope)).
		Where("id = ?", id).
		Update("quantity", quantity).Error
}

// UpdateDetails writes the descriptive columns only. Quantity is owned by
// sales and restocks.
func (r *productRepo) UpdateDetails(tx *gorm.DB, scope session.Scope, product *model.Product) error {
	return tx.Model(&model.Product{}).
		Scopes(tenant(scope)).
		Where("id = ?", product.ID).
		Select("name", "price", "weight", "batch", "code", "expiry", "updated_at").
		Updates(product).Error
}
