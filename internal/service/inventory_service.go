package service

import (
	"context"
	"errors"
	"time"

	"same-inventory/internal/model"
	"same-inventory/internal/repository"
	"same-inventory/internal/session"
	"same-inventory/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductInput struct {
	Name     string           `json:"name" validate:"required,max=255"`
	Price    decimal.Decimal  `json:"price" validate:"gte=0"`
	Weight   *decimal.Decimal `json:"weight" validate:"omitempty,gte=0"`
	Batch    string           `json:"batch" validate:"max=100"`
	Quantity int              `json:"quantity" validate:"gt=0"`
	Code     string           `json:"code" validate:"max=100"`
	Expiry   *time.Time       `json:"expiry" validate:"omitempty,future"`
}

// ProductUpdate holds the descriptive fields. Quantity only changes
// through sales and restocks. Expiry is not required to be in the future:
// an expired product keeps its date while other fields are corrected.
type ProductUpdate struct {
	Name   string           `json:"name" validate:"required,max=255"`
	Price  decimal.Decimal  `json:"price" validate:"gte=0"`
	Weight *decimal.Decimal `json:"weight" validate:"omitempty,gte=0"`
	Batch  string           `json:"batch" validate:"max=100"`
	Code   string           `json:"code" validate:"max=100"`
	Expiry *time.Time       `json:"expiry"`
}

type RestockInput struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

type InventoryService interface {
	CreateProduct(ctx context.Context, scope session.Scope, req *ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, scope session.Scope, id uuid.UUID, req *ProductUpdate) (*model.Product, error)
	Restock(ctx context.Context, scope session.Scope, id uuid.UUID, req *RestockInput) (*model.Product, error)
	ListProducts(ctx context.Context, scope session.Scope) ([]model.Product, error)
}

type inventoryService struct {
	productRepo repository.ProductRepository
	db          *gorm.DB
	publisher   Publisher
}

func NewInventoryService(pRepo repository.ProductRepository, db *gorm.DB, publisher Publisher) InventoryService {
	return &inventoryService{
		productRepo: pRepo,
		db:          db,
		publisher:   publisherOrNop(publisher),
	}
}

func (s *inventoryService) CreateProduct(ctx context.Context, scope session.Scope, req *ProductInput) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:     req.Name,
		Price:    req.Price,
		Weight:   req.Weight,
		Batch:    req.Batch,
		Quantity: req.Quantity,
		Code:     req.Code,
		Expiry:   req.Expiry,
	}
	if err := s.productRepo.Create(ctx, scope, product); err != nil {
		return nil, err
	}

	s.publisher.Publish(scope, ws.Products)
	return product, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, scope session.Scope, id uuid.UUID, req *ProductUpdate) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var updated *model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.LockByID(tx, scope, id)
		if err != nil {
			return err
		}

		existing.Name = req.Name
		existing.Price = req.Price
		existing.Weight = req.Weight
		existing.Batch = req.Batch
		existing.Code = req.Code
		existing.Expiry = req.Expiry
		existing.UpdatedAt = time.Now()

		if err := s.productRepo.UpdateDetails(tx, scope, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, txFailed(err)
	}

	s.publisher.Publish(scope, ws.Products)
	return updated, nil
}

func (s *inventoryService) Restock(ctx context.Context, scope session.Scope, id uuid.UUID, req *RestockInput) (*model.Product, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	var restocked *model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.LockByID(tx, scope, id)
		if err != nil {
			return err
		}
		existing.Quantity += req.Quantity
		if err := s.productRepo.UpdateQuantity(tx, scope, existing.ID, existing.Quantity); err != nil {
			return err
		}
		restocked = existing
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, txFailed(err)
	}

	s.publisher.Publish(scope, ws.Products)
	return restocked, nil
}

func (s *inventoryService) ListProducts(ctx context.Context, scope session.Scope) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx, scope)
}
