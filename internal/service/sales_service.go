package service

import (
	"context"
	"errors"
	"strings"

	"same-inventory/internal/model"
	"same-inventory/internal/repository"
	"same-inventory/internal/session"
	"same-inventory/internal/ws"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleInput struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

type SalesService interface {
	RecordSale(ctx context.Context, scope session.Scope, code string, quantity int) (*model.Sale, error)
	ListSales(ctx context.Context, scope session.Scope) ([]model.Sale, error)
	GetSale(ctx context.Context, scope session.Scope, id uuid.UUID) (*model.Sale, error)
}

type salesService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	db          *gorm.DB
	publisher   Publisher
}

func NewSalesService(pRepo repository.ProductRepository, sRepo repository.SaleRepository, db *gorm.DB, publisher Publisher) SalesService {
	return &salesService{
		productRepo: pRepo,
		saleRepo:    sRepo,
		db:          db,
		publisher:   publisherOrNop(publisher),
	}
}

// RecordSale sells quantity units of the product identified by code. The
// stock decrement and the sale insert commit together or not at all, and
// stock never goes below zero. A zero quantity means one unit.
func (s *salesService) RecordSale(ctx context.Context, scope session.Scope, code string, quantity int) (*model.Sale, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalidField("code", "required")
	}
	if quantity < 0 {
		return nil, invalidField("quantity", "gt")
	}
	if quantity == 0 {
		quantity = 1
	}

	// 1. Lookup outside the transaction; ambiguous codes count as missing
	matches, err := s.productRepo.FindByCode(ctx, scope, code)
	if err != nil {
		return nil, txFailed(err)
	}
	if len(matches) != 1 {
		return nil, ErrProductNotFound
	}
	productID := matches[0].ID

	var sale *model.Sale
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2. Re-read under a row lock, never trust the lookup snapshot
		current, err := s.productRepo.LockByID(tx, scope, productID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}

		// 3. Refuse to oversell
		newQuantity := current.Quantity - quantity
		if newQuantity < 0 {
			return ErrInsufficientStock
		}

		// 4. Decrement and insert in the same transaction
		if err := s.productRepo.UpdateQuantity(tx, scope, current.ID, newQuantity); err != nil {
			return err
		}

		sale = &model.Sale{
			ProductID: current.ID,
			Quantity:  quantity,
			UnitPrice: current.Price,
			Total:     current.Price.Mul(decimal.NewFromInt(int64(quantity))),
		}
		if err := s.saleRepo.CreateTx(tx, scope, sale); err != nil {
			return err
		}
		current.Quantity = newQuantity
		sale.Product = current
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrInsufficientStock):
		return nil, err
	default:
		log.Error().Err(err).Str("tenant", scope.String()).Str("code", code).Msg("sale transaction failed")
		return nil, txFailed(err)
	}

	// 5. Notify only after commit
	s.publisher.Publish(scope, ws.Products)
	s.publisher.Publish(scope, ws.Sales)
	return sale, nil
}

func (s *salesService) ListSales(ctx context.Context, scope session.Scope) ([]model.Sale, error) {
	return s.saleRepo.FindAll(ctx, scope)
}

func (s *salesService) GetSale(ctx context.Context, scope session.Scope, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, scope, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	return sale, err
}
