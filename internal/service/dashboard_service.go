package service

import (
	"context"
	"time"

	"same-inventory/internal/alert"
	"same-inventory/internal/repository"
	"same-inventory/internal/session"

	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalProducts int             `json:"total_products"`
	TotalUnits    int             `json:"total_units"`
	StockValue    decimal.Decimal `json:"stock_value"`
	LowStock      int             `json:"low_stock"`
	ExpiringSoon  int             `json:"expiring_soon"`
	SalesCount    int             `json:"sales_count"`
	SalesRevenue  decimal.Decimal `json:"sales_revenue"`
}

type DashboardService interface {
	GetDashboardStats(ctx context.Context, scope session.Scope) (*DashboardStats, error)
	GetAlerts(ctx context.Context, scope session.Scope) (*alert.Report, error)
}

type dashboardService struct {
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
	thresholds  alert.Thresholds
	now         func() time.Time
}

func NewDashboardService(pRepo repository.ProductRepository, sRepo repository.SaleRepository, thresholds alert.Thresholds) DashboardService {
	return &dashboardService{
		productRepo: pRepo,
		saleRepo:    sRepo,
		thresholds:  thresholds,
		now:         time.Now,
	}
}

func (s *dashboardService) GetAlerts(ctx context.Context, scope session.Scope) (*alert.Report, error) {
	products, err := s.productRepo.FindAll(ctx, scope)
	if err != nil {
		return nil, err
	}
	report := alert.Evaluate(products, s.now(), s.thresholds)
	return &report, nil
}

func (s *dashboardService) GetDashboardStats(ctx context.Context, scope session.Scope) (*DashboardStats, error) {
	products, err := s.productRepo.FindAll(ctx, scope)
	if err != nil {
		return nil, err
	}
	sales, err := s.saleRepo.FindAll(ctx, scope)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalProducts: len(products),
		StockValue:    decimal.Zero,
		SalesCount:    len(sales),
		SalesRevenue:  decimal.Zero,
	}
	for i := range products {
		stats.TotalUnits += products[i].Quantity
		stats.StockValue = stats.StockValue.Add(products[i].Valuation())
	}
	for _, sale := range sales {
		stats.SalesRevenue = stats.SalesRevenue.Add(sale.Total)
	}

	report := alert.Evaluate(products, s.now(), s.thresholds)
	stats.LowStock = len(report.LowStock)
	stats.ExpiringSoon = len(report.ExpiringSoon)
	return stats, nil
}
