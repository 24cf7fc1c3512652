package service

import (
	"context"
	"time"

	"same-inventory/internal/cashflow"
	"same-inventory/internal/model"
	"same-inventory/internal/repository"
	"same-inventory/internal/session"
	"same-inventory/internal/ws"

	"github.com/shopspring/decimal"
)

type CashFlowInput struct {
	Kind   string          `json:"kind" validate:"required,oneof=income expense"`
	Label  string          `json:"label" validate:"required,max=255"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	// Date defaults to now
	Date *time.Time `json:"date"`
}

type CashFlowService interface {
	CreateEntry(ctx context.Context, scope session.Scope, req *CashFlowInput) (*model.CashFlowEntry, error)
	Summary(ctx context.Context, scope session.Scope, period string) (*cashflow.Summary, error)
}

type cashFlowService struct {
	repo      repository.CashFlowRepository
	publisher Publisher
	loc       *time.Location
	now       func() time.Time
}

func NewCashFlowService(repo repository.CashFlowRepository, publisher Publisher, loc *time.Location) CashFlowService {
	if loc == nil {
		loc = time.UTC
	}
	return &cashFlowService{
		repo:      repo,
		publisher: publisherOrNop(publisher),
		loc:       loc,
		now:       time.Now,
	}
}

func (s *cashFlowService) CreateEntry(ctx context.Context, scope session.Scope, req *CashFlowInput) (*model.CashFlowEntry, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	date := s.now()
	if req.Date != nil && !req.Date.IsZero() {
		date = *req.Date
	}

	entry := &model.CashFlowEntry{
		Kind:   model.CashFlowKind(req.Kind),
		Label:  req.Label,
		Amount: req.Amount,
		Date:   date,
	}
	if err := s.repo.Create(ctx, scope, entry); err != nil {
		return nil, err
	}

	s.publisher.Publish(scope, ws.CashFlow)
	return entry, nil
}

// Summary filters the tenant's ledger to the period containing now and
// totals it. An empty period means month.
func (s *cashFlowService) Summary(ctx context.Context, scope session.Scope, period string) (*cashflow.Summary, error) {
	p, err := cashflow.ParsePeriod(period)
	if err != nil {
		return nil, invalidField("period", "oneof")
	}

	entries, err := s.repo.FindAll(ctx, scope)
	if err != nil {
		return nil, err
	}

	summary := cashflow.Aggregate(entries, p, s.now(), s.loc)
	return &summary, nil
}
