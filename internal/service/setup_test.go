package service

import (
	"context"
	"sync"
	"testing"

	"same-inventory/internal/model"
	"same-inventory/internal/repository"
	"same-inventory/internal/session"
	"same-inventory/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ session.Scope, collection string) {
	p.mu.Lock()
	p.events = append(p.events, collection)
	p.mu.Unlock()
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.DriverSQLite, database.MemoryDSN(uuid.NewString()), false)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newScope() session.Scope {
	return session.New(uuid.New(), "owner@example.com", "Owner", "v1").Scope()
}

func seedProduct(t *testing.T, db *gorm.DB, scope session.Scope, code string, quantity int, price string) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:     "Product " + code,
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
		Code:     code,
	}
	require.NoError(t, repository.NewProductRepo(db).Create(context.Background(), scope, p))
	return p
}

func reloadProduct(t *testing.T, db *gorm.DB, scope session.Scope, id uuid.UUID) *model.Product {
	t.Helper()
	p, err := repository.NewProductRepo(db).FindByID(context.Background(), scope, id)
	require.NoError(t, err)
	return p
}

func countSales(t *testing.T, db *gorm.DB, scope session.Scope) int {
	t.Helper()
	sales, err := repository.NewSaleRepo(db).FindAll(context.Background(), scope)
	require.NoError(t, err)
	return len(sales)
}
