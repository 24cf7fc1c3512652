package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"same-inventory/internal/repository"
	"same-inventory/internal/ws"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSale_DecrementsAndRecords(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewSalesService(repository.NewProductRepo(db), repository.NewSaleRepo(db), db, pub)
	scope := newScope()
	product := seedProduct(t, db, scope, "789100", 10, "4.25")

	sale, err := svc.RecordSale(context.Background(), scope, "789100", 3)
	require.NoError(t, err)

	assert.Equal(t, product.ID, sale.ProductID)
	assert.Equal(t, 3, sale.Quantity)
	assert.True(t, decimal.RequireFromString("12.75").Equal(sale.Total), sale.Total.String())
	assert.True(t, decimal.RequireFromString("4.25").Equal(sale.UnitPrice))
	assert.Equal(t, 7, reloadProduct(t, db, scope, product.ID).Quantity)
	assert.Equal(t, 1, countSales(t, db, scope))
	assert.Equal(t, []string{ws.Products, ws.Sales}, pub.Events())
}

func TestRecordSale_DefaultsToOneUnit(t *testing.T) {
	db := newTestDB(t)
	svc := NewSalesService(repository.NewProductRepo(db), repository.NewSaleRepo(db), db, nil)
	scope := newScope()
	product := seedProduct(t, db, scope, "A1", 4, "1.00")

	sale, err := svc.RecordSale(context.Background(), scope, " A1 ", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, sale.Quantity)
	assert.Equal(t, 3, reloadProduct(t, db, scope, product.ID).Quantity)
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewSalesService(repository.NewProductRepo(db), repository.NewSaleRepo(db), db, pub)
	scope := newScope()
	product := seedProduct(t, db, scope, "LOW", 2, "3.00")

	sale, err := svc.RecordSale(context.Background(), scope, "LOW", 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Nil(t, sale)

	assert.Equal(t, 2, reloadProduct(t, db, scope, product.ID).Quantity)
	assert.Equal(t, 0, countSales(t, db, scope))
	assert.Empty(t, pub.Events())
}

func TestRecordSale_UnknownCodeChangesNothing(t *testing.T) {
	db := newTestDB(t)
	svc := NewSalesService(repository.NewProductRepo(db), repository.NewSaleRepo(db), db, nil)
	scope := newScope()
	a := seedProduct(t, db, scope, "AAA", 5, "1.00")
	b := seedProduct(t, db, scope, "BBB", 8, "2.00")

	_, err := svc.RecordSale(context.Background(), scope, "ZZZ", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.Equal(t, 5, reloadProduct(t, db, scope, a.ID).Quantity)
	assert.Equal(t, 8, reloadProduct(t, db, scope, b.ID).Quantity)
	assert.Equal(t, 0, countSales(t, db, scope))
}

func TestRecordSale_AmbiguousCodeIsNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewSalesService(repository.NewProductRepo(db), repository.NewSaleRepo(db), db, nil)
	scope := newScope()
	a := seedProduct(t, db, scope, "DUP", 5, "1.00")
	b := seedProduct(t, db, scope, "DUP", 5, "1.00")

	_, err := svc.RecordSale(context.Background(), scope, "DUP", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, 5, reloadProduct(t, db, scope, a.ID).Quantity)
	assert.Equal(t, 5, reloadProduct(t, db, scope, b.ID).Quantity)
}

func TestRecordSale_OtherTenantCannotSell(t *testing.T) {
	db := newTestDB(t)
	svc := NewSalesService(repository.NewProductRepo(db), repository.NewSaleRepo(db), db, nil)
	owner, stranger := newScope(), newScope()
	product := seedProduct(t, db, owner, "MINE", 3, "1.00")

	_, err := svc.RecordSale(context.Background(), stranger, "MINE", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, 3, reloadProduct(t, db, owner, product.ID).Quantity)
}

func TestRecordSale_ConcurrentLastUnit(t *testing.T) {
	db := newTestDB(t)
	svc := NewSalesService(repository.NewProductRepo(db), repository.NewSaleRepo(db), db, nil)
	scope := newScope()
	product := seedProduct(t, db, scope, "LAST", 1, "9.90")

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.RecordSale(context.Background(), scope, "LAST", 1)
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, reloadProduct(t, db, scope, product.ID).Quantity)
	assert.Equal(t, 1, countSales(t, db, scope))
}

func TestRecordSale_RejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewSalesService(repository.NewProductRepo(db), repository.NewSaleRepo(db), db, nil)
	scope := newScope()

	_, err := svc.RecordSale(context.Background(), scope, "", 1)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["code"])

	_, err = svc.RecordSale(context.Background(), scope, "X", -2)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "quantity")
}

func TestRecordSale_StoreFailureIsTransactionFailed(t *testing.T) {
	db := newTestDB(t)
	svc := NewSalesService(repository.NewProductRepo(db), repository.NewSaleRepo(db), db, nil)
	scope := newScope()
	seedProduct(t, db, scope, "P", 1, "1.00")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.RecordSale(context.Background(), scope, "P", 1)
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestGetSale(t *testing.T) {
	db := newTestDB(t)
	svc := NewSalesService(repository.NewProductRepo(db), repository.NewSaleRepo(db), db, nil)
	scope := newScope()
	seedProduct(t, db, scope, "G", 2, "5.00")

	sale, err := svc.RecordSale(context.Background(), scope, "G", 2)
	require.NoError(t, err)

	got, err := svc.GetSale(context.Background(), scope, sale.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Product)
	assert.Equal(t, 0, got.Product.Quantity)

	_, err = svc.GetSale(context.Background(), newScope(), sale.ID)
	assert.ErrorIs(t, err, ErrSaleNotFound)

	list, err := svc.ListSales(context.Background(), scope)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
