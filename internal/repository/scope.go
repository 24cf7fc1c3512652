package repository

import (
	"errors"

	"same-inventory/internal/model"
	"same-inventory/internal/session"

	"gorm.io/gorm"
)

var ErrInvalidScope = errors.New("repository: missing tenant scope")

// tenant restricts a query to the scope's tenant. Every tenant-owned table
// goes through it.
func tenant(scope session.Scope) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !scope.Valid() {
			db.AddError(ErrInvalidScope)
			return db
		}
		return db.Where("tenant_id = ?", scope.TenantID())
	}
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Settings{},
		&model.Product{},
		&model.Sale{},
		&model.CashFlowEntry{},
	)
}
