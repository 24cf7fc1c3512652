package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CashFlowKind string

const (
	CashIncome  CashFlowKind = "income"
	CashExpense CashFlowKind = "expense"
)

// CashFlowEntry is a manual ledger line. Entries are append-only.
type CashFlowEntry struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Tenanted
	Kind      CashFlowKind    `gorm:"type:varchar(10);not null" json:"kind"`
	Label     string          `gorm:"type:varchar(255);not null" json:"label"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Date      time.Time       `gorm:"not null;index" json:"date"`
	CreatedAt time.Time       `json:"created_at"`
}

func (CashFlowEntry) TableName() string {
	return "cash_flow_entries"
}

func (e *CashFlowEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
