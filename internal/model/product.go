package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Tenanted
	Name     string           `gorm:"type:varchar(255);not null" json:"name"`
	Price    decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	Weight   *decimal.Decimal `gorm:"type:decimal(12,3)" json:"weight,omitempty"`
	Batch    string           `gorm:"type:varchar(100)" json:"batch,omitempty"`
	Quantity int              `gorm:"not null;default:0" json:"quantity"`
	// Code is the EAN/QR/SKU used by sales. Not unique: duplicates make
	// the sale lookup ambiguous instead of silently picking one.
	Code   string     `gorm:"type:varchar(100);index" json:"code,omitempty"`
	Expiry *time.Time `json:"expiry,omitempty"`
}

// Valuation is price × quantity on hand.
func (p *Product) Valuation() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}
