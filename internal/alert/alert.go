// Package alert derives low-stock and expiring-soon lists from a product
// snapshot. Everything here is pure and safe to recompute on every update.
package alert

import (
	"math"
	"time"

	"same-inventory/internal/model"
)

const (
	DefaultLowStock   = 5
	DefaultExpiryDays = 7
)

type Thresholds struct {
	LowStock   int
	ExpiryDays int
}

func DefaultThresholds() Thresholds {
	return Thresholds{LowStock: DefaultLowStock, ExpiryDays: DefaultExpiryDays}
}

// ExpiringProduct pairs a product with its remaining whole days.
type ExpiringProduct struct {
	model.Product
	DaysLeft int `json:"days_left"`
}

type Report struct {
	LowStock     []model.Product   `json:"low_stock"`
	ExpiringSoon []ExpiringProduct `json:"expiring_soon"`
	Total        int               `json:"total"`
}

// DaysUntil is ceil((expiry - now) / 1 day). Already expired products give
// zero or a negative count.
func DaysUntil(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

// LowStock keeps products whose quantity is at or below threshold.
func LowStock(products []model.Product, threshold int) []model.Product {
	low := make([]model.Product, 0)
	for _, p := range products {
		if p.Quantity <= threshold {
			low = append(low, p)
		}
	}
	return low
}

// ExpiringSoon keeps products with an expiry at most days away. Products
// without an expiry never qualify.
func ExpiringSoon(products []model.Product, now time.Time, days int) []ExpiringProduct {
	expiring := make([]ExpiringProduct, 0)
	for _, p := range products {
		if p.Expiry == nil {
			continue
		}
		left := DaysUntil(*p.Expiry, now)
		if left <= days {
			expiring = append(expiring, ExpiringProduct{Product: p, DaysLeft: left})
		}
	}
	return expiring
}

// Evaluate builds the full report, including the badge count.
func Evaluate(products []model.Product, now time.Time, th Thresholds) Report {
	low := LowStock(products, th.LowStock)
	expiring := ExpiringSoon(products, now, th.ExpiryDays)
	return Report{
		LowStock:     low,
		ExpiringSoon: expiring,
		Total:        len(low) + len(expiring),
	}
}
