// Package cashflow filters ledger entries by calendar period and totals them.
package cashflow

import (
	"errors"
	"time"

	"same-inventory/internal/model"

	"github.com/shopspring/decimal"
)

type Period string

const (
	Day   Period = "day"
	Month Period = "month"
	Year  Period = "year"
)

var ErrInvalidPeriod = errors.New("period must be one of day, month, year")

// ParsePeriod maps a query value to a Period; empty means Month.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return Month, nil
	case Day, Month, Year:
		return Period(s), nil
	default:
		return "", ErrInvalidPeriod
	}
}

type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

type Summary struct {
	Period  Period                `json:"period"`
	Entries []model.CashFlowEntry `json:"entries"`
	Totals  Totals                `json:"totals"`
}

// InPeriod reports whether t falls in the same calendar day, month or year
// as now, both read in loc.
func InPeriod(t, now time.Time, p Period, loc *time.Location) bool {
	t = t.In(loc)
	now = now.In(loc)
	switch p {
	case Day:
		ty, tm, td := t.Date()
		ny, nm, nd := now.Date()
		return ty == ny && tm == nm && td == nd
	case Month:
		return t.Year() == now.Year() && t.Month() == now.Month()
	case Year:
		return t.Year() == now.Year()
	default:
		return false
	}
}

// Filter keeps the entries whose effective date is in the period.
func Filter(entries []model.CashFlowEntry, p Period, now time.Time, loc *time.Location) []model.CashFlowEntry {
	kept := make([]model.CashFlowEntry, 0, len(entries))
	for _, e := range entries {
		if InPeriod(e.Date, now, p, loc) {
			kept = append(kept, e)
		}
	}
	return kept
}

// Summarize sums income and expense amounts. Balance = income - expense.
func Summarize(entries []model.CashFlowEntry) Totals {
	income := decimal.Zero
	expense := decimal.Zero
	for _, e := range entries {
		switch e.Kind {
		case model.CashIncome:
			income = income.Add(e.Amount)
		case model.CashExpense:
			expense = expense.Add(e.Amount)
		}
	}
	return Totals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

func Aggregate(entries []model.CashFlowEntry, p Period, now time.Time, loc *time.Location) Summary {
	filtered := Filter(entries, p, now, loc)
	return Summary{Period: p, Entries: filtered, Totals: Summarize(filtered)}
}
