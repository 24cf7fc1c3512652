package cashflow

import (
	"testing"
	"time"

	"same-inventory/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brt = time.FixedZone("BRT", -3*60*60)

var now = time.Date(2025, 6, 15, 10, 0, 0, 0, brt)

func entry(kind model.CashFlowKind, amount string, date time.Time) model.CashFlowEntry {
	return model.CashFlowEntry{Kind: kind, Label: string(kind), Amount: decimal.RequireFromString(amount), Date: date}
}

func ledger() []model.CashFlowEntry {
	return []model.CashFlowEntry{
		entry(model.CashIncome, "100.00", now),
		entry(model.CashExpense, "30.50", now.Add(-2*time.Hour)),
		entry(model.CashIncome, "50", time.Date(2025, 6, 1, 9, 0, 0, 0, brt)),
		entry(model.CashExpense, "20", time.Date(2025, 2, 3, 9, 0, 0, 0, brt)),
		entry(model.CashIncome, "999", time.Date(2024, 6, 15, 9, 0, 0, 0, brt)),
		entry(model.CashIncome, "0", now),
	}
}

func TestFilterByPeriod(t *testing.T) {
	assert.Len(t, Filter(ledger(), Day, now, brt), 3)
	assert.Len(t, Filter(ledger(), Month, now, brt), 4)
	assert.Len(t, Filter(ledger(), Year, now, brt), 5)
}

func TestFilterUsesLocationCalendar(t *testing.T) {
	// 01:00 UTC on the 16th is still the 15th in BRT
	late := entry(model.CashIncome, "10", time.Date(2025, 6, 16, 1, 0, 0, 0, time.UTC))

	assert.Len(t, Filter([]model.CashFlowEntry{late}, Day, now, brt), 1)
	assert.Empty(t, Filter([]model.CashFlowEntry{late}, Day, now, time.UTC))
}

func TestFilterIsIdempotent(t *testing.T) {
	for _, p := range []Period{Day, Month, Year} {
		once := Filter(ledger(), p, now, brt)
		twice := Filter(once, p, now, brt)
		assert.Equal(t, once, twice, string(p))
	}
}

func TestSummarize(t *testing.T) {
	totals := Summarize(Filter(ledger(), Month, now, brt))

	assert.True(t, totals.Income.Equal(decimal.RequireFromString("150")), totals.Income.String())
	assert.True(t, totals.Expense.Equal(decimal.RequireFromString("30.50")), totals.Expense.String())
	assert.True(t, totals.Balance.Equal(decimal.RequireFromString("119.50")), totals.Balance.String())
}

func TestBalanceIsIncomeMinusExpense(t *testing.T) {
	for _, p := range []Period{Day, Month, Year} {
		s := Aggregate(ledger(), p, now, brt)
		assert.True(t, s.Totals.Income.Sub(s.Totals.Expense).Equal(s.Totals.Balance), string(p))
	}
}

func TestSummarizeEmpty(t *testing.T) {
	totals := Summarize(nil)
	assert.True(t, totals.Income.IsZero())
	assert.True(t, totals.Expense.IsZero())
	assert.True(t, totals.Balance.IsZero())
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, Month, p)

	p, err = ParsePeriod("year")
	require.NoError(t, err)
	assert.Equal(t, Year, p)

	_, err = ParsePeriod("week")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}
