package analytics

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"vye/internal/core"
)

// MonthBucket is one month of the income/expenses bar chart.
type MonthBucket struct {
	Month core.Month
	Totals
}

// Key returns the YYYY-MM key of the bucket.
func (b MonthBucket) Key() string { return b.Month.Key() }

// DateBalances is one day of the account balance comparison chart.
type DateBalances struct {
	Day      core.Date
	Balances map[string]decimal.Decimal // account id -> balance
}

// Metrics backs the analytics summary panel.
type Metrics struct {
	Totals
	MaxIncome          decimal.Decimal
	MaxExpense         decimal.Decimal // positive magnitude
	AverageTransaction decimal.Decimal // expenses per transaction
	IncomeExpenseRatio decimal.Decimal // percent
	Net                decimal.Decimal
}

// MonthlySeries buckets operations by realisation month in ascending order.
// Operations without a date are skipped.
func MonthlySeries(ops []core.Operation) []MonthBucket {
	byKey := make(map[string]*MonthBucket)
	for _, op := range ops {
		if !op.HasAmount() || op.Date.IsZero() {
			continue
		}
		m := op.Date.CalendarMonth()
		b, ok := byKey[m.Key()]
		if !ok {
			b = &MonthBucket{Month: m}
			byKey[m.Key()] = b
		}
		single := Split([]core.Operation{op})
		b.Income = b.Income.Add(single.Income)
		b.Expenses = b.Expenses.Add(single.Expenses)
		b.Count++
	}
	out := make([]MonthBucket, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, *b)
	}
	slices.SortFunc(out, func(a, b MonthBucket) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return out
}

// FillMonths returns one bucket per month in [from, to], empty where series has none.
func FillMonths(series []MonthBucket, from, to core.Month) []MonthBucket {
	byKey := make(map[string]MonthBucket, len(series))
	for _, b := range series {
		byKey[b.Key()] = b
	}
	var out []MonthBucket
	for m := from; m.Key() <= to.Key(); m = m.Add(1) {
		b, ok := byKey[m.Key()]
		if !ok {
			b = MonthBucket{Month: m}
		}
		out = append(out, b)
	}
	if out == nil {
		out = []MonthBucket{}
	}
	return out
}

// Summarize computes the analytics panel metrics.
func Summarize(ops []core.Operation) Metrics {
	m := Metrics{Totals: Split(ops)}
	for _, op := range ops {
		switch {
		case op.IsIncome():
			if op.Amount.Decimal.GreaterThan(m.MaxIncome) {
				m.MaxIncome = op.Amount.Decimal
			}
		case op.IsExpense():
			if abs := op.Amount.Decimal.Abs(); abs.GreaterThan(m.MaxExpense) {
				m.MaxExpense = abs
			}
		}
	}
	m.AverageTransaction = m.Expenses.Div(decimal.NewFromInt(int64(max(m.Count, 1))))
	denom := m.Expenses
	if denom.IsZero() {
		denom = decimal.NewFromInt(1)
	}
	m.IncomeExpenseRatio = m.Income.Div(denom).Mul(hundred)
	m.Net = m.Totals.Net()
	return m
}

// PivotBalances groups balance history by day, ascending.
func PivotBalances(history []core.BalanceHistory) []DateBalances {
	idx := make(map[string]int)
	out := []DateBalances{}
	for _, h := range history {
		if h.Day.IsZero() {
			continue
		}
		k := h.Day.String()
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, DateBalances{Day: h.Day, Balances: map[string]decimal.Decimal{}})
		}
		out[i].Balances[h.AccountID] = h.Balance
	}
	slices.SortFunc(out, func(a, b DateBalances) int {
		return a.Day.Compare(b.Day.Time)
	})
	return out
}
