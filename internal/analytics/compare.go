package analytics

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"vye/internal/core"
)

// Comparison holds current and previous month totals with their relative change.
type Comparison struct {
	Current       Totals
	Previous      Totals
	IncomeChange  decimal.Decimal // percent
	ExpenseChange decimal.Decimal // percent
}

// MonthlyOverview is the overview card data: total balance plus month-over-month change.
type MonthlyOverview struct {
	TotalBalance decimal.Decimal
	Comparison
}

// CategoryDelta is one axis of the category spending radar.
type CategoryDelta struct {
	Name     string
	Current  decimal.Decimal
	Previous decimal.Decimal
}

// PercentChange returns (current - previous) / previous * 100.
//
// When previous is zero the divisor becomes 1, so the result is current*100
// rather than an undefined or infinite change. Callers showing this figure
// should treat large values from a zero baseline accordingly.
func PercentChange(current, previous decimal.Decimal) decimal.Decimal {
	d := previous
	if d.IsZero() {
		d = decimal.NewFromInt(1)
	}
	return current.Sub(previous).Div(d).Mul(hundred)
}

// Compare splits both periods and computes relative change per side.
func Compare(current, previous []core.Operation) Comparison {
	cur, prev := Split(current), Split(previous)
	return Comparison{
		Current:       cur,
		Previous:      prev,
		IncomeChange:  PercentChange(cur.Income, prev.Income),
		ExpenseChange: PercentChange(cur.Expenses, prev.Expenses),
	}
}

// CategoryComparison compares expense totals per category between two months.
// Operations without a category or outside both months are ignored. Sorted by
// current amount, descending.
func CategoryComparison(ops []core.Operation, current, previous core.Month) []CategoryDelta {
	idx := make(map[string]int)
	var out []CategoryDelta
	for _, op := range ops {
		if !op.IsExpense() || op.Category == nil {
			continue
		}
		inCur, inPrev := current.Contains(op.Date), previous.Contains(op.Date)
		if !inCur && !inPrev {
			continue
		}
		name := op.CategoryName(core.OtherLabel)
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, CategoryDelta{Name: name})
		}
		amt := op.Amount.Decimal.Abs()
		if inCur {
			out[i].Current = out[i].Current.Add(amt)
		} else {
			out[i].Previous = out[i].Previous.Add(amt)
		}
	}
	if out == nil {
		out = []CategoryDelta{}
	}
	slices.SortFunc(out, func(a, b CategoryDelta) int {
		if c := b.Current.Cmp(a.Current); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// TopDeltas keeps the first n entries.
func TopDeltas(in []CategoryDelta, n int) []CategoryDelta {
	if n < 0 || len(in) <= n {
		return in
	}
	return in[:n]
}
