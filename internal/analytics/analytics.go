// Package analytics holds the pure aggregation routines behind the dashboard
// charts and summary cards. Every routine ignores operations whose amount is
// null before summing or counting, and returns zero values and empty slices
// for empty input.
package analytics

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"vye/internal/core"
)

var hundred = decimal.NewFromInt(100)

// Totals is the income/expense split of a set of operations.
type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal // positive magnitude
	Count    int
}

// Net returns income minus expenses.
func (t Totals) Net() decimal.Decimal {
	return t.Income.Sub(t.Expenses)
}

// CategoryAmount is one slice of a category chart.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Split sums positive amounts into income and the magnitude of the rest into
// expenses. Zero amounts are counted on the expense side without changing it.
func Split(ops []core.Operation) Totals {
	var t Totals
	for _, op := range ops {
		if !op.HasAmount() {
			continue
		}
		t.Count++
		amt := op.Amount.Decimal
		if amt.IsPositive() {
			t.Income = t.Income.Add(amt)
		} else {
			t.Expenses = t.Expenses.Add(amt.Abs())
		}
	}
	return t
}

// Net is income minus expenses over ops.
func Net(ops []core.Operation) decimal.Decimal {
	return Split(ops).Net()
}

// CategoryTotals groups expenses by category display name. Operations with no
// resolvable category are grouped under "Other". Result is sorted by amount,
// descending.
func CategoryTotals(ops []core.Operation) []CategoryAmount {
	return groupByCategory(ops, core.KindExpenses, core.OtherLabel)
}

// CategoryBreakdown groups one side of the split by category, with
// "Uncategorized" for operations without category.
func CategoryBreakdown(ops []core.Operation, kind core.Kind) []CategoryAmount {
	return groupByCategory(ops, kind, core.UncategorizedLabel)
}

// Top keeps the first n entries. A negative n keeps everything.
func Top(in []CategoryAmount, n int) []CategoryAmount {
	if n < 0 || len(in) <= n {
		return in
	}
	return in[:n]
}

func groupByCategory(ops []core.Operation, kind core.Kind, fallback string) []CategoryAmount {
	sums := make(map[string]decimal.Decimal)
	for _, op := range ops {
		if !kind.Matches(op) {
			continue
		}
		name := op.CategoryName(fallback)
		sums[name] = sums[name].Add(op.Amount.Decimal.Abs())
	}
	out := make([]CategoryAmount, 0, len(sums))
	for name, amt := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: amt})
	}
	sortAmounts(out)
	return out
}

func sortAmounts(in []CategoryAmount) {
	slices.SortFunc(in, func(a, b CategoryAmount) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

// TotalBalance sums account balances. Absent balances contribute nothing.
func TotalBalance(accounts []core.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		if a.Balance.Valid {
			total = total.Add(a.Balance.Decimal)
		}
	}
	return total
}

// KindSummary backs the income/expense detail dialog.
type KindSummary struct {
	Kind       core.Kind
	Categories []CategoryAmount // top n
	Total      decimal.Decimal  // sum over the listed categories
	Count      int              // matching transactions
	Average    decimal.Decimal  // Total / max(Count, 1)
}

// SummarizeKind keeps the top n categories of one side of the split. The total
// covers the listed categories only, matching what the chart shows.
func SummarizeKind(ops []core.Operation, kind core.Kind, n int) KindSummary {
	s := KindSummary{Kind: kind, Categories: Top(CategoryBreakdown(ops, kind), n)}
	for _, op := range ops {
		if kind.Matches(op) {
			s.Count++
		}
	}
	for _, c := range s.Categories {
		s.Total = s.Total.Add(c.Amount)
	}
	s.Average = s.Total.Div(decimal.NewFromInt(int64(max(s.Count, 1))))
	return s
}
