package analytics

import (
	"testing"
	"time"

	"vye/internal/core"
)

func TestPercentChange(t *testing.T) {
	cases := []struct {
		cur, prev, want string
	}{
		{"50", "0", "5000"},
		{"150", "100", "50"},
		{"50", "100", "-50"},
		{"0", "0", "0"},
		{"0", "80", "-100"},
	}
	for _, tc := range cases {
		got := PercentChange(dec(tc.cur), dec(tc.prev))
		if !got.Equal(dec(tc.want)) {
			t.Errorf("PercentChange(%s, %s) = %s, want %s", tc.cur, tc.prev, got, tc.want)
		}
	}
}

func TestCompare(t *testing.T) {
	cur := []core.Operation{op("200", nil, core.Date{}), op("-50", nil, core.Date{})}
	prev := []core.Operation{op("100", nil, core.Date{})}
	c := Compare(cur, prev)
	if !c.IncomeChange.Equal(dec("100")) {
		t.Fatalf("income change = %s", c.IncomeChange)
	}
	if !c.ExpenseChange.Equal(dec("5000")) {
		t.Fatalf("expense change = %s", c.ExpenseChange)
	}
}

func TestCategoryComparison(t *testing.T) {
	rent := &core.Category{Code: "1", Label: "rent"}
	feb := core.Month{Year: 2025, Month: time.February}
	jan := feb.Previous()
	ops := []core.Operation{
		op("-40", food, core.NewDate(2025, 2, 10)),
		op("-10", food, core.NewDate(2025, 1, 10)),
		op("-700", rent, core.NewDate(2025, 1, 1)),
		op("-700", rent, core.NewDate(2025, 2, 1)),
		op("-5", nil, core.NewDate(2025, 2, 1)),
		op("-99", food, core.NewDate(2024, 12, 1)),
		op("30", food, core.NewDate(2025, 2, 1)),
	}
	got := CategoryComparison(ops, feb, jan)
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got[0].Name != "rent" || !got[0].Current.Equal(dec("700")) || !got[0].Previous.Equal(dec("700")) {
		t.Fatalf("rent = %+v", got[0])
	}
	if got[1].Name != "food" || !got[1].Current.Equal(dec("40")) || !got[1].Previous.Equal(dec("10")) {
		t.Fatalf("food = %+v", got[1])
	}
	if len(TopDeltas(got, 1)) != 1 {
		t.Fatalf("TopDeltas did not truncate")
	}
}
