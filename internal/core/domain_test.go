package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-01-15", "2025-01-15", true},
		{"2025-01-15T10:30:00", "2025-01-15", true},
		{"2025-01-15T23:59:59Z", "2025-01-15", true},
		{"2025-01-15 08:00:00", "2025-01-15", true},
		{" 2025-02-01 ", "2025-02-01", true},
		{"", "", false},
		{"15/01/2025", "", false},
		{"2025-13-01", "", false},
	}
	for i, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("case %d expected ErrInvalidDate, got %v", i, err)
			}
			continue
		}
		if d.String() != tc.want {
			t.Fatalf("case %d got %s want %s", i, d, tc.want)
		}
	}
}

func TestZeroDateString(t *testing.T) {
	if s := (Date{}).String(); s != "" {
		t.Fatalf("expected empty string, got %q", s)
	}
	if !(Date{Time: time.Time{}}).IsEmpty() {
		t.Fatalf("zero date should be empty")
	}
}

func TestMonthArithmetic(t *testing.T) {
	jan := Month{Year: 2025, Month: time.January}
	if got := jan.Previous().Key(); got != "2024-12" {
		t.Fatalf("previous of jan: %s", got)
	}
	if got := jan.Add(-6).Key(); got != "2024-07" {
		t.Fatalf("six months back: %s", got)
	}
	if got := jan.End().String(); got != "2025-01-31" {
		t.Fatalf("end of jan: %s", got)
	}
	feb := Month{Year: 2024, Month: time.February}
	if got := feb.End().String(); got != "2024-02-29" {
		t.Fatalf("end of leap feb: %s", got)
	}
	if !jan.Contains(NewDate(2025, 1, 31)) || jan.Contains(NewDate(2025, 2, 1)) {
		t.Fatalf("contains mismatch")
	}
	if jan.Contains(Date{}) {
		t.Fatalf("zero date is never in a month")
	}
}

func TestParseAccountType(t *testing.T) {
	cases := map[string]AccountType{
		"Checkings":       AccountCheckings,
		"checkings":       AccountCheckings,
		"LongTermSavings": AccountSavings,
		"CreditCard":      AccountCreditCard,
		"Loan":            AccountLoan,
		"Business":        AccountBusiness,
		"none":            AccountNone,
		"":                AccountNone,
		"Crypto":          AccountNone,
	}
	for in, want := range cases {
		if got := ParseAccountType(in); got != want {
			t.Fatalf("ParseAccountType(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestCategoryDisplayName(t *testing.T) {
	cases := []struct {
		c    Category
		want string
	}{
		{Category{Code: "400100", Label: "food", Translation: "Alimentation"}, "Alimentation"},
		{Category{Code: "400100", Label: "food"}, "food"},
		{Category{Code: "400100", Label: "food", Translation: "   "}, "food"},
		{Category{Code: "400100"}, "400100"},
	}
	for i, tc := range cases {
		if got := tc.c.DisplayName(); got != tc.want {
			t.Fatalf("case %d got %q want %q", i, got, tc.want)
		}
	}
}

func TestOperationSign(t *testing.T) {
	income := Operation{Amount: Amount("10")}
	expense := Operation{Amount: Amount("-3.5")}
	zero := Operation{Amount: Amount("0")}
	null := Operation{}

	if !income.IsIncome() || income.IsExpense() {
		t.Fatalf("income misclassified")
	}
	if !expense.IsExpense() || expense.IsIncome() {
		t.Fatalf("expense misclassified")
	}
	if zero.IsIncome() || zero.IsExpense() || !zero.HasAmount() {
		t.Fatalf("zero amount misclassified")
	}
	if null.HasAmount() || null.IsIncome() || null.IsExpense() {
		t.Fatalf("null amount must be excluded")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("Income"); err != nil || k != KindIncome {
		t.Fatalf("got %s %v", k, err)
	}
	if k, err := ParseKind("expenses"); err != nil || k != KindExpenses {
		t.Fatalf("got %s %v", k, err)
	}
	if _, err := ParseKind("transfers"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}
