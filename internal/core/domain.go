package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AccountNone        AccountType = "none"
	AccountCheckings   AccountType = "Checkings"
	AccountSavings     AccountType = "LongTermSavings"
	AccountCreditCard  AccountType = "CreditCard"
	AccountLoan        AccountType = "Loan"
	AccountBusiness    AccountType = "Business"
	UncategorizedLabel             = "Uncategorized"
	OtherLabel                     = "Other"
)

type (
	AccountType string

	Account struct {
		ID               string // cozy document id, unique and stable
		Label            string
		Type             AccountType
		Balance          decimal.NullDecimal // authoritative only at the store
		InstitutionLabel string
		IBAN             string
		Number           string
	}

	Category struct {
		Code        string
		Label       string
		Translation string // localized label
	}

	Operation struct {
		ID                    int64
		AccountID             string
		Amount                decimal.NullDecimal // positive income, negative expense, null excluded
		Date                  Date                // realisation date, zero when unknown
		Label                 string
		CategoryCode          string
		AutomaticCategoryCode string
		ParentID              *int64
		Currency              string

		// Joined rows, nil when the query did not ask for them or the reference is dangling.
		Account  *Account
		Category *Category
	}

	BalanceHistory struct {
		AccountID string
		Day       Date
		Balance   decimal.Decimal
	}

	// BalancePoint is one row of the balance series procedure.
	BalancePoint struct {
		AccountID    string
		AccountLabel string
		Date         Date
		Balance      decimal.Decimal
	}

	// AverageBalance is one row of the average balance procedure.
	AverageBalance struct {
		IntervalType  string
		IntervalStart Date
		AvgBalance    decimal.Decimal
	}
)

var (
	ErrInvalidOperationID = errors.New("invalid operation id")
	ErrEmptyCategoryCode  = errors.New("empty category code")
	ErrInvalidKind        = errors.New("invalid transaction kind")
)

var accountTypes = []AccountType{
	AccountNone, AccountCheckings, AccountSavings, AccountCreditCard, AccountLoan, AccountBusiness,
}

// ParseAccountType maps a store value to a known account type, falling back to none.
func ParseAccountType(s string) AccountType {
	s = strings.TrimSpace(s)
	for _, t := range accountTypes {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return AccountNone
}

// DisplayLabel returns a human label for the account type.
func (t AccountType) DisplayLabel() string {
	switch t {
	case AccountCheckings:
		return "Checking"
	case AccountSavings:
		return "Savings"
	case AccountCreditCard:
		return "Credit card"
	case AccountLoan:
		return "Loan"
	case AccountBusiness:
		return "Business"
	default:
		return "Other"
	}
}

// DisplayName prefers the localized translation, then the label, then the code.
func (c Category) DisplayName() string {
	if v := strings.TrimSpace(c.Translation); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Label); v != "" {
		return v
	}
	return c.Code
}

// HasAmount reports whether the operation takes part in financial computations.
func (o Operation) HasAmount() bool {
	return o.Amount.Valid
}

// IsIncome reports whether the amount is strictly positive. Null amounts are neither.
func (o Operation) IsIncome() bool {
	return o.Amount.Valid && o.Amount.Decimal.IsPositive()
}

// IsExpense reports whether the amount is strictly negative.
func (o Operation) IsExpense() bool {
	return o.Amount.Valid && o.Amount.Decimal.IsNegative()
}

// CategoryName returns the joined category's display name or the given fallback.
func (o Operation) CategoryName(fallback string) string {
	if o.Category == nil {
		return fallback
	}
	if name := o.Category.DisplayName(); name != "" {
		return name
	}
	return fallback
}

// Kind selects one side of the income/expense split.
type Kind string

const (
	KindIncome   Kind = "income"
	KindExpenses Kind = "expenses"
)

// ParseKind validates a kind discriminator coming from a request.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindIncome:
		return KindIncome, nil
	case KindExpenses:
		return KindExpenses, nil
	default:
		return "", ErrInvalidKind
	}
}

// Matches reports whether op falls on this side of the split.
func (k Kind) Matches(op Operation) bool {
	switch k {
	case KindIncome:
		return op.IsIncome()
	case KindExpenses:
		return op.IsExpense()
	default:
		return false
	}
}

// Title returns the heading used by the detail dialog.
func (k Kind) Title() string {
	if k == KindIncome {
		return "Income"
	}
	return "Expenses"
}
