package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseBalance reads a decimal string as stored for account balances.
//
// Empty, null-like and unparseable values yield an absent balance instead of an
// error, so a single bad row never fails a whole account list. A decimal comma
// is accepted.
func ParseBalance(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return decimal.NullDecimal{}
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ParseBalancePtr is ParseBalance for an optional column.
func ParseBalancePtr(s *string) decimal.NullDecimal {
	if s == nil {
		return decimal.NullDecimal{}
	}
	return ParseBalance(*s)
}

// NullAmount wraps an optional float column read from the store.
func NullAmount(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}

// Amount builds a present amount, mostly for fixtures.
func Amount(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

// OrZero returns the value of d, or zero when it is absent.
func OrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
