package http

import (
	"context"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"vye/internal/core"
)

// Display placeholders for absent data.
const (
	noDate         = "No date"
	unknownLabel   = "Unknown"
	unknownAccount = "Unknown Account"
)

var hundred = decimal.NewFromInt(100)

func withClient(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, id)
}

func clientFrom(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey{}).(string)
	return id
}

// formatEuros formats an amount as "€12.34", negative amounts as "-€12.34".
func formatEuros(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-€" + d.Neg().StringFixed(2)
	}
	return "€" + d.StringFixed(2)
}

// formatEurosAbs drops the sign; cards show expenses as positive totals.
func formatEurosAbs(d decimal.Decimal) string {
	return "€" + d.Abs().StringFixed(2)
}

func formatAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return unknownLabel
	}
	return formatEuros(d.Decimal)
}

// formatPercent renders the magnitude of a change with one decimal.
func formatPercent(d decimal.Decimal) string {
	return d.Abs().StringFixed(1) + "%"
}

func amountClass(d decimal.NullDecimal) string {
	switch {
	case !d.Valid:
		return "amount--unknown"
	case d.Decimal.IsPositive():
		return "amount--positive"
	case d.Decimal.IsNegative():
		return "amount--negative"
	default:
		return ""
	}
}

func changeClass(d decimal.Decimal) string {
	if d.IsPositive() {
		return "change--up"
	}
	return "change--down"
}

func operationDate(op core.Operation) string {
	if op.Date.IsEmpty() {
		return noDate
	}
	return op.Date.Format("Jan 2, 2006")
}

func operationLabel(op core.Operation) string {
	if v := strings.TrimSpace(op.Label); v != "" {
		return v
	}
	return unknownLabel
}

func operationAccount(op core.Operation) string {
	if op.Account == nil || strings.TrimSpace(op.Account.Label) == "" {
		return unknownAccount
	}
	return op.Account.Label
}

func operationCategory(op core.Operation) string {
	return op.CategoryName(core.UncategorizedLabel)
}

func accountBalance(a core.Account) string {
	return formatEuros(core.OrZero(a.Balance))
}

func accountName(a core.Account) string {
	if v := strings.TrimSpace(a.Label); v != "" {
		return v
	}
	return unknownAccount
}

// widthPercent scales v against max into 0..100 for progress bars, keeping
// tiny non-zero values visible.
func widthPercent(v, max decimal.Decimal) int {
	if !max.IsPositive() || !v.IsPositive() {
		return 0
	}
	w := int(v.Mul(hundred).Div(max).Round(0).IntPart())
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"euros":       formatEuros,
		"eurosAbs":    formatEurosAbs,
		"amount":      formatAmount,
		"percent":     formatPercent,
		"amountClass": amountClass,
		"changeClass": changeClass,
		"opDate":      operationDate,
		"opLabel":     operationLabel,
		"opAccount":   operationAccount,
		"opCategory":  operationCategory,
		"balance":     accountBalance,
		"accountName": accountName,
		"width":       widthPercent,
		"isPositive":  func(d decimal.NullDecimal) bool { return d.Valid && d.Decimal.IsPositive() },
		"selected":    func(f core.Filter, id string) bool { return f.Selected(id) },
	}
}
