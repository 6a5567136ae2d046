package core

import (
	"net/url"
	"slices"
	"strings"
)

// Filter is the dashboard-wide selection: an optional date range and an
// optional subset of accounts. Zero dates and an empty account list mean
// "unbounded". Values are immutable; the With* methods return copies.
type Filter struct {
	From     Date
	To       Date
	accounts []string
}

// NewFilter normalizes accounts (trimmed, de-duplicated, sorted).
func NewFilter(from, to Date, accounts ...string) Filter {
	return Filter{From: from, To: to, accounts: normalizeAccounts(accounts)}
}

// ParseFilter reads from, to and repeated account parameters. Unparseable
// dates are ignored rather than rejected.
func ParseFilter(q url.Values) Filter {
	from, _ := ParseDate(q.Get("from"))
	to, _ := ParseDate(q.Get("to"))
	return NewFilter(from, to, q["account"]...)
}

// Accounts returns a copy of the selected account ids.
func (f Filter) Accounts() []string {
	return slices.Clone(f.accounts)
}

// HasAccounts reports whether the filter restricts accounts.
func (f Filter) HasAccounts() bool {
	return len(f.accounts) > 0
}

// Selected reports whether the account id is part of the selection.
func (f Filter) Selected(id string) bool {
	_, ok := slices.BinarySearch(f.accounts, id)
	return ok
}

func (f Filter) WithDateRange(from, to Date) Filter {
	return Filter{From: from, To: to, accounts: f.accounts}
}

func (f Filter) WithAccounts(accounts ...string) Filter {
	return Filter{From: f.From, To: f.To, accounts: normalizeAccounts(accounts)}
}

// IsZero reports whether the filter selects everything.
func (f Filter) IsZero() bool {
	return f.From.IsZero() && f.To.IsZero() && len(f.accounts) == 0
}

// Key is a canonical representation; equal filters have equal keys.
func (f Filter) Key() string {
	return f.From.String() + "|" + f.To.String() + "|" + strings.Join(f.accounts, ",")
}

// Values renders the filter back to query parameters.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if !f.From.IsZero() {
		v.Set("from", f.From.String())
	}
	if !f.To.IsZero() {
		v.Set("to", f.To.String())
	}
	for _, a := range f.accounts {
		v.Add("account", a)
	}
	return v
}

func normalizeAccounts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
