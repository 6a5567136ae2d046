package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Query builds a table request. Methods mutate and return the receiver so
// calls can be chained; a Query must not be shared between goroutines.
type Query struct {
	client *Client
	table  string
	params url.Values
	order  []string
}

func (q *Query) Select(columns string) *Query {
	q.params.Set("select", compactSelect(columns))
	return q
}

func (q *Query) filter(column, op, value string) *Query {
	q.params.Add(column, op+"."+value)
	return q
}

func (q *Query) Eq(column, value string) *Query  { return q.filter(column, "eq", value) }
func (q *Query) Neq(column, value string) *Query { return q.filter(column, "neq", value) }
func (q *Query) Gt(column, value string) *Query  { return q.filter(column, "gt", value) }
func (q *Query) Gte(column, value string) *Query { return q.filter(column, "gte", value) }
func (q *Query) Lt(column, value string) *Query  { return q.filter(column, "lt", value) }
func (q *Query) Lte(column, value string) *Query { return q.filter(column, "lte", value) }

// In matches any of values. Values holding reserved characters are quoted.
func (q *Query) In(column string, values []string) *Query {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteValue(v)
	}
	return q.filter(column, "in", "("+strings.Join(quoted, ",")+")")
}

func (q *Query) IsNull(column string) *Query  { return q.filter(column, "is", "null") }
func (q *Query) NotNull(column string) *Query { return q.filter(column, "not.is", "null") }

// Order appends an ordering term. Later calls are lower priority.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.order = append(q.order, column+"."+dir)
	return q
}

func (q *Query) Limit(n int) *Query {
	if n > 0 {
		q.params.Set("limit", strconv.Itoa(n))
	}
	return q
}

// Values returns the encoded query parameters, mostly for tests.
func (q *Query) Values() url.Values {
	v := url.Values{}
	for k, vs := range q.params {
		v[k] = append([]string(nil), vs...)
	}
	if len(q.order) > 0 {
		v.Set("order", strings.Join(q.order, ","))
	}
	return v
}

// Execute runs the query as a GET and decodes the JSON array into out.
func (q *Query) Execute(ctx context.Context, out any) error {
	if err := q.client.do(ctx, http.MethodGet, q.table, q.Values(), nil, out, ""); err != nil {
		return fmt.Errorf("select %s: %w", q.table, err)
	}
	return nil
}

// Update patches every row matched by the filters. When out is non-nil the
// updated rows are returned (restricted by Select) and decoded into it.
// Without a filter the call is refused, so a missing Eq never rewrites a
// whole table.
func (q *Query) Update(ctx context.Context, values, out any) error {
	params := q.Values()
	params.Del("order")
	params.Del("limit")
	sel := params.Get("select")
	params.Del("select")
	if len(params) == 0 {
		return fmt.Errorf("update %s: refusing unfiltered update", q.table)
	}
	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
		if sel != "" {
			params.Set("select", sel)
		}
	}
	if err := q.client.do(ctx, http.MethodPatch, q.table, params, values, out, prefer); err != nil {
		return fmt.Errorf("update %s: %w", q.table, err)
	}
	return nil
}

func quoteValue(v string) string {
	if !strings.ContainsAny(v, `,.:()" \`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(v) + `"`
}

// compactSelect strips whitespace outside quotes so multi-line select
// strings can be written readably.
func compactSelect(s string) string {
	var b strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			b.WriteRune(r)
		case !quoted && (r == ' ' || r == '\n' || r == '\t' || r == '\r'):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
