package http

import (
	"net/http"
	"slices"

	"github.com/shopspring/decimal"

	"vye/internal/analytics"
	"vye/internal/core"
)

// balanceSeriesMonths is how far back the overview balance chart starts.
const balanceSeriesMonths = 1

// chartData is the JSON shape the front end hands to Chart.js. A nil point
// is a gap.
type chartData struct {
	Labels   []string       `json:"labels"`
	Datasets []chartDataset `json:"datasets"`
}

type chartDataset struct {
	Label string     `json:"label"`
	Data  []*float64 `json:"data"`
}

func point(d decimal.Decimal) *float64 {
	f := d.InexactFloat64()
	return &f
}

func dataset(label string, values []decimal.Decimal) chartDataset {
	data := make([]*float64, len(values))
	for i, v := range values {
		data[i] = point(v)
	}
	return chartDataset{Label: label, Data: data}
}

func categoryChart(label string, in []analytics.CategoryAmount) chartData {
	labels := make([]string, len(in))
	values := make([]decimal.Decimal, len(in))
	for i, c := range in {
		labels[i] = c.Name
		values[i] = c.Amount
	}
	return chartData{Labels: labels, Datasets: []chartDataset{dataset(label, values)}}
}

func monthChart(buckets []analytics.MonthBucket, withNet bool) chartData {
	labels := make([]string, len(buckets))
	income := make([]decimal.Decimal, len(buckets))
	expenses := make([]decimal.Decimal, len(buckets))
	net := make([]decimal.Decimal, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Month.Label()
		income[i] = b.Income
		expenses[i] = b.Expenses
		net[i] = b.Net()
	}
	out := chartData{Labels: labels, Datasets: []chartDataset{dataset("Income", income), dataset("Expenses", expenses)}}
	if withNet {
		out.Datasets = append(out.Datasets, dataset("Net", net))
	}
	return out
}

// seriesChart lays out one line per account over the union of days. Days an
// account has no row for are gaps.
func seriesChart(points []core.BalancePoint) chartData {
	var days []string
	type line struct {
		label  string
		values map[string]decimal.Decimal
	}
	var order []string
	lines := make(map[string]*line)
	for _, p := range points {
		day := p.Date.String()
		if day == "" {
			continue
		}
		days = append(days, day)
		l, ok := lines[p.AccountID]
		if !ok {
			label := p.AccountLabel
			if label == "" {
				label = unknownAccount
			}
			l = &line{label: label, values: make(map[string]decimal.Decimal)}
			lines[p.AccountID] = l
			order = append(order, p.AccountID)
		}
		l.values[day] = p.Balance
	}
	slices.Sort(days)
	days = slices.Compact(days)

	out := chartData{Labels: days}
	for _, id := range order {
		l := lines[id]
		data := make([]*float64, len(days))
		for i, day := range days {
			if v, ok := l.values[day]; ok {
				data[i] = point(v)
			}
		}
		out.Datasets = append(out.Datasets, chartDataset{Label: l.label, Data: data})
	}
	return out
}

func (s *Server) handleBalanceChart(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "chart-balance")
	defer release()

	start := core.Date{Time: core.DateOf(s.now()).AddDate(0, -balanceSeriesMonths, 0)}
	points, err := s.queries.BalanceSeries(ctx, start)
	if s.failedJSON(w, r, ctx, err, "chart-balance") {
		return
	}
	writeJSON(w, http.StatusOK, seriesChart(points))
}

func (s *Server) handleExpensesByCategoryChart(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "chart-expenses-by-category")
	defer release()

	totals, err := s.queries.ExpensesByCategory(ctx)
	if s.failedJSON(w, r, ctx, err, "chart-expenses-by-category") {
		return
	}
	writeJSON(w, http.StatusOK, categoryChart("Expenses", totals))
}

func (s *Server) handleIncomeExpensesChart(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "chart-income-expenses")
	defer release()

	buckets, err := s.queries.IncomeExpenses(ctx, s.now())
	if s.failedJSON(w, r, ctx, err, "chart-income-expenses") {
		return
	}
	writeJSON(w, http.StatusOK, monthChart(buckets, false))
}

// handleCategorySpendingChart compares this month and last month per category.
func (s *Server) handleCategorySpendingChart(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "chart-category-spending")
	defer release()

	deltas, err := s.queries.CategorySpending(ctx, s.now())
	if s.failedJSON(w, r, ctx, err, "chart-category-spending") {
		return
	}
	labels := make([]string, len(deltas))
	current := make([]decimal.Decimal, len(deltas))
	previous := make([]decimal.Decimal, len(deltas))
	for i, d := range deltas {
		labels[i] = d.Name
		current[i] = d.Current
		previous[i] = d.Previous
	}
	writeJSON(w, http.StatusOK, chartData{
		Labels:   labels,
		Datasets: []chartDataset{dataset("This month", current), dataset("Last month", previous)},
	})
}

func (s *Server) handleAccountBalancesChart(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "chart-account-balances")
	defer release()

	ab, err := s.queries.AccountBalances(ctx)
	if s.failedJSON(w, r, ctx, err, "chart-account-balances") {
		return
	}

	f := parseFilter(r)
	out := chartData{Labels: make([]string, len(ab.Days))}
	for i, d := range ab.Days {
		out.Labels[i] = d.Day.String()
	}
	for _, a := range ab.Accounts {
		if f.HasAccounts() && !f.Selected(a.ID) {
			continue
		}
		data := make([]*float64, len(ab.Days))
		for i, d := range ab.Days {
			if v, ok := d.Balances[a.ID]; ok {
				data[i] = point(v)
			}
		}
		out.Datasets = append(out.Datasets, chartDataset{Label: accountName(a), Data: data})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSpendingTrendsChart(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "chart-spending-trends")
	defer release()

	a, err := s.queries.Analytics(ctx, parseFilter(r))
	if s.failedJSON(w, r, ctx, err, "chart-spending-trends") {
		return
	}
	writeJSON(w, http.StatusOK, monthChart(a.Monthly, true))
}

func (s *Server) handleKindChart(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown transaction kind"})
		return
	}

	view := "chart-" + string(kind)
	ctx, release := s.view(r, view)
	defer release()

	summary, err := s.queries.KindBreakdown(ctx, kind, s.now())
	if s.failedJSON(w, r, ctx, err, view) {
		return
	}
	writeJSON(w, http.StatusOK, categoryChart(kind.Title(), summary.Categories))
}
