package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"vye/internal/cache"
	"vye/internal/categorize"
	"vye/internal/core"
	"vye/internal/log"
	"vye/internal/middleware/trace"
	"vye/internal/queries"
	"vye/internal/store"
)

// fakeStore is an in-memory store.Store.
type fakeStore struct {
	mu          sync.Mutex
	accounts    []core.Account
	operations  []core.Operation
	categories  []core.Category
	readErr     error
	writeErr    error
	pingErr     error
	calls       map[string]int
	categorized map[int64]string
}

func (f *fakeStore) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeStore) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeStore) ListAccounts(ctx context.Context) ([]core.Account, error) {
	f.record("accounts")
	return f.accounts, f.readErr
}

func (f *fakeStore) ListOperations(ctx context.Context, q store.OperationQuery) ([]core.Operation, error) {
	f.record("operations")
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []core.Operation
	for _, op := range f.operations {
		if !q.From.IsZero() && (op.Date.IsZero() || op.Date.Before(q.From.Time)) {
			continue
		}
		if !q.To.IsZero() && (op.Date.IsZero() || op.Date.After(q.To.Time)) {
			continue
		}
		if q.Sign == store.Negative && !op.IsExpense() {
			continue
		}
		if q.Sign == store.Positive && !op.IsIncome() {
			continue
		}
		if q.RequireAmount && !op.HasAmount() {
			continue
		}
		if q.RequireCategory && op.CategoryCode == "" {
			continue
		}
		if q.AutomaticCategory != "" && op.AutomaticCategoryCode != q.AutomaticCategory {
			continue
		}
		out = append(out, op)
	}
	return out, nil
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]core.Category, error) {
	f.record("categories")
	return f.categories, f.readErr
}

func (f *fakeStore) ListBalanceHistory(ctx context.Context) ([]core.BalanceHistory, error) {
	f.record("history")
	return []core.BalanceHistory{
		{AccountID: "acc-1", Day: core.NewDate(2025, 3, 1), Balance: decimal.NewFromInt(1000)},
		{AccountID: "acc-1", Day: core.NewDate(2025, 3, 2), Balance: decimal.NewFromInt(1100)},
	}, f.readErr
}

func (f *fakeStore) BalanceSeries(ctx context.Context, start core.Date) ([]core.BalancePoint, error) {
	f.record("balance-series")
	return []core.BalancePoint{
		{AccountID: "acc-1", AccountLabel: "Main", Date: core.NewDate(2025, 3, 1), Balance: decimal.NewFromInt(1000)},
		{AccountID: "acc-2", AccountLabel: "Savings", Date: core.NewDate(2025, 3, 2), Balance: decimal.NewFromInt(500)},
	}, f.readErr
}

func (f *fakeStore) AverageBalance(ctx context.Context, accountID string, from, to core.Date) ([]core.AverageBalance, error) {
	f.record("average-balance")
	return []core.AverageBalance{{IntervalType: "month", IntervalStart: from, AvgBalance: decimal.NewFromInt(900)}}, f.readErr
}

func (f *fakeStore) SetOperationCategory(ctx context.Context, id int64, code string) error {
	f.record("set-category")
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.categorized == nil {
		f.categorized = map[int64]string{}
	}
	f.categorized[id] = code
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeStore) Close() error                   { return nil }

var (
	testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	food    = &core.Category{Code: "400100", Label: "food", Translation: "Alimentation"}
	mainAcc = &core.Account{ID: "acc-1", Label: "Main", Type: core.AccountCheckings, Balance: core.Amount("1234.5")}
)

func newFixtureStore() *fakeStore {
	return &fakeStore{
		accounts:   []core.Account{*mainAcc},
		categories: []core.Category{*food},
		operations: []core.Operation{
			{ID: 1, AccountID: "acc-1", Amount: core.Amount("100"), Date: core.NewDate(2025, 3, 2), Label: "Salary", AutomaticCategoryCode: "200110", Account: mainAcc},
			{ID: 2, AccountID: "acc-1", Amount: core.Amount("-40"), Date: core.NewDate(2025, 3, 5), Label: "Groceries", CategoryCode: food.Code, Category: food, Account: mainAcc},
			{ID: 3, AccountID: "acc-1", Amount: core.Amount("-12.5"), Date: core.NewDate(2025, 3, 6), Label: "Mystery", AutomaticCategoryCode: store.UncategorizedCode, Account: mainAcc},
			{ID: 4, AccountID: "acc-1", Amount: core.Amount("50"), Date: core.NewDate(2025, 2, 10), Label: "Refund", Account: mainAcc},
		},
	}
}

func newTestServer(t *testing.T, st *fakeStore) *Server {
	t.Helper()
	logger := log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
	c := cache.NewClient(cache.ClientConfig{TTL: time.Minute})
	q := queries.New(st, c)
	cat := categorize.New(st, c, queries.CategoryLabelQueries)
	s := NewServer(":0", Deps{
		Queries:     q,
		Categorizer: cat,
		Store:       st,
		Logger:      logger,
		Now:         func() time.Time { return testNow },
	})
	if s.templates == nil {
		t.Fatal("templates failed to parse")
	}
	t.Cleanup(func() { s.limiter.Stop() })
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, newFixtureStore())
	w := get(t, s, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if w.Header().Get(trace.HeaderRequestID) == "" {
		t.Error("request id header missing")
	}
}

func TestReadyz(t *testing.T) {
	st := newFixtureStore()
	s := newTestServer(t, st)

	if w := get(t, s, "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("/readyz status = %d, body %s", w.Code, w.Body.String())
	}

	st.pingErr = errors.New("connection refused")
	w := get(t, s, "/readyz")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("/readyz with failing store status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not_ready") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, newFixtureStore())
	get(t, s, "/healthz")
	w := get(t, s, "/metrics")
	for _, name := range []string{"http_requests_total", "cache_entries", "rate_limit_hits_total", "suspicious_requests_total"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("metrics missing %s", name)
		}
	}
}

func TestPagesRender(t *testing.T) {
	s := newTestServer(t, newFixtureStore())
	tests := []struct {
		path  string
		title string
		want  string
	}{
		{"/", "Overview", `hx-get="/ui/summary"`},
		{"/transactions?account=acc-1", "Transactions", `hx-get="/ui/transactions?account=acc-1"`},
		{"/analytics", "Analytics", `data-chart="/api/charts/category-spending"`},
		{"/accounts", "Accounts", `hx-get="/ui/activity?`},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			w := get(t, s, tt.path)
			if w.Code != http.StatusOK {
				t.Fatalf("%s status = %d", tt.path, w.Code)
			}
			body := w.Body.String()
			if !strings.Contains(body, "<title>"+tt.title) {
				t.Errorf("%s missing title %q", tt.path, tt.title)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("%s missing %s", tt.path, tt.want)
			}
		})
	}
}

func TestUnknownPathIs404(t *testing.T) {
	s := newTestServer(t, newFixtureStore())
	if w := get(t, s, "/nope"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSummaryPartial(t *testing.T) {
	s := newTestServer(t, newFixtureStore())
	w := get(t, s, "/ui/summary")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"€1234.50", "€100.00", "€52.50", "100.0% vs last month", "change--up"} {
		if !strings.Contains(body, want) {
			t.Errorf("summary missing %q:\n%s", want, body)
		}
	}
}

func TestPartialFailureRendersPlaceholder(t *testing.T) {
	st := newFixtureStore()
	st.readErr = errors.New("store down")
	s := newTestServer(t, st)

	w := get(t, s, "/ui/accounts")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `placeholder error`) || !strings.Contains(w.Body.String(), "Failed to load accounts") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestTransactionsPartial(t *testing.T) {
	s := newTestServer(t, newFixtureStore())
	w := get(t, s, "/ui/transactions?from=2025-03-01&to=2025-03-31")
	body := w.Body.String()
	for _, want := range []string{"Groceries", "Alimentation", "Uncategorized", "-€40.00", "Mar 5, 2025", "Main"} {
		if !strings.Contains(body, want) {
			t.Errorf("transactions missing %q", want)
		}
	}
	if strings.Contains(body, "Refund") {
		t.Error("operation outside the date range was listed")
	}
}

func TestKindDialog(t *testing.T) {
	s := newTestServer(t, newFixtureStore())

	w := get(t, s, "/ui/dialog/expenses")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Expenses · Mar 2025") || !strings.Contains(body, "Groceries") {
		t.Errorf("dialog body = %s", body)
	}
	if strings.Contains(body, "Salary") {
		t.Error("income listed in the expenses dialog")
	}

	if w := get(t, s, "/ui/dialog/transfers"); w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", w.Code)
	}
}

func TestCharts(t *testing.T) {
	s := newTestServer(t, newFixtureStore())

	t.Run("expenses by category", func(t *testing.T) {
		w := get(t, s, "/api/charts/expenses-by-category")
		var data chartData
		if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(data.Labels) != 1 || data.Labels[0] != "Alimentation" {
			t.Errorf("labels = %v", data.Labels)
		}
		if len(data.Datasets) != 1 || *data.Datasets[0].Data[0] != 40 {
			t.Errorf("datasets = %+v", data.Datasets)
		}
	})

	t.Run("balance series has a gap per missing day", func(t *testing.T) {
		w := get(t, s, "/api/charts/balance")
		var data chartData
		if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(data.Labels) != 2 || len(data.Datasets) != 2 {
			t.Fatalf("chart = %+v", data)
		}
		if data.Datasets[0].Data[1] != nil || data.Datasets[1].Data[0] != nil {
			t.Error("missing days should be null points")
		}
	})

	t.Run("income expenses covers six months", func(t *testing.T) {
		w := get(t, s, "/api/charts/income-expenses")
		var data chartData
		if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(data.Labels) != 6 || data.Labels[5] != "Mar 2025" {
			t.Errorf("labels = %v", data.Labels)
		}
	})
}

func TestChartFailureIsJSON(t *testing.T) {
	st := newFixtureStore()
	st.readErr = errors.New("store down")
	s := newTestServer(t, st)

	w := get(t, s, "/api/charts/expenses-by-category")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func postCategory(t *testing.T, s *Server, id, code string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"category_code": {code}}
	req := httptest.NewRequest(http.MethodPost, "/operations/"+id+"/category", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}

func TestCategorizeSuccess(t *testing.T) {
	st := newFixtureStore()
	s := newTestServer(t, st)

	get(t, s, "/ui/uncategorized")
	loads := st.count("operations")

	w := postCategory(t, s, "3", food.Code)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	trigger := w.Header().Get("HX-Trigger")
	for _, want := range []string{"modal:close", "uncategorized:refresh", "operations:refresh", `"type":"success"`, categorize.SuccessMessage} {
		if !strings.Contains(trigger, want) {
			t.Errorf("HX-Trigger missing %q: %s", want, trigger)
		}
	}
	if st.categorized[3] != food.Code {
		t.Errorf("store categorized = %v", st.categorized)
	}

	get(t, s, "/ui/uncategorized")
	if st.count("operations") != loads+1 {
		t.Error("uncategorized list was not refetched after a successful categorization")
	}
}

func TestCategorizeFailure(t *testing.T) {
	st := newFixtureStore()
	st.writeErr = errors.New("permission denied")
	s := newTestServer(t, st)

	before := get(t, s, "/ui/uncategorized").Body.String()
	loads := st.count("operations")

	w := postCategory(t, s, "3", food.Code)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	trigger := w.Header().Get("HX-Trigger")
	if strings.Count(trigger, "show-notification") != 1 || !strings.Contains(trigger, categorize.FailureMessage) {
		t.Errorf("HX-Trigger = %s", trigger)
	}
	if strings.Contains(trigger, "modal:close") || strings.Contains(trigger, "uncategorized:refresh") {
		t.Errorf("failure must not refresh views: %s", trigger)
	}

	after := get(t, s, "/ui/uncategorized").Body.String()
	if st.count("operations") != loads {
		t.Error("cache was invalidated after a failed categorization")
	}
	if after != before {
		t.Error("uncategorized list changed after a failed categorization")
	}
}

func TestCategorizeValidation(t *testing.T) {
	st := newFixtureStore()
	s := newTestServer(t, st)

	tests := []struct {
		name, id, code string
		want           int
	}{
		{"empty category", "3", "  ", http.StatusUnprocessableEntity},
		{"bad id", "abc", food.Code, http.StatusUnprocessableEntity},
		{"zero id", "0", food.Code, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postCategory(t, s, tt.id, tt.code)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if !strings.Contains(w.Header().Get("HX-Trigger"), `"type":"error"`) {
				t.Error("expected an error notification")
			}
		})
	}
	if st.count("set-category") != 0 {
		t.Error("invalid requests reached the store")
	}
}

func TestCategorizeModal(t *testing.T) {
	s := newTestServer(t, newFixtureStore())
	w := get(t, s, "/ui/operations/3/categorize")
	body := w.Body.String()
	if !strings.Contains(body, `hx-post="/operations/3/category"`) || !strings.Contains(body, "Alimentation") {
		t.Errorf("modal = %s", body)
	}
}

func TestAverageBalanceDefaultsToThreeMonths(t *testing.T) {
	s := newTestServer(t, newFixtureStore())
	w := get(t, s, "/ui/accounts/acc-1/average")
	body := w.Body.String()
	if !strings.Contains(body, "2024-12-15") || !strings.Contains(body, "€900.00") {
		t.Errorf("average = %s", body)
	}
}
