package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vye/internal/core"
	"vye/internal/store"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
	header http.Header
}

func fakeServer(t *testing.T, status int, response string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			body:   string(body),
			header: r.Header.Clone(),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestListAccounts(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `[
		{"cozy_doc_id":"acc-1","cozy_label":"Main","cozy_account_type":"Checkings","cozy_balance":"1200.50","cozy_iban":null},
		{"cozy_doc_id":"acc-2","cozy_label":"Savings","cozy_account_type":"weird","cozy_balance":null},
		{"cozy_doc_id":"acc-3","cozy_label":"Card","cozy_account_type":"CreditCard","cozy_balance":-42.1}
	]`)
	s := NewStore(newTestClient(t, srv.URL), nil)

	accounts, err := s.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 3 {
		t.Fatalf("got %d accounts", len(accounts))
	}
	if !accounts[0].Balance.Valid || accounts[0].Balance.Decimal.String() != "1200.5" {
		t.Fatalf("balance = %v", accounts[0].Balance)
	}
	if accounts[1].Type != core.AccountNone || accounts[1].Balance.Valid {
		t.Fatalf("second account = %+v", accounts[1])
	}
	if accounts[2].Balance.Decimal.String() != "-42.1" {
		t.Fatalf("numeric balance = %v", accounts[2].Balance)
	}

	c := (*calls)[0]
	if c.method != http.MethodGet || c.path != "/rest/v1/cozy_bank_accounts" {
		t.Fatalf("unexpected request %s %s", c.method, c.path)
	}
	if c.header.Get("apikey") != "anon-key" || c.header.Get("Authorization") != "Bearer anon-key" {
		t.Fatalf("missing auth headers: %v", c.header)
	}
	if c.header.Get("Accept-Profile") != "vye" {
		t.Fatalf("missing schema header")
	}
	if !strings.Contains(c.query, "order=cozy_label.asc") {
		t.Fatalf("query = %s", c.query)
	}
}

func TestListOperationsDecodesJoins(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `[
		{"id":7,"cozy_account_id":"acc-1","cozy_amount":-40,"cozy_realisation_date":"2025-02-10T00:00:00",
		 "cozy_label":"Groceries","cozy_category_id":"400100","cozy_automatic_category_id":"400100",
		 "cozy_bank_accounts":{"cozy_doc_id":"acc-1","cozy_label":"Main","cozy_account_type":"Checkings"},
		 "cozy_operation_categories":{"id":1,"code":"400100","label":"food","fr_traduction":"Alimentation"}},
		{"id":8,"cozy_amount":null,"cozy_realisation_date":null,"cozy_bank_accounts":null,"cozy_operation_categories":null}
	]`)
	s := NewStore(newTestClient(t, srv.URL), nil)

	ops, err := s.ListOperations(context.Background(), store.OperationQuery{
		From:            core.NewDate(2025, 2, 1),
		AccountIDs:      []string{"acc-1"},
		Sign:            store.Negative,
		RequireCategory: true,
		WithAccount:     true,
		WithCategory:    true,
		Limit:           5,
	})
	if err != nil {
		t.Fatalf("list operations: %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("got %d operations", len(ops))
	}
	first := ops[0]
	if first.Account == nil || first.Account.Label != "Main" {
		t.Fatalf("account join = %+v", first.Account)
	}
	if first.CategoryName("Other") != "Alimentation" {
		t.Fatalf("category = %+v", first.Category)
	}
	if first.Date.String() != "2025-02-10" || !first.IsExpense() {
		t.Fatalf("first = %+v", first)
	}
	second := ops[1]
	if second.HasAmount() || !second.Date.IsZero() || second.Account != nil || second.Category != nil {
		t.Fatalf("second should have absent fields: %+v", second)
	}

	q := (*calls)[0].query
	for _, want := range []string{
		"cozy_realisation_date=gte.2025-02-01",
		"cozy_account_id=in.%28acc-1%29",
		"cozy_amount=lt.0",
		"cozy_category_id=not.is.null",
		"limit=5",
		"order=cozy_realisation_date.desc",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}

func TestSetOperationCategory(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `[{"id":42}]`)
	s := NewStore(newTestClient(t, srv.URL), nil)

	if err := s.SetOperationCategory(context.Background(), 42, "400100"); err != nil {
		t.Fatalf("set category: %v", err)
	}
	c := (*calls)[0]
	if c.method != http.MethodPatch || c.query != "id=eq.42&select=id" {
		t.Fatalf("unexpected request %s %s?%s", c.method, c.path, c.query)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(c.body), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["cozy_category_id"] != "400100" {
		t.Fatalf("body = %v", body)
	}
	if c.header.Get("Content-Profile") != "vye" || c.header.Get("Prefer") != "return=representation" {
		t.Fatalf("unexpected headers: %v", c.header)
	}
}

func TestSetOperationCategoryNotFound(t *testing.T) {
	srv, _ := fakeServer(t, http.StatusOK, `[]`)
	s := NewStore(newTestClient(t, srv.URL), nil)

	err := s.SetOperationCategory(context.Background(), 404, "400100")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRPCBalanceSeries(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `[
		{"account_id":"acc-1","account_label":"Main","balance_date":"2025-01-01","balance":100.5}
	]`)
	s := NewStore(newTestClient(t, srv.URL), nil)

	pts, err := s.BalanceSeries(context.Background(), core.NewDate(2025, 1, 1))
	if err != nil {
		t.Fatalf("balance series: %v", err)
	}
	if len(pts) != 1 || pts[0].AccountLabel != "Main" || pts[0].Balance.String() != "100.5" {
		t.Fatalf("got %+v", pts)
	}
	c := (*calls)[0]
	if c.method != http.MethodPost || c.path != "/rest/v1/rpc/get_balance_series" {
		t.Fatalf("unexpected request %s %s", c.method, c.path)
	}
	if !strings.Contains(c.body, `"start_date":"2025-01-01"`) {
		t.Fatalf("body = %s", c.body)
	}
}

func TestRPCAverageBalanceArgs(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusOK, `[{"interval_type":"month","interval_start":"2025-01-01","avg_balance":"250.25"}]`)
	s := NewStore(newTestClient(t, srv.URL), nil)

	rows, err := s.AverageBalance(context.Background(), "acc-1", core.NewDate(2025, 1, 1), core.NewDate(2025, 3, 31))
	if err != nil {
		t.Fatalf("average balance: %v", err)
	}
	if len(rows) != 1 || rows[0].IntervalType != "month" || rows[0].AvgBalance.String() != "250.25" {
		t.Fatalf("got %+v", rows)
	}
	body := (*calls)[0].body
	for _, want := range []string{`"p_cozy_account_id":"acc-1"`, `"p_start_date":"2025-01-01"`, `"p_end_date":"2025-03-31"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body %s missing %s", body, want)
		}
	}
}

func TestErrorResponse(t *testing.T) {
	srv, _ := fakeServer(t, http.StatusBadRequest, `{"message":"column does not exist","code":"42703","details":null,"hint":"check the name"}`)
	s := NewStore(newTestClient(t, srv.URL), nil)

	_, err := s.ListCategories(context.Background())
	var pgErr *Error
	if !errors.As(err, &pgErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if pgErr.Status != http.StatusBadRequest || pgErr.Code != "42703" || pgErr.Hint != "check the name" {
		t.Fatalf("got %+v", pgErr)
	}
	if pgErr.Temporary() {
		t.Fatalf("400 must not be temporary")
	}
}

func TestUnfilteredUpdateRefused(t *testing.T) {
	srv, calls := fakeServer(t, http.StatusNoContent, "")
	c := newTestClient(t, srv.URL)
	if err := c.From("cozy_bank_operations").Update(context.Background(), categoryUpdate{CategoryID: "1"}, nil); err == nil {
		t.Fatalf("expected error")
	}
	if len(*calls) != 0 {
		t.Fatalf("no request should be sent")
	}
}
