package http

import (
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"vye/internal/analytics"
	"vye/internal/core"
	"vye/internal/log"
)

// activityLimit bounds the accounts page recent activity list.
const activityLimit = 10

// averageBalanceMonths is the default window of the average balance panel.
const averageBalanceMonths = 3

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "summary")
	defer release()

	overview, err := s.queries.MonthlyAnalytics(ctx, s.now())
	if s.failed(w, r, ctx, err, "summary", "Failed to load summary") {
		return
	}
	s.render(w, r, "summary_cards", overview)
}

func (s *Server) handleAccountCards(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "account-cards")
	defer release()

	accounts, err := s.queries.Accounts(ctx)
	if s.failed(w, r, ctx, err, "account-cards", "Failed to load accounts") {
		return
	}
	s.render(w, r, "account_cards", map[string]any{
		"Accounts": accounts,
		"Filter":   parseFilter(r),
		"Total":    analytics.TotalBalance(accounts),
	})
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "recent")
	defer release()

	ops, err := s.queries.RecentTransactions(ctx)
	if s.failed(w, r, ctx, err, "recent", "Failed to load recent transactions") {
		return
	}
	s.render(w, r, "recent_transactions", ops)
}

// tableData feeds transaction_table.
type tableData struct {
	Title      string
	Operations []core.Operation
	Totals     analytics.Totals
	Empty      string
}

// handleTransactions lists the filtered transactions with their totals.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "transactions")
	defer release()

	f := parseFilter(r)
	ops, err := s.queries.Transactions(ctx, f)
	if s.failed(w, r, ctx, err, "transactions", "Failed to load transactions") {
		return
	}
	fields := log.NewFields().WithFilter(f.From.String(), f.To.String(), f.Accounts())
	fields[log.FieldCount] = len(ops)
	s.logger.DebugContext(r.Context(), "Transactions loaded", fields.ToSlice()...)
	s.render(w, r, "transaction_table", tableData{
		Title:      "Transactions",
		Operations: ops,
		Totals:     analytics.Split(ops),
		Empty:      "No transactions match the current filters",
	})
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "operations")
	defer release()

	ops, err := s.queries.Operations(ctx)
	if s.failed(w, r, ctx, err, "operations", "Failed to load operations") {
		return
	}
	s.render(w, r, "transaction_table", tableData{
		Title:      "Latest operations",
		Operations: ops,
		Totals:     analytics.Split(ops),
		Empty:      "No operations yet",
	})
}

func (s *Server) handleUncategorized(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "uncategorized")
	defer release()

	ops, err := s.queries.UncategorizedOperations(ctx)
	if s.failed(w, r, ctx, err, "uncategorized", "Failed to load uncategorized operations") {
		return
	}
	s.render(w, r, "uncategorized_table", ops)
}

// handleCategorizeModal renders the category picker for one operation.
func (s *Server) handleCategorizeModal(w http.ResponseWriter, r *http.Request) {
	id, err := parseOperationID(r)
	if err != nil {
		BadRequestError("Invalid operation id").Write(w)
		return
	}

	categories, err := s.queries.Categories(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to load categories", log.FieldOperationID, id, log.FieldError, err)
		s.renderPlaceholder(w, r, "categorize-modal", "Failed to load categories")
		return
	}
	s.render(w, r, "categorize_modal", map[string]any{
		"OperationID": id,
		"Categories":  categories,
	})
}

// handleKindDialog renders the income or expenses detail dialog. The list
// and the category breakdown load in parallel.
func (s *Server) handleKindDialog(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		BadRequestError("Unknown transaction kind").Write(w)
		return
	}

	view := "dialog-" + string(kind)
	ctx, release := s.view(r, view)
	defer release()

	now := s.now()
	var (
		ops     []core.Operation
		summary analytics.KindSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ops, err = s.queries.KindTransactions(gctx, kind, now)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = s.queries.KindBreakdown(gctx, kind, now)
		return err
	})
	if s.failed(w, r, ctx, g.Wait(), view, "Failed to load "+strings.ToLower(kind.Title())) {
		return
	}

	s.render(w, r, "kind_dialog", map[string]any{
		"Kind":       kind,
		"Title":      kind.Title(),
		"Month":      core.MonthOf(now).Label(),
		"Summary":    summary,
		"Operations": ops,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "analytics")
	defer release()

	a, err := s.queries.Analytics(ctx, parseFilter(r))
	if s.failed(w, r, ctx, err, "analytics", "Failed to load analytics") {
		return
	}
	s.render(w, r, "analytics_metrics", a.Metrics)
}

func (s *Server) handleAccountActivity(w http.ResponseWriter, r *http.Request) {
	ctx, release := s.view(r, "activity")
	defer release()

	ops, err := s.queries.Transactions(ctx, parseFilter(r))
	if s.failed(w, r, ctx, err, "activity", "Failed to load recent activity") {
		return
	}
	if len(ops) > activityLimit {
		ops = ops[:activityLimit]
	}
	s.render(w, r, "account_activity", ops)
}

// handleAverageBalance reports the average balance of one account over the
// requested range, the last three months by default.
func (s *Server) handleAverageBalance(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.PathValue("id"))
	if accountID == "" {
		BadRequestError("Missing account id").Write(w)
		return
	}

	f := parseFilter(r)
	to := f.To
	if to.IsZero() {
		to = core.DateOf(s.now())
	}
	from := f.From
	if from.IsZero() {
		from = core.Date{Time: to.AddDate(0, -averageBalanceMonths, 0)}
	}

	view := "average-" + accountID
	ctx, release := s.view(r, view)
	defer release()

	rows, err := s.queries.AverageBalance(ctx, accountID, from, to)
	if s.failed(w, r, ctx, err, view, "Failed to load average balance") {
		return
	}
	s.render(w, r, "average_balance", map[string]any{
		"AccountID": accountID,
		"From":      from,
		"To":        to,
		"Rows":      rows,
	})
}
