// Package queries exposes one fetch function per dashboard view. Each function
// reads through the store ports and caches its result under a query name and
// the parameters that shaped it.
package queries

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"vye/internal/analytics"
	"vye/internal/cache"
	"vye/internal/core"
	"vye/internal/store"
)

// Query names, used as cache key prefixes and invalidation targets.
const (
	FilteredOperationsQuery = "filtered-operations"
	OperationsQuery         = "operations"
	RecentTransactionsQuery = "recent-transactions"
	TransactionsQuery       = "transactions"
	AccountsQuery           = "accounts"
	AccountsBalanceQuery    = "accounts-balance"
	MonthlyAnalyticsQuery   = "monthly-analytics"
	IncomeExpensesQuery     = "income-expenses"
	ExpensesByCategoryQuery = "expenses-by-category"
	CategorySpendingQuery   = "category-spending-comparison"
	BalanceSeriesQuery      = "balance-series"
	AverageBalanceQuery     = "average-balance"
	AccountBalancesQuery    = "account-balances"
	UncategorizedQuery      = "uncategorized-operations"
	CategoriesQuery         = "categories"
	DialogTransactionsQuery = "dialog-transactions"
	TransactionsChartQuery  = "transactions-chart"
)

// View sizes.
const (
	OperationsLimit       = 100
	RecentLimit           = 5
	TransactionsLimit     = 50
	UncategorizedLimit    = 50
	TopExpenseCategories  = 5
	TopBreakdown          = 6
	TopCategoryComparison = 8
	IncomeExpensesMonths  = 6
)

// CategoryLabelQueries are the queries whose results show category labels and
// must be refreshed after a categorization.
var CategoryLabelQueries = []string{
	UncategorizedQuery,
	FilteredOperationsQuery,
	OperationsQuery,
	RecentTransactionsQuery,
	TransactionsQuery,
	ExpensesByCategoryQuery,
	CategorySpendingQuery,
	DialogTransactionsQuery,
	TransactionsChartQuery,
}

type Service struct {
	store store.Reader
	cache *cache.Client
}

func New(r store.Reader, c *cache.Client) *Service {
	if c == nil {
		c = cache.NewClient(cache.ClientConfig{})
	}
	return &Service{store: r, cache: c}
}

// Cache returns the client used by the service, for invalidation.
func (s *Service) Cache() *cache.Client { return s.cache }

type filterParams struct {
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
	Accounts []string `json:"accounts,omitempty"`
}

func paramsOf(f core.Filter) filterParams {
	return filterParams{From: f.From.String(), To: f.To.String(), Accounts: f.Accounts()}
}

type monthParams struct {
	Month string `json:"month"`
}

type startParams struct {
	Start string `json:"start"`
}

type kindParams struct {
	Kind  core.Kind `json:"kind"`
	Month string    `json:"month"`
}

func (s *Service) operations(ctx context.Context, q store.OperationQuery) ([]core.Operation, error) {
	return s.store.ListOperations(ctx, q)
}

// FilteredOperations returns every operation matching the filter, newest first.
func (s *Service) FilteredOperations(ctx context.Context, f core.Filter) ([]core.Operation, error) {
	return cache.Fetch(ctx, s.cache, FilteredOperationsQuery, paramsOf(f), func(ctx context.Context) ([]core.Operation, error) {
		return s.operations(ctx, store.OperationQuery{
			From:         f.From,
			To:           f.To,
			AccountIDs:   f.Accounts(),
			WithAccount:  true,
			WithCategory: true,
		})
	})
}

// Operations returns the latest operations regardless of filter.
func (s *Service) Operations(ctx context.Context) ([]core.Operation, error) {
	return cache.Fetch(ctx, s.cache, OperationsQuery, nil, func(ctx context.Context) ([]core.Operation, error) {
		return s.operations(ctx, store.OperationQuery{WithAccount: true, WithCategory: true, Limit: OperationsLimit})
	})
}

func (s *Service) RecentTransactions(ctx context.Context) ([]core.Operation, error) {
	return cache.Fetch(ctx, s.cache, RecentTransactionsQuery, nil, func(ctx context.Context) ([]core.Operation, error) {
		return s.operations(ctx, store.OperationQuery{
			RequireAmount: true,
			WithAccount:   true,
			WithCategory:  true,
			Limit:         RecentLimit,
		})
	})
}

// Transactions is the transactions page list.
func (s *Service) Transactions(ctx context.Context, f core.Filter) ([]core.Operation, error) {
	return cache.Fetch(ctx, s.cache, TransactionsQuery, paramsOf(f), func(ctx context.Context) ([]core.Operation, error) {
		return s.operations(ctx, store.OperationQuery{
			From:          f.From,
			To:            f.To,
			AccountIDs:    f.Accounts(),
			RequireAmount: true,
			WithAccount:   true,
			WithCategory:  true,
			Limit:         TransactionsLimit,
		})
	})
}

func (s *Service) Accounts(ctx context.Context) ([]core.Account, error) {
	return cache.Fetch(ctx, s.cache, AccountsQuery, nil, s.store.ListAccounts)
}

// AccountsBalance is the sum of every account balance.
func (s *Service) AccountsBalance(ctx context.Context) (decimal.Decimal, error) {
	return cache.Fetch(ctx, s.cache, AccountsBalanceQuery, nil, func(ctx context.Context) (decimal.Decimal, error) {
		accounts, err := s.store.ListAccounts(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		return analytics.TotalBalance(accounts), nil
	})
}

// MonthlyAnalytics compares the month containing now with the one before.
func (s *Service) MonthlyAnalytics(ctx context.Context, now time.Time) (analytics.MonthlyOverview, error) {
	cur := core.MonthOf(now)
	prev := cur.Previous()
	return cache.Fetch(ctx, s.cache, MonthlyAnalyticsQuery, monthParams{Month: cur.Key()}, func(ctx context.Context) (analytics.MonthlyOverview, error) {
		accounts, err := s.store.ListAccounts(ctx)
		if err != nil {
			return analytics.MonthlyOverview{}, err
		}
		ops, err := s.operations(ctx, store.OperationQuery{From: prev.Start(), To: cur.End(), RequireAmount: true})
		if err != nil {
			return analytics.MonthlyOverview{}, err
		}
		var current, previous []core.Operation
		for _, op := range ops {
			switch {
			case cur.Contains(op.Date):
				current = append(current, op)
			case prev.Contains(op.Date):
				previous = append(previous, op)
			}
		}
		return analytics.MonthlyOverview{
			TotalBalance: analytics.TotalBalance(accounts),
			Comparison:   analytics.Compare(current, previous),
		}, nil
	})
}

// IncomeExpenses returns one bucket per month for the last six months, oldest first.
func (s *Service) IncomeExpenses(ctx context.Context, now time.Time) ([]analytics.MonthBucket, error) {
	cur := core.MonthOf(now)
	first := cur.Add(-(IncomeExpensesMonths - 1))
	return cache.Fetch(ctx, s.cache, IncomeExpensesQuery, monthParams{Month: cur.Key()}, func(ctx context.Context) ([]analytics.MonthBucket, error) {
		ops, err := s.operations(ctx, store.OperationQuery{From: first.Start(), To: cur.End(), RequireAmount: true, Ascending: true})
		if err != nil {
			return nil, err
		}
		return analytics.FillMonths(analytics.MonthlySeries(ops), first, cur), nil
	})
}

func (s *Service) ExpensesByCategory(ctx context.Context) ([]analytics.CategoryAmount, error) {
	return cache.Fetch(ctx, s.cache, ExpensesByCategoryQuery, nil, func(ctx context.Context) ([]analytics.CategoryAmount, error) {
		ops, err := s.operations(ctx, store.OperationQuery{Sign: store.Negative, RequireCategory: true, WithCategory: true})
		if err != nil {
			return nil, err
		}
		return analytics.Top(analytics.CategoryTotals(ops), TopExpenseCategories), nil
	})
}

// CategorySpending compares expenses per category between the current and previous month.
func (s *Service) CategorySpending(ctx context.Context, now time.Time) ([]analytics.CategoryDelta, error) {
	cur := core.MonthOf(now)
	prev := cur.Previous()
	return cache.Fetch(ctx, s.cache, CategorySpendingQuery, monthParams{Month: cur.Key()}, func(ctx context.Context) ([]analytics.CategoryDelta, error) {
		ops, err := s.operations(ctx, store.OperationQuery{
			From:            prev.Start(),
			To:              cur.End(),
			Sign:            store.Negative,
			RequireCategory: true,
			WithCategory:    true,
		})
		if err != nil {
			return nil, err
		}
		return analytics.TopDeltas(analytics.CategoryComparison(ops, cur, prev), TopCategoryComparison), nil
	})
}

// BalanceSeries returns each account's daily balance from start on.
func (s *Service) BalanceSeries(ctx context.Context, start core.Date) ([]core.BalancePoint, error) {
	return cache.Fetch(ctx, s.cache, BalanceSeriesQuery, startParams{Start: start.String()}, func(ctx context.Context) ([]core.BalancePoint, error) {
		return s.store.BalanceSeries(ctx, start)
	})
}

func (s *Service) AverageBalance(ctx context.Context, accountID string, from, to core.Date) ([]core.AverageBalance, error) {
	params := filterParams{From: from.String(), To: to.String(), Accounts: []string{accountID}}
	return cache.Fetch(ctx, s.cache, AverageBalanceQuery, params, func(ctx context.Context) ([]core.AverageBalance, error) {
		return s.store.AverageBalance(ctx, accountID, from, to)
	})
}

// AccountBalances pairs the account list with the day-by-day balance pivot.
type AccountBalances struct {
	Accounts []core.Account
	Days     []analytics.DateBalances
}

func (s *Service) AccountBalances(ctx context.Context) (AccountBalances, error) {
	return cache.Fetch(ctx, s.cache, AccountBalancesQuery, nil, func(ctx context.Context) (AccountBalances, error) {
		accounts, err := s.store.ListAccounts(ctx)
		if err != nil {
			return AccountBalances{}, err
		}
		history, err := s.store.ListBalanceHistory(ctx)
		if err != nil {
			return AccountBalances{}, err
		}
		return AccountBalances{Accounts: accounts, Days: analytics.PivotBalances(history)}, nil
	})
}

// UncategorizedOperations lists operations the automatic categorizer left as uncategorized.
func (s *Service) UncategorizedOperations(ctx context.Context) ([]core.Operation, error) {
	return cache.Fetch(ctx, s.cache, UncategorizedQuery, nil, func(ctx context.Context) ([]core.Operation, error) {
		return s.operations(ctx, store.OperationQuery{
			AutomaticCategory: store.UncategorizedCode,
			RequireAmount:     true,
			WithAccount:       true,
			WithCategory:      true,
			Limit:             UncategorizedLimit,
		})
	})
}

func (s *Service) Categories(ctx context.Context) ([]core.Category, error) {
	return cache.Fetch(ctx, s.cache, CategoriesQuery, nil, s.store.ListCategories)
}

// KindTransactions lists this month's income or expense operations.
func (s *Service) KindTransactions(ctx context.Context, kind core.Kind, now time.Time) ([]core.Operation, error) {
	cur := core.MonthOf(now)
	return cache.Fetch(ctx, s.cache, DialogTransactionsQuery, kindParams{Kind: kind, Month: cur.Key()}, func(ctx context.Context) ([]core.Operation, error) {
		return s.kindOperations(ctx, kind, cur)
	})
}

// KindBreakdown summarizes this month's income or expenses by category.
func (s *Service) KindBreakdown(ctx context.Context, kind core.Kind, now time.Time) (analytics.KindSummary, error) {
	cur := core.MonthOf(now)
	return cache.Fetch(ctx, s.cache, TransactionsChartQuery, kindParams{Kind: kind, Month: cur.Key()}, func(ctx context.Context) (analytics.KindSummary, error) {
		ops, err := s.kindOperations(ctx, kind, cur)
		if err != nil {
			return analytics.KindSummary{}, err
		}
		return analytics.SummarizeKind(ops, kind, TopBreakdown), nil
	})
}

func (s *Service) kindOperations(ctx context.Context, kind core.Kind, m core.Month) ([]core.Operation, error) {
	sign := store.Positive
	if kind == core.KindExpenses {
		sign = store.Negative
	}
	return s.operations(ctx, store.OperationQuery{
		From:          m.Start(),
		To:            m.End(),
		Sign:          sign,
		RequireAmount: true,
		WithAccount:   true,
		WithCategory:  true,
	})
}

// Analytics is the analytics page panel: metrics and monthly trend over the
// filtered operations.
type Analytics struct {
	Metrics analytics.Metrics
	Monthly []analytics.MonthBucket
}

func (s *Service) Analytics(ctx context.Context, f core.Filter) (Analytics, error) {
	ops, err := s.FilteredOperations(ctx, f)
	if err != nil {
		return Analytics{}, err
	}
	return Analytics{Metrics: analytics.Summarize(ops), Monthly: analytics.MonthlySeries(ops)}, nil
}
