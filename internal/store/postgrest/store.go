package postgrest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vye/internal/core"
	"vye/internal/store"
)

const (
	colRealisationDate = "cozy_realisation_date"
	colAmount          = "cozy_amount"
	colAccountID       = "cozy_account_id"
	colCategoryID      = "cozy_category_id"
	colAutoCategoryID  = "cozy_automatic_category_id"
)

// Store implements the store ports over PostgREST.
type Store struct {
	client *Client
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore wraps a client. A nil logger uses slog.Default.
func NewStore(client *Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	var rows []accountRow
	err := s.client.From(tableAccounts).
		Select("*").
		Order("cozy_label", true).
		Execute(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *Store) ListOperations(ctx context.Context, oq store.OperationQuery) ([]core.Operation, error) {
	var rows []operationRow
	if err := s.operationsQuery(oq).Execute(ctx, &rows); err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	out := make([]core.Operation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	s.logger.DebugContext(ctx, "Listed operations", "count", len(out), "limit", oq.Limit)
	return out, nil
}

func (s *Store) operationsQuery(oq store.OperationQuery) *Query {
	sel := []string{"*"}
	if oq.WithAccount {
		sel = append(sel, accountJoin)
	}
	if oq.WithCategory {
		sel = append(sel, categoryJoin)
	}
	q := s.client.From(tableOperations).Select(strings.Join(sel, ","))

	if !oq.From.IsZero() {
		q.Gte(colRealisationDate, oq.From.String())
	}
	if !oq.To.IsZero() {
		q.Lte(colRealisationDate, oq.To.String())
	}
	if len(oq.AccountIDs) > 0 {
		q.In(colAccountID, oq.AccountIDs)
	}
	switch oq.Sign {
	case store.Negative:
		q.Lt(colAmount, "0")
	case store.Positive:
		q.Gt(colAmount, "0")
	}
	if oq.RequireAmount && oq.Sign == store.AnySign {
		q.NotNull(colAmount)
	}
	if oq.RequireCategory {
		q.NotNull(colCategoryID)
	}
	if oq.AutomaticCategory != "" {
		q.Eq(colAutoCategoryID, oq.AutomaticCategory)
	}
	return q.Order(colRealisationDate, oq.Ascending).Limit(oq.Limit)
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	var rows []categoryRow
	err := s.client.From(tableCategories).
		Select("*").
		Order("fr_traduction", true).
		Execute(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCore())
	}
	return out, nil
}

func (s *Store) ListBalanceHistory(ctx context.Context) ([]core.BalanceHistory, error) {
	var rows []historyRow
	err := s.client.From(tableHistory).
		Select("cozy_account_id,day,balance").
		Order("day", true).
		Execute(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list balance history: %w", err)
	}
	out := make([]core.BalanceHistory, 0, len(rows))
	for _, r := range rows {
		day, err := core.ParseDate(r.Day)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping balance history row", "day", r.Day, "error", err)
			continue
		}
		out = append(out, core.BalanceHistory{AccountID: deref(r.AccountID), Day: day, Balance: r.Balance})
	}
	return out, nil
}

func (s *Store) BalanceSeries(ctx context.Context, start core.Date) ([]core.BalancePoint, error) {
	var rows []balancePointRow
	if err := s.client.RPC(ctx, "get_balance_series", balanceSeriesArgs{StartDate: start.String()}, &rows); err != nil {
		return nil, fmt.Errorf("get balance series: %w", err)
	}
	out := make([]core.BalancePoint, 0, len(rows))
	for _, r := range rows {
		d, _ := core.ParseDate(r.BalanceDate)
		out = append(out, core.BalancePoint{
			AccountID:    r.AccountID,
			AccountLabel: deref(r.AccountLabel),
			Date:         d,
			Balance:      r.Balance,
		})
	}
	return out, nil
}

func (s *Store) AverageBalance(ctx context.Context, accountID string, from, to core.Date) ([]core.AverageBalance, error) {
	args := averageBalanceArgs{AccountID: accountID, StartDate: from.String(), EndDate: to.String()}
	var rows []averageBalanceRow
	if err := s.client.RPC(ctx, "get_average_balance", args, &rows); err != nil {
		return nil, fmt.Errorf("get average balance: %w", err)
	}
	out := make([]core.AverageBalance, 0, len(rows))
	for _, r := range rows {
		d, _ := core.ParseDate(r.IntervalStart)
		out = append(out, core.AverageBalance{IntervalType: r.IntervalType, IntervalStart: d, AvgBalance: r.AvgBalance})
	}
	return out, nil
}

func (s *Store) SetOperationCategory(ctx context.Context, operationID int64, categoryCode string) error {
	var updated []struct {
		ID int64 `json:"id"`
	}
	err := s.client.From(tableOperations).
		Select("id").
		Eq("id", formatID(operationID)).
		Update(ctx, categoryUpdate{CategoryID: categoryCode}, &updated)
	if err != nil {
		return fmt.Errorf("set operation category: %w", err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("set operation category %d: %w", operationID, store.ErrNotFound)
	}
	s.logger.InfoContext(ctx, "Operation category updated", "operation_id", operationID, "category_code", categoryCode)
	return nil
}

// Ping issues a minimal read to check reachability and credentials.
func (s *Store) Ping(ctx context.Context) error {
	var rows []categoryRow
	if err := s.client.From(tableCategories).Select("id").Limit(1).Execute(ctx, &rows); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }
