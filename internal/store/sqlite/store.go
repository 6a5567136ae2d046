// Package sqlite implements the store ports on a local SQLite database with
// the same tables and procedures as the hosted store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"vye/internal/core"
	"vye/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open creates the database directory if needed, applies migrations and
// returns a ready store.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("SQLite store ready", "path", dbPath)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB exposes the handle for seeding and tests.
func (s *Store) DB() *sql.DB { return s.db }

const accountColumns = `cozy_doc_id, cozy_label, cozy_account_type, cozy_balance,
	cozy_institution_label, cozy_iban, cozy_number`

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM cozy_bank_accounts ORDER BY cozy_label ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []core.Account{}
	for rows.Next() {
		var a accountScan
		if err := rows.Scan(&a.id, &a.label, &a.typ, &a.balance, &a.institution, &a.iban, &a.number); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a.toCore())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return out, nil
}

const operationSelect = `SELECT
	o.id, o.cozy_account_id, o.cozy_amount, o.cozy_realisation_date, o.cozy_label,
	o.cozy_category_id, o.cozy_automatic_category_id, o.parent_id, o.cozy_currency,
	a.cozy_doc_id, a.cozy_label, a.cozy_account_type, a.cozy_balance,
	a.cozy_institution_label, a.cozy_iban, a.cozy_number,
	c.code, c.label, c.fr_traduction
FROM cozy_bank_operations o
LEFT JOIN cozy_bank_accounts a ON a.cozy_doc_id = o.cozy_account_id
LEFT JOIN cozy_operation_categories c ON c.code = o.cozy_category_id`

func buildOperationQuery(q store.OperationQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	if !q.From.IsZero() {
		where = append(where, "date(o.cozy_realisation_date) >= ?")
		args = append(args, q.From.String())
	}
	if !q.To.IsZero() {
		where = append(where, "date(o.cozy_realisation_date) <= ?")
		args = append(args, q.To.String())
	}
	if len(q.AccountIDs) > 0 {
		where = append(where, "o.cozy_account_id IN ("+placeholders(len(q.AccountIDs))+")")
		for _, id := range q.AccountIDs {
			args = append(args, id)
		}
	}
	switch q.Sign {
	case store.Negative:
		where = append(where, "o.cozy_amount < 0")
	case store.Positive:
		where = append(where, "o.cozy_amount > 0")
	}
	if q.RequireAmount {
		where = append(where, "o.cozy_amount IS NOT NULL")
	}
	if q.RequireCategory {
		where = append(where, "o.cozy_category_id IS NOT NULL")
	}
	if q.AutomaticCategory != "" {
		where = append(where, "o.cozy_automatic_category_id = ?")
		args = append(args, q.AutomaticCategory)
	}

	var b strings.Builder
	b.WriteString(operationSelect)
	if len(where) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if q.Ascending {
		b.WriteString("\nORDER BY o.cozy_realisation_date ASC, o.id ASC")
	} else {
		b.WriteString("\nORDER BY o.cozy_realisation_date DESC, o.id DESC")
	}
	if q.Limit > 0 {
		b.WriteString("\nLIMIT ?")
		args = append(args, q.Limit)
	}
	return b.String(), args
}

func (s *Store) ListOperations(ctx context.Context, q store.OperationQuery) ([]core.Operation, error) {
	query, args := buildOperationQuery(q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	out := []core.Operation{}
	for rows.Next() {
		var (
			o   operationScan
			a   accountScan
			cat categoryScan
		)
		if err := rows.Scan(
			&o.id, &o.accountID, &o.amount, &o.date, &o.label,
			&o.categoryID, &o.autoCategoryID, &o.parentID, &o.currency,
			&a.id, &a.label, &a.typ, &a.balance, &a.institution, &a.iban, &a.number,
			&cat.code, &cat.label, &cat.translation,
		); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op := o.toCore()
		if q.WithAccount && a.id.Valid {
			acc := a.toCore()
			op.Account = &acc
		}
		if q.WithCategory && cat.code.Valid {
			c := cat.toCore()
			op.Category = &c
		}
		out = append(out, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	s.logger.DebugContext(ctx, "Listed operations", "count", len(out), "limit", q.Limit)
	return out, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, label, fr_traduction FROM cozy_operation_categories
		 WHERE code IS NOT NULL
		 ORDER BY fr_traduction ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var c categoryScan
		if err := rows.Scan(&c.code, &c.label, &c.translation); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c.toCore())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (s *Store) ListBalanceHistory(ctx context.Context) ([]core.BalanceHistory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cozy_account_id, day, balance FROM cozy_balance_histories ORDER BY day ASC, cozy_account_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list balance history: %w", err)
	}
	defer rows.Close()

	out := []core.BalanceHistory{}
	for rows.Next() {
		var (
			acct    sql.NullString
			day     string
			balance float64
		)
		if err := rows.Scan(&acct, &day, &balance); err != nil {
			return nil, fmt.Errorf("scan balance history: %w", err)
		}
		d, err := core.ParseDate(day)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping balance history row", "day", day, "error", err)
			continue
		}
		out = append(out, core.BalanceHistory{AccountID: acct.String, Day: d, Balance: decimal.NewFromFloat(balance)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance history: %w", err)
	}
	return out, nil
}

func (s *Store) SetOperationCategory(ctx context.Context, operationID int64, categoryCode string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cozy_bank_operations SET cozy_category_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		categoryCode, operationID)
	if err != nil {
		return fmt.Errorf("set operation category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set operation category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set operation category %d: %w", operationID, store.ErrNotFound)
	}
	s.logger.InfoContext(ctx, "Operation category updated", "operation_id", operationID, "category_code", categoryCode)
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
