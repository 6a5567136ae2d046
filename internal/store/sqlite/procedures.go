package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"vye/internal/core"
)

// balanceSeriesSQL mirrors get_balance_series: one point per account and day
// from start on.
const balanceSeriesSQL = `SELECT h.cozy_account_id, COALESCE(a.cozy_label, ''), h.day, h.balance
FROM cozy_balance_histories h
LEFT JOIN cozy_bank_accounts a ON a.cozy_doc_id = h.cozy_account_id
WHERE h.cozy_account_id IS NOT NULL AND h.day >= ?
ORDER BY h.day ASC, h.cozy_account_id ASC`

// averageBalanceSQL mirrors get_average_balance: weekly (Monday based) and
// monthly averages of one account's daily balance within [start, end].
const averageBalanceSQL = `SELECT 'week' AS interval_type,
	date(day, '-6 days', 'weekday 1') AS interval_start,
	AVG(balance) AS avg_balance
FROM cozy_balance_histories
WHERE cozy_account_id = ? AND day BETWEEN ? AND ?
GROUP BY date(day, '-6 days', 'weekday 1')
UNION ALL
SELECT 'month' AS interval_type,
	strftime('%Y-%m-01', day) AS interval_start,
	AVG(balance) AS avg_balance
FROM cozy_balance_histories
WHERE cozy_account_id = ? AND day BETWEEN ? AND ?
GROUP BY strftime('%Y-%m-01', day)
ORDER BY interval_type ASC, interval_start ASC`

func (s *Store) BalanceSeries(ctx context.Context, start core.Date) ([]core.BalancePoint, error) {
	rows, err := s.db.QueryContext(ctx, balanceSeriesSQL, start.String())
	if err != nil {
		return nil, fmt.Errorf("get balance series: %w", err)
	}
	defer rows.Close()

	out := []core.BalancePoint{}
	for rows.Next() {
		var (
			p       core.BalancePoint
			day     string
			balance float64
		)
		if err := rows.Scan(&p.AccountID, &p.AccountLabel, &day, &balance); err != nil {
			return nil, fmt.Errorf("scan balance point: %w", err)
		}
		p.Date, _ = core.ParseDate(day)
		p.Balance = decimal.NewFromFloat(balance)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate balance series: %w", err)
	}
	return out, nil
}

func (s *Store) AverageBalance(ctx context.Context, accountID string, from, to core.Date) ([]core.AverageBalance, error) {
	f, t := from.String(), to.String()
	rows, err := s.db.QueryContext(ctx, averageBalanceSQL, accountID, f, t, accountID, f, t)
	if err != nil {
		return nil, fmt.Errorf("get average balance: %w", err)
	}
	defer rows.Close()

	out := []core.AverageBalance{}
	for rows.Next() {
		var (
			r     core.AverageBalance
			start string
			avg   float64
		)
		if err := rows.Scan(&r.IntervalType, &start, &avg); err != nil {
			return nil, fmt.Errorf("scan average balance: %w", err)
		}
		r.IntervalStart, _ = core.ParseDate(start)
		r.AvgBalance = decimal.NewFromFloat(avg).Round(2)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate average balance: %w", err)
	}
	return out, nil
}
