package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"vye/internal/core"
)

type seedAccount struct {
	id, label, typ, institution string
	opening                     float64
}

type seedOperation struct {
	account  string
	day      int // day of month
	amount   float64
	label    string
	category string // empty leaves the operation for manual categorization
}

var seedCategories = []struct{ code, label, translation string }{
	{"0", "uncategorized", "Non catégorisé"},
	{"200110", "activityIncome", "Salaire"},
	{"200130", "refund", "Remboursement"},
	{"400110", "supermarket", "Supermarché"},
	{"400120", "restaurantsAndBars", "Restaurants et bars"},
	{"401010", "rent", "Loyer"},
	{"401080", "energy", "Énergie"},
	{"400710", "transport", "Transports"},
	{"400610", "leisure", "Loisirs"},
	{"400310", "health", "Santé"},
}

var seedAccounts = []seedAccount{
	{"acc-checking", "Compte courant", string(core.AccountCheckings), "Banque Populaire", 1850},
	{"acc-savings", "Livret A", string(core.AccountSavings), "Banque Populaire", 6200},
	{"acc-card", "Carte Visa", string(core.AccountCreditCard), "Boursorama", -120},
}

// monthly template, repeated for every seeded month
var seedMonth = []seedOperation{
	{"acc-checking", 1, 2650, "VIR SALAIRE ACME", "200110"},
	{"acc-checking", 3, -780, "PRLV LOYER", "401010"},
	{"acc-checking", 6, -64.9, "PRLV EDF", "401080"},
	{"acc-checking", 9, -112.35, "CB CARREFOUR", "400110"},
	{"acc-checking", 14, -38.5, "CB LE PETIT ZINC", "400120"},
	{"acc-card", 16, -45, "NAVIGO", "400710"},
	{"acc-card", 19, -27.99, "CB CINEMA", "400610"},
	{"acc-checking", 21, -86.2, "CB MONOPRIX", "400110"},
	{"acc-checking", 23, 23.5, "REMB SECU", "200130"},
	{"acc-card", 25, -19.9, "CB PHARMACIE", "400310"},
	{"acc-checking", 27, -13.6, "CB BOULANGERIE", ""},
	{"acc-savings", 28, 200, "VIR EPARGNE", ""},
	{"acc-checking", 28, -200, "VIR EPARGNE", ""},
}

// Seed loads a demo data set covering the six months up to now. It does
// nothing when accounts already exist and reports whether data was written.
func (s *Store) Seed(ctx context.Context, now time.Time) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cozy_bank_accounts`).Scan(&n); err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	if err := seedStatic(ctx, tx); err != nil {
		return false, err
	}
	if err := seedActivity(ctx, tx, core.MonthOf(now), now.Day()); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	s.logger.InfoContext(ctx, "Demo data seeded", "accounts", len(seedAccounts))
	return true, nil
}

func seedStatic(ctx context.Context, tx *sql.Tx) error {
	for _, c := range seedCategories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cozy_operation_categories (code, label, fr_traduction) VALUES (?, ?, ?)`,
			c.code, c.label, c.translation); err != nil {
			return fmt.Errorf("seed category %s: %w", c.code, err)
		}
	}
	for _, a := range seedAccounts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cozy_bank_accounts (cozy_doc_id, cozy_label, cozy_account_type, cozy_balance, cozy_institution_label)
			 VALUES (?, ?, ?, ?, ?)`,
			a.id, a.label, a.typ, fmt.Sprintf("%.2f", a.opening), a.institution); err != nil {
			return fmt.Errorf("seed account %s: %w", a.id, err)
		}
	}
	return nil
}

func seedActivity(ctx context.Context, tx *sql.Tx, current core.Month, today int) error {
	balances := make(map[string]float64, len(seedAccounts))
	for _, a := range seedAccounts {
		balances[a.id] = a.opening
	}

	for i := 5; i >= 0; i-- {
		m := current.Add(-i)
		last := m.End().Day()
		daily := make(map[int][]seedOperation)
		for _, op := range seedMonth {
			if i == 0 && op.day > today {
				continue
			}
			daily[op.day] = append(daily[op.day], op)
		}
		for day := 1; day <= last; day++ {
			if i == 0 && day > today {
				break
			}
			date := core.NewDate(m.Year, int(m.Month), day).String()
			for _, op := range daily[day] {
				auto := op.category
				if auto == "" {
					auto = "0"
				}
				var cat any
				if op.category != "" {
					cat = op.category
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO cozy_bank_operations
					 (cozy_account_id, cozy_amount, cozy_automatic_category_id, cozy_category_id,
					  cozy_label, cozy_realisation_date, cozy_currency)
					 VALUES (?, ?, ?, ?, ?, ?, 'EUR')`,
					op.account, op.amount, auto, cat, op.label, date); err != nil {
					return fmt.Errorf("seed operation %s: %w", op.label, err)
				}
				balances[op.account] += op.amount
			}
			for _, a := range seedAccounts {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO cozy_balance_histories (cozy_account_id, day, balance) VALUES (?, ?, ?)`,
					a.id, date, round2(balances[a.id])); err != nil {
					return fmt.Errorf("seed balance %s %s: %w", a.id, date, err)
				}
			}
		}
	}

	for _, a := range seedAccounts {
		if _, err := tx.ExecContext(ctx,
			`UPDATE cozy_bank_accounts SET cozy_balance = ? WHERE cozy_doc_id = ?`,
			fmt.Sprintf("%.2f", balances[a.id]), a.id); err != nil {
			return fmt.Errorf("seed balance of %s: %w", a.id, err)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
