// Package store defines the ports the dashboard uses to reach its relational
// data store. Adapters live in the postgrest and sqlite subpackages.
package store

import (
	"context"
	"errors"

	"vye/internal/core"
)

// ErrNotFound is returned when a write targets a row that does not exist.
var ErrNotFound = errors.New("not found")

// Sign restricts operations by the sign of their amount.
type Sign int

const (
	AnySign Sign = iota
	Negative
	Positive
)

// UncategorizedCode is the automatic category assigned to operations the
// upstream categorizer could not classify.
const UncategorizedCode = "0"

// OperationQuery describes a read of cozy_bank_operations. The zero value
// lists every operation, newest first, without joins.
type OperationQuery struct {
	From, To          core.Date // inclusive, zero means unbounded
	AccountIDs        []string  // empty means every account
	Sign              Sign
	RequireAmount     bool   // amount is not null
	RequireCategory   bool   // category code is not null
	AutomaticCategory string // exact match on the automatic category, empty means any
	WithAccount       bool   // join the owning account
	WithCategory      bool   // join the assigned category
	Ascending         bool
	Limit             int // 0 means no limit
}

// Ports for outbound adapters.
type (
	AccountReader interface {
		// ListAccounts returns every account ordered by label.
		ListAccounts(ctx context.Context) ([]core.Account, error)
	}

	OperationReader interface {
		ListOperations(ctx context.Context, q OperationQuery) ([]core.Operation, error)
	}

	CategoryReader interface {
		// ListCategories returns categories ordered by translated label.
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	BalanceReader interface {
		// ListBalanceHistory returns daily balances ordered by day.
		ListBalanceHistory(ctx context.Context) ([]core.BalanceHistory, error)
		// BalanceSeries calls get_balance_series.
		BalanceSeries(ctx context.Context, start core.Date) ([]core.BalancePoint, error)
		// AverageBalance calls get_average_balance.
		AverageBalance(ctx context.Context, accountID string, from, to core.Date) ([]core.AverageBalance, error)
	}

	OperationCategorizer interface {
		// SetOperationCategory updates the category code of one operation.
		SetOperationCategory(ctx context.Context, operationID int64, categoryCode string) error
	}

	// Reader bundles every read port.
	Reader interface {
		AccountReader
		OperationReader
		CategoryReader
		BalanceReader
	}

	// Store is a full adapter.
	Store interface {
		Reader
		OperationCategorizer
		Ping(ctx context.Context) error
		Close() error
	}
)
