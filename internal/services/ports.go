// Package services orchestrates treasury operations: structural checks on
// the category hierarchy, ledger entry validation against the hierarchy and
// linked events, balance reconciliation, and fan-out of mutation events to
// the cache coherence layer. All validation runs before any write.
package services

import (
	"context"
	"errors"

	"treasury/internal/core"
	"treasury/internal/storage"
)

// CategoryStore is the hierarchy slice of the persistence layer.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.ExpenseCategory) (core.ExpenseCategory, error)
	GetCategory(ctx context.Context, id int64) (core.ExpenseCategory, error)
	ListCategories(ctx context.Context) ([]core.ExpenseCategory, error)
	ListCategoryStats(ctx context.Context) ([]storage.CategoryStats, error)
	UpdateCategory(ctx context.Context, c core.ExpenseCategory) error
	DeleteCategory(ctx context.Context, id int64) error
	CategoryNameExists(ctx context.Context, name string, excludeID int64) (bool, error)
	MaxCategoryOrder(ctx context.Context) (int, error)
	ReorderCategories(ctx context.Context, ids []int64) error
	CountSubcategories(ctx context.Context, categoryID int64) (int64, error)

	CreateSubcategory(ctx context.Context, s core.ExpenseSubcategory) (core.ExpenseSubcategory, error)
	GetSubcategory(ctx context.Context, id int64) (core.ExpenseSubcategory, error)
	ListSubcategories(ctx context.Context, categoryID int64) ([]core.ExpenseSubcategory, error)
	ListSubcategoryStats(ctx context.Context, categoryID int64) ([]storage.SubcategoryStats, error)
	UpdateSubcategory(ctx context.Context, s core.ExpenseSubcategory) error
	DeleteSubcategory(ctx context.Context, id int64) error
	SubcategoryNameExists(ctx context.Context, categoryID int64, name string, excludeID int64) (bool, error)
	MaxSubcategoryOrder(ctx context.Context, categoryID int64) (int, error)
	ReorderSubcategories(ctx context.Context, categoryID int64, ids []int64) error
}

// LedgerStore persists the two writable ledger feeds plus the append-only
// payment fact table.
type LedgerStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, id int64) (core.Expense, error)
	ListExpenses(ctx context.Context, f storage.ExpenseFilter) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	CountExpensesByCategory(ctx context.Context, categoryID int64) (int64, error)
	CountExpensesBySubcategory(ctx context.Context, subcategoryID int64) (int64, error)

	CreateCollection(ctx context.Context, c core.ManualCollection) (core.ManualCollection, error)
	GetCollection(ctx context.Context, id int64) (core.ManualCollection, error)
	ListCollections(ctx context.Context, f storage.CollectionFilter) ([]core.ManualCollection, error)
	UpdateCollection(ctx context.Context, c core.ManualCollection) error
	DeleteCollection(ctx context.Context, id int64) error

	AppendPaymentTransaction(ctx context.Context, p core.PaymentTransaction) (core.PaymentTransaction, error)
}

// BalanceStore persists yearly balances and account snapshots.
type BalanceStore interface {
	CreateYearlyBalance(ctx context.Context, b core.YearlyBalance) (core.YearlyBalance, error)
	GetYearlyBalance(ctx context.Context, year int) (core.YearlyBalance, error)
	ListYearlyBalances(ctx context.Context) ([]core.YearlyBalance, error)
	UpdateYearlyBalance(ctx context.Context, b core.YearlyBalance) error
	DeleteYearlyBalance(ctx context.Context, id int64) error
	YearlyBalanceExists(ctx context.Context, year int) (bool, error)
	CountLedgerActivity(ctx context.Context, year int) (int64, error)

	LatestAccountSnapshot(ctx context.Context) (core.AccountBalance, bool, error)
	ListAccountSnapshots(ctx context.Context, limit int) ([]core.AccountBalance, error)
	SnapshotExistsForDate(ctx context.Context, date string) (bool, error)
	CreateAccountSnapshot(ctx context.Context, b core.AccountBalance) (core.AccountBalance, error)
	UpdateAccountSnapshot(ctx context.Context, b core.AccountBalance) error
}

// FlowReader sums one ledger source over a window.
type FlowReader interface {
	AggregateTotal(ctx context.Context, source core.Source, w core.Window) (totalCents, count int64, err error)
}

// EventDirectory answers whether a linked external event exists.
type EventDirectory interface {
	EventExists(ctx context.Context, id int64) (bool, error)
}

// Notifier fans a committed mutation out to the cache coherence layer.
// Services treat delivery as best effort: a failed notification is logged
// and never fails the write that triggered it.
type Notifier interface {
	LedgerMutated(ctx context.Context, m core.Mutation) error
}

// NopNotifier discards mutations. Used by the worker binary and in tests.
type NopNotifier struct{}

func (NopNotifier) LedgerMutated(context.Context, core.Mutation) error { return nil }

// FanoutNotifier delivers each mutation to every notifier, collecting the
// failures. Used when a deployment invalidates its own cache and also
// publishes for other instances.
type FanoutNotifier []Notifier

func (f FanoutNotifier) LedgerMutated(ctx context.Context, m core.Mutation) error {
	var errs []error
	for _, n := range f {
		if err := n.LedgerMutated(ctx, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
