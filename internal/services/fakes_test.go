package services

import (
	"context"
	"sort"

	"treasury/internal/core"
	"treasury/internal/storage"
)

// In-memory stands-ins for the persistence ports. They implement just
// enough semantics for the orchestration logic under test: sequential IDs,
// not-found sentinels, and name lookups.

type fakeCategoryStore struct {
	categories    map[int64]core.ExpenseCategory
	subcategories map[int64]core.ExpenseSubcategory
	nextID        int64
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{
		categories:    make(map[int64]core.ExpenseCategory),
		subcategories: make(map[int64]core.ExpenseSubcategory),
	}
}

func (f *fakeCategoryStore) CreateCategory(_ context.Context, c core.ExpenseCategory) (core.ExpenseCategory, error) {
	f.nextID++
	c.ID = f.nextID
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeCategoryStore) GetCategory(_ context.Context, id int64) (core.ExpenseCategory, error) {
	c, ok := f.categories[id]
	if !ok {
		return core.ExpenseCategory{}, core.ErrNotFound
	}
	return c, nil
}

func (f *fakeCategoryStore) ListCategories(context.Context) ([]core.ExpenseCategory, error) {
	out := make([]core.ExpenseCategory, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (f *fakeCategoryStore) ListCategoryStats(context.Context) ([]storage.CategoryStats, error) {
	return nil, nil
}

func (f *fakeCategoryStore) UpdateCategory(_ context.Context, c core.ExpenseCategory) error {
	if _, ok := f.categories[c.ID]; !ok {
		return core.ErrNotFound
	}
	f.categories[c.ID] = c
	return nil
}

func (f *fakeCategoryStore) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := f.categories[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeCategoryStore) CategoryNameExists(_ context.Context, name string, excludeID int64) (bool, error) {
	for _, c := range f.categories {
		if c.Name == name && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategoryStore) MaxCategoryOrder(context.Context) (int, error) {
	maxOrder := -1
	for _, c := range f.categories {
		if c.DisplayOrder > maxOrder {
			maxOrder = c.DisplayOrder
		}
	}
	return maxOrder, nil
}

func (f *fakeCategoryStore) ReorderCategories(_ context.Context, ids []int64) error {
	for pos, id := range ids {
		c, ok := f.categories[id]
		if !ok {
			return core.ErrUnknownEntity
		}
		c.DisplayOrder = pos
		f.categories[id] = c
	}
	return nil
}

func (f *fakeCategoryStore) CountSubcategories(_ context.Context, categoryID int64) (int64, error) {
	var n int64
	for _, s := range f.subcategories {
		if s.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (f *fakeCategoryStore) CreateSubcategory(_ context.Context, s core.ExpenseSubcategory) (core.ExpenseSubcategory, error) {
	f.nextID++
	s.ID = f.nextID
	f.subcategories[s.ID] = s
	return s, nil
}

func (f *fakeCategoryStore) GetSubcategory(_ context.Context, id int64) (core.ExpenseSubcategory, error) {
	s, ok := f.subcategories[id]
	if !ok {
		return core.ExpenseSubcategory{}, core.ErrNotFound
	}
	return s, nil
}

func (f *fakeCategoryStore) ListSubcategories(_ context.Context, categoryID int64) ([]core.ExpenseSubcategory, error) {
	var out []core.ExpenseSubcategory
	for _, s := range f.subcategories {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (f *fakeCategoryStore) ListSubcategoryStats(context.Context, int64) ([]storage.SubcategoryStats, error) {
	return nil, nil
}

func (f *fakeCategoryStore) UpdateSubcategory(_ context.Context, s core.ExpenseSubcategory) error {
	current, ok := f.subcategories[s.ID]
	if !ok {
		return core.ErrNotFound
	}
	s.CategoryID = current.CategoryID
	f.subcategories[s.ID] = s
	return nil
}

func (f *fakeCategoryStore) DeleteSubcategory(_ context.Context, id int64) error {
	if _, ok := f.subcategories[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.subcategories, id)
	return nil
}

func (f *fakeCategoryStore) SubcategoryNameExists(_ context.Context, categoryID int64, name string, excludeID int64) (bool, error) {
	for _, s := range f.subcategories {
		if s.CategoryID == categoryID && s.Name == name && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategoryStore) MaxSubcategoryOrder(_ context.Context, categoryID int64) (int, error) {
	maxOrder := -1
	for _, s := range f.subcategories {
		if s.CategoryID == categoryID && s.DisplayOrder > maxOrder {
			maxOrder = s.DisplayOrder
		}
	}
	return maxOrder, nil
}

func (f *fakeCategoryStore) ReorderSubcategories(_ context.Context, categoryID int64, ids []int64) error {
	for pos, id := range ids {
		s, ok := f.subcategories[id]
		if !ok || s.CategoryID != categoryID {
			return core.ErrUnknownEntity
		}
		s.DisplayOrder = pos
		f.subcategories[id] = s
	}
	return nil
}

type fakeLedgerStore struct {
	expenses    map[int64]core.Expense
	collections map[int64]core.ManualCollection
	payments    []core.PaymentTransaction
	nextID      int64
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{
		expenses:    make(map[int64]core.Expense),
		collections: make(map[int64]core.ManualCollection),
	}
}

func (f *fakeLedgerStore) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	f.nextID++
	e.ID = f.nextID
	f.expenses[e.ID] = e
	return e, nil
}

func (f *fakeLedgerStore) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	e, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (f *fakeLedgerStore) ListExpenses(context.Context, storage.ExpenseFilter) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(f.expenses))
	for _, e := range f.expenses {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeLedgerStore) UpdateExpense(_ context.Context, e core.Expense) error {
	if _, ok := f.expenses[e.ID]; !ok {
		return core.ErrNotFound
	}
	f.expenses[e.ID] = e
	return nil
}

func (f *fakeLedgerStore) DeleteExpense(_ context.Context, id int64) error {
	if _, ok := f.expenses[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.expenses, id)
	return nil
}

func (f *fakeLedgerStore) CountExpensesByCategory(_ context.Context, categoryID int64) (int64, error) {
	var n int64
	for _, e := range f.expenses {
		if e.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedgerStore) CountExpensesBySubcategory(_ context.Context, subcategoryID int64) (int64, error) {
	var n int64
	for _, e := range f.expenses {
		if e.SubcategoryID != nil && *e.SubcategoryID == subcategoryID {
			n++
		}
	}
	return n, nil
}

func (f *fakeLedgerStore) CreateCollection(_ context.Context, c core.ManualCollection) (core.ManualCollection, error) {
	f.nextID++
	c.ID = f.nextID
	f.collections[c.ID] = c
	return c, nil
}

func (f *fakeLedgerStore) GetCollection(_ context.Context, id int64) (core.ManualCollection, error) {
	c, ok := f.collections[id]
	if !ok {
		return core.ManualCollection{}, core.ErrNotFound
	}
	return c, nil
}

func (f *fakeLedgerStore) ListCollections(context.Context, storage.CollectionFilter) ([]core.ManualCollection, error) {
	out := make([]core.ManualCollection, 0, len(f.collections))
	for _, c := range f.collections {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeLedgerStore) UpdateCollection(_ context.Context, c core.ManualCollection) error {
	if _, ok := f.collections[c.ID]; !ok {
		return core.ErrNotFound
	}
	f.collections[c.ID] = c
	return nil
}

func (f *fakeLedgerStore) DeleteCollection(_ context.Context, id int64) error {
	if _, ok := f.collections[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.collections, id)
	return nil
}

func (f *fakeLedgerStore) AppendPaymentTransaction(_ context.Context, p core.PaymentTransaction) (core.PaymentTransaction, error) {
	f.nextID++
	p.ID = f.nextID
	f.payments = append(f.payments, p)
	return p, nil
}

type fakeBalanceStore struct {
	years     map[int]core.YearlyBalance
	snapshots []core.AccountBalance
	activity  map[int]int64
	nextID    int64
}

func newFakeBalanceStore() *fakeBalanceStore {
	return &fakeBalanceStore{
		years:    make(map[int]core.YearlyBalance),
		activity: make(map[int]int64),
	}
}

func (f *fakeBalanceStore) CreateYearlyBalance(_ context.Context, b core.YearlyBalance) (core.YearlyBalance, error) {
	f.nextID++
	b.ID = f.nextID
	f.years[b.Year] = b
	return b, nil
}

func (f *fakeBalanceStore) GetYearlyBalance(_ context.Context, year int) (core.YearlyBalance, error) {
	b, ok := f.years[year]
	if !ok {
		return core.YearlyBalance{}, core.ErrNotFound
	}
	return b, nil
}

func (f *fakeBalanceStore) ListYearlyBalances(context.Context) ([]core.YearlyBalance, error) {
	out := make([]core.YearlyBalance, 0, len(f.years))
	for _, b := range f.years {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (f *fakeBalanceStore) UpdateYearlyBalance(_ context.Context, b core.YearlyBalance) error {
	if _, ok := f.years[b.Year]; !ok {
		return core.ErrNotFound
	}
	f.years[b.Year] = b
	return nil
}

func (f *fakeBalanceStore) DeleteYearlyBalance(_ context.Context, id int64) error {
	for year, b := range f.years {
		if b.ID == id {
			delete(f.years, year)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeBalanceStore) YearlyBalanceExists(_ context.Context, year int) (bool, error) {
	_, ok := f.years[year]
	return ok, nil
}

func (f *fakeBalanceStore) CountLedgerActivity(_ context.Context, year int) (int64, error) {
	return f.activity[year], nil
}

func (f *fakeBalanceStore) LatestAccountSnapshot(context.Context) (core.AccountBalance, bool, error) {
	if len(f.snapshots) == 0 {
		return core.AccountBalance{}, false, nil
	}
	latest := f.snapshots[0]
	for _, s := range f.snapshots[1:] {
		if s.BalanceDate.After(latest.BalanceDate) {
			latest = s
		}
	}
	return latest, true, nil
}

func (f *fakeBalanceStore) ListAccountSnapshots(_ context.Context, limit int) ([]core.AccountBalance, error) {
	out := make([]core.AccountBalance, len(f.snapshots))
	copy(out, f.snapshots)
	sort.Slice(out, func(i, j int) bool { return out[i].BalanceDate.After(out[j].BalanceDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeBalanceStore) SnapshotExistsForDate(_ context.Context, date string) (bool, error) {
	for _, s := range f.snapshots {
		if s.BalanceDate.UTC().Format("2006-01-02") == date {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBalanceStore) CreateAccountSnapshot(_ context.Context, b core.AccountBalance) (core.AccountBalance, error) {
	f.nextID++
	b.ID = f.nextID
	f.snapshots = append(f.snapshots, b)
	return b, nil
}

func (f *fakeBalanceStore) UpdateAccountSnapshot(_ context.Context, b core.AccountBalance) error {
	for i, s := range f.snapshots {
		if s.ID == b.ID {
			f.snapshots[i] = b
			return nil
		}
	}
	return core.ErrNotFound
}

// fakeFlows serves fixed per-source totals for any window.
type fakeFlows struct {
	totals map[core.Source]int64
}

func (f *fakeFlows) AggregateTotal(_ context.Context, source core.Source, _ core.Window) (int64, int64, error) {
	return f.totals[source], 0, nil
}

type fakeEvents struct {
	ids map[int64]bool
}

func (f *fakeEvents) EventExists(_ context.Context, id int64) (bool, error) {
	return f.ids[id], nil
}

// recordingNotifier captures emitted mutations in order.
type recordingNotifier struct {
	mutations []core.Mutation
}

func (r *recordingNotifier) LedgerMutated(_ context.Context, m core.Mutation) error {
	r.mutations = append(r.mutations, m)
	return nil
}
