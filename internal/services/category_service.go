package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"treasury/internal/core"
	"treasury/internal/storage"
)

// CategoryService enforces the structural invariants of the two-level
// expense taxonomy: unique names, dense display ordering, and deletion
// guards against dependent rows.
type CategoryService struct {
	store    CategoryStore
	expenses LedgerStore
	notifier Notifier
}

func NewCategoryService(store CategoryStore, expenses LedgerStore, notifier Notifier) *CategoryService {
	return &CategoryService{store: store, expenses: expenses, notifier: notifier}
}

// CreateCategory appends a category at the end of the display order.
func (s *CategoryService) CreateCategory(ctx context.Context, name, description string) (core.ExpenseCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		v := core.NewValidationError()
		v.Add("name", "name is required")
		return core.ExpenseCategory{}, v
	}
	taken, err := s.store.CategoryNameExists(ctx, name, 0)
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("check category name: %w", err)
	}
	if taken {
		return core.ExpenseCategory{}, fmt.Errorf("category %q: %w", name, core.ErrDuplicateName)
	}
	maxOrder, err := s.store.MaxCategoryOrder(ctx)
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("next display order: %w", err)
	}

	created, err := s.store.CreateCategory(ctx, core.ExpenseCategory{
		Name:         name,
		Description:  description,
		IsActive:     true,
		DisplayOrder: maxOrder + 1,
	})
	if err != nil {
		return core.ExpenseCategory{}, fmt.Errorf("create category: %w", err)
	}
	s.notify(ctx, core.MutationCategory)
	return created, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id int64) (core.ExpenseCategory, error) {
	return s.store.GetCategory(ctx, id)
}

// ListCategories returns all categories sorted by display order.
func (s *CategoryService) ListCategories(ctx context.Context) ([]core.ExpenseCategory, error) {
	return s.store.ListCategories(ctx)
}

// ListCategoryStats returns categories with their dependent-row counts and
// expense totals, for listings that show deletability at a glance.
func (s *CategoryService) ListCategoryStats(ctx context.Context) ([]storage.CategoryStats, error) {
	return s.store.ListCategoryStats(ctx)
}

// UpdateCategory renames or toggles a category. The name must stay unique
// across all categories, active or not.
func (s *CategoryService) UpdateCategory(ctx context.Context, c core.ExpenseCategory) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		v := core.NewValidationError()
		v.Add("name", "name is required")
		return v
	}
	taken, err := s.store.CategoryNameExists(ctx, c.Name, c.ID)
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if taken {
		return fmt.Errorf("category %q: %w", c.Name, core.ErrDuplicateName)
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return err
	}
	s.notify(ctx, core.MutationCategory)
	return nil
}

// DeleteCategory removes a category only when nothing depends on it. Both
// guards are checked so the caller learns the blocking reason; subcategories
// are reported first.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		return err
	}
	subs, err := s.store.CountSubcategories(ctx, id)
	if err != nil {
		return fmt.Errorf("count subcategories: %w", err)
	}
	if subs > 0 {
		return fmt.Errorf("category %d has %d subcategories: %w", id, subs, core.ErrHasDependentSubcategories)
	}
	expenses, err := s.expenses.CountExpensesByCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count expenses: %w", err)
	}
	if expenses > 0 {
		return fmt.Errorf("category %d has %d expenses: %w", id, expenses, core.ErrHasDependentExpenses)
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, core.MutationCategory)
	return nil
}

// ReorderCategories assigns display order 0..n-1 following the given ID
// order. Every listed ID must exist.
func (s *CategoryService) ReorderCategories(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.store.ReorderCategories(ctx, ids); err != nil {
		return err
	}
	s.notify(ctx, core.MutationCategory)
	return nil
}

// CreateSubcategory appends a subcategory under an existing active parent.
func (s *CategoryService) CreateSubcategory(ctx context.Context, categoryID int64, name, description string) (core.ExpenseSubcategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		v := core.NewValidationError()
		v.Add("name", "name is required")
		return core.ExpenseSubcategory{}, v
	}
	parent, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ExpenseSubcategory{}, fmt.Errorf("category %d: %w", categoryID, core.ErrCategoryNotFound)
		}
		return core.ExpenseSubcategory{}, fmt.Errorf("load parent category: %w", err)
	}
	if !parent.IsActive {
		return core.ExpenseSubcategory{}, fmt.Errorf("category %d: %w", categoryID, core.ErrCategoryInactive)
	}
	taken, err := s.store.SubcategoryNameExists(ctx, categoryID, name, 0)
	if err != nil {
		return core.ExpenseSubcategory{}, fmt.Errorf("check subcategory name: %w", err)
	}
	if taken {
		return core.ExpenseSubcategory{}, fmt.Errorf("subcategory %q: %w", name, core.ErrDuplicateName)
	}
	maxOrder, err := s.store.MaxSubcategoryOrder(ctx, categoryID)
	if err != nil {
		return core.ExpenseSubcategory{}, fmt.Errorf("next display order: %w", err)
	}

	created, err := s.store.CreateSubcategory(ctx, core.ExpenseSubcategory{
		CategoryID:   categoryID,
		Name:         name,
		Description:  description,
		IsActive:     true,
		DisplayOrder: maxOrder + 1,
	})
	if err != nil {
		return core.ExpenseSubcategory{}, fmt.Errorf("create subcategory: %w", err)
	}
	s.notify(ctx, core.MutationSubcategory)
	return created, nil
}

func (s *CategoryService) GetSubcategory(ctx context.Context, id int64) (core.ExpenseSubcategory, error) {
	return s.store.GetSubcategory(ctx, id)
}

func (s *CategoryService) ListSubcategories(ctx context.Context, categoryID int64) ([]core.ExpenseSubcategory, error) {
	return s.store.ListSubcategories(ctx, categoryID)
}

func (s *CategoryService) ListSubcategoryStats(ctx context.Context, categoryID int64) ([]storage.SubcategoryStats, error) {
	return s.store.ListSubcategoryStats(ctx, categoryID)
}

// UpdateSubcategory renames or toggles a subcategory. The parent category
// never changes through an update.
func (s *CategoryService) UpdateSubcategory(ctx context.Context, sub core.ExpenseSubcategory) error {
	sub.Name = strings.TrimSpace(sub.Name)
	if sub.Name == "" {
		v := core.NewValidationError()
		v.Add("name", "name is required")
		return v
	}
	current, err := s.store.GetSubcategory(ctx, sub.ID)
	if err != nil {
		return err
	}
	taken, err := s.store.SubcategoryNameExists(ctx, current.CategoryID, sub.Name, sub.ID)
	if err != nil {
		return fmt.Errorf("check subcategory name: %w", err)
	}
	if taken {
		return fmt.Errorf("subcategory %q: %w", sub.Name, core.ErrDuplicateName)
	}
	if err := s.store.UpdateSubcategory(ctx, sub); err != nil {
		return err
	}
	s.notify(ctx, core.MutationSubcategory)
	return nil
}

// DeleteSubcategory removes a subcategory unless expenses still reference it.
func (s *CategoryService) DeleteSubcategory(ctx context.Context, id int64) error {
	if _, err := s.store.GetSubcategory(ctx, id); err != nil {
		return err
	}
	expenses, err := s.expenses.CountExpensesBySubcategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count expenses: %w", err)
	}
	if expenses > 0 {
		return fmt.Errorf("subcategory %d has %d expenses: %w", id, expenses, core.ErrHasDependentExpenses)
	}
	if err := s.store.DeleteSubcategory(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, core.MutationSubcategory)
	return nil
}

// ReorderSubcategories reorders the subcategories of one category.
func (s *CategoryService) ReorderSubcategories(ctx context.Context, categoryID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.store.ReorderSubcategories(ctx, categoryID, ids); err != nil {
		return err
	}
	s.notify(ctx, core.MutationSubcategory)
	return nil
}

func (s *CategoryService) notify(ctx context.Context, m core.Mutation) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.LedgerMutated(ctx, m); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mutation", "mutation", m, "error", err)
	}
}
