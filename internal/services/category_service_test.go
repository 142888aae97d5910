package services

import (
	"context"
	"errors"
	"testing"

	"treasury/internal/core"
)

func newCategoryFixture() (*CategoryService, *fakeCategoryStore, *fakeLedgerStore, *recordingNotifier) {
	store := newFakeCategoryStore()
	ledger := newFakeLedgerStore()
	notifier := &recordingNotifier{}
	return NewCategoryService(store, ledger, notifier), store, ledger, notifier
}

func TestCategoryService_CreateCategory(t *testing.T) {
	svc, _, _, notifier := newCategoryFixture()
	ctx := context.Background()

	first, err := svc.CreateCategory(ctx, "Venue", "halls and grounds")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if first.DisplayOrder != 0 {
		t.Errorf("first display order = %d, want 0", first.DisplayOrder)
	}
	if !first.IsActive {
		t.Error("new category should be active")
	}

	second, err := svc.CreateCategory(ctx, "Catering", "")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if second.DisplayOrder != 1 {
		t.Errorf("second display order = %d, want 1", second.DisplayOrder)
	}

	if _, err := svc.CreateCategory(ctx, "Venue", ""); !errors.Is(err, core.ErrDuplicateName) {
		t.Errorf("duplicate name err = %v, want ErrDuplicateName", err)
	}
	if _, err := svc.CreateCategory(ctx, "   ", ""); !core.IsValidation(err) {
		t.Errorf("blank name err = %v, want validation error", err)
	}

	if len(notifier.mutations) != 2 {
		t.Errorf("mutations = %v, want 2 category events", notifier.mutations)
	}
}

func TestCategoryService_DeleteCategoryGuards(t *testing.T) {
	svc, _, ledger, _ := newCategoryFixture()
	ctx := context.Background()

	venue, err := svc.CreateCategory(ctx, "Venue", "")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	hall, err := svc.CreateSubcategory(ctx, venue.ID, "Hall Rent", "")
	if err != nil {
		t.Fatalf("CreateSubcategory: %v", err)
	}

	// Subcategories block first.
	if err := svc.DeleteCategory(ctx, venue.ID); !errors.Is(err, core.ErrHasDependentSubcategories) {
		t.Errorf("delete err = %v, want ErrHasDependentSubcategories", err)
	}

	ledger.expenses[1] = core.Expense{ID: 1, CategoryID: venue.ID, SubcategoryID: &hall.ID}
	if err := svc.DeleteSubcategory(ctx, hall.ID); !errors.Is(err, core.ErrHasDependentExpenses) {
		t.Errorf("delete subcategory err = %v, want ErrHasDependentExpenses", err)
	}

	delete(ledger.expenses, 1)
	if err := svc.DeleteSubcategory(ctx, hall.ID); err != nil {
		t.Fatalf("DeleteSubcategory after detach: %v", err)
	}

	ledger.expenses[2] = core.Expense{ID: 2, CategoryID: venue.ID}
	if err := svc.DeleteCategory(ctx, venue.ID); !errors.Is(err, core.ErrHasDependentExpenses) {
		t.Errorf("delete err = %v, want ErrHasDependentExpenses", err)
	}

	delete(ledger.expenses, 2)
	if err := svc.DeleteCategory(ctx, venue.ID); err != nil {
		t.Fatalf("DeleteCategory after detach: %v", err)
	}
	if err := svc.DeleteCategory(ctx, venue.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestCategoryService_Reorder(t *testing.T) {
	svc, _, _, _ := newCategoryFixture()
	ctx := context.Background()

	a, _ := svc.CreateCategory(ctx, "A", "")
	b, _ := svc.CreateCategory(ctx, "B", "")
	c, _ := svc.CreateCategory(ctx, "C", "")

	if err := svc.ReorderCategories(ctx, []int64{b.ID, a.ID, c.ID}); err != nil {
		t.Fatalf("ReorderCategories: %v", err)
	}
	listed, err := svc.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	want := []string{"B", "A", "C"}
	for i, cat := range listed {
		if cat.Name != want[i] {
			t.Errorf("position %d = %q, want %q", i, cat.Name, want[i])
		}
		if cat.DisplayOrder != i {
			t.Errorf("%q display order = %d, want %d", cat.Name, cat.DisplayOrder, i)
		}
	}

	if err := svc.ReorderCategories(ctx, []int64{99}); !errors.Is(err, core.ErrUnknownEntity) {
		t.Errorf("reorder with unknown ID err = %v, want ErrUnknownEntity", err)
	}
}

func TestCategoryService_Subcategories(t *testing.T) {
	svc, store, _, _ := newCategoryFixture()
	ctx := context.Background()

	venue, _ := svc.CreateCategory(ctx, "Venue", "")

	t.Run("parent must exist", func(t *testing.T) {
		_, err := svc.CreateSubcategory(ctx, 999, "Hall Rent", "")
		if !errors.Is(err, core.ErrCategoryNotFound) {
			t.Errorf("err = %v, want ErrCategoryNotFound", err)
		}
	})

	t.Run("parent must be active", func(t *testing.T) {
		frozen, _ := svc.CreateCategory(ctx, "Frozen", "")
		frozen.IsActive = false
		if err := svc.UpdateCategory(ctx, frozen); err != nil {
			t.Fatalf("UpdateCategory: %v", err)
		}
		_, err := svc.CreateSubcategory(ctx, frozen.ID, "Anything", "")
		if !errors.Is(err, core.ErrCategoryInactive) {
			t.Errorf("err = %v, want ErrCategoryInactive", err)
		}
	})

	t.Run("name unique within category only", func(t *testing.T) {
		if _, err := svc.CreateSubcategory(ctx, venue.ID, "Maintenance", ""); err != nil {
			t.Fatalf("CreateSubcategory: %v", err)
		}
		if _, err := svc.CreateSubcategory(ctx, venue.ID, "Maintenance", ""); !errors.Is(err, core.ErrDuplicateName) {
			t.Errorf("duplicate in same category err = %v, want ErrDuplicateName", err)
		}
		other, _ := svc.CreateCategory(ctx, "Equipment", "")
		if _, err := svc.CreateSubcategory(ctx, other.ID, "Maintenance", ""); err != nil {
			t.Errorf("same name under another category should pass, got %v", err)
		}
	})

	t.Run("update never moves the parent", func(t *testing.T) {
		sub, _ := svc.CreateSubcategory(ctx, venue.ID, "Security", "")
		sub.CategoryID = 42
		sub.Name = "Security Staff"
		if err := svc.UpdateSubcategory(ctx, sub); err != nil {
			t.Fatalf("UpdateSubcategory: %v", err)
		}
		got, _ := store.GetSubcategory(ctx, sub.ID)
		if got.CategoryID != venue.ID {
			t.Errorf("category moved to %d, want %d", got.CategoryID, venue.ID)
		}
		if got.Name != "Security Staff" {
			t.Errorf("name = %q, want rename applied", got.Name)
		}
	})
}
