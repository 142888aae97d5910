package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"treasury/internal/core"
	"treasury/internal/storage"
)

// LedgerService validates and stores the two writable ledger feeds. Every
// structural check, category active, subcategory parentage, linked event
// existence, runs before any row is written.
type LedgerService struct {
	store      LedgerStore
	categories CategoryStore
	events     EventDirectory
	notifier   Notifier
}

func NewLedgerService(store LedgerStore, categories CategoryStore, events EventDirectory, notifier Notifier) *LedgerService {
	return &LedgerService{store: store, categories: categories, events: events, notifier: notifier}
}

// CreateExpense stores a new expense after field validation and hierarchy
// checks.
func (s *LedgerService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.checkExpenseLinks(ctx, e); err != nil {
		return core.Expense{}, err
	}
	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	s.notify(ctx, core.MutationExpense)
	return created, nil
}

func (s *LedgerService) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

func (s *LedgerService) ListExpenses(ctx context.Context, f storage.ExpenseFilter) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, f)
}

// UpdateExpense rewrites an expense. The same hierarchy checks as creation
// apply, so an update can never leave an expense pointing at a foreign
// subcategory or a missing event.
func (s *LedgerService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.checkExpenseLinks(ctx, e); err != nil {
		return err
	}
	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return err
	}
	s.notify(ctx, core.MutationExpense)
	return nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, core.MutationExpense)
	return nil
}

// CreateCollection stores a manual collection. Its category is free text,
// so only the mode, amount, and optional event link are checked.
func (s *LedgerService) CreateCollection(ctx context.Context, c core.ManualCollection) (core.ManualCollection, error) {
	c.Category = strings.TrimSpace(c.Category)
	if err := c.Validate(); err != nil {
		return core.ManualCollection{}, err
	}
	if err := s.checkEventLink(ctx, c.LinkedEventID); err != nil {
		return core.ManualCollection{}, err
	}
	created, err := s.store.CreateCollection(ctx, c)
	if err != nil {
		return core.ManualCollection{}, fmt.Errorf("create collection: %w", err)
	}
	s.notify(ctx, core.MutationCollection)
	return created, nil
}

func (s *LedgerService) GetCollection(ctx context.Context, id int64) (core.ManualCollection, error) {
	return s.store.GetCollection(ctx, id)
}

func (s *LedgerService) ListCollections(ctx context.Context, f storage.CollectionFilter) ([]core.ManualCollection, error) {
	return s.store.ListCollections(ctx, f)
}

func (s *LedgerService) UpdateCollection(ctx context.Context, c core.ManualCollection) error {
	c.Category = strings.TrimSpace(c.Category)
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.checkEventLink(ctx, c.LinkedEventID); err != nil {
		return err
	}
	if err := s.store.UpdateCollection(ctx, c); err != nil {
		return err
	}
	s.notify(ctx, core.MutationCollection)
	return nil
}

func (s *LedgerService) DeleteCollection(ctx context.Context, id int64) error {
	if err := s.store.DeleteCollection(ctx, id); err != nil {
		return err
	}
	s.notify(ctx, core.MutationCollection)
	return nil
}

// IngestPayment appends one completed-feed transaction at the boundary with
// the online payment subsystem. Rows are never updated or deleted here.
func (s *LedgerService) IngestPayment(ctx context.Context, p core.PaymentTransaction) (core.PaymentTransaction, error) {
	v := core.NewValidationError()
	if p.Amount.Cents <= 0 {
		v.Add("amount", "amount must be positive")
	}
	switch p.Status {
	case core.PaymentCompleted, core.PaymentPending, core.PaymentFailed:
	default:
		v.Add("status", "unknown payment status")
	}
	if strings.TrimSpace(p.Provider) == "" {
		v.Add("paymentProvider", "provider is required")
	}
	if err := v.OrNil(); err != nil {
		return core.PaymentTransaction{}, err
	}
	// The feed does not always stamp its rows; an unstamped row would land
	// outside every aggregation window.
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	appended, err := s.store.AppendPaymentTransaction(ctx, p)
	if err != nil {
		return core.PaymentTransaction{}, fmt.Errorf("append payment: %w", err)
	}
	if p.Status == core.PaymentCompleted {
		s.notify(ctx, core.MutationPayment)
	}
	return appended, nil
}

func (s *LedgerService) checkExpenseLinks(ctx context.Context, e core.Expense) error {
	cat, err := s.categories.GetCategory(ctx, e.CategoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("category %d: %w", e.CategoryID, core.ErrCategoryNotFound)
		}
		return fmt.Errorf("load category: %w", err)
	}
	if !cat.IsActive {
		return fmt.Errorf("category %d: %w", e.CategoryID, core.ErrCategoryInactive)
	}
	if e.SubcategoryID != nil {
		sub, err := s.categories.GetSubcategory(ctx, *e.SubcategoryID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("subcategory %d: %w", *e.SubcategoryID, core.ErrSubcategoryMismatch)
			}
			return fmt.Errorf("load subcategory: %w", err)
		}
		if sub.CategoryID != e.CategoryID {
			return fmt.Errorf("subcategory %d belongs to category %d: %w",
				sub.ID, sub.CategoryID, core.ErrSubcategoryMismatch)
		}
	}
	return s.checkEventLink(ctx, e.LinkedEventID)
}

func (s *LedgerService) checkEventLink(ctx context.Context, eventID *int64) error {
	if eventID == nil {
		return nil
	}
	exists, err := s.events.EventExists(ctx, *eventID)
	if err != nil {
		return fmt.Errorf("check event %d: %w", *eventID, err)
	}
	if !exists {
		return fmt.Errorf("event %d: %w", *eventID, core.ErrEventNotFound)
	}
	return nil
}

func (s *LedgerService) notify(ctx context.Context, m core.Mutation) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.LedgerMutated(ctx, m); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mutation", "mutation", m, "error", err)
	}
}
