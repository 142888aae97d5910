package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"treasury/internal/core"
)

// BalanceService owns yearly balance reconciliation and the account
// snapshot log. The theoretical closing balance is always derived from the
// ledger at read time, never stored.
type BalanceService struct {
	store    BalanceStore
	flows    FlowReader
	notifier Notifier
}

func NewBalanceService(store BalanceStore, flows FlowReader, notifier Notifier) *BalanceService {
	return &BalanceService{store: store, flows: flows, notifier: notifier}
}

// CreateYearlyBalance opens a year with its stated opening balance. One
// balance per year.
func (s *BalanceService) CreateYearlyBalance(ctx context.Context, b core.YearlyBalance) (core.YearlyBalance, error) {
	if err := b.Validate(); err != nil {
		return core.YearlyBalance{}, err
	}
	exists, err := s.store.YearlyBalanceExists(ctx, b.Year)
	if err != nil {
		return core.YearlyBalance{}, fmt.Errorf("check year %d: %w", b.Year, err)
	}
	if exists {
		return core.YearlyBalance{}, fmt.Errorf("year %d: %w", b.Year, core.ErrDuplicateYear)
	}
	created, err := s.store.CreateYearlyBalance(ctx, b)
	if err != nil {
		return core.YearlyBalance{}, fmt.Errorf("create yearly balance: %w", err)
	}
	s.notify(ctx, core.MutationBalance)
	return created, nil
}

func (s *BalanceService) GetYearlyBalance(ctx context.Context, year int) (core.YearlyBalance, error) {
	return s.store.GetYearlyBalance(ctx, year)
}

func (s *BalanceService) ListYearlyBalances(ctx context.Context) ([]core.YearlyBalance, error) {
	return s.store.ListYearlyBalances(ctx)
}

// SetClosingBalance records the stated closing balance for a year. Setting
// it again simply overwrites; reconciliation is an idempotent update, not a
// guarded transition.
func (s *BalanceService) SetClosingBalance(ctx context.Context, year int, closing core.Money) (core.YearlyBalance, error) {
	b, err := s.store.GetYearlyBalance(ctx, year)
	if err != nil {
		return core.YearlyBalance{}, err
	}
	b.ClosingBalance = &closing
	if err := s.store.UpdateYearlyBalance(ctx, b); err != nil {
		return core.YearlyBalance{}, fmt.Errorf("set closing balance: %w", err)
	}
	s.notify(ctx, core.MutationBalance)
	return b, nil
}

// UpdateYearlyBalance rewrites the opening balance and notes of a year.
func (s *BalanceService) UpdateYearlyBalance(ctx context.Context, b core.YearlyBalance) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateYearlyBalance(ctx, b); err != nil {
		return err
	}
	s.notify(ctx, core.MutationBalance)
	return nil
}

// DeleteYearlyBalance removes a year's balance record, refused while any
// ledger activity exists inside that year.
func (s *BalanceService) DeleteYearlyBalance(ctx context.Context, year int) error {
	b, err := s.store.GetYearlyBalance(ctx, year)
	if err != nil {
		return err
	}
	activity, err := s.store.CountLedgerActivity(ctx, year)
	if err != nil {
		return fmt.Errorf("count ledger activity: %w", err)
	}
	if activity > 0 {
		return fmt.Errorf("year %d has %d ledger entries: %w", year, activity, core.ErrHasLedgerActivity)
	}
	if err := s.store.DeleteYearlyBalance(ctx, b.ID); err != nil {
		return err
	}
	s.notify(ctx, core.MutationBalance)
	return nil
}

// YearlySummary reconciles one year: ledger flows, the theoretical closing
// balance derived from them, and the variance against the stated closing
// balance when one has been recorded.
func (s *BalanceService) YearlySummary(ctx context.Context, year int) (core.YearlySummary, error) {
	if year < core.MinBalanceYear || year > core.MaxBalanceYear {
		return core.YearlySummary{}, fmt.Errorf("summary for %d: %w", year, core.ErrYearOutOfRange)
	}
	b, err := s.store.GetYearlyBalance(ctx, year)
	if err != nil {
		return core.YearlySummary{}, err
	}

	w := core.YearWindow(year)
	manual, _, err := s.flows.AggregateTotal(ctx, core.SourceManualCollection, w)
	if err != nil {
		return core.YearlySummary{}, fmt.Errorf("sum manual collections: %w", err)
	}
	online, _, err := s.flows.AggregateTotal(ctx, core.SourceOnlinePayment, w)
	if err != nil {
		return core.YearlySummary{}, fmt.Errorf("sum online payments: %w", err)
	}
	expenses, _, err := s.flows.AggregateTotal(ctx, core.SourceExpense, w)
	if err != nil {
		return core.YearlySummary{}, fmt.Errorf("sum expenses: %w", err)
	}

	summary := core.YearlySummary{
		Year:              year,
		OpeningBalance:    b.OpeningBalance,
		ManualCollections: core.Money{Cents: manual},
		OnlinePayments:    core.Money{Cents: online},
		TotalCollections:  core.Money{Cents: manual + online},
		TotalExpenses:     core.Money{Cents: expenses},
	}
	summary.NetMovement = summary.TotalCollections.Sub(summary.TotalExpenses)
	summary.TheoreticalClosing = summary.OpeningBalance.Add(summary.NetMovement)
	if b.ClosingBalance != nil {
		closing := *b.ClosingBalance
		diff := closing.Sub(summary.TheoreticalClosing)
		summary.ClosingBalance = &closing
		summary.BalanceDifference = &diff
	}
	return summary, nil
}

// CurrentBalance returns the snapshot with the latest balance date. An
// empty snapshot log is a valid answer.
func (s *BalanceService) CurrentBalance(ctx context.Context) (core.CurrentBalance, error) {
	snap, ok, err := s.store.LatestAccountSnapshot(ctx)
	if err != nil {
		return core.CurrentBalance{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return core.CurrentBalance{HasData: ok, Snapshot: snap}, nil
}

func (s *BalanceService) ListSnapshots(ctx context.Context, limit int) ([]core.AccountBalance, error) {
	return s.store.ListAccountSnapshots(ctx, limit)
}

// RecordSnapshot appends a point-in-time account balance. At most one
// snapshot per calendar date.
func (s *BalanceService) RecordSnapshot(ctx context.Context, b core.AccountBalance) (core.AccountBalance, error) {
	v := core.NewValidationError()
	if b.BalanceDate.IsZero() {
		v.Add("balanceDate", "balance date is required")
	}
	if err := v.OrNil(); err != nil {
		return core.AccountBalance{}, err
	}
	date := b.BalanceDate.UTC().Format("2006-01-02")
	exists, err := s.store.SnapshotExistsForDate(ctx, date)
	if err != nil {
		return core.AccountBalance{}, fmt.Errorf("check snapshot date: %w", err)
	}
	if exists {
		return core.AccountBalance{}, fmt.Errorf("date %s: %w", date, core.ErrDuplicateSnapshotDate)
	}
	created, err := s.store.CreateAccountSnapshot(ctx, b)
	if err != nil {
		return core.AccountBalance{}, fmt.Errorf("record snapshot: %w", err)
	}
	s.notify(ctx, core.MutationBalance)
	return created, nil
}

// CorrectSnapshot rewrites an existing snapshot in place. The log stays
// append-only for new dates; corrections fix typos on recorded ones.
func (s *BalanceService) CorrectSnapshot(ctx context.Context, b core.AccountBalance) error {
	if err := s.store.UpdateAccountSnapshot(ctx, b); err != nil {
		return err
	}
	s.notify(ctx, core.MutationBalance)
	return nil
}

// SnapshotAsOf returns the newest snapshot dated on or before t.
func (s *BalanceService) SnapshotAsOf(ctx context.Context, t time.Time) (core.CurrentBalance, error) {
	snaps, err := s.store.ListAccountSnapshots(ctx, 0)
	if err != nil {
		return core.CurrentBalance{}, fmt.Errorf("list snapshots: %w", err)
	}
	for _, snap := range snaps {
		if !snap.BalanceDate.After(t) {
			return core.CurrentBalance{HasData: true, Snapshot: snap}, nil
		}
	}
	return core.CurrentBalance{}, nil
}

func (s *BalanceService) notify(ctx context.Context, m core.Mutation) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.LedgerMutated(ctx, m); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mutation", "mutation", m, "error", err)
	}
}
