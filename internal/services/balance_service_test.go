package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"treasury/internal/core"
)

func newBalanceFixture() (*BalanceService, *fakeBalanceStore, *fakeFlows, *recordingNotifier) {
	store := newFakeBalanceStore()
	flows := &fakeFlows{totals: make(map[core.Source]int64)}
	notifier := &recordingNotifier{}
	return NewBalanceService(store, flows, notifier), store, flows, notifier
}

func TestBalanceService_CreateYearlyBalance(t *testing.T) {
	svc, _, _, _ := newBalanceFixture()
	ctx := context.Background()

	b := core.YearlyBalance{Year: 2024, OpeningBalance: core.Money{Cents: 1000000}, CreatedBy: 1}
	if _, err := svc.CreateYearlyBalance(ctx, b); err != nil {
		t.Fatalf("CreateYearlyBalance: %v", err)
	}
	if _, err := svc.CreateYearlyBalance(ctx, b); !errors.Is(err, core.ErrDuplicateYear) {
		t.Errorf("duplicate year err = %v, want ErrDuplicateYear", err)
	}

	for _, year := range []int{1999, 2051} {
		bad := b
		bad.Year = year
		if _, err := svc.CreateYearlyBalance(ctx, bad); !errors.Is(err, core.ErrYearOutOfRange) {
			t.Errorf("year %d err = %v, want ErrYearOutOfRange", year, err)
		}
	}
}

func TestBalanceService_YearlySummary(t *testing.T) {
	svc, _, flows, _ := newBalanceFixture()
	ctx := context.Background()

	// Opening 10000.00; manual 2000.00 + online 3000.00 against expenses
	// 1200.00 gives net 3800.00 and theoretical closing 13800.00.
	if _, err := svc.CreateYearlyBalance(ctx, core.YearlyBalance{
		Year:           2024,
		OpeningBalance: core.Money{Cents: 1000000},
		CreatedBy:      1,
	}); err != nil {
		t.Fatalf("CreateYearlyBalance: %v", err)
	}
	flows.totals[core.SourceManualCollection] = 200000
	flows.totals[core.SourceOnlinePayment] = 300000
	flows.totals[core.SourceExpense] = 120000

	summary, err := svc.YearlySummary(ctx, 2024)
	if err != nil {
		t.Fatalf("YearlySummary: %v", err)
	}
	if summary.NetMovement.Cents != 380000 {
		t.Errorf("net movement = %d, want 380000", summary.NetMovement.Cents)
	}
	if summary.TheoreticalClosing.Cents != 1380000 {
		t.Errorf("theoretical closing = %d, want 1380000", summary.TheoreticalClosing.Cents)
	}
	if summary.ClosingBalance != nil || summary.BalanceDifference != nil {
		t.Error("difference must be absent before a closing balance is set")
	}

	if _, err := svc.SetClosingBalance(ctx, 2024, core.Money{Cents: 1350000}); err != nil {
		t.Fatalf("SetClosingBalance: %v", err)
	}
	summary, err = svc.YearlySummary(ctx, 2024)
	if err != nil {
		t.Fatalf("YearlySummary: %v", err)
	}
	if summary.BalanceDifference == nil || summary.BalanceDifference.Cents != -30000 {
		t.Errorf("difference = %v, want -30000", summary.BalanceDifference)
	}

	// Re-setting the closing balance is an idempotent overwrite.
	if _, err := svc.SetClosingBalance(ctx, 2024, core.Money{Cents: 1380000}); err != nil {
		t.Fatalf("SetClosingBalance again: %v", err)
	}
	summary, _ = svc.YearlySummary(ctx, 2024)
	if summary.BalanceDifference == nil || summary.BalanceDifference.Cents != 0 {
		t.Errorf("difference after correction = %v, want 0", summary.BalanceDifference)
	}

	if _, err := svc.YearlySummary(ctx, 2030); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("summary for missing year err = %v, want ErrNotFound", err)
	}
}

func TestBalanceService_YearlySummaryYearRange(t *testing.T) {
	svc, _, _, _ := newBalanceFixture()
	ctx := context.Background()

	for _, year := range []int{1999, 2051} {
		if _, err := svc.YearlySummary(ctx, year); !errors.Is(err, core.ErrYearOutOfRange) {
			t.Errorf("summary for %d err = %v, want ErrYearOutOfRange", year, err)
		}
	}
}

func TestBalanceService_DeleteYearlyBalanceGuard(t *testing.T) {
	svc, store, _, _ := newBalanceFixture()
	ctx := context.Background()

	if _, err := svc.CreateYearlyBalance(ctx, core.YearlyBalance{
		Year:           2024,
		OpeningBalance: core.Money{Cents: 1},
		CreatedBy:      1,
	}); err != nil {
		t.Fatalf("CreateYearlyBalance: %v", err)
	}

	store.activity[2024] = 3
	if err := svc.DeleteYearlyBalance(ctx, 2024); !errors.Is(err, core.ErrHasLedgerActivity) {
		t.Errorf("err = %v, want ErrHasLedgerActivity", err)
	}

	store.activity[2024] = 0
	if err := svc.DeleteYearlyBalance(ctx, 2024); err != nil {
		t.Fatalf("DeleteYearlyBalance: %v", err)
	}
}

func TestBalanceService_Snapshots(t *testing.T) {
	svc, _, _, notifier := newBalanceFixture()
	ctx := context.Background()

	t.Run("empty log", func(t *testing.T) {
		current, err := svc.CurrentBalance(ctx)
		if err != nil {
			t.Fatalf("CurrentBalance: %v", err)
		}
		if current.HasData {
			t.Error("HasData = true on an empty snapshot log")
		}
	})

	march := core.AccountBalance{
		CurrentBalance: core.Money{Cents: 900000},
		BalanceDate:    time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		UpdatedBy:      1,
	}
	june := march
	june.CurrentBalance = core.Money{Cents: 1100000}
	june.BalanceDate = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	if _, err := svc.RecordSnapshot(ctx, march); err != nil {
		t.Fatalf("RecordSnapshot: %v", err)
	}
	if _, err := svc.RecordSnapshot(ctx, june); err != nil {
		t.Fatalf("RecordSnapshot: %v", err)
	}

	t.Run("one snapshot per date", func(t *testing.T) {
		dup := march
		dup.CurrentBalance = core.Money{Cents: 1}
		if _, err := svc.RecordSnapshot(ctx, dup); !errors.Is(err, core.ErrDuplicateSnapshotDate) {
			t.Errorf("err = %v, want ErrDuplicateSnapshotDate", err)
		}
	})

	t.Run("current balance is the latest date", func(t *testing.T) {
		current, err := svc.CurrentBalance(ctx)
		if err != nil {
			t.Fatalf("CurrentBalance: %v", err)
		}
		if !current.HasData || current.Snapshot.CurrentBalance.Cents != 1100000 {
			t.Errorf("current = %+v, want the june snapshot", current)
		}
	})

	t.Run("as-of lookup", func(t *testing.T) {
		asOf, err := svc.SnapshotAsOf(ctx, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("SnapshotAsOf: %v", err)
		}
		if !asOf.HasData || asOf.Snapshot.CurrentBalance.Cents != 900000 {
			t.Errorf("as-of = %+v, want the march snapshot", asOf)
		}

		early, err := svc.SnapshotAsOf(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("SnapshotAsOf: %v", err)
		}
		if early.HasData {
			t.Error("no snapshot should match a date before the first entry")
		}
	})

	if len(notifier.mutations) != 2 {
		t.Errorf("mutations = %v, want one per recorded snapshot", notifier.mutations)
	}
}
