package analytics

import (
	"context"
	"errors"
	"testing"

	"treasury/internal/core"
	"treasury/internal/storage"
)

// fakeStore serves canned aggregation rows keyed by source.
type fakeStore struct {
	totals  map[core.Source]storage.GroupTotal // TotalCents/Count reused for the ungrouped total
	groups  map[core.Source][]storage.GroupTotal
	buckets map[core.Source][]storage.MonthTotal
	err     error
}

func (f *fakeStore) AggregateTotal(_ context.Context, source core.Source, _ core.Window) (int64, int64, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	row := f.totals[source]
	return row.TotalCents, row.Count, nil
}

func (f *fakeStore) AggregateGroups(_ context.Context, source core.Source, _ core.Window, _ core.Dimension) ([]storage.GroupTotal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.groups[source], nil
}

func (f *fakeStore) MonthlyBuckets(_ context.Context, source core.Source, _ int) ([]storage.MonthTotal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.buckets[source], nil
}

type fakeSnapshots struct {
	snapshot core.AccountBalance
	hasData  bool
	err      error
}

func (f *fakeSnapshots) LatestAccountSnapshot(context.Context) (core.AccountBalance, bool, error) {
	return f.snapshot, f.hasData, f.err
}

func TestAggregatorAggregate(t *testing.T) {
	store := &fakeStore{
		totals: map[core.Source]storage.GroupTotal{
			core.SourceExpense: {TotalCents: 500000, Count: 3},
		},
		groups: map[core.Source][]storage.GroupTotal{
			core.SourceExpense: {
				{Key: "Venue", TotalCents: 300000, Count: 2},
				{Key: "Catering", TotalCents: 200000, Count: 1},
			},
		},
	}
	agg := NewAggregator(store)

	t.Run("grouped result with percentages", func(t *testing.T) {
		got, err := agg.Aggregate(context.Background(), core.SourceExpense, core.YearWindow(2024), core.DimensionCategory)
		if err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
		if got.TotalAmount.Cents != 500000 || got.Count != 3 {
			t.Errorf("total = %d/%d, want 500000/3", got.TotalAmount.Cents, got.Count)
		}
		if len(got.Breakdown) != 2 {
			t.Fatalf("breakdown length = %d, want 2", len(got.Breakdown))
		}
		if got.Breakdown[0].Key != "Venue" || !almostEqual(got.Breakdown[0].Percentage, 60) {
			t.Errorf("first group = %q %.2f%%, want Venue 60%%", got.Breakdown[0].Key, got.Breakdown[0].Percentage)
		}
		var sum float64
		for _, b := range got.Breakdown {
			sum += b.Percentage
		}
		if !almostEqual(sum, 100) {
			t.Errorf("percentages sum to %v, want 100", sum)
		}
	})

	t.Run("zero total yields zero percentages", func(t *testing.T) {
		empty := &fakeStore{
			groups: map[core.Source][]storage.GroupTotal{
				core.SourceExpense: {{Key: "Venue", TotalCents: 0, Count: 0}},
			},
		}
		got, err := NewAggregator(empty).Aggregate(context.Background(), core.SourceExpense, core.YearWindow(2024), core.DimensionCategory)
		if err != nil {
			t.Fatalf("Aggregate: %v", err)
		}
		for _, b := range got.Breakdown {
			if b.Percentage != 0 {
				t.Errorf("percentage for %q = %v, want 0", b.Key, b.Percentage)
			}
		}
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		_, err := agg.Aggregate(context.Background(), core.Source("refund"), core.YearWindow(2024), core.DimensionNone)
		if !errors.Is(err, core.ErrInvalidSource) {
			t.Errorf("err = %v, want ErrInvalidSource", err)
		}
	})

	t.Run("rejects mismatched dimension", func(t *testing.T) {
		_, err := agg.Aggregate(context.Background(), core.SourceExpense, core.YearWindow(2024), core.DimensionProvider)
		if !errors.Is(err, core.ErrInvalidDimension) {
			t.Errorf("err = %v, want ErrInvalidDimension", err)
		}
	})

	t.Run("rejects inverted window", func(t *testing.T) {
		w := core.Window{From: core.YearWindow(2024).To, To: core.YearWindow(2024).From}
		_, err := agg.Aggregate(context.Background(), core.SourceExpense, w, core.DimensionNone)
		if !errors.Is(err, core.ErrInvalidWindow) {
			t.Errorf("err = %v, want ErrInvalidWindow", err)
		}
	})
}

func TestEngineMonthlyTrend(t *testing.T) {
	t.Run("always twelve months", func(t *testing.T) {
		engine := NewEngine(&fakeStore{}, &fakeSnapshots{})
		entries, err := engine.MonthlyTrend(context.Background(), 2024)
		if err != nil {
			t.Fatalf("MonthlyTrend: %v", err)
		}
		if len(entries) != 12 {
			t.Fatalf("got %d entries, want 12", len(entries))
		}
		for _, e := range entries {
			if e.Expenses.Total.Cents != 0 || e.Collections().Cents != 0 || e.NetMovement.Cents != 0 {
				t.Errorf("month %d not zero-valued: %+v", e.Month, e)
			}
		}
	})

	t.Run("net movement per month", func(t *testing.T) {
		store := &fakeStore{
			buckets: map[core.Source][]storage.MonthTotal{
				core.SourceExpense:          {{Month: 3, TotalCents: 120000, Count: 1}},
				core.SourceManualCollection: {{Month: 3, TotalCents: 200000, Count: 2}},
				core.SourceOnlinePayment:    {{Month: 4, TotalCents: 300000, Count: 3}},
			},
		}
		entries, err := NewEngine(store, &fakeSnapshots{}).MonthlyTrend(context.Background(), 2024)
		if err != nil {
			t.Fatalf("MonthlyTrend: %v", err)
		}
		march := entries[2]
		if march.NetMovement.Cents != 80000 {
			t.Errorf("march net = %d, want 80000", march.NetMovement.Cents)
		}
		april := entries[3]
		if april.NetMovement.Cents != 300000 {
			t.Errorf("april net = %d, want 300000", april.NetMovement.Cents)
		}
	})

	t.Run("year bounds", func(t *testing.T) {
		engine := NewEngine(&fakeStore{}, &fakeSnapshots{})
		if _, err := engine.MonthlyTrend(context.Background(), 1999); !errors.Is(err, core.ErrYearOutOfRange) {
			t.Errorf("err = %v, want ErrYearOutOfRange", err)
		}
	})

	t.Run("store failure propagates", func(t *testing.T) {
		boom := errors.New("disk gone")
		engine := NewEngine(&fakeStore{err: boom}, &fakeSnapshots{})
		if _, err := engine.MonthlyTrend(context.Background(), 2024); !errors.Is(err, boom) {
			t.Errorf("err = %v, want wrapped store error", err)
		}
	})
}

func TestQuarterlyRollup(t *testing.T) {
	months := make([]core.MonthlyTrendEntry, 12)
	for i := range months {
		months[i].Month = i + 1
	}
	months[0].Expenses = core.SourceTotal{Total: core.Money{Cents: 10000}}
	months[2].ManualCollections = core.SourceTotal{Total: core.Money{Cents: 30000}}
	months[4].OnlinePayments = core.SourceTotal{Total: core.Money{Cents: 5000}}
	for i := range months {
		months[i].NetMovement = months[i].Collections().Sub(months[i].Expenses.Total)
	}

	quarters := QuarterlyRollup(months)
	if len(quarters) != 4 {
		t.Fatalf("got %d quarters, want 4", len(quarters))
	}
	q1 := quarters[0]
	if q1.Expenses.Cents != 10000 || q1.Collections.Cents != 30000 || q1.NetMovement.Cents != 20000 {
		t.Errorf("Q1 = %+v, want expenses 10000, collections 30000, net 20000", q1)
	}
	q2 := quarters[1]
	if q2.Collections.Cents != 5000 || q2.NetMovement.Cents != 5000 {
		t.Errorf("Q2 = %+v, want collections 5000, net 5000", q2)
	}
	if quarters[3].NetMovement.Cents != 0 {
		t.Errorf("Q4 net = %d, want 0", quarters[3].NetMovement.Cents)
	}
}

func TestStats(t *testing.T) {
	months := make([]core.MonthlyTrendEntry, 12)
	for i := range months {
		months[i].Month = i + 1
		months[i].NetMovement = core.Money{Cents: 100000}
	}
	months[6].NetMovement = core.Money{Cents: 500000}
	months[9].NetMovement = core.Money{Cents: -200000}

	stats := Stats(months)
	if stats.PeakMonth != 7 {
		t.Errorf("peak month = %d, want 7", stats.PeakMonth)
	}
	if stats.TroughMonth != 10 {
		t.Errorf("trough month = %d, want 10", stats.TroughMonth)
	}
	if stats.Direction == "" {
		t.Error("direction should never be empty")
	}

	empty := Stats(nil)
	if empty.PeakMonth != 0 || empty.TroughMonth != 0 {
		t.Errorf("empty stats = %+v, want zero peak and trough", empty)
	}
	if empty.Direction != TrendStable {
		t.Errorf("empty direction = %q, want stable", empty.Direction)
	}
}

func TestEngineSurplusDeficit(t *testing.T) {
	store := &fakeStore{
		totals: map[core.Source]storage.GroupTotal{
			core.SourceExpense:          {TotalCents: 120000, Count: 1},
			core.SourceManualCollection: {TotalCents: 200000, Count: 2},
			core.SourceOnlinePayment:    {TotalCents: 300000, Count: 3},
		},
	}
	engine := NewEngine(store, &fakeSnapshots{})

	got, err := engine.SurplusDeficit(context.Background(), core.YearWindow(2024))
	if err != nil {
		t.Fatalf("SurplusDeficit: %v", err)
	}
	if got.TotalCollections.Cents != 500000 {
		t.Errorf("collections = %d, want 500000", got.TotalCollections.Cents)
	}
	if got.Net.Cents != 380000 || !got.IsSurplus {
		t.Errorf("net = %d surplus=%v, want 380000 surplus", got.Net.Cents, got.IsSurplus)
	}

	store.totals[core.SourceExpense] = storage.GroupTotal{TotalCents: 600000, Count: 4}
	got, err = engine.SurplusDeficit(context.Background(), core.YearWindow(2024))
	if err != nil {
		t.Fatalf("SurplusDeficit: %v", err)
	}
	if got.Net.Cents != -100000 || got.IsSurplus {
		t.Errorf("net = %d surplus=%v, want -100000 deficit", got.Net.Cents, got.IsSurplus)
	}
}

func TestEngineYearlyComparison(t *testing.T) {
	store := &fakeStore{
		totals: map[core.Source]storage.GroupTotal{
			core.SourceExpense:          {TotalCents: 100000},
			core.SourceManualCollection: {TotalCents: 150000},
		},
	}
	engine := NewEngine(store, &fakeSnapshots{})

	entries, err := engine.YearlyComparison(context.Background(), 2022, 2024)
	if err != nil {
		t.Fatalf("YearlyComparison: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if e.Year != 2022+i {
			t.Errorf("entry %d year = %d, want %d", i, e.Year, 2022+i)
		}
		if e.NetMovement.Cents != 50000 {
			t.Errorf("year %d net = %d, want 50000", e.Year, e.NetMovement.Cents)
		}
	}

	if _, err := engine.YearlyComparison(context.Background(), 2024, 2022); !errors.Is(err, core.ErrInvalidWindow) {
		t.Errorf("inverted range err = %v, want ErrInvalidWindow", err)
	}
	if _, err := engine.YearlyComparison(context.Background(), 1990, 2024); !errors.Is(err, core.ErrYearOutOfRange) {
		t.Errorf("out-of-range err = %v, want ErrYearOutOfRange", err)
	}
}

func TestEngineDashboard(t *testing.T) {
	store := &fakeStore{
		totals: map[core.Source]storage.GroupTotal{
			core.SourceExpense:          {TotalCents: 120000, Count: 1},
			core.SourceManualCollection: {TotalCents: 200000, Count: 2},
			core.SourceOnlinePayment:    {TotalCents: 300000, Count: 3},
		},
		groups: map[core.Source][]storage.GroupTotal{
			core.SourceExpense: {{Key: "Venue", TotalCents: 120000, Count: 1}},
		},
	}

	t.Run("with snapshot", func(t *testing.T) {
		snap := &fakeSnapshots{
			hasData:  true,
			snapshot: core.AccountBalance{ID: 7, CurrentBalance: core.Money{Cents: 1000000}},
		}
		got, err := NewEngine(store, snap).Dashboard(context.Background(), core.YearWindow(2024))
		if err != nil {
			t.Fatalf("Dashboard: %v", err)
		}
		if got.NetMovement.Cents != 380000 {
			t.Errorf("net movement = %d, want 380000", got.NetMovement.Cents)
		}
		if !got.CurrentBalance.HasData || got.CurrentBalance.Snapshot.ID != 7 {
			t.Errorf("current balance = %+v, want snapshot 7", got.CurrentBalance)
		}
		if len(got.Expenses.Breakdown) != 1 || got.Expenses.Breakdown[0].Key != "Venue" {
			t.Errorf("expense breakdown = %+v, want single Venue group", got.Expenses.Breakdown)
		}
	})

	t.Run("no snapshot is not an error", func(t *testing.T) {
		got, err := NewEngine(store, &fakeSnapshots{}).Dashboard(context.Background(), core.YearWindow(2024))
		if err != nil {
			t.Fatalf("Dashboard: %v", err)
		}
		if got.CurrentBalance.HasData {
			t.Error("HasData = true, want false when no snapshot exists")
		}
	})

	t.Run("snapshot failure fails the view", func(t *testing.T) {
		boom := errors.New("redis down")
		_, err := NewEngine(store, &fakeSnapshots{err: boom}).Dashboard(context.Background(), core.YearWindow(2024))
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want wrapped snapshot error", err)
		}
	})
}
