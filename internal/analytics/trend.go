package analytics

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"treasury/internal/core"
	"treasury/internal/storage"
)

// Engine computes multi-source trend views. The per-source series are
// fetched concurrently; a failure on any source fails the whole view.
type Engine struct {
	store     Store
	snapshots SnapshotReader
	agg       *Aggregator
}

func NewEngine(store Store, snapshots SnapshotReader) *Engine {
	return &Engine{store: store, snapshots: snapshots, agg: NewAggregator(store)}
}

// MonthlyTrend returns exactly twelve buckets for a year, one per calendar
// month, zero-valued where the ledger has no activity.
func (e *Engine) MonthlyTrend(ctx context.Context, year int) ([]core.MonthlyTrendEntry, error) {
	if year < core.MinBalanceYear || year > core.MaxBalanceYear {
		return nil, fmt.Errorf("trend for %d: %w", year, core.ErrYearOutOfRange)
	}

	var expenses, manual, online []storage.MonthTotal
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		expenses, err = e.store.MonthlyBuckets(gctx, core.SourceExpense, year)
		return err
	})
	g.Go(func() (err error) {
		manual, err = e.store.MonthlyBuckets(gctx, core.SourceManualCollection, year)
		return err
	})
	g.Go(func() (err error) {
		online, err = e.store.MonthlyBuckets(gctx, core.SourceOnlinePayment, year)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monthly trend %d: %w", year, err)
	}

	entries := make([]core.MonthlyTrendEntry, 12)
	for i := range entries {
		entries[i].Month = i + 1
	}
	fill := func(rows []storage.MonthTotal, set func(*core.MonthlyTrendEntry, core.SourceTotal)) {
		for _, row := range rows {
			if row.Month < 1 || row.Month > 12 {
				continue
			}
			set(&entries[row.Month-1], core.SourceTotal{
				Total: core.Money{Cents: row.TotalCents},
				Count: row.Count,
			})
		}
	}
	fill(expenses, func(e *core.MonthlyTrendEntry, t core.SourceTotal) { e.Expenses = t })
	fill(manual, func(e *core.MonthlyTrendEntry, t core.SourceTotal) { e.ManualCollections = t })
	fill(online, func(e *core.MonthlyTrendEntry, t core.SourceTotal) { e.OnlinePayments = t })
	for i := range entries {
		entries[i].NetMovement = entries[i].Collections().Sub(entries[i].Expenses.Total)
	}
	return entries, nil
}

// QuarterlyRollup folds a twelve-month trend into four quarters.
func QuarterlyRollup(months []core.MonthlyTrendEntry) []core.QuarterlyTrendEntry {
	quarters := make([]core.QuarterlyTrendEntry, 4)
	for i := range quarters {
		quarters[i].Quarter = i + 1
	}
	for _, m := range months {
		if m.Month < 1 || m.Month > 12 {
			continue
		}
		q := &quarters[(m.Month-1)/3]
		q.Expenses = q.Expenses.Add(m.Expenses.Total)
		q.Collections = q.Collections.Add(m.Collections())
		q.NetMovement = q.NetMovement.Add(m.NetMovement)
	}
	return quarters
}

// Stats derives the statistics of a monthly trend from its net-movement
// series.
func Stats(months []core.MonthlyTrendEntry) core.TrendStats {
	series := make([]float64, 0, len(months))
	for _, m := range months {
		series = append(series, m.NetMovement.Units())
	}
	stats := core.TrendStats{
		GrowthRate:  GrowthRate(series),
		Consistency: Consistency(series),
		Volatility:  Volatility(series),
		Direction:   TrendDirection(series),
	}
	if len(months) > 0 {
		peak, trough := 0, 0
		for i, m := range months {
			if m.NetMovement.Cents > months[peak].NetMovement.Cents {
				peak = i
			}
			if m.NetMovement.Cents < months[trough].NetMovement.Cents {
				trough = i
			}
		}
		stats.PeakMonth = months[peak].Month
		stats.TroughMonth = months[trough].Month
	}
	return stats
}

// Aggregate delegates to the embedded aggregator so the engine exposes the
// whole analytics surface.
func (e *Engine) Aggregate(ctx context.Context, source core.Source, w core.Window, dim core.Dimension) (core.AggregateResult, error) {
	return e.agg.Aggregate(ctx, source, w, dim)
}

// SourceTotals delegates to the embedded aggregator.
func (e *Engine) SourceTotals(ctx context.Context, w core.Window) (map[core.Source]core.SourceTotal, error) {
	return e.agg.SourceTotals(ctx, w)
}

// SurplusDeficit nets the three sources over an arbitrary window.
func (e *Engine) SurplusDeficit(ctx context.Context, w core.Window) (core.SurplusDeficit, error) {
	totals, err := e.agg.SourceTotals(ctx, w)
	if err != nil {
		return core.SurplusDeficit{}, fmt.Errorf("surplus/deficit: %w", err)
	}
	out := core.SurplusDeficit{
		Window:            w,
		ManualCollections: totals[core.SourceManualCollection].Total,
		OnlinePayments:    totals[core.SourceOnlinePayment].Total,
		TotalExpenses:     totals[core.SourceExpense].Total,
	}
	out.TotalCollections = out.ManualCollections.Add(out.OnlinePayments)
	out.Net = out.TotalCollections.Sub(out.TotalExpenses)
	out.IsSurplus = out.Net.Cents >= 0
	return out, nil
}

// YearlyComparison returns per-year totals for an inclusive year range,
// fetched concurrently, ordered by ascending year.
func (e *Engine) YearlyComparison(ctx context.Context, fromYear, toYear int) ([]core.YearComparisonEntry, error) {
	if fromYear > toYear {
		return nil, core.ErrInvalidWindow
	}
	if fromYear < core.MinBalanceYear || toYear > core.MaxBalanceYear {
		return nil, core.ErrYearOutOfRange
	}

	entries := make([]core.YearComparisonEntry, toYear-fromYear+1)
	g, gctx := errgroup.WithContext(ctx)
	for i := range entries {
		year := fromYear + i
		entries[i].Year = year
		entry := &entries[i]
		g.Go(func() error {
			sd, err := e.SurplusDeficit(gctx, core.YearWindow(year))
			if err != nil {
				return fmt.Errorf("comparison year %d: %w", year, err)
			}
			entry.Expenses = sd.TotalExpenses
			entry.Collections = sd.TotalCollections
			entry.NetMovement = sd.Net
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Dashboard assembles the aggregated view behind the landing page: one
// grouped aggregate per source plus the latest account snapshot, fetched
// concurrently.
func (e *Engine) Dashboard(ctx context.Context, w core.Window) (core.DashboardSummary, error) {
	if err := w.Validate(); err != nil {
		return core.DashboardSummary{}, err
	}

	out := core.DashboardSummary{Window: w}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Expenses, err = e.agg.Aggregate(gctx, core.SourceExpense, w, core.DimensionCategory)
		return err
	})
	g.Go(func() (err error) {
		out.ManualCollections, err = e.agg.Aggregate(gctx, core.SourceManualCollection, w, core.DimensionMode)
		return err
	})
	g.Go(func() (err error) {
		out.OnlinePayments, err = e.agg.Aggregate(gctx, core.SourceOnlinePayment, w, core.DimensionProvider)
		return err
	})
	g.Go(func() error {
		snap, ok, err := e.snapshots.LatestAccountSnapshot(gctx)
		if err != nil {
			return fmt.Errorf("latest snapshot: %w", err)
		}
		out.CurrentBalance = core.CurrentBalance{HasData: ok, Snapshot: snap}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.DashboardSummary{}, fmt.Errorf("dashboard: %w", err)
	}
	out.NetMovement = out.ManualCollections.TotalAmount.
		Add(out.OnlinePayments.TotalAmount).
		Sub(out.Expenses.TotalAmount)
	return out, nil
}
