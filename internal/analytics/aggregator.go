// Package analytics computes the derived read models of the treasury:
// grouped aggregations over the three ledger sources, monthly and quarterly
// trends, and the statistics attached to them. Nothing in this package is
// persisted; every result is recomputed from the stored facts on demand.
package analytics

import (
	"context"
	"fmt"

	"treasury/internal/core"
	"treasury/internal/storage"
)

// Store is the slice of the ledger storage the analytics layer reads from.
type Store interface {
	AggregateTotal(ctx context.Context, source core.Source, w core.Window) (totalCents, count int64, err error)
	AggregateGroups(ctx context.Context, source core.Source, w core.Window, dim core.Dimension) ([]storage.GroupTotal, error)
	MonthlyBuckets(ctx context.Context, source core.Source, year int) ([]storage.MonthTotal, error)
}

// SnapshotReader provides the latest recorded account snapshot.
type SnapshotReader interface {
	LatestAccountSnapshot(ctx context.Context) (core.AccountBalance, bool, error)
}

// Aggregator answers single-source aggregation queries.
type Aggregator struct {
	store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate sums one source over a window, optionally grouped by a
// dimension. Breakdown rows arrive ordered by descending amount with ties
// kept in creation order; each row carries its share of the overall total,
// 0 when the overall total is zero.
func (a *Aggregator) Aggregate(ctx context.Context, source core.Source, w core.Window, dim core.Dimension) (core.AggregateResult, error) {
	if !source.Valid() {
		return core.AggregateResult{}, fmt.Errorf("aggregate %q: %w", source, core.ErrInvalidSource)
	}
	if !source.AllowsDimension(dim) {
		return core.AggregateResult{}, fmt.Errorf("aggregate %s by %q: %w", source, dim, core.ErrInvalidDimension)
	}
	if err := w.Validate(); err != nil {
		return core.AggregateResult{}, fmt.Errorf("aggregate %s: %w", source, err)
	}

	totalCents, count, err := a.store.AggregateTotal(ctx, source, w)
	if err != nil {
		return core.AggregateResult{}, fmt.Errorf("aggregate %s total: %w", source, err)
	}

	result := core.AggregateResult{
		Source:      source,
		TotalAmount: core.Money{Cents: totalCents},
		Count:       count,
	}
	if dim == core.DimensionNone {
		return result, nil
	}

	groups, err := a.store.AggregateGroups(ctx, source, w, dim)
	if err != nil {
		return core.AggregateResult{}, fmt.Errorf("aggregate %s by %s: %w", source, dim, err)
	}
	result.Breakdown = make([]core.BreakdownEntry, 0, len(groups))
	for _, g := range groups {
		entry := core.BreakdownEntry{
			Key:    g.Key,
			Amount: core.Money{Cents: g.TotalCents},
			Count:  g.Count,
		}
		if totalCents != 0 {
			entry.Percentage = float64(g.TotalCents) / float64(totalCents) * 100
		}
		result.Breakdown = append(result.Breakdown, entry)
	}
	return result, nil
}

// SourceTotals sums every source over the same window.
func (a *Aggregator) SourceTotals(ctx context.Context, w core.Window) (map[core.Source]core.SourceTotal, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	totals := make(map[core.Source]core.SourceTotal, 3)
	for _, source := range []core.Source{core.SourceExpense, core.SourceManualCollection, core.SourceOnlinePayment} {
		cents, count, err := a.store.AggregateTotal(ctx, source, w)
		if err != nil {
			return nil, fmt.Errorf("totals for %s: %w", source, err)
		}
		totals[source] = core.SourceTotal{Total: core.Money{Cents: cents}, Count: count}
	}
	return totals, nil
}
