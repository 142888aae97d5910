package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"treasury/internal/core"
)

// mutationPrefixes maps each committed mutation to the view-key prefixes it
// invalidates. The map is the single source of truth for cache coherence:
// a view not listed under a mutation may serve stale data after it.
var mutationPrefixes = map[core.Mutation][]string{
	core.MutationCategory: {
		PrefixCategories,
		Key(PrefixAggregate, string(core.SourceExpense)),
		PrefixTrend,
		PrefixSummary,
		PrefixDashboard,
	},
	core.MutationSubcategory: {
		PrefixCategories,
		Key(PrefixAggregate, string(core.SourceExpense)),
		PrefixTrend,
		PrefixSummary,
		PrefixDashboard,
	},
	core.MutationExpense: {
		PrefixCategories, // per-category stats embed expense counts
		Key(PrefixAggregate, string(core.SourceExpense)),
		PrefixTrend,
		PrefixSummary,
		PrefixDashboard,
	},
	core.MutationCollection: {
		Key(PrefixAggregate, string(core.SourceManualCollection)),
		PrefixTrend,
		PrefixSummary,
		PrefixDashboard,
	},
	core.MutationPayment: {
		Key(PrefixAggregate, string(core.SourceOnlinePayment)),
		PrefixTrend,
		PrefixSummary,
		PrefixDashboard,
	},
	core.MutationBalance: {
		PrefixBalance,
		PrefixSummary,
		PrefixDashboard,
	},
}

// Coordinator translates ledger mutations into prefix invalidations on a
// store. It satisfies the services.Notifier contract.
type Coordinator struct {
	store Store
}

func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{store: store}
}

// LedgerMutated drops every view family dependent on the mutation. All
// prefixes are attempted even when one fails; the joined error goes back to
// the caller, which treats invalidation as best effort.
func (c *Coordinator) LedgerMutated(ctx context.Context, m core.Mutation) error {
	prefixes, ok := mutationPrefixes[m]
	if !ok {
		return fmt.Errorf("no invalidation mapping for mutation %q", m)
	}
	var errs []error
	for _, prefix := range prefixes {
		removed, err := c.store.DeletePrefix(ctx, prefix)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if removed > 0 {
			slog.DebugContext(ctx, "Invalidated cached views",
				"mutation", m, "prefix", prefix, "removed", removed)
		}
	}
	return errors.Join(errs...)
}
