package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"treasury/internal/core"
)

func TestCoordinatorInvalidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100, 0)
	defer store.Close()
	coord := NewCoordinator(store)

	seed := func() {
		store.Set(ctx, Key(PrefixAggregate, "expense", "2024"), []byte("a"), time.Minute)
		store.Set(ctx, Key(PrefixAggregate, "online_payment", "2024"), []byte("b"), time.Minute)
		store.Set(ctx, Key(PrefixTrend, "2024"), []byte("c"), time.Minute)
		store.Set(ctx, Key(PrefixSummary, "2024"), []byte("f"), time.Minute)
		store.Set(ctx, Key(PrefixBalance, "current"), []byte("d"), time.Minute)
		store.Set(ctx, Key(PrefixDashboard, "2024"), []byte("e"), time.Minute)
	}

	t.Run("expense mutation leaves foreign aggregates alone", func(t *testing.T) {
		seed()
		if err := coord.LedgerMutated(ctx, core.MutationExpense); err != nil {
			t.Fatalf("LedgerMutated: %v", err)
		}
		if _, ok, _ := store.Get(ctx, Key(PrefixAggregate, "expense", "2024")); ok {
			t.Error("expense aggregate should be invalidated")
		}
		if _, ok, _ := store.Get(ctx, Key(PrefixAggregate, "online_payment", "2024")); !ok {
			t.Error("payment aggregate should survive an expense mutation")
		}
		if _, ok, _ := store.Get(ctx, Key(PrefixTrend, "2024")); ok {
			t.Error("trend views depend on expenses")
		}
		if _, ok, _ := store.Get(ctx, Key(PrefixBalance, "current")); !ok {
			t.Error("balance views do not depend on expenses")
		}
	})

	t.Run("taxonomy mutation drops every analytics view", func(t *testing.T) {
		for _, m := range []core.Mutation{core.MutationCategory, core.MutationSubcategory} {
			seed()
			if err := coord.LedgerMutated(ctx, m); err != nil {
				t.Fatalf("LedgerMutated(%s): %v", m, err)
			}
			for _, key := range []string{
				Key(PrefixAggregate, "expense", "2024"),
				Key(PrefixTrend, "2024"),
				Key(PrefixSummary, "2024"),
				Key(PrefixDashboard, "2024"),
			} {
				if _, ok, _ := store.Get(ctx, key); ok {
					t.Errorf("%s should not survive a %s mutation", key, m)
				}
			}
			if _, ok, _ := store.Get(ctx, Key(PrefixBalance, "current")); !ok {
				t.Errorf("balance views do not depend on the taxonomy")
			}
		}
	})

	t.Run("balance mutation drops balance and summary views", func(t *testing.T) {
		seed()
		if err := coord.LedgerMutated(ctx, core.MutationBalance); err != nil {
			t.Fatalf("LedgerMutated: %v", err)
		}
		if _, ok, _ := store.Get(ctx, Key(PrefixBalance, "current")); ok {
			t.Error("balance view should be invalidated")
		}
		if _, ok, _ := store.Get(ctx, Key(PrefixDashboard, "2024")); ok {
			t.Error("dashboard embeds the current balance")
		}
		if _, ok, _ := store.Get(ctx, Key(PrefixTrend, "2024")); !ok {
			t.Error("trend views do not depend on balances")
		}
	})

	t.Run("unknown mutation is an error", func(t *testing.T) {
		if err := coord.LedgerMutated(ctx, core.Mutation("audit")); err == nil {
			t.Error("want error for unmapped mutation")
		}
	})

	t.Run("every mutation kind has a mapping", func(t *testing.T) {
		for _, m := range []core.Mutation{
			core.MutationCategory, core.MutationSubcategory, core.MutationExpense,
			core.MutationCollection, core.MutationPayment, core.MutationBalance,
		} {
			if _, ok := mutationPrefixes[m]; !ok {
				t.Errorf("mutation %q has no invalidation mapping", m)
			}
		}
	})
}

type failingStore struct {
	NopStore
}

func (failingStore) DeletePrefix(context.Context, string) (int, error) {
	return 0, errors.New("store down")
}

func TestCoordinatorReportsStoreFailures(t *testing.T) {
	coord := NewCoordinator(failingStore{})
	if err := coord.LedgerMutated(context.Background(), core.MutationExpense); err == nil {
		t.Error("want joined error when the store fails")
	}
}

func TestGetOrCompute(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10, 0)
	defer store.Close()

	calls := 0
	compute := func(context.Context) (map[string]int, error) {
		calls++
		return map[string]int{"net": 42}, nil
	}

	first, err := GetOrCompute(ctx, store, "view:summary:2024", time.Minute, compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	second, err := GetOrCompute(ctx, store, "view:summary:2024", time.Minute, compute)
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}
	if first["net"] != 42 || second["net"] != 42 {
		t.Errorf("values = %v, %v", first, second)
	}

	t.Run("compute failure is returned", func(t *testing.T) {
		boom := errors.New("query failed")
		_, err := GetOrCompute(ctx, store, "view:summary:other", time.Minute,
			func(context.Context) (int, error) { return 0, boom })
		if !errors.Is(err, boom) {
			t.Errorf("err = %v, want compute error", err)
		}
	})

	t.Run("nop store always recomputes", func(t *testing.T) {
		calls := 0
		for range 3 {
			_, err := GetOrCompute(ctx, NopStore{}, "k", time.Minute,
				func(context.Context) (int, error) { calls++; return calls, nil })
			if err != nil {
				t.Fatalf("GetOrCompute: %v", err)
			}
		}
		if calls != 3 {
			t.Errorf("compute ran %d times, want 3", calls)
		}
	})
}
