package storage

import (
	"context"
	"fmt"

	"treasury/internal/core"
)

// GroupTotal is one grouped SUM/COUNT row. Rows come back ordered by
// descending total; ties keep the creation order of the group's first row.
type GroupTotal struct {
	Key        string
	TotalCents int64
	Count      int64
}

// MonthTotal is one calendar-month bucket of a yearly series.
type MonthTotal struct {
	Month      int // 1-12
	TotalCents int64
	Count      int64
}

type sourceSpec struct {
	table   string
	dateCol string
	where   string // extra source-specific predicate
}

func specFor(source core.Source) (sourceSpec, error) {
	switch source {
	case core.SourceExpense:
		return sourceSpec{table: "expenses", dateCol: "expense_date"}, nil
	case core.SourceManualCollection:
		return sourceSpec{table: "manual_collections", dateCol: "collection_date"}, nil
	case core.SourceOnlinePayment:
		return sourceSpec{table: "payment_transactions", dateCol: "created_at", where: "AND t.status = 'COMPLETED'"}, nil
	default:
		return sourceSpec{}, fmt.Errorf("unknown source %q", source)
	}
}

// groupExpr returns the SELECT expression and JOIN clause for a group-by
// dimension. Taxonomy dimensions resolve to names so breakdown keys are
// readable.
func groupExpr(source core.Source, dim core.Dimension) (expr, join string, err error) {
	switch {
	case source == core.SourceExpense && dim == core.DimensionCategory:
		return "c.name", "JOIN expense_categories c ON c.id = t.category_id", nil
	case source == core.SourceExpense && dim == core.DimensionSubcategory:
		return "COALESCE(s.name, 'Unspecified')", "LEFT JOIN expense_subcategories s ON s.id = t.subcategory_id", nil
	case source == core.SourceManualCollection && dim == core.DimensionMode:
		return "t.collection_mode", "", nil
	case source == core.SourceManualCollection && dim == core.DimensionCollectionCategory:
		return "t.category", "", nil
	case source == core.SourceOnlinePayment && dim == core.DimensionProvider:
		return "t.provider", "", nil
	case source == core.SourceOnlinePayment && dim == core.DimensionReferenceType:
		return "t.reference_type", "", nil
	default:
		return "", "", fmt.Errorf("dimension %q not valid for source %q", dim, source)
	}
}

// AggregateTotal sums one source over an inclusive window. Online payments
// are restricted to COMPLETED rows.
func (r *Repository) AggregateTotal(ctx context.Context, source core.Source, w core.Window) (totalCents, count int64, err error) {
	spec, err := specFor(source)
	if err != nil {
		return 0, 0, err
	}
	q := fmt.Sprintf(`
		SELECT COALESCE(SUM(t.amount_cents), 0), COUNT(*)
		FROM %s t
		WHERE date(t.%s) >= ? AND date(t.%s) <= ? %s`,
		spec.table, spec.dateCol, spec.dateCol, spec.where)
	err = r.db.QueryRowContext(ctx, q, fmtDate(w.From), fmtDate(w.To)).Scan(&totalCents, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate %s: %w", source, err)
	}
	return totalCents, count, nil
}

// AggregateGroups is AggregateTotal partitioned by a source dimension,
// ordered by descending total with MIN(rowid) as the stable tie break.
func (r *Repository) AggregateGroups(ctx context.Context, source core.Source, w core.Window, dim core.Dimension) ([]GroupTotal, error) {
	spec, err := specFor(source)
	if err != nil {
		return nil, err
	}
	expr, join, err := groupExpr(source, dim)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
		SELECT %s AS grp, COALESCE(SUM(t.amount_cents), 0), COUNT(*)
		FROM %s t %s
		WHERE date(t.%s) >= ? AND date(t.%s) <= ? %s
		GROUP BY grp
		ORDER BY SUM(t.amount_cents) DESC, MIN(t.id) ASC`,
		expr, spec.table, join, spec.dateCol, spec.dateCol, spec.where)

	rows, err := r.db.QueryContext(ctx, q, fmtDate(w.From), fmtDate(w.To))
	if err != nil {
		return nil, fmt.Errorf("aggregate %s by %s: %w", source, dim, err)
	}
	defer rows.Close()

	var out []GroupTotal
	for rows.Next() {
		var g GroupTotal
		if err := rows.Scan(&g.Key, &g.TotalCents, &g.Count); err != nil {
			return nil, fmt.Errorf("scan group total: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// MonthlyBuckets buckets one source by calendar month within a year. Months
// with no rows are simply absent; callers fill the gaps.
func (r *Repository) MonthlyBuckets(ctx context.Context, source core.Source, year int) ([]MonthTotal, error) {
	spec, err := specFor(source)
	if err != nil {
		return nil, err
	}
	w := core.YearWindow(year)
	q := fmt.Sprintf(`
		SELECT CAST(strftime('%%m', t.%s) AS INTEGER) AS month,
		       COALESCE(SUM(t.amount_cents), 0), COUNT(*)
		FROM %s t
		WHERE date(t.%s) >= ? AND date(t.%s) <= ? %s
		GROUP BY month
		ORDER BY month`,
		spec.dateCol, spec.table, spec.dateCol, spec.dateCol, spec.where)

	rows, err := r.db.QueryContext(ctx, q, fmtDate(w.From), fmtDate(w.To))
	if err != nil {
		return nil, fmt.Errorf("monthly buckets %s: %w", source, err)
	}
	defer rows.Close()

	var out []MonthTotal
	for rows.Next() {
		var m MonthTotal
		if err := rows.Scan(&m.Month, &m.TotalCents, &m.Count); err != nil {
			return nil, fmt.Errorf("scan month bucket: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountLedgerActivity counts expenses and manual collections dated inside a
// year; the yearly balance delete guard uses it.
func (r *Repository) CountLedgerActivity(ctx context.Context, year int) (int64, error) {
	w := core.YearWindow(year)
	from, to := fmtDate(w.From), fmtDate(w.To)
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM expenses WHERE date(expense_date) >= ? AND date(expense_date) <= ?)
		     + (SELECT COUNT(*) FROM manual_collections WHERE date(collection_date) >= ? AND date(collection_date) <= ?)`,
		from, to, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count ledger activity: %w", err)
	}
	return n, nil
}
