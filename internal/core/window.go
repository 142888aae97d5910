package core

import "time"

const (
	SourceExpense          Source = "expense"
	SourceManualCollection Source = "manual_collection"
	SourceOnlinePayment    Source = "online_payment"
)

const (
	DimensionNone               Dimension = ""
	DimensionCategory           Dimension = "category"
	DimensionSubcategory        Dimension = "subcategory"
	DimensionMode               Dimension = "mode"
	DimensionCollectionCategory Dimension = "collection_category"
	DimensionProvider           Dimension = "provider"
	DimensionReferenceType      Dimension = "reference_type"
)

type (
	// Source names one of the three heterogeneous inflow/outflow feeds.
	Source string

	// Dimension is an optional group-by axis for an aggregation. Which
	// dimensions apply depends on the source.
	Dimension string

	// Window is an inclusive [From, To] date range. Aggregations filter on
	// the source's own date column: expense date, collection date, or the
	// payment's creation time.
	Window struct {
		From time.Time
		To   time.Time
	}
)

// YearWindow covers the full calendar year y.
func YearWindow(y int) Window {
	return Window{
		From: time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(y, time.December, 31, 23, 59, 59, 999999999, time.UTC),
	}
}

// MonthWindow covers one calendar month of a year.
func MonthWindow(y int, m time.Month) Window {
	from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return Window{
		From: from,
		To:   from.AddDate(0, 1, 0).Add(-time.Nanosecond),
	}
}

func (w Window) Validate() error {
	if w.From.IsZero() || w.To.IsZero() || w.To.Before(w.From) {
		return ErrInvalidWindow
	}
	return nil
}

// Contains reports whether t falls inside the inclusive window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

func (s Source) Valid() bool {
	switch s {
	case SourceExpense, SourceManualCollection, SourceOnlinePayment:
		return true
	default:
		return false
	}
}

// AllowsDimension reports whether d is a valid group-by axis for the source.
// DimensionNone is always allowed and yields an ungrouped total.
func (s Source) AllowsDimension(d Dimension) bool {
	if d == DimensionNone {
		return true
	}
	switch s {
	case SourceExpense:
		return d == DimensionCategory || d == DimensionSubcategory
	case SourceManualCollection:
		return d == DimensionMode || d == DimensionCollectionCategory
	case SourceOnlinePayment:
		return d == DimensionProvider || d == DimensionReferenceType
	default:
		return false
	}
}
