package core

// Derived results are computed on demand from the ledger and never stored,
// so they must stay deterministic pure functions of their inputs.

// BreakdownEntry is one group of a grouped aggregate.
type BreakdownEntry struct {
	Key        string
	Amount     Money
	Count      int64
	Percentage float64 // group / overall * 100, 0 when the overall total is 0
}

// AggregateResult is the outcome of aggregating one source over a window.
// Breakdown is ordered by descending amount; ties keep the creation order
// of the underlying group key.
type AggregateResult struct {
	Source      Source
	TotalAmount Money
	Count       int64
	Breakdown   []BreakdownEntry
}

// SourceTotal is a per-source slice of a trend bucket.
type SourceTotal struct {
	Total Money
	Count int64
}

// MonthlyTrendEntry is one of the twelve buckets of a yearly trend. All
// twelve months are always present, zero-valued when empty.
type MonthlyTrendEntry struct {
	Month             int // 1-12
	Expenses          SourceTotal
	ManualCollections SourceTotal
	OnlinePayments    SourceTotal
	NetMovement       Money
}

// Collections returns manual plus online inflows for the month.
func (m MonthlyTrendEntry) Collections() Money {
	return m.ManualCollections.Total.Add(m.OnlinePayments.Total)
}

// QuarterlyTrendEntry sums three months into one quarter bucket.
type QuarterlyTrendEntry struct {
	Quarter     int // 1-4
	Expenses    Money
	Collections Money
	NetMovement Money
}

// YearlySummary reconciles a calendar year: flows, the theoretically derived
// closing balance, and the variance against the stated closing balance.
// BalanceDifference is nil until a closing balance has been recorded.
type YearlySummary struct {
	Year               int
	OpeningBalance     Money
	ManualCollections  Money
	OnlinePayments     Money
	TotalCollections   Money
	TotalExpenses      Money
	NetMovement        Money
	TheoreticalClosing Money
	ClosingBalance     *Money
	BalanceDifference  *Money
}

// YearComparisonEntry is one year's totals inside a multi-year comparison.
type YearComparisonEntry struct {
	Year        int
	Expenses    Money
	Collections Money
	NetMovement Money
}

// CurrentBalance is the latest account snapshot. HasData false means no
// snapshot exists yet; that is a valid answer, not an error.
type CurrentBalance struct {
	HasData  bool
	Snapshot AccountBalance
}

// SurplusDeficit breaks net movement over a window into per-source
// contributions.
type SurplusDeficit struct {
	Window            Window
	ManualCollections Money
	OnlinePayments    Money
	TotalCollections  Money
	TotalExpenses     Money
	Net               Money
	IsSurplus         bool
}

// TrendStats carries the derived statistics for a monthly net-movement
// series.
type TrendStats struct {
	GrowthRate  float64
	Consistency float64
	Volatility  float64
	Direction   string // "increasing", "decreasing" or "stable"
	PeakMonth   int    // month with the highest net movement, 0 when empty
	TroughMonth int    // month with the lowest net movement, 0 when empty
}

// DashboardSummary is the fan-out/fan-in read model behind the dashboard.
type DashboardSummary struct {
	Window            Window
	Expenses          AggregateResult
	ManualCollections AggregateResult
	OnlinePayments    AggregateResult
	NetMovement       Money
	CurrentBalance    CurrentBalance
}
