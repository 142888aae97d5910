package analytics

import "math"

// Trend directions reported by TrendDirection.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// GrowthRate compares the average of the second half of a series against
// the average of the first half, as a percentage of the first. The first
// half takes the middle element when the length is odd. Returns 0 for
// series shorter than two points or when the first half averages to zero.
func GrowthRate(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mid := (len(values) + 1) / 2
	first := mean(values[:mid])
	if first == 0 {
		return 0
	}
	second := mean(values[mid:])
	return (second - first) / first * 100
}

// Consistency scores how evenly a series is distributed, as
// (1 - stddev/mean) * 100. An empty series or a zero mean scores 0; a
// perfectly flat series scores 100. Heavily dispersed series can go
// negative.
func Consistency(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return (1 - stdDev(values, m)/m) * 100
}

// Volatility is the coefficient of variation of the series as a
// percentage: stddev over the absolute mean. 0 for empty series or a zero
// mean.
func Volatility(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return stdDev(values, m) / math.Abs(m) * 100
}

// TrendDirection compares the mean of the last three points against the
// mean of the three points before them. A shift beyond 5% either way is
// reported as increasing or decreasing; anything else, including series
// too short to compare or a zero reference mean, is stable.
func TrendDirection(values []float64) string {
	if len(values) < 2 {
		return TrendStable
	}
	last := values[max(0, len(values)-3):]
	prev := values[max(0, len(values)-6):max(0, len(values)-3)]
	if len(prev) == 0 {
		return TrendStable
	}
	prevMean := mean(prev)
	if prevMean == 0 {
		return TrendStable
	}
	change := (mean(last) - prevMean) / prevMean * 100
	switch {
	case change > 5:
		return TrendIncreasing
	case change < -5:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation around a precomputed mean.
func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
