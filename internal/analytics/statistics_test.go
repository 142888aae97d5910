package analytics

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestGrowthRate(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single element", []float64{42}, 0},
		{"flat series", []float64{100, 100, 100, 100}, 0},
		{"doubling", []float64{100, 100, 200, 200}, 100},
		{"odd length keeps middle in first half", []float64{100, 100, 100, 200, 200}, 100},
		{"zero first half", []float64{0, 0, 50, 50}, 0},
		{"decline", []float64{200, 200, 100, 100}, -50},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GrowthRate(tc.values)
			if !almostEqual(got, tc.want) {
				t.Errorf("GrowthRate(%v) = %v, want %v", tc.values, got, tc.want)
			}
		})
	}
}

func TestConsistency(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"all zero", []float64{0, 0, 0}, 0},
		{"perfectly flat", []float64{500, 500, 500}, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Consistency(tc.values)
			if !almostEqual(got, tc.want) {
				t.Errorf("Consistency(%v) = %v, want %v", tc.values, got, tc.want)
			}
		})
	}

	t.Run("volatile series can be negative", func(t *testing.T) {
		if got := Consistency([]float64{1, 100, 1, 100}); got >= 100 {
			t.Errorf("Consistency = %v, want a dispersed score below 100", got)
		}
	})
}

func TestVolatility(t *testing.T) {
	if got := Volatility(nil); got != 0 {
		t.Errorf("Volatility(nil) = %v, want 0", got)
	}
	if got := Volatility([]float64{0, 0}); got != 0 {
		t.Errorf("Volatility of zero-mean series = %v, want 0", got)
	}
	if got := Volatility([]float64{100, 100, 100}); !almostEqual(got, 0) {
		t.Errorf("Volatility of flat series = %v, want 0", got)
	}
	// 50/150 and 250/150: population stddev 100, mean 150.
	if got := Volatility([]float64{50, 250}); !almostEqual(got, 100.0/150.0*100) {
		t.Errorf("Volatility([50 250]) = %v, want %v", got, 100.0/150.0*100)
	}
}

func TestTrendDirection(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   string
	}{
		{"empty", nil, TrendStable},
		{"single point", []float64{10}, TrendStable},
		{"zero reference mean", []float64{0, 0, 0, 10, 10, 10}, TrendStable},
		{"clear growth", []float64{100, 100, 100, 200, 200, 200}, TrendIncreasing},
		{"clear decline", []float64{200, 200, 200, 100, 100, 100}, TrendDecreasing},
		{"within threshold", []float64{100, 100, 100, 103, 103, 103}, TrendStable},
		{"short series compares the leftover prefix", []float64{100, 200, 200, 200}, TrendIncreasing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := TrendDirection(tc.values); got != tc.want {
				t.Errorf("TrendDirection(%v) = %q, want %q", tc.values, got, tc.want)
			}
		})
	}
}
