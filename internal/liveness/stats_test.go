package liveness

import (
	"math"
	"testing"
)

func TestVarianceIsPopulation(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		want float64
	}{
		{"empty", nil, 0},
		{"constant", []float64{5, 5, 5}, 0},
		{"0..4", []float64{0, 1, 2, 3, 4}, 2},
		{"two values", []float64{0, 10}, 25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := variance(tc.xs)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("variance(%v) = %v; want %v", tc.xs, got, tc.want)
			}
		})
	}
}

func TestMinMax(t *testing.T) {
	lo, hi := minMax([]float64{3, -1, 7, 0})
	if lo != -1 || hi != 7 {
		t.Errorf("minMax = (%v, %v); want (-1, 7)", lo, hi)
	}

	lo, hi = minMax(nil)
	if lo != 0 || hi != 0 {
		t.Errorf("minMax(nil) = (%v, %v); want (0, 0)", lo, hi)
	}
}
