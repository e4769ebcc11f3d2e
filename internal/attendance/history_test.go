package attendance

import (
	"testing"
	"time"
)

func TestHistoryStart(t *testing.T) {
	now := time.Date(2026, time.March, 31, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		rng  string
		want string
	}{
		{"week", RangeWeek, "2026-03-24"},
		{"month", RangeMonth, "2026-03-01"},
		{"empty defaults to week", "", "2026-03-24"},
		{"unknown defaults to week", "year", "2026-03-24"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HistoryStart(tc.rng, now); got != tc.want {
				t.Errorf("HistoryStart(%q) = %q; want %q", tc.rng, got, tc.want)
			}
		})
	}
}
