package attendance

import "time"

// History ranges accepted by the attendance history endpoint.
const (
	RangeWeek  = "week"
	RangeMonth = "month"
)

// HistoryStart returns the first date (inclusive, "2006-01-02") covered by a
// history range ending today. A month is a rolling 30 days, a week 7; any
// unrecognized range falls back to a week.
func HistoryStart(rng string, now time.Time) string {
	days := 7
	if rng == RangeMonth {
		days = 30
	}
	return now.AddDate(0, 0, -days).Format("2006-01-02")
}
