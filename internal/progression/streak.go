package progression

import "time"

// ComputeUpdatedStreak applies the daily streak continuation rule, comparing
// calendar days in now's location.
func ComputeUpdatedStreak(current int, lastActiveAt *time.Time, now time.Time) int {
	if lastActiveAt == nil {
		return 1
	}
	switch days := calendarDaysBetween(*lastActiveAt, now); {
	case days <= 0:
		return current
	case days == 1:
		return current + 1
	default:
		return 1
	}
}

func calendarDaysBetween(from, to time.Time) int {
	loc := to.Location()
	from = from.In(loc)
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
