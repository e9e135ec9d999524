package reporting

import "time"

// dayRange returns the [start, end] bounds of the calendar day containing t.
func dayRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// monthRange returns the [start, end] bounds of the given calendar month.
func monthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// currentMonthRange returns the bounds of the month containing t.
func currentMonthRange(t time.Time) (time.Time, time.Time) {
	return monthRange(t.Year(), t.Month(), t.Location())
}
