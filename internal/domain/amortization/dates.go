package amortization

import "time"

// AddMonths moves t forward by the given number of calendar months, keeping
// the day of month and clamping it to the last day of a shorter month:
// 31 January plus one month is 28 (or 29) February, never 3 March.
// The result is a calendar date at midnight in t's location.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	loc := t.Location()

	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, loc)
	ty, tm, _ := firstOfTarget.Date()

	if last := daysIn(ty, tm, loc); d > last {
		d = last
	}
	return time.Date(ty, tm, d, 0, 0, 0, 0, loc)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// DateOf truncates t to midnight of its calendar day in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
