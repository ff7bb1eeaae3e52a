package domain

import "time"

// OnDate returns t's time of day, read in date's location, on date's
// calendar day.
func OnDate(t, date time.Time) time.Time {
	local := t.In(date.Location())
	return time.Date(date.Year(), date.Month(), date.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), date.Location())
}
