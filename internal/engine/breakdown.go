package engine

import "time"

// day is the fixed-width day used by every cumulative total.
const day = 24 * time.Hour

// Breakdown is the elapsed time between a start instant and "now".
//
// Years, Months and Days are calendar-aware: Days is the remainder after
// advancing the start by whole calendar years and months, not a modulo of 30.
// Hours, Minutes and Seconds split whatever is left of the last partial day.
// The Total* fields are plain floor divisions of the whole duration using
// fixed 24h/60m/60s units.
type Breakdown struct {
	Years   int `json:"years" toml:"years"`
	Months  int `json:"months" toml:"months"`
	Days    int `json:"days" toml:"days"`
	Hours   int `json:"hours" toml:"hours"`
	Minutes int `json:"minutes" toml:"minutes"`
	Seconds int `json:"seconds" toml:"seconds"`

	TotalDays    int `json:"total_days" toml:"total_days"`
	TotalHours   int `json:"total_hours" toml:"total_hours"`
	TotalMinutes int `json:"total_minutes" toml:"total_minutes"`
	TotalSeconds int `json:"total_seconds" toml:"total_seconds"`
}

// IsZero reports whether every field of the breakdown is zero.
func (b Breakdown) IsZero() bool {
	return b == Breakdown{}
}

// CalculateNow is Calculate with "now" read once from the given clock.
func CalculateNow(clock Clock, start time.Time) Breakdown {
	return Calculate(start, clock.Now())
}

// Calculate returns the elapsed time from start to now.
//
// A start in the future is a valid state (a planned quit date) and yields the
// zero Breakdown. The calendar part is computed in now's location.
func Calculate(start, now time.Time) Breakdown {
	if start.After(now) {
		return Breakdown{}
	}

	// time.Duration saturates after about 292 years.
	secs := now.Unix() - start.Unix()
	if now.Nanosecond() < start.Nanosecond() {
		secs--
	}
	b := Breakdown{TotalSeconds: int(secs)}
	b.TotalMinutes = b.TotalSeconds / 60
	b.TotalHours = b.TotalMinutes / 60
	b.TotalDays = b.TotalHours / 24

	s := start.In(now.Location())
	years, months := calendarSpan(s, now)
	ref := addCalendar(s, years, months)

	// Anniversary day reached but not its time of day.
	if ref.After(now) {
		years, months = borrowMonth(years, months)
		ref = addCalendar(s, years, months)
	}

	remaining := now.Sub(ref)
	b.Years, b.Months = years, months
	b.Days = int(remaining / day)

	rest := remaining % day
	b.Hours = int(rest / time.Hour)
	rest %= time.Hour
	b.Minutes = int(rest / time.Minute)
	rest %= time.Minute
	b.Seconds = int(rest / time.Second)

	return b
}

// calendarSpan counts whole calendar years and months from start to now.
// Both instants must share a location.
func calendarSpan(start, now time.Time) (years, months int) {
	years = now.Year() - start.Year()
	months = int(now.Month()) - int(start.Month())
	if months < 0 {
		years--
		months += 12
	}

	// The monthly anniversary has not happened yet this month.
	if now.Day() < start.Day() {
		years, months = borrowMonth(years, months)
	}
	return years, months
}

func borrowMonth(years, months int) (int, int) {
	months--
	if months < 0 {
		years--
		months += 12
	}
	return years, months
}

// addCalendar advances t by whole calendar years and months, keeping the wall
// clock time. The day of month is clamped to the last day of the target month,
// so Jan 31 + 1 month is Feb 28 (Feb 29 in a leap year) and Feb 29 + 1 year is
// Feb 28. time.AddDate would roll the overflow into March instead.
func addCalendar(t time.Time, years, months int) time.Time {
	y, m, d := t.Date()

	offset := int(m) - 1 + months
	y += years + offset/12
	m = time.Month(offset%12 + 1)

	if last := daysIn(y, m); d > last {
		d = last
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in month m of year y.
func daysIn(y int, m time.Month) int {
	// Day 0 of the next month normalises to the last day of m.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
