// Package calendar provides weekend/holiday-aware business day arithmetic
// for payment date adjustment and settlement offsets.
package calendar

import "time"

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// NoHolidays treats every weekday as a business day.
	NoHolidays CalendarID = "NONE"
	USNY       CalendarID = "USNY"
	GBLO       CalendarID = "GBLO"
	DEFR       CalendarID = "DEFR"
	JPTO       CalendarID = "JPTO"
)

// Holiday sets are keyed by YYYY-MM-DD. They start empty and can be loaded
// by the embedding application; weekends are always non-business days.
var holidaySets = map[CalendarID]map[string]struct{}{
	USNY: {},
	GBLO: {},
	DEFR: {},
	JPTO: {},
}

// LoadHolidays registers holiday dates for a calendar. It mutates shared
// state and must be called during setup, before any concurrent use of the
// calendar begins.
func LoadHolidays(cal CalendarID, dates []time.Time) {
	set, ok := holidaySets[cal]
	if !ok {
		set = make(map[string]struct{}, len(dates))
		holidaySets[cal] = set
	}
	for _, d := range dates {
		set[d.Format("2006-01-02")] = struct{}{}
	}
}

func isHoliday(cal CalendarID, t time.Time) bool {
	set, ok := holidaySets[cal]
	if !ok {
		return false
	}
	_, found := set[t.Format("2006-01-02")]
	return found
}

// IsBusinessDay checks weekends and the calendar's holiday set.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following: roll forward to a business day, but
// roll backward instead if that would cross a month end.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention.
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}
