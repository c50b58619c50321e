package utils

import (
	"time"
)

// YearFraction computes the year fraction between two dates using the named
// day count convention.
// Supported conventions: ACT/360, ACT/365F, 30E/360, 30/360, ACT/ACT.
// Unknown conventions fall back to ACT/365F.
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case "ACT/360":
		return Days(start, end) / 360.0
	case "ACT/365F":
		return Days(start, end) / 365.0
	case "30E/360", "30/360":
		// 30E/360 ISDA (Eurobond basis): D1 and D2 are capped at 30.
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	case "ACT/ACT", "ACT/ACT ISDA":
		return actActISDA(start, end)
	default:
		return Days(start, end) / 365.0
	}
}

// actActISDA splits the interval at year boundaries and divides each year's
// actual days by that year's actual length (365 or 366).
func actActISDA(start, end time.Time) float64 {
	if !start.Before(end) {
		return -actActISDA(end, start)
	}
	if start.Year() == end.Year() {
		return Days(start, end) / yearLength(start.Year())
	}
	total := 0.0
	firstYearEnd := time.Date(start.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	total += Days(start, firstYearEnd) / yearLength(start.Year())
	total += float64(end.Year() - start.Year() - 1)
	lastYearStart := time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	total += Days(lastYearStart, end) / yearLength(end.Year())
	return total
}

func yearLength(year int) float64 {
	if isLeapYear(year) {
		return 366.0
	}
	return 365.0
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
