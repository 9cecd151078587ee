package calendar

import "time"

// Lunar-calendar holidays cannot be derived with simple date arithmetic, so
// their Gregorian dates are pre-computed through 2030. Years outside the
// table fall back to a fixed approximate date and are logged as such.

var lunarNewYearDates = map[int]time.Time{
	2024: date(2024, time.February, 10),
	2025: date(2025, time.January, 29),
	2026: date(2026, time.February, 17),
	2027: date(2027, time.February, 6),
	2028: date(2028, time.January, 26),
	2029: date(2029, time.February, 13),
	2030: date(2030, time.February, 3),
}

var midAutumnDates = map[int]time.Time{
	2024: date(2024, time.September, 17),
	2025: date(2025, time.October, 6),
	2026: date(2026, time.September, 25),
	2027: date(2027, time.September, 15),
	2028: date(2028, time.October, 3),
	2029: date(2029, time.September, 22),
	2030: date(2030, time.September, 12),
}

// Fallback anchors for out-of-table years.
var (
	lunarNewYearApprox = struct{ month time.Month; day int }{time.February, 1}
	midAutumnApprox    = struct{ month time.Month; day int }{time.September, 21}
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// lunarDate resolves a lunar holiday for a year, reporting whether the table
// covered it or the approximate anchor was used.
func lunarDate(table map[int]time.Time, approx struct{ month time.Month; day int }, year int) (time.Time, bool) {
	if d, ok := table[year]; ok {
		return d, true
	}
	return date(year, approx.month, approx.day), false
}
