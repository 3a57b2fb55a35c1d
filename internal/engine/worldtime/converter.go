// Package worldtime converts between the integer world clock (seconds since
// an arbitrary epoch) and structured calendar components under a resolved
// schema. A Converter is built once per active configuration, holds only
// read-only state, and is safe for concurrent use.
//
// Elapsed years are counted with a leap-cycle shortcut so conversion cost
// does not grow with distance from the epoch: real-life calendars use the
// 400-year Gregorian cycle, fantasy calendars use their leap interval as
// the cycle length.
package worldtime

import (
	"github.com/keyxmakerx/almanac/internal/engine/schema"
)

// A 400-year span contains exactly 97 leap years under the Gregorian rule.
const (
	gregorianCycleYears = 400
	gregorianCycleLeaps = 97
)

// Components is the structured form of a world-time instant. Month and Day
// are 0-based indices. DayOfWeek is -1 for days inside intercalary months.
type Components struct {
	Year        int  `json:"year"`
	Month       int  `json:"month"`
	Day         int  `json:"day"`
	DayOfWeek   int  `json:"day_of_week"`
	Hour        int  `json:"hour"`
	Minute      int  `json:"minute"`
	Second      int  `json:"second"`
	LeapYear    bool `json:"leap_year"`
	Intercalary bool `json:"intercalary"`
}

// Date returns the calendar date part of the components.
func (c Components) Date() schema.Date {
	return schema.Date{Year: c.Year, Month: c.Month, Day: c.Day}
}

// Converter performs bidirectional conversion between world time and
// calendar components. Build one with NewConverter; the zero value is not
// usable.
type Converter struct {
	cal  *schema.Calendar
	sync *SyncState

	cycleYears       int
	cycleDays        int64
	cycleIntercalary int64
}

// NewConverter resolves the leap-cycle constants for a calendar. sync may
// be nil when epoch sync is inactive.
func NewConverter(cal *schema.Calendar, sync *SyncState) *Converter {
	if cal == nil {
		cal = &schema.Calendar{}
	}
	cv := &Converter{cal: cal, sync: sync}

	base := int64(cal.BaseYearDays())
	extra := int64(cal.LeapExtraDays())
	var baseInter, extraInter int64
	for _, m := range cal.Months {
		if m.Intercalary {
			baseInter += int64(m.Days)
			extraInter += int64(m.LeapDays)
		}
	}

	switch {
	case cal.IsRealLife():
		cv.cycleYears = gregorianCycleYears
		cv.cycleDays = gregorianCycleYears*base + gregorianCycleLeaps*extra
		cv.cycleIntercalary = gregorianCycleYears*baseInter + gregorianCycleLeaps*extraInter
	case cal.LeapInterval > 0:
		n := int64(cal.LeapInterval)
		cv.cycleYears = cal.LeapInterval
		cv.cycleDays = n*base + extra
		cv.cycleIntercalary = n*baseInter + extraInter
	default:
		cv.cycleYears = 1
		cv.cycleDays = base
		cv.cycleIntercalary = baseInter
	}
	return cv
}

// Schema returns the calendar this converter was built from.
func (cv *Converter) Schema() *schema.Calendar {
	return cv.cal
}

// Sync returns the active epoch sync state, or nil.
func (cv *Converter) Sync() *SyncState {
	return cv.sync
}

// IsLeapYear reports whether a year is a leap year under the calendar's
// leap rule.
func (cv *Converter) IsLeapYear(year int) bool {
	return cv.cal.IsLeapYear(year)
}

// degenerate reports whether the schema cannot support conversion math.
// Degenerate schemas make every conversion return a neutral zero result.
func (cv *Converter) degenerate() bool {
	return len(cv.cal.Months) == 0 || cv.cal.SecondsPerDay() <= 0 || cv.cycleDays <= 0
}

// FromComponents converts calendar components to world-time seconds.
// Derived fields (weekday, leap flags) are ignored. Out-of-range
// components shift the result rather than error. Returns 0 for a
// degenerate schema.
func (cv *Converter) FromComponents(c Components) int64 {
	if cv.degenerate() {
		return 0
	}
	cal := cv.cal
	secs := cv.DayOrdinal(c.Year, c.Month, c.Day)*cal.SecondsPerDay() +
		int64(c.Hour)*cal.SecondsPerHour() +
		int64(c.Minute)*int64(cal.SecondsPerMinute) +
		int64(c.Second)
	if cv.sync != nil {
		secs -= cv.sync.Offset
	}
	return secs
}

// ToComponents converts world-time seconds to calendar components.
// Negative seconds decode to dates before the epoch year. Returns the
// zero value for a degenerate schema.
func (cv *Converter) ToComponents(seconds int64) Components {
	if cv.degenerate() {
		return Components{}
	}
	cal := cv.cal
	if cv.sync != nil {
		seconds += cv.sync.Offset
	}

	spd := cal.SecondsPerDay()
	epochDay := floorDiv(seconds, spd)
	secOfDay := seconds - epochDay*spd
	year, month, dayInMonth, skipped := cv.splitDay(epochDay)

	sph := cal.SecondsPerHour()
	spm := int64(cal.SecondsPerMinute)
	comp := Components{
		Year:     year,
		Month:    month,
		Day:      int(dayInMonth),
		Hour:     int(secOfDay / sph),
		Minute:   int(secOfDay % sph / spm),
		Second:   int(secOfDay % spm),
		LeapYear: cal.IsLeapYear(year),
	}
	m := &cal.Months[month]
	comp.Intercalary = m.Intercalary
	comp.DayOfWeek = cv.weekdayFor(m, epochDay, dayInMonth, skipped)
	return comp
}

// DayOrdinal returns the day number of a date counted from the epoch,
// before any sync offset. Used for day-interval recurrence and day-keyed
// caching.
func (cv *Converter) DayOrdinal(year, month, day int) int64 {
	if cv.degenerate() {
		return 0
	}
	days := cv.daysBeforeYear(year)
	for m := 0; m < month && m < len(cv.cal.Months); m++ {
		days += int64(cv.cal.MonthDays(m, year))
	}
	return days + int64(day)
}

// Weekday returns the weekday index for a date under the calendar's
// weekday policy, or -1 for days inside intercalary months.
func (cv *Converter) Weekday(year, month, day int) int {
	return cv.ToComponents(cv.FromComponents(Components{Year: year, Month: month, Day: day})).DayOfWeek
}

// daysBeforeYear counts days in all years from the epoch year up to but
// not including the target year. Negative for years before the epoch.
// Whole leap cycles are applied closed-form; only the partial cycle walks
// year by year.
func (cv *Converter) daysBeforeYear(year int) int64 {
	rel := int64(year - cv.cal.YearZero)
	cycles := floorDiv(rel, int64(cv.cycleYears))
	days := cycles * cv.cycleDays
	for y := cv.cal.YearZero + int(cycles)*cv.cycleYears; y < year; y++ {
		days += int64(cv.cal.YearDays(y))
	}
	return days
}

// splitDay resolves an epoch day number into year, month, and day-in-month,
// tracking how many intercalary days precede it for continuous weekday
// math. rem stays within one leap cycle, so both walks are bounded.
func (cv *Converter) splitDay(epochDay int64) (year, month int, dayInMonth, skipped int64) {
	cal := cv.cal
	cycles := floorDiv(epochDay, cv.cycleDays)
	year = cal.YearZero + int(cycles)*cv.cycleYears
	rem := epochDay - cycles*cv.cycleDays
	skipped = cycles * cv.cycleIntercalary

	for {
		yd := int64(cal.YearDays(year))
		if rem < yd {
			break
		}
		rem -= yd
		skipped += int64(cal.IntercalaryDaysInYear(year))
		year++
	}
	for month+1 < len(cal.Months) {
		md := int64(cal.MonthDays(month, year))
		if rem < md {
			break
		}
		rem -= md
		if cal.Months[month].Intercalary {
			skipped += md
		}
		month++
	}
	return year, month, rem, skipped
}

// weekdayFor applies the weekday policy. A month's fixed starting weekday
// wins over everything else; intercalary months otherwise carry no
// weekday; reset mode restarts the cycle each month; continuous mode
// counts days since the epoch, excluding intercalary days.
func (cv *Converter) weekdayFor(m *schema.Month, epochDay, dayInMonth, skipped int64) int {
	wc := int64(cv.cal.WeekLength())
	if wc <= 0 {
		return 0
	}
	switch {
	case m.StartingWeekday != nil:
		return int(mod(dayInMonth+int64(*m.StartingWeekday), wc))
	case m.Intercalary:
		return -1
	case cv.cal.ResetWeekdays:
		return int(dayInMonth % wc)
	}
	first := int64(cv.cal.FirstWeekday)
	if cv.sync != nil {
		first = int64(cv.sync.FirstWeekday)
	}
	return int(mod(epochDay-skipped+first, wc))
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// mod returns the non-negative remainder of a divided by b.
func mod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
