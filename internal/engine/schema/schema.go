// Package schema defines the resolved calendar definition consumed by the
// time, moon, and recurrence engines. A Calendar is assembled once per
// configuration change (by the calendars service or a preset loader),
// validated, and treated as immutable for the lifetime of every conversion
// call made against it. All month and day indices are 0-based.
package schema

import (
	"errors"
	"fmt"
)

// Calendar mode constants.
const (
	// ModeFantasy indicates a fully custom fantasy calendar.
	ModeFantasy = "fantasy"
	// ModeRealLife indicates a Gregorian-rule calendar synced to an
	// external authoritative chronology.
	ModeRealLife = "reallife"
)

// Calendar is the top-level calendar definition for a world. Optional
// authoring fields (leap offset, per-month overrides) are resolved to
// concrete values here, never re-interpreted per conversion call.
type Calendar struct {
	Mode             string   `json:"mode"` // "fantasy" or "reallife"
	YearZero         int      `json:"year_zero"`
	LeapInterval     int      `json:"leap_interval"` // 0 means no leap years
	LeapOffset       int      `json:"leap_offset"`
	FirstWeekday     int      `json:"first_weekday"`
	ResetWeekdays    bool     `json:"reset_weekdays"`
	HoursPerDay      int      `json:"hours_per_day"`
	MinutesPerHour   int      `json:"minutes_per_hour"`
	SecondsPerMinute int      `json:"seconds_per_minute"`
	Months           []Month  `json:"months"`
	Weekdays         []string `json:"weekdays"`
	Moons            []Moon   `json:"moons,omitempty"`
	Seasons          []Season `json:"seasons,omitempty"`
}

// IsRealLife returns true if this calendar follows the Gregorian leap rule
// and syncs to an external chronology.
func (c *Calendar) IsRealLife() bool {
	return c.Mode == ModeRealLife
}

// IsLeapYear returns true if the given year is a leap year. Real-life
// calendars use the Gregorian rule; fantasy calendars use the configured
// interval and offset. LeapInterval=0 means no leap years.
func (c *Calendar) IsLeapYear(year int) bool {
	if c.IsRealLife() {
		return year%4 == 0 && (year%100 != 0 || year%400 == 0)
	}
	if c.LeapInterval <= 0 {
		return false
	}
	return (year-c.LeapOffset)%c.LeapInterval == 0
}

// BaseYearDays returns the total days in a non-leap year by summing all
// month lengths.
func (c *Calendar) BaseYearDays() int {
	total := 0
	for _, m := range c.Months {
		total += m.Days
	}
	return total
}

// LeapExtraDays returns the number of extra days a leap year adds across
// all months.
func (c *Calendar) LeapExtraDays() int {
	total := 0
	for _, m := range c.Months {
		total += m.LeapDays
	}
	return total
}

// YearDays returns the total days in a specific year, including leap year
// extra days if applicable.
func (c *Calendar) YearDays(year int) int {
	total := c.BaseYearDays()
	if c.IsLeapYear(year) {
		total += c.LeapExtraDays()
	}
	return total
}

// MonthDays returns the number of days in a month for a given year,
// accounting for leap year extra days. Out-of-range indices return 0.
func (c *Calendar) MonthDays(monthIdx int, year int) int {
	if monthIdx < 0 || monthIdx >= len(c.Months) {
		return 0
	}
	days := c.Months[monthIdx].Days
	if c.IsLeapYear(year) {
		days += c.Months[monthIdx].LeapDays
	}
	return days
}

// IntercalaryDaysInYear returns how many days of a given year fall inside
// intercalary months. Such days do not advance the continuous weekday cycle.
func (c *Calendar) IntercalaryDaysInYear(year int) int {
	leap := c.IsLeapYear(year)
	total := 0
	for _, m := range c.Months {
		if !m.Intercalary {
			continue
		}
		total += m.Days
		if leap {
			total += m.LeapDays
		}
	}
	return total
}

// WeekLength returns the number of days in a week (number of weekdays).
func (c *Calendar) WeekLength() int {
	return len(c.Weekdays)
}

// SecondsPerDay returns the length of one day in seconds.
func (c *Calendar) SecondsPerDay() int64 {
	return int64(c.HoursPerDay) * int64(c.MinutesPerHour) * int64(c.SecondsPerMinute)
}

// SecondsPerHour returns the length of one hour in seconds.
func (c *Calendar) SecondsPerHour() int64 {
	return int64(c.MinutesPerHour) * int64(c.SecondsPerMinute)
}

// SeasonForDate returns the season containing the given month+day, or nil.
func (c *Calendar) SeasonForDate(month, day int) *Season {
	for i := range c.Seasons {
		s := &c.Seasons[i]
		if s.ContainsDate(month, day) {
			return s
		}
	}
	return nil
}

// Validation errors returned by Validate. Queries against an invalid
// calendar do not panic; the engines fail closed with neutral results.
var (
	ErrNoMonths           = errors.New("calendar has no months")
	ErrNoWeekdays         = errors.New("calendar has no weekdays")
	ErrBadTimeUnits       = errors.New("time units must be positive")
	ErrBadLeapInterval    = errors.New("leap interval cannot be negative")
	ErrBadMonthDays       = errors.New("month day counts cannot be negative")
	ErrBadStartingWeekday = errors.New("starting weekday out of range")
	ErrBadMoonCycle       = errors.New("moon cycle length must be positive")
)

// Validate checks the calendar for configuration errors that would make
// conversion math degenerate. Zero-day months are allowed; the conversion
// algorithms skip them naturally.
func (c *Calendar) Validate() error {
	if len(c.Months) == 0 {
		return ErrNoMonths
	}
	if len(c.Weekdays) == 0 {
		return ErrNoWeekdays
	}
	if c.HoursPerDay <= 0 || c.MinutesPerHour <= 0 || c.SecondsPerMinute <= 0 {
		return ErrBadTimeUnits
	}
	if c.LeapInterval < 0 {
		return ErrBadLeapInterval
	}
	for _, m := range c.Months {
		if m.Days < 0 || m.LeapDays < 0 {
			return fmt.Errorf("month %q: %w", m.Name, ErrBadMonthDays)
		}
		if m.StartingWeekday != nil && (*m.StartingWeekday < 0 || *m.StartingWeekday >= len(c.Weekdays)) {
			return fmt.Errorf("month %q: %w", m.Name, ErrBadStartingWeekday)
		}
	}
	for _, m := range c.Moons {
		if m.CycleLength <= 0 {
			return fmt.Errorf("moon %q: %w", m.Name, ErrBadMoonCycle)
		}
	}
	return nil
}

// Month is a named period in the calendar with a configurable number of
// days. Intercalary months sit outside normal weekday progression.
// StartingWeekday, when set, pins the month's first day to a fixed weekday.
type Month struct {
	Name            string `json:"name"`
	Days            int    `json:"days"`
	LeapDays        int    `json:"leap_days"`
	Intercalary     bool   `json:"intercalary"`
	StartingWeekday *int   `json:"starting_weekday,omitempty"`
}

// Date identifies a calendar date. Month and Day are 0-based indices.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Before returns true if d falls strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// Moon is a celestial body with a repeating phase cycle. FirstNewMoon is
// the authored reference date on which the cycle starts; Offset shifts the
// cycle by fractional days.
type Moon struct {
	Name         string      `json:"name"`
	CycleLength  float64     `json:"cycle_length"`
	Offset       float64     `json:"offset"`
	FirstNewMoon Date        `json:"first_new_moon"`
	Color        string      `json:"color,omitempty"`
	Phases       []MoonPhase `json:"phases"`
}

// MoonPhase is one named segment of a moon's cycle. Phase lengths should
// sum to the moon's cycle length; the phase calculator tolerates authoring
// mismatch rather than failing.
type MoonPhase struct {
	Name   string  `json:"name"`
	Length float64 `json:"length"`
	Icon   string  `json:"icon,omitempty"`
}

// Season is a named period spanning a range of month+day to month+day,
// carrying the climate inputs used by daily weather generation.
type Season struct {
	Name          string  `json:"name"`
	StartMonth    int     `json:"start_month"`
	StartDay      int     `json:"start_day"`
	EndMonth      int     `json:"end_month"`
	EndDay        int     `json:"end_day"`
	Color         string  `json:"color,omitempty"`
	BaseTempC     float64 `json:"base_temp_c"`
	TempVarianceC float64 `json:"temp_variance_c"`
	Humidity      float64 `json:"humidity"`
}

// ContainsDate returns true if the given month+day falls within this season.
// Handles wrap-around (e.g. Winter: month 11 day 0 → month 1 day 27).
func (s *Season) ContainsDate(month, day int) bool {
	startVal := s.StartMonth*1000 + s.StartDay
	endVal := s.EndMonth*1000 + s.EndDay
	dateVal := month*1000 + day

	if startVal <= endVal {
		// Normal range (e.g. Spring: 2/0 → 4/30).
		return dateVal >= startVal && dateVal <= endVal
	}
	// Wrap-around (e.g. Winter: 11/0 → 1/27).
	return dateVal >= startVal || dateVal <= endVal
}
