// Package recurrence decides whether a scheduled note falls on a given
// calendar date. Simple schedules repeat every N days, months, or years
// from an anchor date; advanced rules trigger on moon phases, weekday
// ordinals, explicit week positions, or deterministically sampled random
// days. Evaluation is pure and order-independent: malformed schedules
// match nothing rather than erroring.
package recurrence

import (
	"fmt"

	"github.com/keyxmakerx/almanac/internal/engine/moons"
	"github.com/keyxmakerx/almanac/internal/engine/schema"
	"github.com/keyxmakerx/almanac/internal/engine/seedrand"
	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
)

// Unit selects how a schedule repeats.
type Unit string

const (
	UnitNone     Unit = "none"
	UnitDays     Unit = "days"
	UnitMonths   Unit = "months"
	UnitYears    Unit = "years"
	UnitAdvanced Unit = "advanced"
)

// Schedule is a note's recurrence descriptor. Interval is the period for
// the simple units. Count bounds the number of occurrences, 0 meaning
// unbounded. Rule is consulted only when Unit is UnitAdvanced.
type Schedule struct {
	Start    schema.Date
	Unit     Unit
	Interval int
	Count    int
	Rule     AdvancedRule
}

// AdvancedRule is one of the non-periodic recurrence variants. The rule
// structs below are the only implementations; they are matched by value.
type AdvancedRule interface {
	isAdvancedRule()
}

// LunarRule matches phase-start days of a moon inside a month window.
// Moon and Phase index into the calendar's moons and that moon's phases.
// A window with StartMonth > EndMonth wraps across the year boundary.
type LunarRule struct {
	Moon       int `json:"moon"`
	Phase      int `json:"phase"`
	StartMonth int `json:"start_month"`
	EndMonth   int `json:"end_month"`
}

// WeekdayRule matches the nth occurrence of a weekday within a month.
// Ordinal -1 means the last occurrence; Month -1 applies to every month.
type WeekdayRule struct {
	Ordinal int `json:"ordinal"`
	Weekday int `json:"weekday"`
	Month   int `json:"month"`
}

// WeekIndexRule matches a fixed week and weekday position in every month.
// Week -1 means the last week the weekday falls in.
type WeekIndexRule struct {
	Week int `json:"week"`
	Day  int `json:"day"`
}

// RandomRule matches Count days per year sampled deterministically from
// the days inside a month window. The sample depends only on the note id
// and the year.
type RandomRule struct {
	StartMonth int `json:"start_month"`
	EndMonth   int `json:"end_month"`
	Count      int `json:"count"`
}

func (LunarRule) isAdvancedRule()     {}
func (WeekdayRule) isAdvancedRule()   {}
func (WeekIndexRule) isAdvancedRule() {}
func (RandomRule) isAdvancedRule()    {}

// Evaluator matches schedules against dates under one calendar.
type Evaluator struct {
	conv *worldtime.Converter
}

// NewEvaluator wraps a converter. The converter's calendar supplies month
// lengths, the weekday policy, and moon definitions.
func NewEvaluator(conv *worldtime.Converter) *Evaluator {
	if conv == nil {
		conv = worldtime.NewConverter(nil, nil)
	}
	return &Evaluator{conv: conv}
}

// Matches reports whether the schedule for note id falls on date. It
// returns false, never an error, for malformed schedules, out-of-range
// rule references, or degenerate calendars.
func (e *Evaluator) Matches(s Schedule, id string, date schema.Date) bool {
	if len(e.conv.Schema().Months) == 0 {
		return false
	}
	switch s.Unit {
	case UnitNone, "":
		return date == s.Start
	case UnitDays:
		return e.matchDays(s, date)
	case UnitMonths:
		return e.matchMonths(s, date)
	case UnitYears:
		return e.matchYears(s, date)
	case UnitAdvanced:
		return e.matchAdvanced(s, id, date)
	}
	return false
}

func (e *Evaluator) matchYears(s Schedule, date schema.Date) bool {
	if s.Interval <= 0 || date.Before(s.Start) {
		return false
	}
	if date.Month != s.Start.Month || date.Day != s.Start.Day {
		return false
	}
	diff := date.Year - s.Start.Year
	if diff%s.Interval != 0 {
		return false
	}
	return withinCount(int64(diff/s.Interval), s.Count)
}

func (e *Evaluator) matchMonths(s Schedule, date schema.Date) bool {
	if s.Interval <= 0 || date.Before(s.Start) || date.Day != s.Start.Day {
		return false
	}
	perYear := len(e.conv.Schema().Months)
	diff := (date.Year*perYear + date.Month) - (s.Start.Year*perYear + s.Start.Month)
	if diff%s.Interval != 0 {
		return false
	}
	return withinCount(int64(diff/s.Interval), s.Count)
}

func (e *Evaluator) matchDays(s Schedule, date schema.Date) bool {
	if s.Interval <= 0 || date.Before(s.Start) {
		return false
	}
	// Day ordinals span leap days and intercalary months correctly.
	diff := e.conv.DayOrdinal(date.Year, date.Month, date.Day) -
		e.conv.DayOrdinal(s.Start.Year, s.Start.Month, s.Start.Day)
	if diff%int64(s.Interval) != 0 {
		return false
	}
	return withinCount(diff/int64(s.Interval), s.Count)
}

func (e *Evaluator) matchAdvanced(s Schedule, id string, date schema.Date) bool {
	switch r := s.Rule.(type) {
	case LunarRule:
		return e.matchLunar(r, date)
	case WeekdayRule:
		return e.matchWeekday(r, date)
	case WeekIndexRule:
		return e.matchWeekIndex(r, date)
	case RandomRule:
		return e.matchRandom(r, id, date)
	}
	return false
}

func (e *Evaluator) matchLunar(r LunarRule, date schema.Date) bool {
	cal := e.conv.Schema()
	if !monthInWindow(date.Month, r.StartMonth, r.EndMonth, len(cal.Months)) {
		return false
	}
	if r.Moon < 0 || r.Moon >= len(cal.Moons) {
		return false
	}
	moon := &cal.Moons[r.Moon]
	if r.Phase < 0 || r.Phase >= len(moon.Phases) {
		return false
	}
	at := e.conv.FromComponents(worldtime.Components{Year: date.Year, Month: date.Month, Day: date.Day})
	ph := moons.Current(at, moon, e.conv)
	return ph != nil && ph.Index == r.Phase && ph.DaysInto == 0
}

func (e *Evaluator) matchWeekday(r WeekdayRule, date schema.Date) bool {
	cal := e.conv.Schema()
	if r.Month >= 0 && r.Month != date.Month {
		return false
	}
	wc := cal.WeekLength()
	if wc <= 0 || r.Weekday < 0 || r.Weekday >= wc {
		return false
	}
	if e.conv.Weekday(date.Year, date.Month, date.Day) != r.Weekday {
		return false
	}
	if r.Ordinal == -1 {
		// Last occurrence: no further week fits before month end.
		return date.Day+wc >= cal.MonthDays(date.Month, date.Year)
	}
	if r.Ordinal < 0 {
		return false
	}
	return date.Day/wc == r.Ordinal
}

func (e *Evaluator) matchWeekIndex(r WeekIndexRule, date schema.Date) bool {
	cal := e.conv.Schema()
	wc := cal.WeekLength()
	if wc <= 0 || r.Day < 0 || r.Day >= wc {
		return false
	}
	if e.conv.Weekday(date.Year, date.Month, date.Day) != r.Day {
		return false
	}
	if r.Week == -1 {
		return date.Day+wc >= cal.MonthDays(date.Month, date.Year)
	}
	if r.Week < 0 {
		return false
	}
	return date.Day/wc == r.Week
}

func (e *Evaluator) matchRandom(r RandomRule, id string, date schema.Date) bool {
	if r.Count <= 0 {
		return false
	}
	cal := e.conv.Schema()
	if !monthInWindow(date.Month, r.StartMonth, r.EndMonth, len(cal.Months)) {
		return false
	}
	pool := e.windowDays(r.StartMonth, r.EndMonth, date.Year)
	if len(pool) == 0 {
		return false
	}

	src := seedrand.New(seedrand.Hash53(fmt.Sprintf("%s-%d", id, date.Year), 0))
	src.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	n := r.Count
	if n > len(pool) {
		n = len(pool)
	}
	for _, d := range pool[:n] {
		if d.Month == date.Month && d.Day == date.Day {
			return true
		}
	}
	return false
}

// windowDays lists every (month, day) inside the window for a year, in
// calendar order starting at the window's first month.
func (e *Evaluator) windowDays(start, end, year int) []schema.Date {
	cal := e.conv.Schema()
	order := make([]int, 0, len(cal.Months))
	if start <= end {
		for m := start; m <= end; m++ {
			order = append(order, m)
		}
	} else {
		for m := start; m < len(cal.Months); m++ {
			order = append(order, m)
		}
		for m := 0; m <= end; m++ {
			order = append(order, m)
		}
	}

	var pool []schema.Date
	for _, m := range order {
		for d := 0; d < cal.MonthDays(m, year); d++ {
			pool = append(pool, schema.Date{Year: year, Month: m, Day: d})
		}
	}
	return pool
}

// monthInWindow reports whether month falls inside [start, end], where
// start > end wraps across the year boundary. Windows referencing months
// outside the calendar match nothing.
func monthInWindow(month, start, end, monthCount int) bool {
	if start < 0 || end < 0 || start >= monthCount || end >= monthCount {
		return false
	}
	if start <= end {
		return month >= start && month <= end
	}
	return month >= start || month <= end
}

// withinCount applies the occurrence bound; count 0 means unbounded.
func withinCount(occurrence int64, count int) bool {
	return count <= 0 || occurrence < int64(count)
}
