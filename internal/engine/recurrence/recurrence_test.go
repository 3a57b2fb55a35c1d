package recurrence

import (
	"testing"

	"github.com/keyxmakerx/almanac/internal/engine/schema"
	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
)

// simpleCalendar: two months of 30 and 31 days, 7-day week, no leap years.
func simpleCalendar() *schema.Calendar {
	return &schema.Calendar{
		Mode:             schema.ModeFantasy,
		HoursPerDay:      24,
		MinutesPerHour:   60,
		SecondsPerMinute: 60,
		Months: []schema.Month{
			{Name: "Sowing", Days: 30},
			{Name: "Reaping", Days: 31},
		},
		Weekdays: []string{"Sul", "Mol", "Zol", "Wir", "Zor", "Far", "Sar"},
	}
}

// moonCalendar adds an 8-day moon with 8 one-day phases starting at the
// epoch.
func moonCalendar() *schema.Calendar {
	cal := simpleCalendar()
	cal.Moons = []schema.Moon{{
		Name:        "Luna",
		CycleLength: 8,
		Phases: []schema.MoonPhase{
			{Name: "New", Length: 1}, {Name: "Waxing Crescent", Length: 1},
			{Name: "First Quarter", Length: 1}, {Name: "Waxing Gibbous", Length: 1},
			{Name: "Full", Length: 1}, {Name: "Waning Gibbous", Length: 1},
			{Name: "Last Quarter", Length: 1}, {Name: "Waning Crescent", Length: 1},
		},
	}}
	return cal
}

// intercalaryCalendar: 10-day months around a 5-day intercalary month,
// 5-day week.
func intercalaryCalendar() *schema.Calendar {
	return &schema.Calendar{
		Mode:             schema.ModeFantasy,
		HoursPerDay:      24,
		MinutesPerHour:   60,
		SecondsPerMinute: 60,
		Months: []schema.Month{
			{Name: "Opening", Days: 10},
			{Name: "Midyear", Days: 5, Intercalary: true},
			{Name: "Closing", Days: 10},
		},
		Weekdays: []string{"Airday", "Earthday", "Fireday", "Waterday", "Voidday"},
	}
}

func evaluatorFor(cal *schema.Calendar) *Evaluator {
	return NewEvaluator(worldtime.NewConverter(cal, nil))
}

func date(y, m, d int) schema.Date {
	return schema.Date{Year: y, Month: m, Day: d}
}

// --- Simple Unit Tests ---

func TestMatches_None(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Start: date(2, 1, 5), Unit: UnitNone}

	if !ev.Matches(s, "n1", date(2, 1, 5)) {
		t.Error("expected match on exact start date")
	}
	if ev.Matches(s, "n1", date(2, 1, 6)) {
		t.Error("expected no match on other dates")
	}
}

func TestMatches_YearlyUnbounded(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Start: date(1, 0, 0), Unit: UnitYears, Interval: 1}

	if !ev.Matches(s, "n1", date(5, 0, 0)) {
		t.Error("expected yearly match at year 5")
	}
	if ev.Matches(s, "n1", date(5, 1, 0)) {
		t.Error("expected no match in a different month")
	}
}

func TestMatches_YearlyInterval(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Start: date(1, 0, 10), Unit: UnitYears, Interval: 3}

	for _, tt := range []struct {
		year int
		want bool
	}{{1, true}, {2, false}, {3, false}, {4, true}, {7, true}} {
		if got := ev.Matches(s, "n1", date(tt.year, 0, 10)); got != tt.want {
			t.Errorf("year %d: got %v, want %v", tt.year, got, tt.want)
		}
	}
}

func TestMatches_YearlyCountBound(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Start: date(1, 0, 0), Unit: UnitYears, Interval: 1, Count: 3}

	for _, tt := range []struct {
		year int
		want bool
	}{{1, true}, {2, true}, {3, true}, {4, false}} {
		if got := ev.Matches(s, "n1", date(tt.year, 0, 0)); got != tt.want {
			t.Errorf("year %d: got %v, want %v", tt.year, got, tt.want)
		}
	}
}

func TestMatches_BeforeStart(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	for _, unit := range []Unit{UnitDays, UnitMonths, UnitYears} {
		s := Schedule{Start: date(3, 0, 0), Unit: unit, Interval: 1}
		if ev.Matches(s, "n1", date(2, 1, 30)) {
			t.Errorf("unit %s matched before the start date", unit)
		}
	}
}

func TestMatches_Monthly(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Start: date(0, 1, 4), Unit: UnitMonths, Interval: 3}

	if !ev.Matches(s, "n1", date(2, 0, 4)) {
		t.Error("expected match 3 months after the start")
	}
	if ev.Matches(s, "n1", date(1, 0, 4)) {
		t.Error("expected no match 1 month after the start")
	}
	if ev.Matches(s, "n1", date(2, 0, 5)) {
		t.Error("expected no match on a different day of month")
	}
}

func TestMatches_MonthlyCountBound(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Start: date(0, 1, 4), Unit: UnitMonths, Interval: 3, Count: 1}

	if !ev.Matches(s, "n1", date(0, 1, 4)) {
		t.Error("expected first occurrence to match")
	}
	if ev.Matches(s, "n1", date(2, 0, 4)) {
		t.Error("expected second occurrence beyond count to be rejected")
	}
}

func TestMatches_DailyInterval(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Start: date(0, 0, 5), Unit: UnitDays, Interval: 7}

	// Day ordinal 33 is 28 days after ordinal 5.
	if !ev.Matches(s, "n1", date(0, 1, 3)) {
		t.Error("expected match 28 days after start")
	}
	if ev.Matches(s, "n1", date(0, 1, 2)) {
		t.Error("expected no match 27 days after start")
	}
}

func TestMatches_DailyCountsIntercalaryDays(t *testing.T) {
	ev := evaluatorFor(intercalaryCalendar())
	s := Schedule{Start: date(0, 0, 0), Unit: UnitDays, Interval: 12}

	// Closing day 9 is ordinal 24: intercalary days count toward intervals.
	if !ev.Matches(s, "n1", date(0, 2, 9)) {
		t.Error("expected match at ordinal 24")
	}
	if ev.Matches(s, "n1", date(0, 2, 0)) {
		t.Error("expected no match at ordinal 15")
	}
}

// --- Weekday Rule Tests ---

func TestMatches_WeekdayOrdinal(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Unit: UnitAdvanced, Rule: WeekdayRule{Ordinal: 1, Weekday: 1, Month: -1}}

	// Day 8 is the second Mol of the month.
	if !ev.Matches(s, "n1", date(0, 0, 8)) {
		t.Error("expected second-weekday match on day 8")
	}
	if ev.Matches(s, "n1", date(0, 0, 1)) {
		t.Error("day 1 is the first occurrence, not the second")
	}
	if ev.Matches(s, "n1", date(0, 0, 9)) {
		t.Error("day 9 is a different weekday")
	}
}

func TestMatches_WeekdayMonthFilter(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Unit: UnitAdvanced, Rule: WeekdayRule{Ordinal: 1, Weekday: 1, Month: 1}}

	if ev.Matches(s, "n1", date(0, 0, 8)) {
		t.Error("expected month filter to reject month 0")
	}
}

func TestMatches_WeekdayLast(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Unit: UnitAdvanced, Rule: WeekdayRule{Ordinal: -1, Weekday: 1, Month: -1}}

	// Mol falls on days 1, 8, 15, 22, 29 of the 30-day month.
	if !ev.Matches(s, "n1", date(0, 0, 29)) {
		t.Error("expected last-occurrence match on day 29")
	}
	if ev.Matches(s, "n1", date(0, 0, 22)) {
		t.Error("day 22 still has a later occurrence")
	}
}

func TestMatches_WeekdayIntercalaryNeverMatches(t *testing.T) {
	ev := evaluatorFor(intercalaryCalendar())
	s := Schedule{Unit: UnitAdvanced, Rule: WeekdayRule{Ordinal: 0, Weekday: 2, Month: -1}}

	if ev.Matches(s, "n1", date(0, 1, 2)) {
		t.Error("intercalary days carry no weekday and must not match")
	}
}

// --- Week Index Rule Tests ---

func TestMatches_WeekIndex(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())

	s := Schedule{Unit: UnitAdvanced, Rule: WeekIndexRule{Week: 1, Day: 1}}
	if !ev.Matches(s, "n1", date(0, 0, 8)) {
		t.Error("expected match in week 1 on weekday 1")
	}
	if ev.Matches(s, "n1", date(0, 0, 1)) {
		t.Error("day 1 is in week 0")
	}

	// The rule applies in every month; weekday progression is continuous.
	s = Schedule{Unit: UnitAdvanced, Rule: WeekIndexRule{Week: 0, Day: 3}}
	if !ev.Matches(s, "n1", date(0, 1, 1)) {
		t.Error("expected match on month 1 day 1 (weekday 3)")
	}
}

func TestMatches_WeekIndexLast(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Unit: UnitAdvanced, Rule: WeekIndexRule{Week: -1, Day: 1}}

	if !ev.Matches(s, "n1", date(0, 0, 29)) {
		t.Error("expected last-week match on day 29")
	}
	if ev.Matches(s, "n1", date(0, 0, 15)) {
		t.Error("day 15 is not in the last week for its weekday")
	}
}

// --- Lunar Rule Tests ---

func TestMatches_LunarPhase(t *testing.T) {
	ev := evaluatorFor(moonCalendar())
	s := Schedule{Unit: UnitAdvanced, Rule: LunarRule{Moon: 0, Phase: 3, StartMonth: 0, EndMonth: 1}}

	if !ev.Matches(s, "n1", date(0, 0, 3)) {
		t.Error("expected match on the phase-start day")
	}
	if ev.Matches(s, "n1", date(0, 0, 4)) {
		t.Error("expected no match one day later")
	}
}

func TestMatches_LunarPhaseStartOnly(t *testing.T) {
	cal := moonCalendar()
	cal.Moons[0].Phases = []schema.MoonPhase{
		{Name: "New", Length: 2}, {Name: "Waxing", Length: 2},
		{Name: "Full", Length: 2}, {Name: "Waning", Length: 2},
	}
	ev := evaluatorFor(cal)
	s := Schedule{Unit: UnitAdvanced, Rule: LunarRule{Moon: 0, Phase: 1, StartMonth: 0, EndMonth: 1}}

	if !ev.Matches(s, "n1", date(0, 0, 2)) {
		t.Error("expected match on day 2 (phase 1 starts)")
	}
	if ev.Matches(s, "n1", date(0, 0, 3)) {
		t.Error("day 3 is mid-phase and must not match")
	}
}

func TestMatches_LunarWindow(t *testing.T) {
	ev := evaluatorFor(moonCalendar())
	s := Schedule{Unit: UnitAdvanced, Rule: LunarRule{Moon: 0, Phase: 3, StartMonth: 1, EndMonth: 1}}

	if ev.Matches(s, "n1", date(0, 0, 3)) {
		t.Error("expected month window to reject month 0")
	}
}

func TestMatches_LunarWrapWindow(t *testing.T) {
	cal := intercalaryCalendar()
	cal.Moons = []schema.Moon{{
		Name:        "Pale",
		CycleLength: 5,
		Phases: []schema.MoonPhase{
			{Name: "P0", Length: 1}, {Name: "P1", Length: 1}, {Name: "P2", Length: 1},
			{Name: "P3", Length: 1}, {Name: "P4", Length: 1},
		},
	}}
	ev := evaluatorFor(cal)
	s := Schedule{Unit: UnitAdvanced, Rule: LunarRule{Moon: 0, Phase: 0, StartMonth: 2, EndMonth: 0}}

	// Epoch day 15 (Closing day 0) and day 0 are both phase 0.
	if !ev.Matches(s, "n1", date(0, 2, 0)) {
		t.Error("expected wrap window to include the trailing month")
	}
	if !ev.Matches(s, "n1", date(0, 0, 0)) {
		t.Error("expected wrap window to include the leading month")
	}
	if ev.Matches(s, "n1", date(0, 1, 0)) {
		t.Error("expected wrap window to exclude the middle month")
	}
}

// --- Random Rule Tests ---

func matchedDays(ev *Evaluator, s Schedule, id string, year int) map[schema.Date]bool {
	cal := ev.conv.Schema()
	out := make(map[schema.Date]bool)
	for m := 0; m < len(cal.Months); m++ {
		for d := 0; d < cal.MonthDays(m, year); d++ {
			if ev.Matches(s, id, date(year, m, d)) {
				out[date(year, m, d)] = true
			}
		}
	}
	return out
}

func TestMatches_RandomReproducible(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Unit: UnitAdvanced, Rule: RandomRule{StartMonth: 0, EndMonth: 1, Count: 5}}

	first := matchedDays(ev, s, "note-1", 3)
	if len(first) != 5 {
		t.Fatalf("expected 5 selected days, got %d", len(first))
	}
	second := matchedDays(ev, s, "note-1", 3)
	if len(second) != len(first) {
		t.Fatalf("re-evaluation changed set size: %d vs %d", len(first), len(second))
	}
	for d := range first {
		if !second[d] {
			t.Fatalf("re-evaluation changed the selected set at %v", d)
		}
	}
}

func TestMatches_RandomVariesByYear(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Unit: UnitAdvanced, Rule: RandomRule{StartMonth: 0, EndMonth: 1, Count: 5}}

	a := matchedDays(ev, s, "note-1", 3)
	b := matchedDays(ev, s, "note-1", 4)
	same := len(a) == len(b)
	if same {
		for d := range a {
			if !b[date(4, d.Month, d.Day)] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("expected different years to select different days")
	}
}

func TestMatches_RandomCountExceedsPool(t *testing.T) {
	ev := evaluatorFor(simpleCalendar())
	s := Schedule{Unit: UnitAdvanced, Rule: RandomRule{StartMonth: 0, EndMonth: 0, Count: 100}}

	if got := len(matchedDays(ev, s, "note-1", 0)); got != 30 {
		t.Errorf("expected whole window selected, got %d days", got)
	}
	if ev.Matches(s, "note-1", date(0, 1, 0)) {
		t.Error("expected no match outside the window")
	}
}

// --- Failure Mode Tests ---

func TestMatches_MalformedSchedules(t *testing.T) {
	simple := evaluatorFor(simpleCalendar())
	withMoon := evaluatorFor(moonCalendar())
	degenerate := evaluatorFor(&schema.Calendar{})

	tests := []struct {
		name string
		ev   *Evaluator
		s    Schedule
		d    schema.Date
	}{
		{"zero interval years", simple, Schedule{Start: date(0, 0, 0), Unit: UnitYears}, date(1, 0, 0)},
		{"negative interval days", simple, Schedule{Start: date(0, 0, 0), Unit: UnitDays, Interval: -2}, date(0, 0, 4)},
		{"unknown unit", simple, Schedule{Start: date(0, 0, 0), Unit: "weeks", Interval: 1}, date(0, 0, 0)},
		{"advanced without rule", simple, Schedule{Unit: UnitAdvanced}, date(0, 0, 0)},
		{"lunar moon out of range", withMoon, Schedule{Unit: UnitAdvanced, Rule: LunarRule{Moon: 3, Phase: 0, EndMonth: 1}}, date(0, 0, 0)},
		{"lunar phase out of range", withMoon, Schedule{Unit: UnitAdvanced, Rule: LunarRule{Moon: 0, Phase: 8, EndMonth: 1}}, date(0, 0, 0)},
		{"weekday out of range", simple, Schedule{Unit: UnitAdvanced, Rule: WeekdayRule{Ordinal: 0, Weekday: 9, Month: -1}}, date(0, 0, 0)},
		{"week index day out of range", simple, Schedule{Unit: UnitAdvanced, Rule: WeekIndexRule{Week: 0, Day: 7}}, date(0, 0, 0)},
		{"random zero count", simple, Schedule{Unit: UnitAdvanced, Rule: RandomRule{EndMonth: 1}}, date(0, 0, 0)},
		{"random window out of range", simple, Schedule{Unit: UnitAdvanced, Rule: RandomRule{StartMonth: 5, EndMonth: 6, Count: 1}}, date(0, 0, 0)},
		{"degenerate calendar", degenerate, Schedule{Start: date(0, 0, 0), Unit: UnitYears, Interval: 1}, date(1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ev.Matches(tt.s, "n1", tt.d) {
				t.Error("expected no match")
			}
		})
	}
}

func TestMatches_Idempotent(t *testing.T) {
	ev := evaluatorFor(moonCalendar())
	schedules := []Schedule{
		{Start: date(1, 0, 0), Unit: UnitYears, Interval: 2},
		{Unit: UnitAdvanced, Rule: LunarRule{Moon: 0, Phase: 3, EndMonth: 1}},
		{Unit: UnitAdvanced, Rule: RandomRule{EndMonth: 1, Count: 3}},
	}
	for i, s := range schedules {
		d := date(3, 0, 3)
		first := ev.Matches(s, "n1", d)
		for call := 0; call < 3; call++ {
			if got := ev.Matches(s, "n1", d); got != first {
				t.Errorf("schedule %d: result changed across calls", i)
			}
		}
	}
}
