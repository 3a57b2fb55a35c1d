package worldtime

import (
	"testing"

	"github.com/keyxmakerx/almanac/internal/engine/schema"
)

func intPtr(v int) *int {
	return &v
}

// twoMonthCalendar is the smallest useful fixture: two months of 30 and 31
// days (61 days/year), no leap years, a 7-day week, standard time units.
func twoMonthCalendar() *schema.Calendar {
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

// leapCalendar adds a leap day to the second month every 4 years.
func leapCalendar() *schema.Calendar {
	cal := twoMonthCalendar()
	cal.LeapInterval = 4
	cal.Months[1].LeapDays = 1
	return cal
}

// intercalaryCalendar inserts a 5-day intercalary month between two 10-day
// months, with a 5-day week.
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

// gregorianCalendar is a real-life mode calendar anchored at 1970, with
// the weekday cycle aligned so 1970-01-01 is a Thursday (index 4, Sunday
// first).
func gregorianCalendar() *schema.Calendar {
	return &schema.Calendar{
		Mode:             schema.ModeRealLife,
		YearZero:         1970,
		FirstWeekday:     4,
		HoursPerDay:      24,
		MinutesPerHour:   60,
		SecondsPerMinute: 60,
		Months: []schema.Month{
			{Name: "January", Days: 31},
			{Name: "February", Days: 28, LeapDays: 1},
			{Name: "March", Days: 31},
			{Name: "April", Days: 30},
			{Name: "May", Days: 31},
			{Name: "June", Days: 30},
			{Name: "July", Days: 31},
			{Name: "August", Days: 31},
			{Name: "September", Days: 30},
			{Name: "October", Days: 31},
			{Name: "November", Days: 30},
			{Name: "December", Days: 31},
		},
		Weekdays: []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	}
}

func assertDate(t *testing.T, c Components, year, month, day int) {
	t.Helper()
	if c.Year != year || c.Month != month || c.Day != day {
		t.Errorf("got date %d/%d/%d, want %d/%d/%d", c.Year, c.Month, c.Day, year, month, day)
	}
}

// --- FromComponents Tests ---

func TestFromComponents_KnownValue(t *testing.T) {
	conv := NewConverter(twoMonthCalendar(), nil)
	got := conv.FromComponents(Components{Year: 2, Month: 1, Day: 5, Hour: 1, Minute: 2, Second: 3})
	// 2 years (122 days) + 1 month (30 days) + 5 days, then 01:02:03.
	want := int64(157*86400 + 3723)
	if got != want {
		t.Errorf("FromComponents = %d, want %d", got, want)
	}
	if want != 13568523 {
		t.Fatalf("fixture arithmetic drifted: %d", want)
	}
}

func TestFromComponents_EpochIsZero(t *testing.T) {
	conv := NewConverter(twoMonthCalendar(), nil)
	if got := conv.FromComponents(Components{}); got != 0 {
		t.Errorf("epoch components = %d, want 0", got)
	}
}

func TestFromComponents_BeforeEpoch(t *testing.T) {
	conv := NewConverter(twoMonthCalendar(), nil)
	// Last second of year -1.
	got := conv.FromComponents(Components{Year: -1, Month: 1, Day: 30, Hour: 23, Minute: 59, Second: 59})
	if got != -1 {
		t.Errorf("FromComponents = %d, want -1", got)
	}
}

func TestFromComponents_LeapYearLengthens(t *testing.T) {
	conv := NewConverter(leapCalendar(), nil)
	// Year 0 is leap (62 days), years 1-3 are 61.
	if got := conv.DayOrdinal(1, 0, 0); got != 62 {
		t.Errorf("DayOrdinal(1,0,0) = %d, want 62", got)
	}
	if got := conv.DayOrdinal(4, 0, 0); got != 245 {
		t.Errorf("DayOrdinal(4,0,0) = %d, want 245", got)
	}
}

func TestFromComponents_Monotonic(t *testing.T) {
	conv := NewConverter(leapCalendar(), nil)
	cal := conv.Schema()
	prev := int64(-1 << 62)
	for y := 0; y < 5; y++ {
		for m := 0; m < len(cal.Months); m++ {
			for d := 0; d < cal.MonthDays(m, y); d++ {
				for _, h := range []int{0, 12, 23} {
					for _, min := range []int{0, 59} {
						got := conv.FromComponents(Components{Year: y, Month: m, Day: d, Hour: h, Minute: min})
						if got <= prev {
							t.Fatalf("not strictly increasing at %d/%d/%d %d:%d: %d <= %d", y, m, d, h, min, got, prev)
						}
						prev = got
					}
				}
			}
		}
	}
}

// --- ToComponents Tests ---

func TestToComponents_KnownValue(t *testing.T) {
	conv := NewConverter(twoMonthCalendar(), nil)
	c := conv.ToComponents(13568523)
	assertDate(t, c, 2, 1, 5)
	if c.Hour != 1 || c.Minute != 2 || c.Second != 3 {
		t.Errorf("got time %02d:%02d:%02d, want 01:02:03", c.Hour, c.Minute, c.Second)
	}
	if c.DayOfWeek != 3 {
		t.Errorf("DayOfWeek = %d, want 3 (day 157 of a 7-day week)", c.DayOfWeek)
	}
	if c.LeapYear || c.Intercalary {
		t.Error("expected no leap or intercalary flags")
	}
}

func TestToComponents_NegativeTime(t *testing.T) {
	conv := NewConverter(twoMonthCalendar(), nil)
	c := conv.ToComponents(-1)
	assertDate(t, c, -1, 1, 30)
	if c.Hour != 23 || c.Minute != 59 || c.Second != 59 {
		t.Errorf("got time %02d:%02d:%02d, want 23:59:59", c.Hour, c.Minute, c.Second)
	}
	if c.DayOfWeek != 6 {
		t.Errorf("DayOfWeek = %d, want 6", c.DayOfWeek)
	}
}

func TestToComponents_LeapFlag(t *testing.T) {
	conv := NewConverter(leapCalendar(), nil)
	if c := conv.ToComponents(0); !c.LeapYear {
		t.Error("year 0 should be flagged leap")
	}
	if c := conv.ToComponents(62 * 86400); c.LeapYear {
		t.Errorf("year %d should not be flagged leap", c.Year)
	}
}

func TestToComponents_LeapDayDecodes(t *testing.T) {
	conv := NewConverter(leapCalendar(), nil)
	// Day 61 of leap year 0 is the extra day: month 1, day 31.
	c := conv.ToComponents(61 * 86400)
	assertDate(t, c, 0, 1, 31)
}

func TestRoundTrip(t *testing.T) {
	fixtures := []struct {
		name string
		cal  *schema.Calendar
	}{
		{"two month", twoMonthCalendar()},
		{"leap", leapCalendar()},
		{"intercalary", intercalaryCalendar()},
		{"gregorian", gregorianCalendar()},
	}
	for _, fx := range fixtures {
		t.Run(fx.name, func(t *testing.T) {
			conv := NewConverter(fx.cal, nil)
			for tm := int64(-5_000_000); tm <= 5_000_000; tm += 86399 {
				if got := conv.FromComponents(conv.ToComponents(tm)); got != tm {
					t.Fatalf("round trip %d -> %v -> %d", tm, conv.ToComponents(tm), got)
				}
			}
			for _, tm := range []int64{1_000_000_000_000, -999_999_987_655} {
				if got := conv.FromComponents(conv.ToComponents(tm)); got != tm {
					t.Fatalf("round trip far from epoch %d -> %d", tm, got)
				}
			}
		})
	}
}

// --- Weekday Policy Tests ---

func TestWeekday_Continuous(t *testing.T) {
	conv := NewConverter(twoMonthCalendar(), nil)
	if wd := conv.Weekday(0, 0, 0); wd != 0 {
		t.Errorf("epoch weekday = %d, want 0", wd)
	}
	if wd := conv.Weekday(0, 0, 8); wd != 1 {
		t.Errorf("day 8 weekday = %d, want 1", wd)
	}
	// Month boundary does not reset the cycle: month 1 day 0 is epoch day 30.
	if wd := conv.Weekday(0, 1, 0); wd != 2 {
		t.Errorf("month 1 day 0 weekday = %d, want 2", wd)
	}
}

func TestWeekday_FirstWeekdayShift(t *testing.T) {
	cal := twoMonthCalendar()
	cal.FirstWeekday = 3
	conv := NewConverter(cal, nil)
	if wd := conv.Weekday(0, 0, 0); wd != 3 {
		t.Errorf("epoch weekday = %d, want 3", wd)
	}
}

func TestWeekday_Reset(t *testing.T) {
	cal := twoMonthCalendar()
	cal.ResetWeekdays = true
	conv := NewConverter(cal, nil)
	if wd := conv.Weekday(0, 1, 0); wd != 0 {
		t.Errorf("reset month start weekday = %d, want 0", wd)
	}
	if wd := conv.Weekday(0, 1, 9); wd != 2 {
		t.Errorf("reset day 9 weekday = %d, want 2", wd)
	}
}

func TestWeekday_FixedStartOverridesReset(t *testing.T) {
	cal := twoMonthCalendar()
	cal.ResetWeekdays = true
	cal.Months[1].StartingWeekday = intPtr(2)
	conv := NewConverter(cal, nil)
	if wd := conv.Weekday(0, 1, 1); wd != 3 {
		t.Errorf("fixed-start weekday = %d, want 3", wd)
	}
}

func TestWeekday_IntercalaryHasNone(t *testing.T) {
	conv := NewConverter(intercalaryCalendar(), nil)
	c := conv.ToComponents(12 * 86400)
	assertDate(t, c, 0, 1, 2)
	if !c.Intercalary {
		t.Error("expected intercalary flag")
	}
	if c.DayOfWeek != -1 {
		t.Errorf("intercalary weekday = %d, want -1", c.DayOfWeek)
	}
}

func TestWeekday_IntercalaryDaysDoNotAdvanceCycle(t *testing.T) {
	conv := NewConverter(intercalaryCalendar(), nil)
	// Epoch day 15 is the first day after the 5-day intercalary month;
	// only 10 counted days precede it.
	if wd := conv.Weekday(0, 2, 0); wd != 0 {
		t.Errorf("post-intercalary weekday = %d, want 0", wd)
	}
	// Next year starts after 20 counted days.
	if wd := conv.Weekday(1, 0, 0); wd != 0 {
		t.Errorf("year 1 weekday = %d, want 0", wd)
	}
	if wd := conv.Weekday(1, 0, 3); wd != 3 {
		t.Errorf("year 1 day 3 weekday = %d, want 3", wd)
	}
}

func TestWeekday_FixedStartOverridesIntercalary(t *testing.T) {
	cal := intercalaryCalendar()
	cal.Months[1].StartingWeekday = intPtr(1)
	conv := NewConverter(cal, nil)
	if wd := conv.Weekday(0, 1, 0); wd != 1 {
		t.Errorf("fixed-start intercalary weekday = %d, want 1", wd)
	}
	if wd := conv.Weekday(0, 1, 3); wd != 4 {
		t.Errorf("fixed-start intercalary day 3 weekday = %d, want 4", wd)
	}
}

// --- Real-Life Mode Tests ---

func TestGregorian_DayOrdinal(t *testing.T) {
	conv := NewConverter(gregorianCalendar(), nil)
	// 1970-01-01 through 2000-01-01 spans 10957 days.
	if got := conv.DayOrdinal(2000, 0, 0); got != 10957 {
		t.Errorf("DayOrdinal(2000,0,0) = %d, want 10957", got)
	}
	if got := conv.FromComponents(Components{Year: 2000}); got != 946684800 {
		t.Errorf("FromComponents(2000-01-01) = %d, want 946684800", got)
	}
}

func TestGregorian_Weekday(t *testing.T) {
	conv := NewConverter(gregorianCalendar(), nil)
	// 1970-01-01 was a Thursday, 2000-01-01 a Saturday.
	if wd := conv.Weekday(1970, 0, 0); wd != 4 {
		t.Errorf("1970-01-01 weekday = %d, want 4", wd)
	}
	if wd := conv.Weekday(2000, 0, 0); wd != 6 {
		t.Errorf("2000-01-01 weekday = %d, want 6", wd)
	}
}

func TestGregorian_DecodeBeforeEpoch(t *testing.T) {
	conv := NewConverter(gregorianCalendar(), nil)
	c := conv.ToComponents(-86400)
	assertDate(t, c, 1969, 11, 30)
}

func TestGregorian_CenturyRule(t *testing.T) {
	conv := NewConverter(gregorianCalendar(), nil)
	// 1900 is not a leap year; February has 28 days.
	if got := conv.Schema().MonthDays(1, 1900); got != 28 {
		t.Errorf("February 1900 = %d days, want 28", got)
	}
	if got := conv.Schema().MonthDays(1, 2000); got != 29 {
		t.Errorf("February 2000 = %d days, want 29", got)
	}
}

// --- Degenerate Schema Tests ---

func TestDegenerateSchema(t *testing.T) {
	tests := []struct {
		name string
		cal  *schema.Calendar
	}{
		{"nil calendar", nil},
		{"no months", &schema.Calendar{HoursPerDay: 24, MinutesPerHour: 60, SecondsPerMinute: 60}},
		{"zero hours per day", &schema.Calendar{Months: []schema.Month{{Days: 30}}}},
		{"all zero-day months", &schema.Calendar{
			HoursPerDay: 24, MinutesPerHour: 60, SecondsPerMinute: 60,
			Months: []schema.Month{{Days: 0}, {Days: 0}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewConverter(tt.cal, nil)
			if got := conv.ToComponents(123456); got != (Components{}) {
				t.Errorf("ToComponents = %+v, want zero value", got)
			}
			if got := conv.FromComponents(Components{Year: 3, Month: 1, Day: 1}); got != 0 {
				t.Errorf("FromComponents = %d, want 0", got)
			}
		})
	}
}
