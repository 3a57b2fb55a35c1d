package schema

import (
	"errors"
	"testing"
)

func intPtr(v int) *int {
	return &v
}

// testCalendar returns a small valid fantasy calendar: two months of 30 and
// 31 days, a 7-day week, leap day every 4 years in the second month.
func testCalendar() *Calendar {
	return &Calendar{
		Mode:             ModeFantasy,
		LeapInterval:     4,
		HoursPerDay:      24,
		MinutesPerHour:   60,
		SecondsPerMinute: 60,
		Months: []Month{
			{Name: "First Seed", Days: 30},
			{Name: "Deep Winter", Days: 31, LeapDays: 1},
		},
		Weekdays: []string{"Sul", "Mol", "Zol", "Wir", "Zor", "Far", "Sar"},
	}
}

// --- Leap Year Tests ---

func TestIsLeapYear_Interval(t *testing.T) {
	cal := testCalendar()
	for y := -8; y <= 8; y++ {
		want := y%4 == 0
		if got := cal.IsLeapYear(y); got != want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", y, got, want)
		}
	}
}

func TestIsLeapYear_Offset(t *testing.T) {
	cal := testCalendar()
	cal.LeapOffset = 1
	if cal.IsLeapYear(4) {
		t.Error("expected year 4 not to be leap with offset 1")
	}
	if !cal.IsLeapYear(5) {
		t.Error("expected year 5 to be leap with offset 1")
	}
}

func TestIsLeapYear_NoLeap(t *testing.T) {
	cal := testCalendar()
	cal.LeapInterval = 0
	for y := 0; y < 10; y++ {
		if cal.IsLeapYear(y) {
			t.Errorf("expected no leap years, got leap at %d", y)
		}
	}
}

func TestIsLeapYear_RealLife(t *testing.T) {
	cal := testCalendar()
	cal.Mode = ModeRealLife

	tests := []struct {
		year int
		want bool
	}{
		{2000, true},
		{1900, false},
		{2024, true},
		{2023, false},
		{0, true},
		{-4, true},
	}
	for _, tt := range tests {
		if got := cal.IsLeapYear(tt.year); got != tt.want {
			t.Errorf("IsLeapYear(%d) = %v, want %v", tt.year, got, tt.want)
		}
	}
}

func TestIsLeapYear_RealLifeCycleCount(t *testing.T) {
	cal := testCalendar()
	cal.Mode = ModeRealLife

	// Any 400 consecutive years contain exactly 97 Gregorian leap years.
	count := 0
	for y := 123; y < 523; y++ {
		if cal.IsLeapYear(y) {
			count++
		}
	}
	if count != 97 {
		t.Errorf("expected 97 leap years per 400, got %d", count)
	}
}

// --- Day Count Tests ---

func TestYearDays(t *testing.T) {
	cal := testCalendar()
	if got := cal.BaseYearDays(); got != 61 {
		t.Errorf("BaseYearDays() = %d, want 61", got)
	}
	if got := cal.YearDays(1); got != 61 {
		t.Errorf("YearDays(1) = %d, want 61", got)
	}
	if got := cal.YearDays(4); got != 62 {
		t.Errorf("YearDays(4) = %d, want 62 (leap)", got)
	}
}

func TestMonthDays(t *testing.T) {
	cal := testCalendar()
	if got := cal.MonthDays(1, 4); got != 32 {
		t.Errorf("MonthDays(1, leap year) = %d, want 32", got)
	}
	if got := cal.MonthDays(1, 3); got != 31 {
		t.Errorf("MonthDays(1, common year) = %d, want 31", got)
	}
	if got := cal.MonthDays(5, 1); got != 0 {
		t.Errorf("MonthDays out of range = %d, want 0", got)
	}
	if got := cal.MonthDays(-1, 1); got != 0 {
		t.Errorf("MonthDays(-1) = %d, want 0", got)
	}
}

func TestIntercalaryDaysInYear(t *testing.T) {
	cal := testCalendar()
	cal.Months = append(cal.Months, Month{Name: "Midwinter", Days: 2, LeapDays: 1, Intercalary: true})

	if got := cal.IntercalaryDaysInYear(1); got != 2 {
		t.Errorf("IntercalaryDaysInYear(common) = %d, want 2", got)
	}
	if got := cal.IntercalaryDaysInYear(4); got != 3 {
		t.Errorf("IntercalaryDaysInYear(leap) = %d, want 3", got)
	}
}

func TestSecondsPerDay(t *testing.T) {
	cal := testCalendar()
	if got := cal.SecondsPerDay(); got != 86400 {
		t.Errorf("SecondsPerDay() = %d, want 86400", got)
	}
	cal.HoursPerDay = 20
	cal.MinutesPerHour = 100
	cal.SecondsPerMinute = 100
	if got := cal.SecondsPerDay(); got != 200000 {
		t.Errorf("SecondsPerDay() = %d, want 200000", got)
	}
}

// --- Season Tests ---

func TestSeasonContainsDate(t *testing.T) {
	spring := Season{Name: "Spring", StartMonth: 2, StartDay: 0, EndMonth: 4, EndDay: 30}
	winter := Season{Name: "Winter", StartMonth: 10, StartDay: 0, EndMonth: 1, EndDay: 27}

	tests := []struct {
		name   string
		season *Season
		month  int
		day    int
		want   bool
	}{
		{"inside normal range", &spring, 3, 10, true},
		{"start boundary", &spring, 2, 0, true},
		{"end boundary", &spring, 4, 30, true},
		{"before normal range", &spring, 1, 27, false},
		{"after normal range", &spring, 5, 0, false},
		{"wrap before year end", &winter, 11, 15, true},
		{"wrap after year start", &winter, 0, 5, true},
		{"wrap end boundary", &winter, 1, 27, true},
		{"outside wrap range", &winter, 5, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.season.ContainsDate(tt.month, tt.day); got != tt.want {
				t.Errorf("ContainsDate(%d, %d) = %v, want %v", tt.month, tt.day, got, tt.want)
			}
		})
	}
}

func TestSeasonForDate(t *testing.T) {
	cal := testCalendar()
	cal.Seasons = []Season{
		{Name: "Thaw", StartMonth: 0, StartDay: 0, EndMonth: 0, EndDay: 29},
		{Name: "Frost", StartMonth: 1, StartDay: 0, EndMonth: 1, EndDay: 30},
	}

	if s := cal.SeasonForDate(0, 15); s == nil || s.Name != "Thaw" {
		t.Errorf("SeasonForDate(0, 15) = %v, want Thaw", s)
	}
	if s := cal.SeasonForDate(1, 0); s == nil || s.Name != "Frost" {
		t.Errorf("SeasonForDate(1, 0) = %v, want Frost", s)
	}

	cal.Seasons = nil
	if s := cal.SeasonForDate(0, 0); s != nil {
		t.Errorf("expected nil season with no seasons configured, got %v", s)
	}
}

// --- Date Tests ---

func TestDateBefore(t *testing.T) {
	tests := []struct {
		name string
		a, b Date
		want bool
	}{
		{"earlier year", Date{Year: 1, Month: 5, Day: 5}, Date{Year: 2, Month: 0, Day: 0}, true},
		{"earlier month", Date{Year: 2, Month: 0, Day: 5}, Date{Year: 2, Month: 1, Day: 0}, true},
		{"earlier day", Date{Year: 2, Month: 1, Day: 4}, Date{Year: 2, Month: 1, Day: 5}, true},
		{"equal", Date{Year: 2, Month: 1, Day: 5}, Date{Year: 2, Month: 1, Day: 5}, false},
		{"later", Date{Year: 3, Month: 0, Day: 0}, Date{Year: 2, Month: 11, Day: 30}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Before(tt.b); got != tt.want {
				t.Errorf("Before() = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- Validation Tests ---

func TestValidate_Valid(t *testing.T) {
	cal := testCalendar()
	cal.Moons = []Moon{{Name: "Luna", CycleLength: 29.5, Phases: []MoonPhase{{Name: "New", Length: 29.5}}}}
	if err := cal.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Calendar)
		wantErr error
	}{
		{"no months", func(c *Calendar) { c.Months = nil }, ErrNoMonths},
		{"no weekdays", func(c *Calendar) { c.Weekdays = nil }, ErrNoWeekdays},
		{"zero hours per day", func(c *Calendar) { c.HoursPerDay = 0 }, ErrBadTimeUnits},
		{"negative minutes per hour", func(c *Calendar) { c.MinutesPerHour = -1 }, ErrBadTimeUnits},
		{"negative leap interval", func(c *Calendar) { c.LeapInterval = -4 }, ErrBadLeapInterval},
		{"negative month days", func(c *Calendar) { c.Months[0].Days = -1 }, ErrBadMonthDays},
		{"negative leap days", func(c *Calendar) { c.Months[1].LeapDays = -1 }, ErrBadMonthDays},
		{"starting weekday out of range", func(c *Calendar) { c.Months[0].StartingWeekday = intPtr(7) }, ErrBadStartingWeekday},
		{"negative starting weekday", func(c *Calendar) { c.Months[0].StartingWeekday = intPtr(-1) }, ErrBadStartingWeekday},
		{"zero moon cycle", func(c *Calendar) {
			c.Moons = []Moon{{Name: "Void", CycleLength: 0}}
		}, ErrBadMoonCycle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal := testCalendar()
			tt.mutate(cal)
			err := cal.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_ZeroDayMonthAllowed(t *testing.T) {
	cal := testCalendar()
	cal.Months = append(cal.Months, Month{Name: "Festival", Days: 0, LeapDays: 1})
	if err := cal.Validate(); err != nil {
		t.Fatalf("zero-day month should be valid: %v", err)
	}
}
