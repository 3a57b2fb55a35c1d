package presets

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/keyxmakerx/almanac/internal/engine/worldtime"
)

const overlayPreset = `settings:
  name: Overlay Calendar
  mode: fantasy
  hours_per_day: 24
  minutes_per_hour: 60
  seconds_per_minute: 60
months:
  - name: Onemonth
    days: 30
weekdays:
  - name: Oneday
`

const shadowPreset = `settings:
  name: Shadowed Gregorian
  mode: fantasy
  hours_per_day: 24
  minutes_per_hour: 60
  seconds_per_minute: 60
months:
  - name: Janvier
    days: 30
weekdays:
  - name: Dimanche
`

func mustCatalog(t *testing.T, dir string) *Catalog {
	t.Helper()
	c, err := NewCatalog(dir)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func writePresetFile(t *testing.T, dir, file, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", file, err)
	}
}

func wantNames(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestNewCatalog_Builtins(t *testing.T) {
	c := mustCatalog(t, "")

	wantNames(t, c.Names(), []string{"golarion", "gregorian", "harptos"})

	for _, name := range c.Names() {
		def, ok := c.Definition(name)
		if !ok {
			t.Fatalf("preset %q not found", name)
		}
		if err := def.EngineSchema().Validate(); err != nil {
			t.Errorf("preset %q does not validate: %v", name, err)
		}
	}
}

func TestGregorianPreset(t *testing.T) {
	c := mustCatalog(t, "")
	def, ok := c.Definition("gregorian")
	if !ok {
		t.Fatal("gregorian preset not found")
	}

	if len(def.Months) != 12 {
		t.Fatalf("months = %d, want 12", len(def.Months))
	}
	if len(def.Weekdays) != 7 {
		t.Fatalf("weekdays = %d, want 7", len(def.Weekdays))
	}

	sc := def.EngineSchema()
	if got := sc.BaseYearDays(); got != 365 {
		t.Errorf("base year days = %d, want 365", got)
	}
	// Real-life mode applies the full Gregorian rule, century years
	// included.
	if !sc.IsLeapYear(2000) {
		t.Error("2000 should be a leap year")
	}
	if sc.IsLeapYear(1900) {
		t.Error("1900 should not be a leap year")
	}
	if sc.IsLeapYear(1970) {
		t.Error("1970 should not be a leap year")
	}
	if got := sc.MonthDays(1, 1972); got != 29 {
		t.Errorf("February 1972 has %d days, want 29", got)
	}

	// World time zero is 1970-01-01, a Thursday.
	conv := worldtime.NewConverter(sc, nil)
	epoch := conv.ToComponents(0)
	if epoch.Year != 1970 || epoch.Month != 0 || epoch.Day != 0 {
		t.Fatalf("epoch = %d-%d-%d, want 1970-0-0", epoch.Year, epoch.Month, epoch.Day)
	}
	if epoch.DayOfWeek != 4 {
		t.Errorf("epoch weekday = %d, want 4 (Thursday)", epoch.DayOfWeek)
	}
	feb1 := conv.ToComponents(31 * 86400)
	if feb1.Month != 1 || feb1.Day != 0 {
		t.Fatalf("day 31 = month %d day %d, want February 1st", feb1.Month, feb1.Day)
	}
	if feb1.DayOfWeek != 0 {
		t.Errorf("1970-02-01 weekday = %d, want 0 (Sunday)", feb1.DayOfWeek)
	}
}

func TestHarptosPreset(t *testing.T) {
	c := mustCatalog(t, "")
	def, ok := c.Definition("harptos")
	if !ok {
		t.Fatal("harptos preset not found")
	}

	if len(def.Months) != 17 {
		t.Fatalf("months = %d, want 17", len(def.Months))
	}
	festivals := 0
	for _, m := range def.Months {
		if m.Intercalary {
			festivals++
		}
	}
	if festivals != 5 {
		t.Errorf("intercalary festivals = %d, want 5", festivals)
	}
	if len(def.Weekdays) != 10 {
		t.Errorf("weekdays = %d, want a tenday", len(def.Weekdays))
	}

	sc := def.EngineSchema()
	if got := sc.BaseYearDays(); got != 365 {
		t.Errorf("base year days = %d, want 365", got)
	}
	// Shieldmeet extends Midsummer every fourth year.
	if got := sc.LeapExtraDays(); got != 1 {
		t.Errorf("leap extra days = %d, want 1", got)
	}
	if !sc.IsLeapYear(1492) {
		t.Error("1492 DR should be a Shieldmeet year")
	}

	// Festival days sit outside the tenday: Midwinter has no weekday and
	// Alturiak 1 continues where Hammer 30 left off.
	conv := worldtime.NewConverter(sc, nil)
	midwinter := conv.ToComponents(30 * 86400)
	if midwinter.Month != 1 || !midwinter.Intercalary {
		t.Fatalf("day 30 = month %d (intercalary=%v), want Midwinter", midwinter.Month, midwinter.Intercalary)
	}
	if midwinter.DayOfWeek != -1 {
		t.Errorf("Midwinter weekday = %d, want -1", midwinter.DayOfWeek)
	}
	alturiak := conv.ToComponents(31 * 86400)
	if alturiak.Month != 2 || alturiak.Day != 0 {
		t.Fatalf("day 31 = month %d day %d, want Alturiak 1st", alturiak.Month, alturiak.Day)
	}
	if alturiak.DayOfWeek != 0 {
		t.Errorf("Alturiak 1st weekday = %d, want 0", alturiak.DayOfWeek)
	}
}

func TestGolarionPreset(t *testing.T) {
	c := mustCatalog(t, "")
	def, ok := c.Definition("golarion")
	if !ok {
		t.Fatal("golarion preset not found")
	}

	if len(def.Months) != 12 {
		t.Fatalf("months = %d, want 12", len(def.Months))
	}
	if len(def.Weekdays) != 7 {
		t.Errorf("weekdays = %d, want 7", len(def.Weekdays))
	}

	sc := def.EngineSchema()
	if got := sc.BaseYearDays(); got != 365 {
		t.Errorf("base year days = %d, want 365", got)
	}
	// Leap years every eight years add a day to Calistril.
	if sc.IsLeapYear(4725) {
		t.Error("4725 AR should not be a leap year")
	}
	if !sc.IsLeapYear(4728) {
		t.Error("4728 AR should be a leap year")
	}
	if got := sc.MonthDays(1, 4728); got != 29 {
		t.Errorf("Calistril 4728 has %d days, want 29", got)
	}
	if got := sc.MonthDays(1, 4725); got != 28 {
		t.Errorf("Calistril 4725 has %d days, want 28", got)
	}
}

func TestMoonPhasesSpanCycle(t *testing.T) {
	c := mustCatalog(t, "")

	for _, name := range c.Names() {
		def, _ := c.Definition(name)
		for _, moon := range def.Moons {
			sum := 0.0
			for _, p := range moon.Phases {
				sum += p.Length
			}
			if math.Abs(sum-moon.CycleLength) > 0.01 {
				t.Errorf("%s: moon %s phases sum to %.4f, cycle is %.4f", name, moon.Name, sum, moon.CycleLength)
			}
		}
	}
}

func TestSeasonsCoverEveryDay(t *testing.T) {
	c := mustCatalog(t, "")

	for _, name := range c.Names() {
		def, _ := c.Definition(name)
		sc := def.EngineSchema()
		if len(sc.Seasons) == 0 {
			t.Fatalf("%s: no seasons", name)
		}
		for mi, m := range sc.Months {
			// Include leap days so the leap day is never seasonless.
			for d := 0; d < m.Days+m.LeapDays; d++ {
				found := false
				for si := range sc.Seasons {
					if sc.Seasons[si].ContainsDate(mi, d) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("%s: month %d day %d has no season", name, mi, d)
				}
			}
		}
	}
}

func TestOverlayShadowsBuiltin(t *testing.T) {
	dir := t.TempDir()
	writePresetFile(t, dir, "gregorian.yaml", shadowPreset)
	writePresetFile(t, dir, "custom.yml", overlayPreset)

	c := mustCatalog(t, dir)

	def, ok := c.Definition("gregorian")
	if !ok {
		t.Fatal("gregorian preset not found")
	}
	if def.Settings.Name != "Shadowed Gregorian" {
		t.Errorf("gregorian resolves to %q, want the overlay version", def.Settings.Name)
	}
	def, ok = c.Definition("custom")
	if !ok {
		t.Fatal("custom preset not found")
	}
	if def.Settings.Name != "Overlay Calendar" {
		t.Errorf("custom name = %q", def.Settings.Name)
	}

	wantNames(t, c.Names(), []string{"custom", "golarion", "gregorian", "harptos"})
}

func TestLoadDirSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writePresetFile(t, dir, "broken.yaml", "months: [unclosed")
	writePresetFile(t, dir, "incomplete.yaml", "settings:\n  name: No Months\n")
	writePresetFile(t, dir, "notes.txt", "not a preset")
	writePresetFile(t, dir, "good.yaml", overlayPreset)

	c := mustCatalog(t, dir)

	if _, ok := c.Definition("broken"); ok {
		t.Error("broken preset should have been skipped")
	}
	if _, ok := c.Definition("incomplete"); ok {
		t.Error("incomplete preset should have been skipped")
	}
	if _, ok := c.Definition("notes"); ok {
		t.Error("non-YAML file should have been ignored")
	}
	if _, ok := c.Definition("good"); !ok {
		t.Error("valid preset should have loaded despite bad neighbors")
	}
}

func TestLoadDirMissingDirKeepsBuiltins(t *testing.T) {
	c := mustCatalog(t, filepath.Join(t.TempDir(), "missing"))
	wantNames(t, c.Names(), []string{"golarion", "gregorian", "harptos"})
}

func TestLoadDirDropsRemovedPresets(t *testing.T) {
	dir := t.TempDir()
	writePresetFile(t, dir, "custom.yaml", overlayPreset)

	c := mustCatalog(t, dir)
	if _, ok := c.Definition("custom"); !ok {
		t.Fatal("custom preset not found after initial load")
	}

	if err := os.Remove(filepath.Join(dir, "custom.yaml")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := c.LoadDir(); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if _, ok := c.Definition("custom"); ok {
		t.Error("removed preset still resolves")
	}
}
