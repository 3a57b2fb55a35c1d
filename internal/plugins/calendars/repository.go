package calendars

import (
	"context"
	"database/sql"
	"time"
)

// CalendarRepository defines persistence operations for calendars and their
// sub-resources. Schema-affecting writes bump the calendar version in the
// same statement or transaction; clock writes do not.
type CalendarRepository interface {
	// Calendar CRUD. FindByWorld returns (nil, nil) when no calendar
	// exists.
	Create(ctx context.Context, cal *Calendar) error
	FindByWorld(ctx context.Context, worldID string) (*Calendar, error)
	UpdateSettings(ctx context.Context, cal *Calendar) error
	Delete(ctx context.Context, id string) error

	// Clock.
	SetClock(ctx context.Context, id string, worldTime int64) error
	AdvanceClock(ctx context.Context, id string, delta int64) (int64, error)
	AdvanceRealTime(ctx context.Context, id string, now time.Time) (int64, int64, error)
	ListRealTime(ctx context.Context) ([]Calendar, error)

	// Sync snapshot.
	SetSync(ctx context.Context, cal *Calendar) error

	// Sub-resource bulk replaces (delete + insert).
	SetMonths(ctx context.Context, calendarID string, months []Month) error
	GetMonths(ctx context.Context, calendarID string) ([]Month, error)
	SetWeekdays(ctx context.Context, calendarID string, weekdays []Weekday) error
	GetWeekdays(ctx context.Context, calendarID string) ([]Weekday, error)
	SetMoons(ctx context.Context, calendarID string, moons []Moon) error
	GetMoons(ctx context.Context, calendarID string) ([]Moon, error)
	SetSeasons(ctx context.Context, calendarID string, seasons []Season) error
	GetSeasons(ctx context.Context, calendarID string) ([]Season, error)
}

// calendarRepo is the MariaDB implementation of CalendarRepository.
type calendarRepo struct {
	db *sql.DB
}

// NewCalendarRepository creates a new MariaDB-backed calendar repository.
func NewCalendarRepository(db *sql.DB) CalendarRepository {
	return &calendarRepo{db: db}
}

// calendarCols is the column list for calendar queries.
const calendarCols = `id, world_id, name, version, mode, year_zero,
        leap_interval, leap_offset, first_weekday, reset_weekdays,
        hours_per_day, minutes_per_hour, seconds_per_minute,
        world_time, advance_ratio, last_real_time,
        sync_enabled, sync_year, sync_month, sync_day,
        sync_hour, sync_minute, sync_second, sync_weekday, sync_world_time,
        created_at, updated_at`

// scanCalendar reads a row into a Calendar struct.
func scanCalendar(scanner interface{ Scan(...any) error }) (*Calendar, error) {
	cal := &Calendar{}
	err := scanner.Scan(&cal.ID, &cal.WorldID, &cal.Name, &cal.Version, &cal.Mode, &cal.YearZero,
		&cal.LeapInterval, &cal.LeapOffset, &cal.FirstWeekday, &cal.ResetWeekdays,
		&cal.HoursPerDay, &cal.MinutesPerHour, &cal.SecondsPerMinute,
		&cal.CurrentTime, &cal.AdvanceRatio, &cal.LastRealTime,
		&cal.SyncEnabled, &cal.SyncYear, &cal.SyncMonth, &cal.SyncDay,
		&cal.SyncHour, &cal.SyncMinute, &cal.SyncSecond, &cal.SyncWeekday, &cal.SyncWorldTime,
		&cal.CreatedAt, &cal.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return cal, err
}

// Create inserts a new calendar.
func (r *calendarRepo) Create(ctx context.Context, cal *Calendar) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO calendars (id, world_id, name, mode, year_zero,
		        leap_interval, leap_offset, first_weekday, reset_weekdays,
		        hours_per_day, minutes_per_hour, seconds_per_minute,
		        world_time, advance_ratio, last_real_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		cal.ID, cal.WorldID, cal.Name, cal.Mode, cal.YearZero,
		cal.LeapInterval, cal.LeapOffset, cal.FirstWeekday, cal.ResetWeekdays,
		cal.HoursPerDay, cal.MinutesPerHour, cal.SecondsPerMinute,
		cal.CurrentTime, cal.AdvanceRatio,
	)
	return err
}

// FindByWorld returns the calendar for a world (one per world).
func (r *calendarRepo) FindByWorld(ctx context.Context, worldID string) (*Calendar, error) {
	return scanCalendar(r.db.QueryRowContext(ctx,
		`SELECT `+calendarCols+` FROM calendars WHERE world_id = ?`, worldID))
}

// UpdateSettings modifies the top-level calendar settings and bumps the
// version so cached conversions built on the old schema expire.
func (r *calendarRepo) UpdateSettings(ctx context.Context, cal *Calendar) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE calendars SET name = ?, mode = ?, year_zero = ?,
		        leap_interval = ?, leap_offset = ?, first_weekday = ?, reset_weekdays = ?,
		        hours_per_day = ?, minutes_per_hour = ?, seconds_per_minute = ?,
		        advance_ratio = ?, version = version + 1
		 WHERE id = ?`,
		cal.Name, cal.Mode, cal.YearZero,
		cal.LeapInterval, cal.LeapOffset, cal.FirstWeekday, cal.ResetWeekdays,
		cal.HoursPerDay, cal.MinutesPerHour, cal.SecondsPerMinute,
		cal.AdvanceRatio, cal.ID,
	)
	return err
}

// Delete removes a calendar and all child records (cascaded by FK).
func (r *calendarRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM calendars WHERE id = ?`, id)
	return err
}

// SetClock writes the world clock and resets the real-time mark so the
// runner measures elapsed time from this write, not the previous one.
func (r *calendarRepo) SetClock(ctx context.Context, id string, worldTime int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE calendars SET world_time = ?, last_real_time = NOW() WHERE id = ?`,
		worldTime, id,
	)
	return err
}

// AdvanceClock shifts the world clock by delta seconds atomically and
// returns the new value.
func (r *calendarRepo) AdvanceClock(ctx context.Context, id string, delta int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var current int64
	if err := tx.QueryRowContext(ctx,
		`SELECT world_time FROM calendars WHERE id = ? FOR UPDATE`, id,
	).Scan(&current); err != nil {
		return 0, err
	}
	current += delta
	if _, err := tx.ExecContext(ctx,
		`UPDATE calendars SET world_time = ?, last_real_time = NOW() WHERE id = ?`,
		current, id,
	); err != nil {
		return 0, err
	}
	return current, tx.Commit()
}

// AdvanceRealTime moves the clock by advance_ratio times the real seconds
// elapsed since the last write. Row-locked so concurrent ticks cannot
// double-count the same interval. Returns the new world time and the
// applied delta.
func (r *calendarRepo) AdvanceRealTime(ctx context.Context, id string, now time.Time) (int64, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	var (
		current int64
		ratio   float64
		last    time.Time
	)
	if err := tx.QueryRowContext(ctx,
		`SELECT world_time, advance_ratio, last_real_time FROM calendars WHERE id = ? FOR UPDATE`, id,
	).Scan(&current, &ratio, &last); err != nil {
		return 0, 0, err
	}

	elapsed := now.Sub(last).Seconds()
	if ratio <= 0 || elapsed <= 0 {
		return current, 0, tx.Commit()
	}
	delta := int64(ratio * elapsed)
	if delta < 1 {
		// Not enough real time for a whole game second yet; keep the old
		// mark so the fraction accrues into the next tick.
		return current, 0, tx.Commit()
	}

	current += delta
	if _, err := tx.ExecContext(ctx,
		`UPDATE calendars SET world_time = ?, last_real_time = ? WHERE id = ?`,
		current, now, id,
	); err != nil {
		return 0, 0, err
	}
	return current, delta, tx.Commit()
}

// ListRealTime returns all calendars with a positive advance ratio,
// settings only (no sub-resources).
func (r *calendarRepo) ListRealTime(ctx context.Context) ([]Calendar, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+calendarCols+` FROM calendars WHERE advance_ratio > 0`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cals []Calendar
	for rows.Next() {
		cal, err := scanCalendar(rows)
		if err != nil {
			return nil, err
		}
		cals = append(cals, *cal)
	}
	return cals, rows.Err()
}

// SetSync writes the sync snapshot fields and bumps the version, since the
// snapshot changes every conversion result.
func (r *calendarRepo) SetSync(ctx context.Context, cal *Calendar) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE calendars SET sync_enabled = ?, sync_year = ?, sync_month = ?, sync_day = ?,
		        sync_hour = ?, sync_minute = ?, sync_second = ?, sync_weekday = ?, sync_world_time = ?,
		        version = version + 1
		 WHERE id = ?`,
		cal.SyncEnabled, cal.SyncYear, cal.SyncMonth, cal.SyncDay,
		cal.SyncHour, cal.SyncMinute, cal.SyncSecond, cal.SyncWeekday, cal.SyncWorldTime,
		cal.ID,
	)
	return err
}

// bumpVersion increments the calendar version inside an open transaction.
func bumpVersion(ctx context.Context, tx *sql.Tx, calendarID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE calendars SET version = version + 1 WHERE id = ?`, calendarID)
	return err
}

// SetMonths replaces all months for a calendar (delete + bulk insert).
func (r *calendarRepo) SetMonths(ctx context.Context, calendarID string, months []Month) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_months WHERE calendar_id = ?`, calendarID); err != nil {
		return err
	}
	for _, m := range months {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO calendar_months (calendar_id, name, days, leap_days, intercalary, starting_weekday, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			calendarID, m.Name, m.Days, m.LeapDays, m.Intercalary, m.StartingWeekday, m.SortOrder,
		); err != nil {
			return err
		}
	}
	if err := bumpVersion(ctx, tx, calendarID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetMonths returns all months for a calendar ordered by sort_order.
func (r *calendarRepo) GetMonths(ctx context.Context, calendarID string) ([]Month, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, calendar_id, name, days, leap_days, intercalary, starting_weekday, sort_order
		 FROM calendar_months WHERE calendar_id = ? ORDER BY sort_order`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []Month
	for rows.Next() {
		var m Month
		if err := rows.Scan(&m.ID, &m.CalendarID, &m.Name, &m.Days, &m.LeapDays, &m.Intercalary, &m.StartingWeekday, &m.SortOrder); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// SetWeekdays replaces all weekdays for a calendar.
func (r *calendarRepo) SetWeekdays(ctx context.Context, calendarID string, weekdays []Weekday) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_weekdays WHERE calendar_id = ?`, calendarID); err != nil {
		return err
	}
	for _, w := range weekdays {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO calendar_weekdays (calendar_id, name, sort_order)
			 VALUES (?, ?, ?)`,
			calendarID, w.Name, w.SortOrder,
		); err != nil {
			return err
		}
	}
	if err := bumpVersion(ctx, tx, calendarID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetWeekdays returns all weekdays for a calendar ordered by sort_order.
func (r *calendarRepo) GetWeekdays(ctx context.Context, calendarID string) ([]Weekday, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, calendar_id, name, sort_order
		 FROM calendar_weekdays WHERE calendar_id = ? ORDER BY sort_order`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weekdays []Weekday
	for rows.Next() {
		var w Weekday
		if err := rows.Scan(&w.ID, &w.CalendarID, &w.Name, &w.SortOrder); err != nil {
			return nil, err
		}
		weekdays = append(weekdays, w)
	}
	return weekdays, rows.Err()
}

// SetMoons replaces all moons and their phase tables for a calendar.
func (r *calendarRepo) SetMoons(ctx context.Context, calendarID string, moons []Moon) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Phase rows cascade from calendar_moons.
	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_moons WHERE calendar_id = ?`, calendarID); err != nil {
		return err
	}
	for _, m := range moons {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO calendar_moons (calendar_id, name, cycle_length, phase_offset,
			        first_new_moon_year, first_new_moon_month, first_new_moon_day, color, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			calendarID, m.Name, m.CycleLength, m.Offset,
			m.FirstNewMoonYear, m.FirstNewMoonMon, m.FirstNewMoonDay, m.Color, m.SortOrder,
		)
		if err != nil {
			return err
		}
		moonID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, p := range m.Phases {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO calendar_moon_phases (moon_id, name, length, icon, sort_order)
				 VALUES (?, ?, ?, ?, ?)`,
				moonID, p.Name, p.Length, p.Icon, p.SortOrder,
			); err != nil {
				return err
			}
		}
	}
	if err := bumpVersion(ctx, tx, calendarID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetMoons returns all moons with their phase tables.
func (r *calendarRepo) GetMoons(ctx context.Context, calendarID string) ([]Moon, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, calendar_id, name, cycle_length, phase_offset,
		        first_new_moon_year, first_new_moon_month, first_new_moon_day, color, sort_order
		 FROM calendar_moons WHERE calendar_id = ? ORDER BY sort_order`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moons []Moon
	for rows.Next() {
		var m Moon
		if err := rows.Scan(&m.ID, &m.CalendarID, &m.Name, &m.CycleLength, &m.Offset,
			&m.FirstNewMoonYear, &m.FirstNewMoonMon, &m.FirstNewMoonDay, &m.Color, &m.SortOrder); err != nil {
			return nil, err
		}
		moons = append(moons, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range moons {
		phases, err := r.getMoonPhases(ctx, moons[i].ID)
		if err != nil {
			return nil, err
		}
		moons[i].Phases = phases
	}
	return moons, nil
}

// getMoonPhases returns the phase table for one moon ordered by sort_order.
func (r *calendarRepo) getMoonPhases(ctx context.Context, moonID int64) ([]MoonPhase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, moon_id, name, length, icon, sort_order
		 FROM calendar_moon_phases WHERE moon_id = ? ORDER BY sort_order`, moonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phases []MoonPhase
	for rows.Next() {
		var p MoonPhase
		if err := rows.Scan(&p.ID, &p.MoonID, &p.Name, &p.Length, &p.Icon, &p.SortOrder); err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

// SetSeasons replaces all seasons for a calendar.
func (r *calendarRepo) SetSeasons(ctx context.Context, calendarID string, seasons []Season) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_seasons WHERE calendar_id = ?`, calendarID); err != nil {
		return err
	}
	for _, s := range seasons {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO calendar_seasons (calendar_id, name, start_month, start_day, end_month, end_day,
			        color, base_temp_c, temp_variance_c, humidity, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			calendarID, s.Name, s.StartMonth, s.StartDay, s.EndMonth, s.EndDay,
			s.Color, s.BaseTempC, s.TempVarianceC, s.Humidity, s.SortOrder,
		); err != nil {
			return err
		}
	}
	if err := bumpVersion(ctx, tx, calendarID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetSeasons returns all seasons for a calendar ordered by sort_order.
func (r *calendarRepo) GetSeasons(ctx context.Context, calendarID string) ([]Season, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, calendar_id, name, start_month, start_day, end_month, end_day,
		        color, base_temp_c, temp_variance_c, humidity, sort_order
		 FROM calendar_seasons WHERE calendar_id = ? ORDER BY sort_order`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seasons []Season
	for rows.Next() {
		var s Season
		if err := rows.Scan(&s.ID, &s.CalendarID, &s.Name, &s.StartMonth, &s.StartDay, &s.EndMonth, &s.EndDay,
			&s.Color, &s.BaseTempC, &s.TempVarianceC, &s.Humidity, &s.SortOrder); err != nil {
			return nil, err
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}
