package notes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/keyxmakerx/almanac/internal/apperror"
)

// NoteRepository defines the data access contract for note operations.
type NoteRepository interface {
	Create(ctx context.Context, note *Note) error
	FindByID(ctx context.Context, id string) (*Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id string) error

	// List returns a page of notes for a world with optional filters.
	List(ctx context.Context, worldID string, opts ListOptions) ([]Note, int, error)

	// ListAll returns every note for a world, for in-memory recurrence
	// evaluation. GM-only notes are excluded unless includeGM is set.
	ListAll(ctx context.Context, worldID string, includeGM bool) ([]Note, error)
}

// noteRepo is the MariaDB implementation of NoteRepository.
type noteRepo struct {
	db *sql.DB
}

// NewNoteRepository creates a new MariaDB-backed note repository.
func NewNoteRepository(db *sql.DB) NoteRepository {
	return &noteRepo{db: db}
}

// noteColumns is the SELECT column list for note queries.
const noteColumns = `id, world_id, title, content, category, color, visibility,
	year, month, day, hour, minute, all_day,
	repeat_unit, repeat_interval, repeat_count, rule_json,
	created_at, updated_at`

// ruleJSON marshals a note's advanced rule for storage, NULL when unset.
func ruleJSON(note *Note) (any, error) {
	if note.Rule == nil {
		return nil, nil
	}
	data, err := json.Marshal(note.Rule)
	if err != nil {
		return nil, fmt.Errorf("marshal rule: %w", err)
	}
	return data, nil
}

// scanNote reads a row into a Note struct, decoding the rule column.
func scanNote(scanner interface{ Scan(...any) error }) (*Note, error) {
	n := &Note{}
	var rawRule []byte
	err := scanner.Scan(&n.ID, &n.WorldID, &n.Title, &n.Content, &n.Category, &n.Color, &n.Visibility,
		&n.Year, &n.Month, &n.Day, &n.Hour, &n.Minute, &n.AllDay,
		&n.Repeat, &n.Interval, &n.RepeatCount, &rawRule,
		&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(rawRule) > 0 {
		n.Rule = &RuleSpec{}
		if err := json.Unmarshal(rawRule, n.Rule); err != nil {
			return nil, fmt.Errorf("unmarshal rule: %w", err)
		}
	}
	return n, nil
}

// Create inserts a new note.
func (r *noteRepo) Create(ctx context.Context, note *Note) error {
	rule, err := ruleJSON(note)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notes (id, world_id, title, content, category, color, visibility,
		        year, month, day, hour, minute, all_day,
		        repeat_unit, repeat_interval, repeat_count, rule_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.WorldID, note.Title, note.Content, note.Category, note.Color, note.Visibility,
		note.Year, note.Month, note.Day, note.Hour, note.Minute, note.AllDay,
		note.Repeat, note.Interval, note.RepeatCount, rule,
	)
	return err
}

// FindByID returns a note by its ID.
func (r *noteRepo) FindByID(ctx context.Context, id string) (*Note, error) {
	note, err := scanNote(r.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("note not found")
	}
	return note, err
}

// Update modifies an existing note.
func (r *noteRepo) Update(ctx context.Context, note *Note) error {
	rule, err := ruleJSON(note)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, category = ?, color = ?, visibility = ?,
		        year = ?, month = ?, day = ?, hour = ?, minute = ?, all_day = ?,
		        repeat_unit = ?, repeat_interval = ?, repeat_count = ?, rule_json = ?
		 WHERE id = ?`,
		note.Title, note.Content, note.Category, note.Color, note.Visibility,
		note.Year, note.Month, note.Day, note.Hour, note.Minute, note.AllDay,
		note.Repeat, note.Interval, note.RepeatCount, rule,
		note.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperror.NewNotFound("note not found")
	}
	return nil
}

// Delete removes a note.
func (r *noteRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperror.NewNotFound("note not found")
	}
	return nil
}

// List returns a page of notes for a world ordered by anchor date.
func (r *noteRepo) List(ctx context.Context, worldID string, opts ListOptions) ([]Note, int, error) {
	where := `WHERE world_id = ?`
	args := []any{worldID}
	if opts.Category != "" {
		where += ` AND category = ?`
		args = append(args, opts.Category)
	}
	if opts.Visibility != "" {
		where += ` AND visibility = ?`
		args = append(args, opts.Visibility)
	} else if !opts.IncludeGM {
		where += ` AND visibility = ?`
		args = append(args, VisibilityEveryone)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + noteColumns + ` FROM notes ` + where +
		` ORDER BY year, month, day, hour, minute, title LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, opts.PerPage, opts.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *note)
	}
	return list, total, rows.Err()
}

// ListAll returns every note for a world ordered by anchor date.
func (r *noteRepo) ListAll(ctx context.Context, worldID string, includeGM bool) ([]Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE world_id = ?`
	args := []any{worldID}
	if !includeGM {
		query += ` AND visibility = ?`
		args = append(args, VisibilityEveryone)
	}
	query += ` ORDER BY year, month, day, hour, minute, title`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *note)
	}
	return list, rows.Err()
}
