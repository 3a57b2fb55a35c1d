package worlds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/almanac/internal/apperror"
)

// WorldRepository defines the data access contract for world operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type WorldRepository interface {
	Create(ctx context.Context, world *World) error
	FindByID(ctx context.Context, id string) (*World, error)
	FindBySlug(ctx context.Context, slug string) (*World, error)
	List(ctx context.Context, opts ListOptions) ([]World, int, error)
	Update(ctx context.Context, world *World) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// worldRepository implements WorldRepository with MariaDB queries.
type worldRepository struct {
	db *sql.DB
}

// NewWorldRepository creates a new repository backed by the given DB pool.
func NewWorldRepository(db *sql.DB) WorldRepository {
	return &worldRepository{db: db}
}

// worldColumns is the canonical column list for scanning World rows.
const worldColumns = `id, name, slug, description, seed, created_at, updated_at`

// scanWorld scans one World from a row-like scanner.
func scanWorld(row interface{ Scan(...any) error }) (*World, error) {
	w := &World{}
	err := row.Scan(&w.ID, &w.Name, &w.Slug, &w.Description, &w.Seed, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Create inserts a new world row.
func (r *worldRepository) Create(ctx context.Context, world *World) error {
	query := `INSERT INTO worlds (` + worldColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		world.ID, world.Name, world.Slug, world.Description, world.Seed,
		world.CreatedAt, world.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting world: %w", err)
	}
	return nil
}

// FindByID retrieves a world by its UUID.
func (r *worldRepository) FindByID(ctx context.Context, id string) (*World, error) {
	query := `SELECT ` + worldColumns + ` FROM worlds WHERE id = ?`

	w, err := scanWorld(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("world not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying world by id: %w", err)
	}
	return w, nil
}

// FindBySlug retrieves a world by its URL slug.
func (r *worldRepository) FindBySlug(ctx context.Context, slug string) (*World, error) {
	query := `SELECT ` + worldColumns + ` FROM worlds WHERE slug = ?`

	w, err := scanWorld(r.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("world not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying world by slug: %w", err)
	}
	return w, nil
}

// List returns worlds ordered by most recently updated, with the total
// count for pagination.
func (r *worldRepository) List(ctx context.Context, opts ListOptions) ([]World, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM worlds`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting worlds: %w", err)
	}

	query := `SELECT ` + worldColumns + ` FROM worlds
	          ORDER BY updated_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, opts.PerPage, opts.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing worlds: %w", err)
	}
	defer rows.Close()

	var worlds []World
	for rows.Next() {
		w, err := scanWorld(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning world row: %w", err)
		}
		worlds = append(worlds, *w)
	}
	return worlds, total, rows.Err()
}

// Update modifies an existing world's name, slug, and description.
func (r *worldRepository) Update(ctx context.Context, world *World) error {
	query := `UPDATE worlds SET name = ?, slug = ?, description = ?, updated_at = NOW()
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		world.Name, world.Slug, world.Description, world.ID,
	)
	if err != nil {
		return fmt.Errorf("updating world: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("world not found")
	}
	return nil
}

// Delete removes a world. FK CASCADE handles calendar, note, and key cleanup.
func (r *worldRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM worlds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting world: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("world not found")
	}
	return nil
}

// SlugExists returns true if a world with the given slug already exists.
func (r *worldRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM worlds WHERE slug = ?)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking slug existence: %w", err)
	}
	return exists, nil
}
