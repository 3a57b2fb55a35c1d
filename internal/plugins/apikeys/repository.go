package apikeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/almanac/internal/apperror"
)

// APIKeyRepository defines the data access contract for API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, key *APIKey) error
	FindByID(ctx context.Context, id int) (*APIKey, error)

	// ListByPrefix returns every key sharing a prefix. Prefixes are
	// random but short, so the authenticator checks all candidates.
	ListByPrefix(ctx context.Context, prefix string) ([]APIKey, error)

	ListByWorld(ctx context.Context, worldID string) ([]APIKey, error)
	UpdateActive(ctx context.Context, id int, active bool) error
	UpdateLastUsed(ctx context.Context, id int, ip string) error
	Delete(ctx context.Context, id int) error
}

// apiKeyRepository implements APIKeyRepository with MariaDB.
type apiKeyRepository struct {
	db *sql.DB
}

// NewAPIKeyRepository creates a new API key repository.
func NewAPIKeyRepository(db *sql.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

// keyColumns is the shared column list for API key queries.
const keyColumns = `id, key_hash, key_prefix, name, world_id, role, rate_limit,
	is_active, last_used_at, last_used_ip, expires_at, created_at, updated_at`

// Create inserts a new API key and backfills the generated ID.
func (r *apiKeyRepository) Create(ctx context.Context, key *APIKey) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, key_prefix, name, world_id, role, rate_limit, is_active, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key.KeyHash, key.KeyPrefix, key.Name, key.WorldID, key.Role,
		key.RateLimit, key.IsActive, key.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("creating api key: %w", err)
	}
	id, _ := result.LastInsertId()
	key.ID = int(id)
	return nil
}

// FindByID retrieves an API key by its ID.
func (r *apiKeyRepository) FindByID(ctx context.Context, id int) (*APIKey, error) {
	key, err := scanKey(r.db.QueryRowContext(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("api key not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	return key, nil
}

// ListByPrefix returns all keys with a given prefix.
func (r *apiKeyRepository) ListByPrefix(ctx context.Context, prefix string) ([]APIKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE key_prefix = ?`, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing keys by prefix: %w", err)
	}
	defer rows.Close()
	return scanKeys(rows)
}

// ListByWorld returns all keys scoped to a world, newest first.
func (r *apiKeyRepository) ListByWorld(ctx context.Context, worldID string) ([]APIKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+keyColumns+` FROM api_keys WHERE world_id = ? ORDER BY created_at DESC`, worldID)
	if err != nil {
		return nil, fmt.Errorf("listing keys by world: %w", err)
	}
	defer rows.Close()
	return scanKeys(rows)
}

// UpdateActive enables or disables an API key.
func (r *apiKeyRepository) UpdateActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("updating key active: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("api key not found")
	}
	return nil
}

// UpdateLastUsed records the last usage time and client IP.
func (r *apiKeyRepository) UpdateLastUsed(ctx context.Context, id int, ip string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), last_used_ip = ? WHERE id = ?`, ip, id)
	if err != nil {
		return fmt.Errorf("updating key last used: %w", err)
	}
	return nil
}

// Delete permanently removes an API key.
func (r *apiKeyRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("api key not found")
	}
	return nil
}

// scanKey reads a single API key row.
func scanKey(row interface{ Scan(...any) error }) (*APIKey, error) {
	var k APIKey
	err := row.Scan(
		&k.ID, &k.KeyHash, &k.KeyPrefix, &k.Name, &k.WorldID, &k.Role,
		&k.RateLimit, &k.IsActive, &k.LastUsedAt, &k.LastUsedIP,
		&k.ExpiresAt, &k.CreatedAt, &k.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// scanKeys reads all API key rows from a result set.
func scanKeys(rows *sql.Rows) ([]APIKey, error) {
	var keys []APIKey
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning api key: %w", err)
		}
		keys = append(keys, *k)
	}
	return keys, rows.Err()
}
