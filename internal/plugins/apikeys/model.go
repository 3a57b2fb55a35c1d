// Package apikeys issues and verifies the bearer keys external tools use
// to reach the public API. Each key is scoped to one world and carries a
// role deciding what the caller may see and do: player keys are read-only
// and never see GM material, gm keys additionally drive the world clock.
package apikeys

import "time"

// Role classifies an API key's access level.
type Role string

const (
	// RoleGM keys see gm_only notes and may move the world clock.
	RoleGM Role = "gm"
	// RolePlayer keys read player-visible data only.
	RolePlayer Role = "player"
)

// APIKey is a registered key for external client access. The plaintext
// key is never stored; only its bcrypt hash and a lookup prefix survive.
type APIKey struct {
	ID         int        `json:"id"`
	KeyHash    string     `json:"-"`
	KeyPrefix  string     `json:"key_prefix"` // Shown in listings to identify the key.
	Name       string     `json:"name"`
	WorldID    string     `json:"world_id"`
	Role       Role       `json:"role"`
	RateLimit  int        `json:"rate_limit"` // Requests per minute.
	IsActive   bool       `json:"is_active"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	LastUsedIP *string    `json:"last_used_ip,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// IsExpired returns true if the key has passed its expiry date.
func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}

// IsGM reports whether the key carries game-master access.
func (k *APIKey) IsGM() bool {
	return k.Role == RoleGM
}

// CreateKeyInput is the validated input for creating a new API key.
type CreateKeyInput struct {
	Name      string
	WorldID   string
	Role      Role
	RateLimit int
	ExpiresAt *time.Time
}

// CreateKeyResult is returned after key creation. RawKey is the plaintext
// key, shown exactly once and never retrievable again.
type CreateKeyResult struct {
	Key    *APIKey `json:"key"`
	RawKey string  `json:"raw_key"`
}
