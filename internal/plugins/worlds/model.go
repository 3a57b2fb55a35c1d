// Package worlds manages worlds, the top-level scoping container. Every
// calendar, note, and API key belongs to exactly one world. A world also
// carries the stable seed that drives deterministic weather and random
// recurrence for everything inside it.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package worlds

import (
	"regexp"
	"strings"
	"time"
)

// World represents a top-level scoping container.
type World struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	Seed        int64     `json:"seed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Request DTOs (bound from HTTP requests) ---

// CreateWorldRequest holds the data for creating a world.
type CreateWorldRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateWorldRequest holds the data for updating a world.
type UpdateWorldRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// --- Service Input DTOs ---

// CreateWorldInput is the validated input for creating a world.
type CreateWorldInput struct {
	Name        string
	Description string
}

// UpdateWorldInput is the validated input for updating a world.
type UpdateWorldInput struct {
	Name        string
	Description string
}

// ListOptions holds pagination parameters for list queries.
type ListOptions struct {
	Page    int
	PerPage int
}

// DefaultListOptions returns sensible defaults for pagination.
func DefaultListOptions() ListOptions {
	return ListOptions{Page: 1, PerPage: 24}
}

// Offset returns the SQL OFFSET value for the current page.
func (o ListOptions) Offset() int {
	if o.Page < 1 {
		o.Page = 1
	}
	return (o.Page - 1) * o.PerPage
}

// --- Slug Generation ---

// slugPattern matches one or more non-alphanumeric characters for replacement.
var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify creates a URL-safe slug from a name. Lowercase, replace
// non-alphanumeric characters with hyphens, trim leading/trailing hyphens.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "world"
	}
	return slug
}
