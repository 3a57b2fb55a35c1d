package worlds

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/almanac/internal/apperror"
)

// maxSlugAttempts is how many numbered suffixes are tried before falling
// back to a random one.
const maxSlugAttempts = 10

// WorldService handles business logic for world operations. It owns slug
// generation and seed assignment.
type WorldService interface {
	Create(ctx context.Context, input CreateWorldInput) (*World, error)
	GetByID(ctx context.Context, id string) (*World, error)
	GetBySlug(ctx context.Context, slug string) (*World, error)
	List(ctx context.Context, opts ListOptions) ([]World, int, error)
	Update(ctx context.Context, worldID string, input UpdateWorldInput) (*World, error)
	Delete(ctx context.Context, worldID string) error
}

// worldService implements WorldService.
type worldService struct {
	repo WorldRepository
}

// NewWorldService creates a new world service.
func NewWorldService(repo WorldRepository) WorldService {
	return &worldService{repo: repo}
}

// Create creates a new world with a unique slug and a fresh random seed.
// The seed is fixed for the world's lifetime; regenerating it would shift
// every random recurrence and weather result in the world.
func (s *worldService) Create(ctx context.Context, input CreateWorldInput) (*World, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("world name is required")
	}
	if len(name) > 200 {
		return nil, apperror.NewBadRequest("world name must be at most 200 characters")
	}

	desc := strings.TrimSpace(input.Description)
	if len(desc) > 5000 {
		return nil, apperror.NewBadRequest("description must be at most 5000 characters")
	}

	slug, err := s.generateSlug(ctx, name)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating slug: %w", err))
	}

	now := time.Now().UTC()
	var descPtr *string
	if desc != "" {
		descPtr = &desc
	}

	world := &World{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        slug,
		Description: descPtr,
		Seed:        generateSeed(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, world); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating world: %w", err))
	}

	slog.Info("world created",
		slog.String("world_id", world.ID),
		slog.String("slug", world.Slug),
	)

	return world, nil
}

// GetByID retrieves a world by ID.
func (s *worldService) GetByID(ctx context.Context, id string) (*World, error) {
	return s.repo.FindByID(ctx, id)
}

// GetBySlug retrieves a world by its URL slug.
func (s *worldService) GetBySlug(ctx context.Context, slug string) (*World, error) {
	return s.repo.FindBySlug(ctx, slug)
}

// List returns worlds with clamped pagination.
func (s *worldService) List(ctx context.Context, opts ListOptions) ([]World, int, error) {
	if opts.PerPage < 1 || opts.PerPage > 100 {
		opts.PerPage = 24
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	return s.repo.List(ctx, opts)
}

// Update modifies a world's name and description. The slug is regenerated
// when the name changes; the seed never changes.
func (s *worldService) Update(ctx context.Context, worldID string, input UpdateWorldInput) (*World, error) {
	world, err := s.repo.FindByID(ctx, worldID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("world name is required")
	}
	if len(name) > 200 {
		return nil, apperror.NewBadRequest("world name must be at most 200 characters")
	}

	desc := strings.TrimSpace(input.Description)
	if len(desc) > 5000 {
		return nil, apperror.NewBadRequest("description must be at most 5000 characters")
	}

	if name != world.Name {
		slug, err := s.generateSlug(ctx, name)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("generating slug: %w", err))
		}
		world.Slug = slug
	}

	world.Name = name
	if desc != "" {
		world.Description = &desc
	} else {
		world.Description = nil
	}

	if err := s.repo.Update(ctx, world); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("updating world: %w", err))
	}

	return world, nil
}

// Delete removes a world and all its data (via FK CASCADE).
func (s *worldService) Delete(ctx context.Context, worldID string) error {
	if err := s.repo.Delete(ctx, worldID); err != nil {
		return err
	}

	slog.Info("world deleted", slog.String("world_id", worldID))
	return nil
}

// generateSlug derives a unique slug from the name, trying numbered
// suffixes before falling back to a random suffix.
func (s *worldService) generateSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	slug := base

	for i := 2; i < maxSlugAttempts+2; i++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("checking slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	// Fallback: append random suffix to guarantee uniqueness.
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random slug suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
}

// generateSeed draws a non-negative 63-bit seed from crypto/rand. Panics if
// the system entropy source fails, as this indicates a catastrophic system
// problem.
func generateSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return int64(binary.BigEndian.Uint64(b[:]) >> 1)
}
