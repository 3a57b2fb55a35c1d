package apikeys

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/keyxmakerx/almanac/internal/apperror"
)

// keyBytes is the number of random bytes in a generated API key.
const keyBytes = 32

// keyPrefixLen is the length of the prefix stored for key lookup. Covers
// "alm_" plus eight hex characters, so accidental prefix collisions stay
// rare and the authenticator tolerates them anyway.
const keyPrefixLen = 12

const (
	defaultRateLimit = 60
	maxRateLimit     = 1000
)

// APIKeyService handles business logic for API keys.
type APIKeyService interface {
	CreateKey(ctx context.Context, input CreateKeyInput) (*CreateKeyResult, error)
	GetKey(ctx context.Context, id int) (*APIKey, error)
	ListKeys(ctx context.Context, worldID string) ([]APIKey, error)
	ActivateKey(ctx context.Context, id int) error
	DeactivateKey(ctx context.Context, id int) error
	RevokeKey(ctx context.Context, id int) error

	// AuthenticateKey validates a raw bearer key and returns the record.
	AuthenticateKey(ctx context.Context, rawKey string) (*APIKey, error)

	// UpdateKeyLastUsed records when and from where a key was used.
	UpdateKeyLastUsed(ctx context.Context, id int, ip string) error
}

// apiKeyService implements APIKeyService.
type apiKeyService struct {
	repo         APIKeyRepository
	defaultLimit int
}

// NewAPIKeyService creates a new API key service. defaultLimit is the
// rate limit applied to keys created without one; non-positive values
// fall back to the built-in default.
func NewAPIKeyService(repo APIKeyRepository, defaultLimit int) APIKeyService {
	if defaultLimit <= 0 {
		defaultLimit = defaultRateLimit
	}
	return &apiKeyService{repo: repo, defaultLimit: defaultLimit}
}

// CreateKey generates a new API key with bcrypt-hashed storage. The
// plaintext key appears only in the returned result.
func (s *apiKeyService) CreateKey(ctx context.Context, input CreateKeyInput) (*CreateKeyResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("key name is required")
	}
	if input.WorldID == "" {
		return nil, apperror.NewBadRequest("world ID is required")
	}
	if input.Role == "" {
		input.Role = RolePlayer
	}
	if input.Role != RoleGM && input.Role != RolePlayer {
		return nil, apperror.NewBadRequest(fmt.Sprintf("invalid role: %s", input.Role))
	}
	if input.RateLimit <= 0 {
		input.RateLimit = s.defaultLimit
	}
	if input.RateLimit > maxRateLimit {
		return nil, apperror.NewBadRequest(fmt.Sprintf("rate limit cannot exceed %d requests per minute", maxRateLimit))
	}

	raw := make([]byte, keyBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating key: %w", err))
	}
	rawKey := "alm_" + hex.EncodeToString(raw)
	prefix := rawKey[:keyPrefixLen]

	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing key: %w", err))
	}

	key := &APIKey{
		KeyHash:   string(hash),
		KeyPrefix: prefix,
		Name:      name,
		WorldID:   input.WorldID,
		Role:      input.Role,
		RateLimit: input.RateLimit,
		IsActive:  true,
		ExpiresAt: input.ExpiresAt,
	}

	if err := s.repo.Create(ctx, key); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating key: %w", err))
	}

	slog.Info("api key created",
		slog.String("prefix", prefix),
		slog.String("world_id", input.WorldID),
		slog.String("role", string(input.Role)),
	)

	return &CreateKeyResult{Key: key, RawKey: rawKey}, nil
}

// GetKey retrieves an API key by ID.
func (s *apiKeyService) GetKey(ctx context.Context, id int) (*APIKey, error) {
	return s.repo.FindByID(ctx, id)
}

// ListKeys returns all keys scoped to a world.
func (s *apiKeyService) ListKeys(ctx context.Context, worldID string) ([]APIKey, error) {
	return s.repo.ListByWorld(ctx, worldID)
}

// ActivateKey enables an API key.
func (s *apiKeyService) ActivateKey(ctx context.Context, id int) error {
	if err := s.repo.UpdateActive(ctx, id, true); err != nil {
		return err
	}
	slog.Info("api key activated", slog.Int("id", id))
	return nil
}

// DeactivateKey disables an API key without deleting it.
func (s *apiKeyService) DeactivateKey(ctx context.Context, id int) error {
	if err := s.repo.UpdateActive(ctx, id, false); err != nil {
		return err
	}
	slog.Info("api key deactivated", slog.Int("id", id))
	return nil
}

// RevokeKey permanently deletes an API key.
func (s *apiKeyService) RevokeKey(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("api key revoked", slog.Int("id", id))
	return nil
}

// AuthenticateKey validates a raw API key. It looks up every key sharing
// the prefix, verifies the full key with bcrypt, then checks active and
// expiry state.
func (s *apiKeyService) AuthenticateKey(ctx context.Context, rawKey string) (*APIKey, error) {
	if len(rawKey) < keyPrefixLen {
		return nil, apperror.NewUnauthorized("invalid api key")
	}

	candidates, err := s.repo.ListByPrefix(ctx, rawKey[:keyPrefixLen])
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("looking up key: %w", err))
	}

	for i := range candidates {
		key := &candidates[i]
		if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(rawKey)) != nil {
			continue
		}
		if !key.IsActive {
			return nil, apperror.NewForbidden("api key is deactivated")
		}
		if key.IsExpired() {
			return nil, apperror.NewForbidden("api key has expired")
		}
		return key, nil
	}
	return nil, apperror.NewUnauthorized("invalid api key")
}

// UpdateKeyLastUsed records the last usage time and IP. Failures are
// logged and swallowed; usage tracking never fails a request.
func (s *apiKeyService) UpdateKeyLastUsed(ctx context.Context, id int, ip string) error {
	if err := s.repo.UpdateLastUsed(ctx, id, ip); err != nil {
		slog.Warn("failed to update key last used", slog.Int("id", id), slog.Any("error", err))
	}
	return nil
}
