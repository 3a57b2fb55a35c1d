package apikeys

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// apiKeyContextKey is the Echo context key for the authenticated API key.
const apiKeyContextKey = "api_key"

// GetAPIKey retrieves the authenticated API key from the request context.
func GetAPIKey(c echo.Context) *APIKey {
	key, _ := c.Get(apiKeyContextKey).(*APIKey)
	return key
}

// RequireAPIKey returns middleware that authenticates requests via a
// Bearer API key in the Authorization header. Authenticated keys land in
// the request context and get their last-used marker refreshed.
func RequireAPIKey(service APIKeyService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "api key required")
			}

			rawKey := strings.TrimPrefix(authHeader, "Bearer ")
			if rawKey == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format, use: Bearer <key>")
			}

			key, err := service.AuthenticateKey(c.Request().Context(), rawKey)
			if err != nil {
				slog.Warn("api key auth failed",
					slog.String("ip", c.RealIP()),
					slog.String("path", c.Request().URL.Path),
					slog.Any("error", err),
				)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}

			c.Set(apiKeyContextKey, key)

			// Fire-and-forget; the request context may be cancelled
			// before the update lands.
			ip := c.RealIP()
			go func() {
				_ = service.UpdateKeyLastUsed(context.Background(), key.ID, ip)
			}()

			return next(c)
		}
	}
}

// RequireRole returns middleware that enforces a minimum key role. GM
// keys satisfy every role; player keys satisfy only RolePlayer.
func RequireRole(role Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := GetAPIKey(c)
			if key == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "api key required")
			}
			if role == RoleGM && !key.IsGM() {
				return echo.NewHTTPError(http.StatusForbidden, "requires a gm key")
			}
			return next(c)
		}
	}
}

// RequireWorldMatch returns middleware that verifies the API key's world
// matches the :id parameter in the URL. A key scoped to one world can
// never read another.
func RequireWorldMatch() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := GetAPIKey(c)
			if key == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "api key required")
			}
			if c.Param("id") != key.WorldID {
				return echo.NewHTTPError(http.StatusForbidden, "api key not authorized for this world")
			}
			return next(c)
		}
	}
}

// rateLimitKeyFmt buckets request counters per key per minute window.
const rateLimitKeyFmt = "almanac:ratelimit:%d:%d"

// RateLimit returns middleware that enforces each key's per-minute limit
// with a fixed-window counter in Redis, shared across server instances.
// Redis trouble never blocks a request; the limiter fails open.
func RateLimit(rdb *redis.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := GetAPIKey(c)
			if key == nil || key.RateLimit <= 0 {
				return next(c)
			}

			ctx := c.Request().Context()
			window := time.Now().Unix() / 60
			counter := fmt.Sprintf(rateLimitKeyFmt, key.ID, window)

			count, err := rdb.Incr(ctx, counter).Result()
			if err != nil {
				slog.Warn("rate limit counter unavailable", slog.Any("error", err))
				return next(c)
			}
			if count == 1 {
				// Outlive the window so late stragglers still count.
				rdb.Expire(ctx, counter, 2*time.Minute)
			}

			remaining := key.RateLimit - int(count)
			c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(key.RateLimit))
			c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))

			if remaining < 0 {
				c.Response().Header().Set("Retry-After", "60")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
