package worlds

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/almanac/internal/middleware"
)

// RegisterRoutes sets up world management routes. These form the GM-facing
// management tier; external clients go through /api/v1 with API keys.
func RegisterRoutes(e *echo.Echo, h *Handler, svc WorldService) {
	g := e.Group("/worlds")

	g.GET("", h.List)
	g.POST("", h.Create, middleware.RateLimit(10, time.Minute))

	wg := g.Group("/:id", RequireWorld(svc))
	wg.GET("", h.Get)
	wg.PUT("", h.Update)
	wg.DELETE("", h.Delete)
}
