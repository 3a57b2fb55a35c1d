package worlds

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/almanac/internal/apperror"
)

// contextKeyWorld is the Echo context key for the resolved world.
const contextKeyWorld = "world_context"

// RequireWorld returns middleware that resolves the world from the :id URL
// parameter and injects it into the Echo context for downstream handlers.
// Unknown worlds yield 404 before any handler runs.
func RequireWorld(service WorldService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			worldID := c.Param("id")
			if worldID == "" {
				return apperror.NewBadRequest("world ID is required")
			}

			world, err := service.GetByID(c.Request().Context(), worldID)
			if err != nil {
				return err
			}

			c.Set(contextKeyWorld, world)
			return next(c)
		}
	}
}

// GetWorld retrieves the resolved world from the Echo context. Returns nil
// if RequireWorld middleware was not applied.
func GetWorld(c echo.Context) *World {
	w, ok := c.Get(contextKeyWorld).(*World)
	if !ok {
		return nil
	}
	return w
}

// MustWorld retrieves the resolved world. It panics when the handler was
// registered without RequireWorld; the recovery middleware turns that
// programming error into a 500.
func MustWorld(c echo.Context) *World {
	w := GetWorld(c)
	if w == nil {
		panic("handler used without RequireWorld")
	}
	return w
}
