package users

import (
	"github.com/labstack/echo/v4"
	"github.com/pustokbooks/pustok/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all user management routes. Every route requires
// an authenticated admin.
func RegisterRoutes(e *echo.Echo, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{userService: NewService(db)}

	g := e.Group("/users", authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create)
	g.POST("/:id", h.update)
	g.DELETE("/:id", h.deactivate)
}
