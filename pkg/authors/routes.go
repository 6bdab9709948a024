package authors

import (
	"github.com/labstack/echo/v4"
	"github.com/pustokbooks/pustok/pkg/auth"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers author routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{authorService: NewService(db)}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	g.POST("/:id", h.update, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	g.DELETE("/:id", h.deleteAuthor, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
}
