package books

import (
	"github.com/labstack/echo/v4"
	"github.com/pustokbooks/pustok/pkg/auth"
	"github.com/pustokbooks/pustok/pkg/authors"
	"github.com/pustokbooks/pustok/pkg/filestore"
	"github.com/pustokbooks/pustok/pkg/genres"
	"github.com/pustokbooks/pustok/pkg/tags"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, store *filestore.Store, authMiddleware *auth.Middleware) {
	h := &handler{
		bookService:   NewService(db),
		authorService: authors.NewService(db),
		genreService:  genres.NewService(db),
		tagService:    tags.NewService(db),
		store:         store,
	}

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	g.POST("/:id", h.update, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
	g.DELETE("/:id", h.deleteBook, authMiddleware.Authenticate, authMiddleware.RequireAdmin)
}
