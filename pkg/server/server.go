package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/pustokbooks/pustok/pkg/auth"
	"github.com/pustokbooks/pustok/pkg/authors"
	"github.com/pustokbooks/pustok/pkg/binder"
	"github.com/pustokbooks/pustok/pkg/books"
	"github.com/pustokbooks/pustok/pkg/config"
	"github.com/pustokbooks/pustok/pkg/errcodes"
	"github.com/pustokbooks/pustok/pkg/filestore"
	"github.com/pustokbooks/pustok/pkg/genres"
	"github.com/pustokbooks/pustok/pkg/tags"
	"github.com/pustokbooks/pustok/pkg/users"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	store := filestore.New(cfg.UploadsDir)

	// Register auth routes and get the auth service
	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)

	// User management routes (admin only)
	users.RegisterRoutes(e, db, authMiddleware)

	// Catalog routes: reads are public, mutations require an admin session.
	books.RegisterRoutesWithGroup(e.Group("/books"), db, store, authMiddleware)
	authors.RegisterRoutesWithGroup(e.Group("/authors"), db, authMiddleware)
	genres.RegisterRoutesWithGroup(e.Group("/genres"), db, authMiddleware)
	tags.RegisterRoutesWithGroup(e.Group("/tags"), db, authMiddleware)

	// Uploaded cover and gallery images are served as static files.
	e.Static("/uploads", store.Root())

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
