package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/creatorhub/creatorhub/internal/appstate"
	"github.com/creatorhub/creatorhub/internal/config"
	"github.com/creatorhub/creatorhub/internal/media"
	"github.com/creatorhub/creatorhub/internal/routes"
	"github.com/creatorhub/creatorhub/internal/storage"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// Options carries the optional collaborators of New.
type Options struct {
	Cache    *redis.Client
	Uploader media.Uploader
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, store storage.Store, state *appstate.State, opts Options, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    6 << 20,
		ErrorHandler: routes.ErrorHandler(logger),
	})

	deps := routes.Deps{
		Cfg:      cfg,
		Store:    store,
		State:    state,
		Cache:    opts.Cache,
		Uploader: opts.Uploader,
		Logger:   logger,
	}
	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
