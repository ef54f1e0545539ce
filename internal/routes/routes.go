package routes

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/creatorhub/creatorhub/internal/appstate"
	"github.com/creatorhub/creatorhub/internal/auth"
	"github.com/creatorhub/creatorhub/internal/config"
	"github.com/creatorhub/creatorhub/internal/media"
	"github.com/creatorhub/creatorhub/internal/middleware"
	"github.com/creatorhub/creatorhub/internal/notification"
	"github.com/creatorhub/creatorhub/internal/packages"
	"github.com/creatorhub/creatorhub/internal/profile"
	"github.com/creatorhub/creatorhub/internal/referrals"
	"github.com/creatorhub/creatorhub/internal/storage"
	"github.com/creatorhub/creatorhub/internal/tasks"
	"github.com/creatorhub/creatorhub/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes. Cache and
// Uploader are optional.
type Deps struct {
	Cfg      config.Config
	Store    storage.Store
	State    *appstate.State
	Cache    *redis.Client
	Uploader media.Uploader
	Logger   *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.State == nil || d.Store == nil {
		return errors.New("routes: state and store are required")
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if len(d.Cfg.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(d.Cfg.AllowedOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Idempotency-Key, X-Request-ID",
		}))
	}
	app.Use(middleware.Audit(d.Logger, d.State.Session))

	// Health sits outside the gate.
	RegisterHealthRoutes(app, d)

	app.Use(middleware.RouteGate(d.State.Session))

	notifier := notification.NewLoggerNotifier(d.Logger)
	s := d.State

	authHandler := auth.NewHandler(s.Directory, s.Session, d.Cfg.DemoLogin, d.Logger)
	RegisterAuthRoutes(app, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginAttempts))

	app.Get("/", dashboard(s))

	profileHandler := profile.NewHandler(s.Directory, s.Session, d.Uploader, d.Logger)
	app.Get("/profile", profileHandler.Get)
	app.Put("/profile", profileHandler.Update)
	app.Post("/profile/photo", profileHandler.UploadPhoto)
	app.Get("/settings", profileHandler.Settings)
	app.Put("/settings", profileHandler.UpdateSettings)

	taskHandler := tasks.NewHandler(s.Tasks, s.Wallet, notifier, d.Logger)
	app.Get("/tasks", taskHandler.List)
	app.Put("/tasks", taskHandler.Replace)
	app.Post("/tasks", taskHandler.Create)
	app.Delete("/tasks/:id", taskHandler.Delete)
	app.Post("/tasks/:id/complete", taskHandler.Complete)

	packageHandler := packages.NewHandler(s.Packages, d.Logger)
	app.Get("/packages", packageHandler.List)
	app.Put("/packages", packageHandler.Replace)
	app.Post("/packages", packageHandler.Create)
	app.Delete("/packages/:id", packageHandler.Delete)

	walletHandler := wallet.NewHandler(s.Wallet, notifier, d.Logger)
	app.Get("/wallet", walletHandler.Get)
	app.Put("/wallet", walletHandler.Replace)
	app.Post("/wallet/withdraw", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, false, d.Logger), walletHandler.Withdraw)

	referralHandler := referrals.NewHandler(s.Referrals, s.Session, notifier, d.Logger)
	app.Get("/referrals", referralHandler.List)
	app.Put("/referrals", referralHandler.Replace)
	app.Post("/referrals", referralHandler.Invite)

	// Signed-in paths the gate lets through but nothing serves.
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(http.StatusNotFound, "not found")
	})
	return nil
}

// RegisterAuthRoutes wires the sign-in pages. limiter guards POST /login.
func RegisterAuthRoutes(app *fiber.App, h *auth.Handler, limiter fiber.Handler) {
	app.Get("/login", h.LoginPage)
	app.Get("/register", h.RegisterPage)
	app.Post("/login", limiter, h.Login)
	app.Post("/register", h.Register)
	app.Post("/demo", h.Demo)
	app.Post("/logout", h.Logout)
}

type errorBody struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler renders every error as {"status":"error","message":...}.
// Anything that is not a *fiber.Error becomes a generic 500.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := http.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		} else {
			log.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}

		return c.Status(code).JSON(errorBody{Status: "error", Message: message, RequestID: middleware.RequestIDFrom(c)})
	}
}

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }
