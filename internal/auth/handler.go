package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/creatorhub/internal/identity"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgLoginFailed        = "Login failed. Please try again."
)

// ContentCategories are offered on the sign-up form.
var ContentCategories = []string{
	"Lifestyle", "Technology", "Fashion", "Beauty", "Fitness", "Food",
	"Travel", "Gaming", "Education", "Music", "Comedy", "Finance",
}

// Session is the signed-in identity the handlers switch.
type Session interface {
	Current() (identity.User, bool)
	Login(ctx context.Context, user identity.User) error
	Logout(ctx context.Context) error
}

// Handler exposes sign-in, sign-up, demo and sign-out endpoints.
type Handler struct {
	users     *identity.Directory
	session   Session
	demoLogin bool
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler builds the auth handler. demoLogin enables POST /demo.
func NewHandler(users *identity.Directory, session Session, demoLogin bool, logger *slog.Logger) *Handler {
	return &Handler{users: users, session: session, demoLogin: demoLogin, logger: logger, now: time.Now}
}

type pageResponse struct {
	Page       string   `json:"page"`
	DemoLogin  bool     `json:"demoLogin"`
	Categories []string `json:"categories,omitempty"`
}

// LoginPage describes the sign-in page.
func (h *Handler) LoginPage(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(pageResponse{Page: "login", DemoLogin: h.demoLogin})
}

// RegisterPage describes the sign-up page.
func (h *Handler) RegisterPage(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(pageResponse{Page: "register", DemoLogin: h.demoLogin, Categories: ContentCategories})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	User identity.User `json:"user"`
}

// Login checks the credentials against the directory and signs the user in.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid login payload")
	}
	user, err := h.users.Authenticate(identity.Credentials{Email: req.Email, Password: req.Password})
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return fiber.NewError(http.StatusUnauthorized, msgInvalidCredentials)
	}
	if err != nil {
		h.logger.Error("auth.login lookup failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, msgLoginFailed)
	}
	return h.signIn(c, http.StatusOK, user)
}

type registerRequest struct {
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Password          string   `json:"password"`
	Phone             string   `json:"phone"`
	City              string   `json:"city"`
	State             string   `json:"state"`
	Country           string   `json:"country"`
	Gender            string   `json:"gender"`
	ContentCategories []string `json:"contentCategories"`
}

// Register creates an account and signs it in.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid registration payload")
	}
	user, err := h.users.Register(c.UserContext(), identity.Registration{
		Name:              req.Name,
		Email:             req.Email,
		Password:          req.Password,
		Phone:             req.Phone,
		City:              req.City,
		State:             req.State,
		Country:           req.Country,
		Gender:            req.Gender,
		ContentCategories: req.ContentCategories,
	})
	switch {
	case errors.Is(err, identity.ErrInvalidRegistration):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, identity.ErrEmailTaken):
		return fiber.NewError(http.StatusConflict, err.Error())
	case err != nil:
		h.logger.Error("auth.register failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "Registration failed. Please try again.")
	}
	return h.signIn(c, http.StatusCreated, user)
}

// Demo signs in the built-in demo creator.
func (h *Handler) Demo(c *fiber.Ctx) error {
	if !h.demoLogin {
		return fiber.NewError(http.StatusNotFound, "demo login is disabled")
	}
	return h.signIn(c, http.StatusOK, identity.DemoUser(h.now()))
}

// Logout signs the current user out. Tasks, packages, wallet and referrals
// stay as they are.
func (h *Handler) Logout(c *fiber.Ctx) error {
	user, _ := h.session.Current()
	if err := h.session.Logout(c.UserContext()); err != nil {
		h.logger.Error("auth.logout failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "Logout failed. Please try again.")
	}
	h.logger.Info("user signed out", slog.String("user_id", user.ID))
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "signed_out"})
}

func (h *Handler) signIn(c *fiber.Ctx, status int, user identity.User) error {
	public := user.Public()
	if err := h.session.Login(c.UserContext(), public); err != nil {
		h.logger.Error("auth.session persist failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, msgLoginFailed)
	}
	h.logger.Info("user signed in", slog.String("user_id", user.ID))
	return c.Status(status).JSON(userResponse{User: public})
}
