// Package profile serves the profile and settings pages of the signed-in
// creator.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/creatorhub/internal/identity"
	"github.com/creatorhub/creatorhub/internal/media"
)

const maxPhotoBytes = 5 << 20

// Session is the signed-in identity the handlers read and rewrite.
type Session interface {
	Current() (identity.User, bool)
	Login(ctx context.Context, user identity.User) error
}

// Handler exposes profile and settings endpoints. uploader may be nil,
// in which case photo uploads answer 503.
type Handler struct {
	users    *identity.Directory
	session  Session
	uploader media.Uploader
	logger   *slog.Logger
}

// NewHandler builds the profile handler.
func NewHandler(users *identity.Directory, session Session, uploader media.Uploader, logger *slog.Logger) *Handler {
	return &Handler{users: users, session: session, uploader: uploader, logger: logger}
}

func (h *Handler) current() (identity.User, error) {
	user, ok := h.session.Current()
	if !ok {
		return identity.User{}, fiber.NewError(http.StatusUnauthorized, "not signed in")
	}
	return user, nil
}

// save writes user to the directory (keeping its stored password unless
// password is set) and then to the session.
func (h *Handler) save(c *fiber.Ctx, user identity.User, password string) error {
	record := user
	record.Password = password
	if err := h.users.Update(c.UserContext(), record); err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return fiber.NewError(http.StatusConflict, err.Error())
		}
		h.logger.Error("profile.directory update failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save profile")
	}
	if err := h.session.Login(c.UserContext(), user.Public()); err != nil {
		h.logger.Error("profile.session update failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save profile")
	}
	return nil
}

// Get returns the signed-in user.
func (h *Handler) Get(c *fiber.Ctx) error {
	user, err := h.current()
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(user.Public())
}

type updateRequest struct {
	Name              *string  `json:"name"`
	Phone             *string  `json:"phone"`
	City              *string  `json:"city"`
	State             *string  `json:"state"`
	Country           *string  `json:"country"`
	Gender            *string  `json:"gender"`
	ContentCategories []string `json:"contentCategories"`
}

// Update changes the editable profile fields. Absent fields are kept.
func (h *Handler) Update(c *fiber.Ctx) error {
	user, err := h.current()
	if err != nil {
		return err
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid profile payload")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return fiber.NewError(http.StatusBadRequest, "name cannot be empty")
		}
		user.Name = name
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&user.Phone, req.Phone)
	set(&user.City, req.City)
	set(&user.State, req.State)
	set(&user.Country, req.Country)
	set(&user.Gender, req.Gender)
	if req.ContentCategories != nil {
		user.ContentCategories = identity.NormalizeCategories(req.ContentCategories)
	}

	if err := h.save(c, user, ""); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(user.Public())
}

// UploadPhoto stores the multipart "photo" file and points the profile at it.
func (h *Handler) UploadPhoto(c *fiber.Ctx) error {
	if h.uploader == nil {
		return fiber.NewError(http.StatusServiceUnavailable, "photo uploads are not configured")
	}
	user, err := h.current()
	if err != nil {
		return err
	}

	header, err := c.FormFile("photo")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "photo file is required")
	}
	if header.Size > maxPhotoBytes {
		return fiber.NewError(http.StatusRequestEntityTooLarge, "photo must be 5MB or smaller")
	}
	if ct := header.Header.Get(fiber.HeaderContentType); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fiber.NewError(http.StatusUnsupportedMediaType, "photo must be an image")
	}

	file, err := header.Open()
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "photo could not be read")
	}
	defer file.Close()

	url, err := h.uploader.UploadPhoto(c.UserContext(), user.ID, file)
	if err != nil {
		h.logger.Error("profile.photo upload failed", slog.String("user_id", user.ID), slog.Any("error", err))
		return fiber.NewError(http.StatusBadGateway, "photo upload failed")
	}

	user.Photo = url
	if err := h.save(c, user, ""); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(user.Public())
}

type settingsResponse struct {
	Email        string `json:"email"`
	ReferralCode string `json:"referralCode"`
	// Registered is false for accounts outside the directory (the demo user),
	// whose password cannot be changed.
	Registered bool `json:"registered"`
}

// Settings returns the account settings.
func (h *Handler) Settings(c *fiber.Ctx) error {
	user, err := h.current()
	if err != nil {
		return err
	}
	_, findErr := h.users.Find(user.ID)
	return c.Status(http.StatusOK).JSON(settingsResponse{
		Email:        user.Email,
		ReferralCode: user.ReferralCode,
		Registered:   findErr == nil,
	})
}

type settingsRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateSettings changes the email and/or password. A new password needs
// the current one.
func (h *Handler) UpdateSettings(c *fiber.Ctx) error {
	user, err := h.current()
	if err != nil {
		return err
	}
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid settings payload")
	}

	if email := strings.TrimSpace(req.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return fiber.NewError(http.StatusBadRequest, "a valid email is required")
		}
		user.Email = strings.ToLower(email)
	}

	var hash string
	if req.NewPassword != "" {
		record, err := h.users.Find(user.ID)
		if errors.Is(err, identity.ErrUserNotFound) {
			return fiber.NewError(http.StatusBadRequest, "this account has no password to change")
		}
		if err != nil {
			return err
		}
		if !identity.PasswordMatches(record.Password, req.CurrentPassword) {
			return fiber.NewError(http.StatusForbidden, "current password is incorrect")
		}
		if len(req.NewPassword) < identity.MinPasswordLength {
			return fiber.NewError(http.StatusBadRequest, "new password is too short")
		}
		if hash, err = identity.HashPassword(req.NewPassword); err != nil {
			return err
		}
	}

	if err := h.save(c, user, hash); err != nil {
		return err
	}
	_, findErr := h.users.Find(user.ID)
	return c.Status(http.StatusOK).JSON(settingsResponse{Email: user.Email, ReferralCode: user.ReferralCode, Registered: findErr == nil})
}
