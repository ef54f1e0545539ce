package packages

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/creatorhub/internal/state"
)

// Handler exposes package HTTP endpoints.
type Handler struct {
	packages *state.Collection[[]Package]
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler builds a package HTTP handler.
func NewHandler(packages *state.Collection[[]Package], logger *slog.Logger) *Handler {
	return &Handler{packages: packages, logger: logger, now: time.Now}
}

// List returns every package.
func (h *Handler) List(c *fiber.Ctx) error {
	list := h.packages.Get()
	if list == nil {
		list = []Package{}
	}
	return c.Status(http.StatusOK).JSON(list)
}

// Replace overwrites the package list with the request body.
func (h *Handler) Replace(c *fiber.Ctx) error {
	var req []Package
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid package list")
	}
	if err := ValidateAll(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req == nil {
		req = []Package{}
	}
	if err := h.packages.Replace(c.UserContext(), req); err != nil {
		h.logger.Error("packages.replace failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save packages")
	}
	return c.Status(http.StatusOK).JSON(req)
}

// Create adds a package.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req CreateInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid package payload")
	}
	var (
		pkg     Package
		invalid error
	)
	err := h.packages.Update(c.UserContext(), func(list []Package) ([]Package, error) {
		next, created, err := Add(list, req, h.now())
		if err != nil {
			invalid = err
			return nil, err
		}
		pkg = created
		return next, nil
	})
	if invalid != nil {
		return fiber.NewError(http.StatusBadRequest, invalid.Error())
	}
	if err != nil {
		h.logger.Error("packages.create failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save packages")
	}
	return c.Status(http.StatusCreated).JSON(pkg)
}

// Delete removes a package by id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	err := h.packages.Update(c.UserContext(), func(list []Package) ([]Package, error) {
		return Remove(list, c.Params("id"))
	})
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		h.logger.Error("packages.delete failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save packages")
	}
	return c.SendStatus(http.StatusNoContent)
}
