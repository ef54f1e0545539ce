package tasks

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/creatorhub/internal/notification"
	"github.com/creatorhub/creatorhub/internal/state"
	"github.com/creatorhub/creatorhub/internal/wallet"
)

// Handler exposes task HTTP endpoints.
type Handler struct {
	tasks    *state.Collection[[]Task]
	wallet   *state.Collection[wallet.Wallet]
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler builds a task HTTP handler. Completing a task credits wallet.
func NewHandler(tasks *state.Collection[[]Task], w *state.Collection[wallet.Wallet], notifier notification.Notifier, logger *slog.Logger) *Handler {
	return &Handler{tasks: tasks, wallet: w, notifier: notifier, logger: logger, now: time.Now}
}

type listResponse struct {
	Tasks  []Task `json:"tasks"`
	Counts Counts `json:"counts"`
}

func respondList(c *fiber.Ctx, status int, list []Task) error {
	if list == nil {
		list = []Task{}
	}
	return c.Status(status).JSON(listResponse{Tasks: list, Counts: Count(list)})
}

// List returns every task with per-status counts.
func (h *Handler) List(c *fiber.Ctx) error {
	return respondList(c, http.StatusOK, h.tasks.Get())
}

// Replace overwrites the task list with the request body.
func (h *Handler) Replace(c *fiber.Ctx) error {
	var req []Task
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid task list")
	}
	if err := ValidateAll(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req == nil {
		req = []Task{}
	}
	if err := h.tasks.Replace(c.UserContext(), req); err != nil {
		h.logger.Error("tasks.replace failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save tasks")
	}
	return respondList(c, http.StatusOK, req)
}

// Create adds a pending task.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req CreateInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid task payload")
	}
	var (
		task    Task
		invalid error
	)
	err := h.tasks.Update(c.UserContext(), func(list []Task) ([]Task, error) {
		next, created, err := Add(list, req, h.now())
		if err != nil {
			invalid = err
			return nil, err
		}
		task = created
		return next, nil
	})
	if invalid != nil {
		return fiber.NewError(http.StatusBadRequest, invalid.Error())
	}
	if err != nil {
		h.logger.Error("tasks.create failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save tasks")
	}
	return c.Status(http.StatusCreated).JSON(task)
}

// Delete removes a task by id.
func (h *Handler) Delete(c *fiber.Ctx) error {
	err := h.tasks.Update(c.UserContext(), func(list []Task) ([]Task, error) {
		return Remove(list, c.Params("id"))
	})
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		h.logger.Error("tasks.delete failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save tasks")
	}
	return c.SendStatus(http.StatusNoContent)
}

type completeResponse struct {
	Task    Task    `json:"task"`
	Balance float64 `json:"balance"`
}

// Complete marks a task completed and credits its reward to the wallet.
// The task write finishes before the wallet write starts, so a repeated
// completion sees the task already completed and credits nothing. A
// failure on the wallet write leaves the task completed.
func (h *Handler) Complete(c *fiber.Ctx) error {
	now := h.now()
	id := c.Params("id")
	var task Task
	err := h.tasks.Update(c.UserContext(), func(list []Task) ([]Task, error) {
		next, completed, err := Complete(list, id, now)
		if err != nil {
			return nil, err
		}
		task = completed
		return next, nil
	})
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyCompleted):
		return fiber.NewError(http.StatusConflict, err.Error())
	case err != nil:
		h.logger.Error("tasks.complete failed", slog.String("task_id", id), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save tasks")
	}

	var (
		balance float64
		invalid error
	)
	err = h.wallet.Update(c.UserContext(), func(w wallet.Wallet) (wallet.Wallet, error) {
		balance = w.Balance
		if task.Reward <= 0 {
			return w, state.ErrUnchanged
		}
		credited, err := wallet.Credit(w, wallet.Earning{
			TaskID:      task.ID,
			Source:      "task",
			Amount:      task.Reward,
			Description: fmt.Sprintf("Completed: %s", task.Title),
		}, now)
		if err != nil {
			invalid = err
			return w, err
		}
		balance = credited.Balance
		return credited, nil
	})
	if invalid != nil {
		return fiber.NewError(http.StatusBadRequest, invalid.Error())
	}
	if err != nil {
		h.logger.Error("tasks.complete wallet credit failed", slog.String("task_id", task.ID), slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save wallet")
	}

	msg := notification.Message{
		Kind:        notification.KindTaskCompleted,
		Destination: task.Platform,
		Body:        fmt.Sprintf("%s completed, %.2f credited", task.Title, task.Reward),
	}
	if err := h.notifier.Send(c.UserContext(), msg); err != nil {
		h.logger.Warn("tasks.complete notification failed", slog.Any("error", err))
	}
	return c.Status(http.StatusOK).JSON(completeResponse{Task: task, Balance: balance})
}
