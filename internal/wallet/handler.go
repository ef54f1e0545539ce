package wallet

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/creatorhub/internal/notification"
	"github.com/creatorhub/creatorhub/internal/state"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	wallet   *state.Collection[Wallet]
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(wallet *state.Collection[Wallet], notifier notification.Notifier, logger *slog.Logger) *Handler {
	return &Handler{wallet: wallet, notifier: notifier, logger: logger, now: time.Now}
}

// Get returns the whole wallet.
func (h *Handler) Get(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(h.wallet.Get())
}

// Replace overwrites the wallet with the request body.
func (h *Handler) Replace(c *fiber.Ctx) error {
	var req Wallet
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid wallet payload")
	}
	if req.Balance < 0 {
		return fiber.NewError(http.StatusBadRequest, "balance cannot be negative")
	}
	if err := h.wallet.Replace(c.UserContext(), req); err != nil {
		h.logger.Error("wallet.replace failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save wallet")
	}
	return c.Status(http.StatusOK).JSON(h.wallet.Get())
}

type withdrawRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
	Note   string  `json:"note"`
}

type withdrawResponse struct {
	Transaction Transaction `json:"transaction"`
	Balance     float64     `json:"balance"`
}

// Withdraw records a pending payout and deducts it from the balance.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid withdrawal payload")
	}

	var (
		tx      Transaction
		balance float64
	)
	err := h.wallet.Update(c.UserContext(), func(w Wallet) (Wallet, error) {
		next, made, err := Withdraw(w, WithdrawInput{Amount: req.Amount, Method: req.Method, Note: req.Note}, h.now())
		if err != nil {
			return w, err
		}
		tx, balance = made, next.Balance
		return next, nil
	})
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		h.logger.Error("wallet.withdraw persist failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save wallet")
	}

	msg := notification.Message{
		Kind:        notification.KindWithdrawalRequested,
		Destination: tx.Method,
		Body:        fmt.Sprintf("withdrawal %s of %.2f pending", tx.ID, tx.Amount),
	}
	if err := h.notifier.Send(c.UserContext(), msg); err != nil {
		h.logger.Warn("wallet.withdraw notification failed", slog.Any("error", err))
	}
	return c.Status(http.StatusCreated).JSON(withdrawResponse{Transaction: tx, Balance: balance})
}
