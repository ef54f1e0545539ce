package referrals

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/creatorhub/internal/identity"
	"github.com/creatorhub/creatorhub/internal/notification"
	"github.com/creatorhub/creatorhub/internal/state"
)

// CurrentUser reports the signed-in user.
type CurrentUser interface {
	Current() (identity.User, bool)
}

// Handler exposes referral HTTP endpoints.
type Handler struct {
	referrals *state.Collection[[]Referral]
	session   CurrentUser
	notifier  notification.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler builds a referral HTTP handler.
func NewHandler(referrals *state.Collection[[]Referral], session CurrentUser, notifier notification.Notifier, logger *slog.Logger) *Handler {
	return &Handler{referrals: referrals, session: session, notifier: notifier, logger: logger, now: time.Now}
}

type listResponse struct {
	ReferralCode string     `json:"referralCode"`
	Referrals    []Referral `json:"referrals"`
	Stats        Stats      `json:"stats"`
}

func (h *Handler) respond(c *fiber.Ctx, status int, list []Referral) error {
	if list == nil {
		list = []Referral{}
	}
	user, _ := h.session.Current()
	return c.Status(status).JSON(listResponse{
		ReferralCode: user.ReferralCode,
		Referrals:    list,
		Stats:        Summarize(list),
	})
}

// List returns the referral code of the signed-in user with every referral.
func (h *Handler) List(c *fiber.Ctx) error {
	return h.respond(c, http.StatusOK, h.referrals.Get())
}

// Replace overwrites the referral list with the request body.
func (h *Handler) Replace(c *fiber.Ctx) error {
	var req []Referral
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid referral list")
	}
	if err := ValidateAll(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req == nil {
		req = []Referral{}
	}
	if err := h.referrals.Replace(c.UserContext(), req); err != nil {
		h.logger.Error("referrals.replace failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save referrals")
	}
	return h.respond(c, http.StatusOK, req)
}

type inviteRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Invite records a new invitation.
func (h *Handler) Invite(c *fiber.Ctx) error {
	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid invite payload")
	}
	var ref Referral
	err := h.referrals.Update(c.UserContext(), func(list []Referral) ([]Referral, error) {
		next, invited, err := Invite(list, req.Name, req.Email, h.now())
		if err != nil {
			return nil, err
		}
		ref = invited
		return next, nil
	})
	switch {
	case errors.Is(err, ErrAlreadyInvited):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInvite):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case err != nil:
		h.logger.Error("referrals.invite failed", slog.Any("error", err))
		return fiber.NewError(http.StatusInternalServerError, "failed to save referrals")
	}

	user, _ := h.session.Current()
	msg := notification.Message{
		Kind:        notification.KindReferralInvited,
		Destination: ref.Email,
		Body:        user.Name + " invited you with code " + user.ReferralCode,
	}
	if err := h.notifier.Send(c.UserContext(), msg); err != nil {
		h.logger.Warn("referrals.invite notification failed", slog.Any("error", err))
	}
	return c.Status(http.StatusCreated).JSON(ref)
}
