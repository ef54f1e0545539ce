package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/creatorhub/internal/appstate"
	"github.com/creatorhub/creatorhub/internal/identity"
	"github.com/creatorhub/creatorhub/internal/packages"
	"github.com/creatorhub/creatorhub/internal/referrals"
	"github.com/creatorhub/creatorhub/internal/tasks"
	"github.com/creatorhub/creatorhub/internal/wallet"
)

const recentTransactions = 5

type dashboardResponse struct {
	User               identity.User        `json:"user"`
	Tasks              tasks.Counts         `json:"tasks"`
	Balance            float64              `json:"balance"`
	TotalEarnings      float64              `json:"totalEarnings"`
	RecentTransactions []wallet.Transaction `json:"recentTransactions"`
	ActivePackages     int                  `json:"activePackages"`
	Referrals          referrals.Stats      `json:"referrals"`
}

func dashboard(s *appstate.State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := s.Session.Current()
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "not signed in")
		}
		w := s.Wallet.Get()

		active := 0
		for _, p := range s.Packages.Get() {
			if p.Status == packages.StatusActive {
				active++
			}
		}

		return c.Status(http.StatusOK).JSON(dashboardResponse{
			User:               user.Public(),
			Tasks:              tasks.Count(s.Tasks.Get()),
			Balance:            w.Balance,
			TotalEarnings:      wallet.TotalEarnings(w),
			RecentTransactions: wallet.Recent(w, recentTransactions),
			ActivePackages:     active,
			Referrals:          referrals.Summarize(s.Referrals.Get()),
		})
	}
}
