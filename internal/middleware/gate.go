package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// LoginPath is where anonymous visitors are sent.
	LoginPath = "/login"
	// HomePath is the dashboard root signed-in users land on.
	HomePath = "/"
)

var (
	publicPaths  = []string{"/login", "/register", "/demo"}
	privatePaths = []string{"/profile", "/settings", "/tasks", "/packages", "/wallet", "/referrals", "/logout"}
)

// SessionReader reports whether someone is signed in.
type SessionReader interface {
	SignedIn() bool
}

// Resolve decides where a request for path may go. Anonymous visitors only
// reach the sign-in pages; everyone else is sent to LoginPath. Signed-in
// users reach the dashboard and its sections; anything else, the sign-in
// pages included, sends them to HomePath.
func Resolve(path string, signedIn bool) (target string, redirect bool) {
	p := strings.TrimRight(path, "/")
	if p == "" {
		p = HomePath
	}

	if !signedIn {
		for _, allowed := range publicPaths {
			if p == allowed {
				return "", false
			}
		}
		return LoginPath, true
	}

	if p == HomePath {
		return "", false
	}
	for _, prefix := range privatePaths {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return "", false
		}
	}
	return HomePath, true
}

// RouteGate redirects every request the current session may not see.
func RouteGate(session SessionReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if target, redirect := Resolve(c.Path(), session.SignedIn()); redirect {
			return c.Redirect(target, http.StatusFound)
		}
		return c.Next()
	}
}
