package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/creatorhub/internal/appstate"
	"github.com/creatorhub/creatorhub/internal/config"
	"github.com/creatorhub/creatorhub/internal/logging"
	"github.com/creatorhub/creatorhub/internal/storage"
)

type testApp struct {
	app   *fiber.App
	store storage.Store
	state *appstate.State
}

func newTestApp(t *testing.T, store storage.Store) testApp {
	t.Helper()
	logger := logging.Discard()
	st := appstate.Hydrate(context.Background(), store, logger)
	cfg := config.Config{
		AppName:       "CreatorHub",
		DemoLogin:     true,
		LoginAttempts: 5,
		Storage:       config.Storage{Driver: config.DriverMemory},
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	if err := Setup(app, Deps{Cfg: cfg, Store: store, State: st, Logger: logger}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return testApp{app: app, store: store, state: st}
}

func (a testApp) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := a.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, payload
}

func expectRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}

func TestRouteGating(t *testing.T) {
	a := newTestApp(t, storage.NewMemory())

	resp, _ := a.do(t, http.MethodGet, "/", "")
	expectRedirect(t, resp, "/login")
	resp, _ = a.do(t, http.MethodGet, "/wallet", "")
	expectRedirect(t, resp, "/login")

	if resp, _ := a.do(t, http.MethodGet, "/login", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("login page: expected 200, got %d", resp.StatusCode)
	}
	if resp, _ := a.do(t, http.MethodGet, "/healthz", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", resp.StatusCode)
	}

	if resp, body := a.do(t, http.MethodPost, "/demo", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("demo: expected 200, got %d (%s)", resp.StatusCode, body)
	}

	resp, _ = a.do(t, http.MethodGet, "/login", "")
	expectRedirect(t, resp, "/")
	resp, _ = a.do(t, http.MethodGet, "/somewhere-else", "")
	expectRedirect(t, resp, "/")

	resp, body := a.do(t, http.MethodGet, "/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", resp.StatusCode)
	}
	var dash dashboardResponse
	if err := json.Unmarshal(body, &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.User.ID != "demo-user" || dash.RecentTransactions == nil {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}

	resp, body = a.do(t, http.MethodGet, "/tasks/a/b/c", "")
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), `"status":"error"`) {
		t.Fatalf("unserved private path: expected JSON 404, got %d %s", resp.StatusCode, body)
	}
}

func TestInvalidLoginErrorBody(t *testing.T) {
	a := newTestApp(t, storage.NewMemory())

	resp, body := a.do(t, http.MethodPost, "/login", `{"email":"who@example.com","password":"nope"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var got errorBody
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}
	if got.Status != "error" || got.Message != "Invalid email or password" {
		t.Fatalf("unexpected error body: %+v", got)
	}
	if got.RequestID == "" {
		t.Fatal("expected request id in error body")
	}
}

func TestCreatorJourneySurvivesRestart(t *testing.T) {
	store := storage.NewMemory()
	a := newTestApp(t, store)

	if resp, body := a.do(t, http.MethodPost, "/register", `{"name":"Mira Shah","email":"mira@example.com","password":"hunter22"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: %d %s", resp.StatusCode, body)
	}

	resp, body := a.do(t, http.MethodPost, "/tasks", `{"title":"Skincare reel","platform":"instagram","category":"Beauty","reward":300}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create task: %d %s", resp.StatusCode, body)
	}
	var task struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}

	if resp, body := a.do(t, http.MethodPost, "/tasks/"+task.ID+"/complete", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: %d %s", resp.StatusCode, body)
	}
	if resp, body := a.do(t, http.MethodPost, "/wallet/withdraw", `{"amount":100,"method":"upi"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("withdraw: %d %s", resp.StatusCode, body)
	}
	if resp, body := a.do(t, http.MethodPost, "/packages", `{"name":"Story pack","price":150}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("package: %d %s", resp.StatusCode, body)
	}
	if resp, body := a.do(t, http.MethodPost, "/referrals", `{"name":"Jo","email":"jo@example.com"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("invite: %d %s", resp.StatusCode, body)
	}

	resp, body = a.do(t, http.MethodGet, "/", "")
	var dash dashboardResponse
	if err := json.Unmarshal(body, &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.Balance != 200 || dash.TotalEarnings != 300 || dash.Tasks.Completed != 1 || dash.ActivePackages != 1 || dash.Referrals.Invited != 1 {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}
	if len(dash.RecentTransactions) != 2 || dash.RecentTransactions[0].Type != "withdrawal" {
		t.Fatalf("unexpected recent transactions: %+v", dash.RecentTransactions)
	}

	// A restart against the same store keeps the session and every collection.
	restarted := newTestApp(t, store)
	if !restarted.state.Session.SignedIn() {
		t.Fatal("session lost across restart")
	}
	if resp, _ := restarted.do(t, http.MethodGet, "/", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard after restart: expected 200, got %d", resp.StatusCode)
	}

	if resp, _ := restarted.do(t, http.MethodPost, "/logout", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	resp, _ = restarted.do(t, http.MethodGet, "/tasks", "")
	expectRedirect(t, resp, "/login")

	if got := restarted.state.Wallet.Get().Balance; got != 200 {
		t.Fatalf("wallet cleared on logout: %v", got)
	}

	// Signing back in sees the same data.
	if resp, body := restarted.do(t, http.MethodPost, "/login", `{"email":"MIRA@example.com","password":"hunter22"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("login: %d %s", resp.StatusCode, body)
	}
	resp, body = restarted.do(t, http.MethodGet, "/referrals", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "jo@example.com") || !strings.Contains(string(body), `"referralCode":"MIRA`) {
		t.Fatalf("unexpected referrals: %d %s", resp.StatusCode, body)
	}
}
