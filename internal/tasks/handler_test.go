package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/creatorhub/creatorhub/internal/logging"
	"github.com/creatorhub/creatorhub/internal/notification"
	"github.com/creatorhub/creatorhub/internal/state"
	"github.com/creatorhub/creatorhub/internal/storage"
	"github.com/creatorhub/creatorhub/internal/wallet"
)

type fixture struct {
	app    *fiber.App
	tasks  *state.Collection[[]Task]
	wallet *state.Collection[wallet.Wallet]
	store  storage.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	logger := logging.Discard()
	store := storage.NewMemory()
	tasksCol := state.Hydrate(ctx, store, storage.KeyTasks, []Task{}, logger)
	walletCol := state.Hydrate(ctx, store, storage.KeyWallet, wallet.Zero(), logger)

	h := NewHandler(tasksCol, walletCol, notification.NewLoggerNotifier(logger), logger)
	app := fiber.New()
	app.Get("/tasks", h.List)
	app.Put("/tasks", h.Replace)
	app.Post("/tasks", h.Create)
	app.Delete("/tasks/:id", h.Delete)
	app.Post("/tasks/:id/complete", h.Complete)
	return fixture{app: app, tasks: tasksCol, wallet: walletCol, store: store}
}

func (f fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestCreateCompleteCreditsWallet(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/tasks", `{"title":"Product review","platform":"youtube","reward":250}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", resp.StatusCode)
	}
	var created Task
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp = f.do(t, http.MethodPost, "/tasks/"+created.ID+"/complete", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d", resp.StatusCode)
	}
	var done completeResponse
	if err := json.NewDecoder(resp.Body).Decode(&done); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if done.Task.Status != StatusCompleted || done.Balance != 250 {
		t.Fatalf("unexpected completion: %+v", done)
	}

	w := f.wallet.Get()
	if len(w.Earnings) != 1 || w.Earnings[0].TaskID != created.ID {
		t.Fatalf("expected earning for task, got %+v", w.Earnings)
	}

	// A fresh hydrate sees both writes.
	again := state.Hydrate(context.Background(), f.store, storage.KeyWallet, wallet.Zero(), logging.Discard())
	if again.Get().Balance != 250 {
		t.Fatalf("expected persisted balance 250, got %v", again.Get().Balance)
	}

	resp = f.do(t, http.MethodPost, "/tasks/"+created.ID+"/complete", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second complete: expected 409, got %d", resp.StatusCode)
	}
	if f.wallet.Get().Balance != 250 {
		t.Fatalf("reward credited twice: %v", f.wallet.Get().Balance)
	}
}

func TestListReplaceDelete(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/tasks", "")
	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Tasks == nil || len(list.Tasks) != 0 {
		t.Fatalf("expected empty list, got %+v", list.Tasks)
	}

	body := `[{"id":"x1","title":"Story","status":"pending","createdAt":"2024-01-01T00:00:00Z"},
	          {"id":"x2","title":"Live","status":"completed","createdAt":"2024-01-02T00:00:00Z"}]`
	resp = f.do(t, http.MethodPut, "/tasks", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("replace: expected 200, got %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Counts != (Counts{Total: 2, Pending: 1, Completed: 1}) {
		t.Fatalf("unexpected counts: %+v", list.Counts)
	}

	if resp := f.do(t, http.MethodPut, "/tasks", `[{"id":"x1","status":"bogus"}]`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid replace: expected 400, got %d", resp.StatusCode)
	}
	if len(f.tasks.Get()) != 2 {
		t.Fatalf("invalid replace changed state: %+v", f.tasks.Get())
	}

	if resp := f.do(t, http.MethodDelete, "/tasks/x1", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodDelete, "/tasks/x1", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", resp.StatusCode)
	}
	if got := f.tasks.Get(); len(got) != 1 || got[0].ID != "x2" {
		t.Fatalf("unexpected tasks after delete: %+v", got)
	}
}

// status sends a request without a deadline and reports the status code.
// Safe to call from several goroutines.
func (f fixture) status(method, path, body string) (int, error) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.app.Test(req, -1)
	if err != nil {
		return 0, err
	}
	return resp.StatusCode, nil
}

func TestParallelCompleteCreditsOnce(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodPost, "/tasks", `{"title":"Sponsored reel","reward":120}`)
	var created Task
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	const callers = 16
	codes := make(chan int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := f.status(http.MethodPost, "/tasks/"+created.ID+"/complete", "")
			if err != nil {
				t.Errorf("complete: %v", err)
				return
			}
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)

	ok, conflict := 0, 0
	for code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if ok != 1 || conflict != callers-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", callers-1, ok, conflict)
	}

	w := f.wallet.Get()
	if w.Balance != 120 || len(w.Earnings) != 1 {
		t.Fatalf("expected a single 120 credit, got balance %v with %d earnings", w.Balance, len(w.Earnings))
	}
	again := state.Hydrate(context.Background(), f.store, storage.KeyWallet, wallet.Zero(), logging.Discard())
	if again.Get().Balance != 120 {
		t.Fatalf("expected persisted balance 120, got %v", again.Get().Balance)
	}
}

func TestParallelCreateKeepsEveryTask(t *testing.T) {
	f := newFixture(t)

	const callers = 200
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := f.status(http.MethodPost, "/tasks", `{"title":"Short","reward":5}`)
			if err != nil || code != http.StatusCreated {
				t.Errorf("create: status %d, err %v", code, err)
			}
		}()
	}
	wg.Wait()

	if got := len(f.tasks.Get()); got != callers {
		t.Fatalf("expected %d tasks, got %d", callers, got)
	}
	again := state.Hydrate(context.Background(), f.store, storage.KeyTasks, []Task{}, logging.Discard())
	if got := len(again.Get()); got != callers {
		t.Fatalf("expected %d persisted tasks, got %d", callers, got)
	}
}

func TestParallelCompleteDistinctTasksSumsRewards(t *testing.T) {
	f := newFixture(t)

	const n = 40
	seed := make([]Task, 0, n)
	for i := 0; i < n; i++ {
		seed = append(seed, Task{ID: "t" + strconv.Itoa(i), Title: "Clip", Status: StatusPending, Reward: 10})
	}
	if err := f.tasks.Replace(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var wg sync.WaitGroup
	for _, task := range seed {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			code, err := f.status(http.MethodPost, "/tasks/"+id+"/complete", "")
			if err != nil || code != http.StatusOK {
				t.Errorf("complete %s: status %d, err %v", id, code, err)
			}
		}(task.ID)
	}
	wg.Wait()

	w := f.wallet.Get()
	if w.Balance != 10*n || len(w.Earnings) != n {
		t.Fatalf("expected balance %d over %d earnings, got %v over %d", 10*n, n, w.Balance, len(w.Earnings))
	}
	if counts := Count(f.tasks.Get()); counts.Completed != n {
		t.Fatalf("expected %d completed, got %+v", n, counts)
	}
}
