package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"golang.org/x/crypto/bcrypt"

	"quickthrift/internal/config"
	"quickthrift/internal/http/handlers"
	"quickthrift/internal/notify"
	"quickthrift/internal/repos"
)

func testConfig() config.Config {
	return config.Config{
		APITimeout:    time.Second,
		TokenSecret:   "test-secret",
		SessionTTL:    time.Hour,
		BcryptCost:    bcrypt.MinCost,
		AdminEmail:    "admin@quickthrift.com",
		AdminPassword: "admin123",
	}
}

// newApp wires the real handlers over an in-memory store in local-only mode.
func newApp(t *testing.T) (*fiber.App, *handlers.Deps) {
	t.Helper()
	deps, err := handlers.NewDeps(repos.NewMemStore(), testConfig(), nil, notify.NewHub(32))
	if err != nil {
		t.Fatalf("deps: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB
	app.Use(requestid.New())
	app.Use(handlers.AttachUser(deps.Session))

	api := app.Group("/api")
	api.Get("/bag", deps.CartHandler.View)
	api.Delete("/bag", deps.CartHandler.Clear)
	api.Post("/bag/items", deps.CartHandler.Add)
	api.Patch("/bag/items/:id", deps.CartHandler.Update)
	api.Delete("/bag/items/:id", deps.CartHandler.Remove)
	api.Post("/checkout", handlers.RequireUser(deps.Session), deps.OrderHandler.Checkout)
	api.Get("/orders", handlers.RequireUser(deps.Session), deps.OrderHandler.History)
	api.Get("/orders/:id", handlers.RequireUser(deps.Session), deps.OrderHandler.View)
	api.Get("/session", deps.AuthHandler.Current)
	api.Post("/session/signin", limiter.New(limiter.Config{
		Max:        5,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.SignIn)
	api.Post("/session/signup", deps.AuthHandler.SignUp)
	api.Post("/session/signout", deps.AuthHandler.SignOut)
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/categories", deps.CategoryHandler.List)
	api.Get("/categories/:name/products", deps.CategoryHandler.Products)
	api.Get("/search", limiter.New(limiter.Config{Max: 3, Expiration: time.Minute}), deps.SearchHandler.Search)
	admin := api.Group("/admin", handlers.RequireAdmin(deps.Session))
	admin.Post("/products", deps.AdminHandler.AddProduct)
	admin.Get("/orders", deps.AdminHandler.Orders)
	api.Get("/notices", deps.NoticeHandler.List)
	return app, deps
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func signIn(t *testing.T, app *fiber.App, email, password string) {
	t.Helper()
	resp, body := do(t, app, "POST", "/api/session/signin", fiber.Map{"email": email, "password": password})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign in %s: %d %v", email, resp.StatusCode, body)
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

// captureLogs swaps the standard logger output for the duration of fn.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0) // remove timestamps to make JSON parseable
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func findLog(entries []logEntry, action string) *logEntry {
	for i := range entries {
		if entries[i].Action == action {
			return &entries[i]
		}
	}
	return nil
}
