package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"quickthrift/internal/config"
	"quickthrift/internal/http/handlers"
	applog "quickthrift/internal/log"
	"quickthrift/internal/notify"
	"quickthrift/internal/remote"
	"quickthrift/internal/repos"
	"quickthrift/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	var api services.RemoteAPI
	if cfg.APIBaseURL != "" {
		api = remote.New(cfg.APIBaseURL, cfg.APITimeout)
	} else {
		log.Printf("[remote] API_BASE_URL not set, running local-only")
	}

	deps, err := handlers.NewDeps(store, cfg, api, notify.NewHub(64))
	if err != nil {
		log.Fatal(err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(handlers.AttachUser(deps.Session))
	app.Use(limiter.New(limiter.Config{Max: 120, Expiration: time.Minute}))

	routes(app, deps)

	log.Fatal(app.Listen(":" + cfg.Port))
}

func openStore(cfg config.Config) (repos.Store, func(), error) {
	switch cfg.StoreDriver {
	case "sqlite", "":
		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		return repos.NewSQLiteStore(db), func() { _ = db.Close() }, nil
	case "redis":
		rs, err := repos.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	case "memory":
		return repos.NewMemStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func routes(app *fiber.App, deps *handlers.Deps) {
	api := app.Group("/api")

	// Bag
	api.Get("/bag", deps.CartHandler.View)
	api.Delete("/bag", deps.CartHandler.Clear)
	api.Post("/bag/items", deps.CartHandler.Add)
	api.Patch("/bag/items/:id", deps.CartHandler.Update)
	api.Delete("/bag/items/:id", deps.CartHandler.Remove)

	// Orders
	api.Post("/checkout", handlers.RequireUser(deps.Session), deps.OrderHandler.Checkout)
	api.Get("/orders", handlers.RequireUser(deps.Session), deps.OrderHandler.History)
	api.Get("/orders/:id", handlers.RequireUser(deps.Session), deps.OrderHandler.View)

	// Session (sign-in throttled)
	api.Get("/session", deps.AuthHandler.Current)
	api.Post("/session/signin", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.SignIn)
	api.Post("/session/signup", deps.AuthHandler.SignUp)
	api.Post("/session/signout", deps.AuthHandler.SignOut)

	// Catalogue
	api.Get("/products", deps.ProductHandler.List)
	api.Get("/products/:id", deps.ProductHandler.Detail)
	api.Get("/categories", deps.CategoryHandler.List)
	api.Get("/categories/:name/products", deps.CategoryHandler.Products)
	api.Get("/search", limiter.New(limiter.Config{Max: 20, Expiration: time.Minute}), deps.SearchHandler.Search)

	// Admin
	admin := api.Group("/admin", handlers.RequireAdmin(deps.Session))
	admin.Post("/products", deps.AdminHandler.AddProduct)
	admin.Get("/orders", deps.AdminHandler.Orders)

	// UI bridge
	api.Get("/notices", deps.NoticeHandler.List)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	})
}
