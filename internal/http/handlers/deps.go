package handlers

import (
	"fmt"

	"quickthrift/internal/config"
	"quickthrift/internal/domain"
	applog "quickthrift/internal/log"
	"quickthrift/internal/notify"
	"quickthrift/internal/repos"
	"quickthrift/internal/services"
)

// Deps is the composition root: one client context, its managers, and the
// handlers that expose them.
type Deps struct {
	Cart    *services.CartManager
	Session *services.SessionManager
	Catalog *services.CatalogService
	Orders  *services.OrderService
	Hub     *notify.Hub

	AuthHandler     *AuthHandler
	CartHandler     *CartHandler
	ProductHandler  *ProductHandler
	CategoryHandler *CategoryHandler
	SearchHandler   *SearchHandler
	OrderHandler    *OrderHandler
	AdminHandler    *AdminHandler
	NoticeHandler   *NoticeHandler
}

// NewDeps builds every manager over store, seeds the fallback accounts and
// demo catalogue, and restores the persisted bag and session. api may be nil
// for local-only mode.
func NewDeps(store repos.Store, cfg config.Config, api services.RemoteAPI, hub *notify.Hub) (*Deps, error) {
	if hub == nil {
		hub = notify.NewHub(64)
	}
	cartRepo := repos.NewCartRepo(store)
	sessRepo := repos.NewSessionRepo(store)
	userRepo := repos.NewUserRepo(store)
	prodRepo := repos.NewProductRepo(store)
	orderRepo := repos.NewOrderRepo(store)

	accounts := []repos.SeedAccount{repos.DemoAccount}
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		accounts = append(accounts, repos.SeedAccount{
			ID: "u-admin", Username: "admin", Email: cfg.AdminEmail, Password: cfg.AdminPassword, Role: domain.RoleAdmin,
		})
	}

	sess := services.NewSessionManager(sessRepo, userRepo, api, hub, services.SessionOptions{
		Timeout:     cfg.APITimeout,
		TokenSecret: []byte(cfg.TokenSecret),
		TokenTTL:    cfg.SessionTTL,
		BcryptCost:  cfg.BcryptCost,
		Accounts:    accounts,
	})
	if err := sess.EnsureAccounts(); err != nil {
		return nil, fmt.Errorf("seed accounts: %w", err)
	}
	if err := prodRepo.SeedIfEmpty(); err != nil {
		applog.Warn("catalog.seed.fail", err, nil)
	}
	sess.Restore()

	cart := services.NewCartManager(cartRepo, hub)
	if err := cart.Load(); err != nil {
		return nil, err
	}
	catalog := services.NewCatalogService(prodRepo, api, sess, hub, cfg.APITimeout)
	orders := services.NewOrderService(cart, sess, orderRepo, hub)

	return &Deps{
		Cart:    cart,
		Session: sess,
		Catalog: catalog,
		Orders:  orders,
		Hub:     hub,

		AuthHandler:     &AuthHandler{Session: sess},
		CartHandler:     &CartHandler{Cart: cart, Catalog: catalog},
		ProductHandler:  &ProductHandler{Catalog: catalog},
		CategoryHandler: &CategoryHandler{Catalog: catalog},
		SearchHandler:   &SearchHandler{Catalog: catalog},
		OrderHandler:    &OrderHandler{Orders: orders},
		AdminHandler:    &AdminHandler{Catalog: catalog, OrderRepo: orderRepo},
		NoticeHandler:   &NoticeHandler{Hub: hub},
	}, nil
}
