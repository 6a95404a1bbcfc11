package handlers

import (
	"cafeorders/internal/cache"
	"cafeorders/internal/config"
	"cafeorders/internal/repos"
	"cafeorders/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	DB        *sqlx.DB
	AuthSvc   *services.AuthService
	Auth      *AuthHandler
	Products  *ProductHandler
	Orders    *OrderHandler
	Analytics *AnalyticsHandler
}

// NewDeps wires repositories, services and handlers. A nil rdb serves the
// catalog straight from the database.
func NewDeps(db *sqlx.DB, cfg config.Config, rdb cache.Client) *Deps {
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	userRepo := repos.NewUserRepo(db)

	var store services.ProductStore = prodRepo
	if rdb != nil {
		store = cache.NewProducts(prodRepo, rdb, cfg.Redis.TTL)
	}

	authSvc := services.NewAuthService(userRepo, cfg.OTPTTL, cfg.Session)
	return &Deps{
		DB:        db,
		AuthSvc:   authSvc,
		Auth:      &AuthHandler{Auth: authSvc, EchoOTP: !cfg.Production(), SecureCookie: cfg.Production()},
		Products:  &ProductHandler{Catalog: services.NewCatalogService(store)},
		Orders:    &OrderHandler{Orders: services.NewOrderService(orderRepo)},
		Analytics: &AnalyticsHandler{Analytics: services.NewAnalyticsService(orderRepo, cfg.Location())},
	}
}
