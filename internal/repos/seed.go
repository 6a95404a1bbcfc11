package repos

import (
	"context"

	"cafeorders/internal/domain"
	applog "cafeorders/internal/log"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SeedOptions controls the demo data written by Seed.
type SeedOptions struct {
	AdminMobile   string
	AdminName     string
	AdminPassword string
}

type seedProduct struct {
	name, desc, price, category string
}

var demoMenu = []seedProduct{
	{"Veg Sandwich", "Fresh vegetables with cheese", "45.00", "Snacks"},
	{"Chicken Burger", "Crispy chicken patty with lettuce", "80.00", "Main"},
	{"Cold Coffee", "Chilled coffee with ice cream", "60.00", "Beverages"},
	{"Samosa", "Spicy potato filling", "15.00", "Snacks"},
	{"Fried Rice", "Veg fried rice with sauces", "70.00", "Main"},
	{"Masala Dosa", "Crispy dosa with potato filling", "55.00", "Main"},
	{"Tea", "Hot masala chai", "15.00", "Beverages"},
	{"Pani Puri", "6 pieces of crispy puri with spicy water", "25.00", "Snacks"},
}

// Seed inserts the demo menu when the catalog is empty and ensures the default
// admin exists. Safe to run on every start.
func Seed(ctx context.Context, db *sqlx.DB, opt SeedOptions) error {
	prods := NewProductRepo(db)
	n, err := prods.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		applog.L().Info("seed.products", zap.Int("count", len(demoMenu)))
		for _, p := range demoMenu {
			desc := p.desc
			if _, err := prods.Create(ctx, domain.Product{
				Name:        p.name,
				Description: &desc,
				Price:       decimal.RequireFromString(p.price),
				Category:    p.category,
				InStock:     true,
			}); err != nil {
				return err
			}
		}
	}

	if opt.AdminMobile == "" {
		return nil
	}
	users := NewUserRepo(db)
	if _, err := users.AdminByMobile(ctx, opt.AdminMobile); err == nil {
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(opt.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	applog.L().Info("seed.admin", zap.String("mobile", opt.AdminMobile))
	return users.CreateAdmin(ctx, opt.AdminMobile, opt.AdminName, string(h))
}
