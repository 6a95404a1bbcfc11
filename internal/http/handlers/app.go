package handlers

import (
	"context"
	"strings"
	"time"

	"cafeorders/internal/config"
	applog "cafeorders/internal/log"
	"cafeorders/internal/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// NewApp builds the fiber app with middleware and every route.
func NewApp(cfg config.Config, d *Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "cafeorders",
		BodyLimit:    1 << 20, // 1 MiB
		ErrorHandler: ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format:        "${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		Output:        applog.AccessWriter(),
		DisableColors: true,
	}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS,
		AllowCredentials: cfg.CORS != "*",
		AllowHeaders:     "Origin, Content-Type, Accept, X-CSRF-Token",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        max(cfg.RateLimit, 1),
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "rate limit exceeded, retry soon"})
		},
	}))
	if cfg.CSRF {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "header:X-CSRF-Token",
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			CookieSecure:   cfg.Production(),
			Expiration:     time.Hour,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				applog.Security(c, "csrf.fail", nil)
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Security check failed. Please refresh and try again."})
			},
		}))
	}
	app.Use(LoadUser(d.AuthSvc))

	// ---------- Health & metrics ----------
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := d.DB.PingContext(ctx); err != nil {
			applog.Error(c, "health.db", err, nil)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Auth routes (login throttled)
	loginLimiter := limiter.New(limiter.Config{
		Max:        max(cfg.LoginLimit, 1),
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "Too many attempts. Please try again later."})
		},
	})
	auth := api.Group("/auth")
	auth.Post("/send-otp", loginLimiter, d.Auth.SendOTP)
	auth.Post("/verify-otp", loginLimiter, d.Auth.VerifyOTP)
	auth.Post("/admin-login", loginLimiter, d.Auth.AdminLogin)
	auth.Get("/me", d.Auth.Me)
	auth.Post("/logout", d.Auth.Logout)
	auth.Post("/update-profile", RequireUser(), d.Auth.UpdateProfile)
	auth.Post("/change-password", RequireUser(), d.Auth.ChangePassword)

	// Catalog
	api.Get("/products", d.Products.List)
	api.Get("/products/:id", d.Products.Get)
	api.Post("/products", RequireAdmin(), d.Products.Create)
	api.Put("/products/:id", RequireAdmin(), d.Products.Update)
	api.Delete("/products/:id", RequireAdmin(), d.Products.Delete)

	// Orders
	orders := api.Group("/orders", RequireUser())
	orders.Get("/", d.Orders.List)
	orders.Post("/", d.Orders.Create)
	orders.Get("/:id", d.Orders.Get)
	orders.Get("/:id/qr", d.Orders.QR)
	orders.Patch("/:id", RequireAdmin(), d.Orders.UpdateStatus)
	orders.Patch("/:id/status", RequireAdmin(), d.Orders.UpdateStatus)

	// Analytics
	analytics := api.Group("/analytics", RequireAdmin())
	analytics.Get("/", d.Analytics.Report)
	analytics.Get("/summary", d.Analytics.Summary)

	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
		}
		return c.SendStatus(fiber.StatusNotFound)
	})
	return app
}
