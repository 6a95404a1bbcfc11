package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafeorders/internal/cache"
	"cafeorders/internal/config"
	"cafeorders/internal/http/handlers"
	applog "cafeorders/internal/log"
	"cafeorders/internal/repos"

	"go.uber.org/zap"
)

func main() {
	// Bootstrap logger until the configured one is built.
	applog.Set(zap.Must(zap.NewProduction()))

	cfg, err := config.Load()
	if err != nil {
		applog.Fatal("config.load", err)
	}

	logger, err := applog.New(cfg.Env, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		applog.Fatal("log.init", err)
	}
	applog.Set(logger)
	defer func() { _ = logger.Sync() }()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		applog.Fatal("db.open", err)
	}
	defer db.Close()

	ctx := context.Background()
	if cfg.SeedDemo {
		if err := repos.Seed(ctx, db, repos.SeedOptions{
			AdminMobile:   cfg.Admin.Mobile,
			AdminName:     cfg.Admin.Name,
			AdminPassword: cfg.Admin.Password,
		}); err != nil {
			applog.Fatal("db.seed", err)
		}
	}

	// Optional catalog cache
	var rdb cache.Client
	if cfg.Redis.Addr != "" {
		client, err := cache.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			logger.Warn("cache.disabled", zap.Error(err))
		} else {
			defer client.Close()
			rdb = client
			logger.Info("cache.enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
		}
	}

	deps := handlers.NewDeps(db, cfg, rdb)
	app := handlers.NewApp(cfg, deps)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("server.shutdown")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	logger.Info("server.listen", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env), zap.String("db", cfg.DBDriver))
	if err := app.Listen(cfg.Addr()); err != nil && !errors.Is(err, context.Canceled) {
		applog.Fatal("server.listen", err)
	}
}
