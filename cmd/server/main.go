package main

import (
	"context"

	"github.com/GraceTang323/LinkedUp/internal/app"
	"github.com/GraceTang323/LinkedUp/internal/cache"
	"github.com/GraceTang323/LinkedUp/internal/config"
	"github.com/GraceTang323/LinkedUp/internal/db"
	"github.com/GraceTang323/LinkedUp/internal/logger"
	"github.com/GraceTang323/LinkedUp/internal/server"
	"github.com/GraceTang323/LinkedUp/internal/service/chatroom"
	"github.com/GraceTang323/LinkedUp/internal/service/feed"
	"github.com/GraceTang323/LinkedUp/internal/service/linkup"
	"github.com/GraceTang323/LinkedUp/internal/service/profile"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject logger into app context
	appCtx := app.New(database, redisCache, log)

	registrars := []server.Registrar{
		linkup.NewService(appCtx),
		profile.NewService(appCtx),
		feed.NewService(appCtx),
		chatroom.NewService(appCtx),
	}

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
