package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"same-inventory/internal/config"
	"same-inventory/internal/infra"
	"same-inventory/internal/repository"
	"same-inventory/internal/router"
	"same-inventory/internal/ws"
	"same-inventory/pkg/database"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogger(cfg)

	// 2. Setup Database
	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Redis is optional
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect redis")
		}
		defer rdb.Close()
		log.Info().Msg("redis connected, scan guard shared between instances")
	}

	// 4. Setup WebSocket Hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	app := router.New(cfg, db, rdb, hub, infra.NewMailer(cfg))

	// 5. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + strconv.Itoa(cfg.Port)); err != nil {
			log.Panic().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	stop()
	if err := app.Shutdown(); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info().Msg("server exited")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
