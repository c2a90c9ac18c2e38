package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"shelfpos/internal/config"
	"shelfpos/internal/guard"
	"shelfpos/internal/http/handlers"
	applog "shelfpos/internal/log"
	"shelfpos/internal/metrics"
	"shelfpos/internal/port"
	"shelfpos/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if cfg.OperatorEmail != "" {
		seed := repos.Seed{Email: cfg.OperatorEmail, Name: cfg.OperatorName, Password: cfg.OperatorPassword}
		if err := repos.SeedOperator(db, seed); err != nil {
			log.Fatal(err)
		}
	}

	var g port.Guard = guard.NewMemory()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		g = guard.NewRedis(client)
		log.Printf("[guard] redis %s", cfg.RedisAddr)
	}

	met := metrics.New()
	deps := handlers.NewDeps(db, cfg, g, met)
	app := handlers.NewApp(deps, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go deps.Mirror.Run(ctx, cfg.MirrorRefresh)
	go func() {
		<-ctx.Done()
		applog.Info(nil, "server.shutdown", nil)
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
