// sweeper runs the expired-row cleanup loop as a standalone process, for
// deployments where the API server should not own background work.
// HTTP_ADDR is required by config but unused here (e.g. set to :0).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"login-backend/internal/blacklist/repository"
	blacklistsvc "login-backend/internal/blacklist/service"
	"login-backend/internal/config"
	"login-backend/internal/db"
	"login-backend/internal/security"
	sessionrepo "login-backend/internal/session/repository"
	sessionsvc "login-backend/internal/session/service"
	"login-backend/internal/sweep"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	codec := security.NewTokenCodec([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL())
	sessions := sessionsvc.NewManager(
		sessionrepo.NewPostgresRepository(database),
		cfg.RefreshTTL(),
		cfg.MaxSessionsPerUser,
	)
	if cfg.RedisAddr != "" {
		log.Printf("blacklist: using redis at %s", cfg.RedisAddr)
	}
	blacklist := blacklistsvc.NewService(
		repository.New(database, cfg.RedisAddr, cfg.RedisPassword), codec,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("sweeper: shutting down...")
		cancel()
	}()

	log.Printf("sweeper: running every %s", cfg.SweepInterval())
	sweep.NewSweeper(sessions, blacklist, cfg.SweepInterval(), nil).Run(ctx)
	log.Println("sweeper: stopped")
}
