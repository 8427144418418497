package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"login-backend/internal/audit"
	auditrepo "login-backend/internal/audit/repository"
	blacklistrepo "login-backend/internal/blacklist/repository"
	blacklistsvc "login-backend/internal/blacklist/service"
	"login-backend/internal/config"
	"login-backend/internal/db"
	identityservice "login-backend/internal/identity/service"
	"login-backend/internal/security"
	sessionrepo "login-backend/internal/session/repository"
	sessionsvc "login-backend/internal/session/service"
	"login-backend/internal/server"
	"login-backend/internal/sweep"
	"login-backend/internal/telemetry"
	otelsetup "login-backend/internal/telemetry/otel"
	userrepo "login-backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "login-backend", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	metrics, err := telemetry.NewMetrics(providers.MeterProvider.Meter("login-backend"))
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	codec := security.NewTokenCodec([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	if cfg.RedisAddr != "" {
		log.Printf("blacklist: using redis at %s", cfg.RedisAddr)
	}
	blacklist := blacklistsvc.NewService(
		blacklistrepo.New(database, cfg.RedisAddr, cfg.RedisPassword), codec,
	)

	sessions := sessionsvc.NewManager(
		sessionrepo.NewPostgresRepository(database),
		cfg.RefreshTTL(),
		cfg.MaxSessionsPerUser,
	)

	auditLog := audit.NewLogger(auditrepo.NewPostgresRepository(database))

	authSvc := identityservice.NewAuthService(
		userrepo.NewPostgresRepository(database), hasher, codec, sessions, blacklist, auditLog, metrics,
	)

	router := server.NewRouter(server.Deps{
		Auth:         authSvc,
		Codec:        codec,
		Blacklist:    blacklist,
		HealthPinger: database,
		Metrics:      metrics,
	})

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sweep.NewSweeper(sessions, blacklist, cfg.SweepInterval(), metrics).Run(sweepCtx)

	srv := server.New(cfg.HTTPAddr, router)
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	stopSweep()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
