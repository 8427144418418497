// Package server assembles the HTTP router and middleware chain.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"login-backend/internal/health"
	identityhandler "login-backend/internal/identity/handler"
	identityservice "login-backend/internal/identity/service"
	"login-backend/internal/security"
	"login-backend/internal/server/middleware"
	"login-backend/internal/telemetry"
)

// Deps holds the service dependencies of the HTTP surface.
type Deps struct {
	Auth      *identityservice.AuthService
	Codec     *security.TokenCodec
	Blacklist middleware.BlacklistChecker
	// HealthPinger is used for readiness (e.g. *sql.DB). If nil, the
	// health endpoint skips the DB ping.
	HealthPinger health.Pinger
	Metrics      *telemetry.Metrics
}

// NewRouter wires handlers and middleware.
//
// Route → handler mapping:
//   - /api/auth/*   → internal/identity/handler
//   - /api/health   → internal/health
//
// The gate middleware runs on every request; the public paths (register,
// login, refresh, health) pass through it without credentials.
func NewRouter(deps Deps) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.NewGate(deps.Codec, deps.Blacklist, deps.Metrics).Middleware)

	identityhandler.NewAuthHandler(deps.Auth).Register(r)
	r.Handle("/api/health", health.NewHandler(deps.HealthPinger)).Methods(http.MethodGet)
	return r
}

// New returns an http.Server with sane timeouts for the given handler.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
