// seed inserts a development user for local testing.
// Idempotent: skips the insert if the dev user already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"login-backend/internal/config"
	"login-backend/internal/db"
	"login-backend/internal/security"
	userdomain "login-backend/internal/user/domain"
	userrepo "login-backend/internal/user/repository"
)

const (
	devUsername = "dev"
	devEmail    = "dev@example.com"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Env == "production" {
		fmt.Fprintln(os.Stderr, "seed: refusing to run with APP_ENV=production")
		os.Exit(1)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(database)

	exists, err := users.ExistsByUsername(ctx, devUsername)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if exists {
		log.Printf("seed: user %q already exists, nothing to do", devUsername)
		return
	}

	hash, err := security.NewHasher(cfg.BcryptCost).Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}
	now := time.Now().UTC()
	u := &userdomain.User{
		ID:           uuid.New().String(),
		Username:     devUsername,
		Email:        devEmail,
		PasswordHash: hash,
		Role:         userdomain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("seed: create user: %v", err)
	}
	log.Printf("seed: created user %q (password %q)", devUsername, devPassword)
}
