// Package bootstrap wires the process-level dependencies shared by the server
// and the command line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"playhub/internal/auth"
	"playhub/internal/cache"
	"playhub/internal/config"
	"playhub/internal/database"
	"playhub/internal/middleware"
	"playhub/internal/repository"
	"playhub/internal/seed"
	"playhub/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCatalog applies the embedded starter catalog after the schema is ready.
	SeedCatalog bool
}

// InitRuntime connects to the database and Redis, creates the configured admin
// account and optionally seeds the starter catalog. The Redis client is nil when
// Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if err := EnsureConfiguredAdmin(ctx, cfg, db, rdb); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	if opts.SeedCatalog {
		catalog, err := seed.DefaultCatalog()
		if err != nil {
			return nil, nil, err
		}
		if err := seed.ApplyCatalog(db.WithContext(ctx), catalog); err != nil {
			return nil, nil, fmt.Errorf("failed to seed starter catalog: %w", err)
		}
	}

	return db, rdb, nil
}

// NewAdminService builds the admin account service the same way the server does.
func NewAdminService(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*service.AdminService, error) {
	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	admins := repository.NewAdminRepository(db)
	return service.NewAdminService(
		admins,
		tokens,
		auth.NewSessionStore(cfg.SessionStore, rdb, admins),
		cfg.AdminTokenTTL(),
	), nil
}

// EnsureConfiguredAdmin creates the ADMIN_USERNAME account when both
// ADMIN_USERNAME and ADMIN_PASSWORD are set. An existing account is left as is.
func EnsureConfiguredAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB, rdb *redis.Client) error {
	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" || cfg.AdminPassword == "" {
		return nil
	}

	admins, err := NewAdminService(cfg, db, rdb)
	if err != nil {
		return err
	}
	created, err := admins.EnsureAdmin(ctx, service.AdminCredentials{Username: username, Password: cfg.AdminPassword})
	if err != nil {
		return err
	}
	if !created {
		middleware.Logger.Debug("Configured admin already exists", slog.String("username", username))
	}
	return nil
}
