package main

import (
	"context"
	"errors"
	"fmt"

	"dreamsite/config"
	"dreamsite/internal/gateway"
	"dreamsite/pkg/storage/memory"
	"dreamsite/pkg/storage/postgres"
	"dreamsite/pkg/storage/redis"
	"dreamsite/pkg/supabase"

	"go.uber.org/zap"
)

// backend is the wired gateway driver plus whatever it must release on exit.
type backend struct {
	Factory  gateway.Factory
	Postgres *postgres.PostgresClient // set for the postgres driver only
	closers  []func() error
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// resolveConfig loads config and, in prod, fills secrets from SSM.
func resolveConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if cfg.Environment != "prod" {
		return cfg, nil
	}

	get, err := config.SSMParameterGetter(ctx)
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveSecrets(ctx, get); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func openBackend(cfg *config.Config, log *zap.Logger) (*backend, error) {
	b := &backend{}

	var sessions gateway.SessionStorage = memory.NewSessionStore()
	if cfg.Redis.URL != "" {
		rdb, err := redis.NewClient(cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, rdb.Close)
		sessions = redis.NewSessionStore(rdb, cfg.Gateway.SessionTTL)
		log.Info("session storage", zap.String("backend", "redis"))
	}

	switch cfg.Gateway.Driver {
	case "supabase":
		api := supabase.NewClient(cfg.Gateway.Supabase.URL, cfg.Gateway.Supabase.AnonKey, cfg.Gateway.Timeout)
		b.Factory = supabase.NewFactory(api, sessions)

	case "postgres":
		if cfg.Gateway.JWTSecret == "" {
			_ = b.Close()
			return nil, fmt.Errorf("gateway.jwt_secret is required for the postgres driver")
		}
		db, err := postgres.InitializeAndMigrate(cfg.Postgres, true)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.closers = append(b.closers, db.Close)
		b.Postgres = db
		tokens := postgres.NewSessions([]byte(cfg.Gateway.JWTSecret), cfg.Gateway.SessionTTL)
		b.Factory = postgres.NewFactory(db, tokens, sessions)

	default:
		store := memory.NewStore()
		if cfg.Gateway.Memory.AdminEmail != "" {
			if err := store.AddAdmin(cfg.Gateway.Memory.AdminEmail, cfg.Gateway.Memory.AdminPassword); err != nil {
				_ = b.Close()
				return nil, err
			}
		} else {
			log.Warn("memory driver has no admin account; moderation login will always fail")
		}
		b.Factory = memory.NewFactory(store, sessions)
	}

	log.Info("gateway ready", zap.String("driver", cfg.Gateway.Driver))
	return b, nil
}
